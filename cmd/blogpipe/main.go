package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	"github.com/TobiSchelling/blogpipe/internal/collection"
	"github.com/TobiSchelling/blogpipe/internal/config"
	"github.com/TobiSchelling/blogpipe/internal/content"
	"github.com/TobiSchelling/blogpipe/internal/database"
	"github.com/TobiSchelling/blogpipe/internal/extract"
	"github.com/TobiSchelling/blogpipe/internal/logger"
	"github.com/TobiSchelling/blogpipe/internal/pipeline"
	"github.com/TobiSchelling/blogpipe/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

// errDiagnostics is returned by `check --strict` when any article was skipped.
var errDiagnostics = errors.New("content has diagnostics")

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "blogpipe",
	Short:        "Front-matter content pipeline for the studio blog",
	Long:         "blogpipe validates Markdown/MDX articles, publishes them as a collection, and serves the blog.",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			logger.Init(logger.Config{Level: "info", Pretty: true})
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger.Init(logger.Config{Level: level, Pretty: cfg.Logging.Pretty})
		logger.Debug().Str("config", path).Str("content", cfg.Content.Dir).Msg("config loaded")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("blogpipe", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/blogpipe/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point content.dir at your articles.")
		return nil
	},
}

// --- check command ---

var (
	strict bool
	dryRun bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the pipeline and report articles that would be skipped",
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe := pipeline.New(cfg)

		var (
			result *pipeline.Result
			err    error
		)
		if dryRun {
			result, err = pipe.DryRun()
		} else {
			result, err = pipe.Run(cmd.Context())
		}
		printSteps(result)
		if err != nil {
			return err
		}

		if len(result.Diagnostics) == 0 {
			fmt.Println("\nAll articles are valid.")
			return nil
		}
		fmt.Printf("\n%d article(s) skipped:\n", len(result.Diagnostics))
		for _, d := range result.Diagnostics {
			fmt.Printf("  %s\n    [%s] %v\n", d.Path, d.Kind, d.Err)
		}
		if strict {
			return errDiagnostics
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any article is skipped")
	checkCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only discover files, do not parse them")
}

func printSteps(result *pipeline.Result) {
	if result == nil {
		return
	}
	for i, step := range result.Steps {
		fmt.Printf("Step %d/%d: %s\n", i+1, len(result.Steps), step.Name)
		if step.Err != nil {
			fmt.Printf("  Error: %v\n", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}
}

// --- list command ---

var (
	listCategory string
	listSearch   string
	listFeatured bool
	listSort     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List published articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		coll, err := pipeline.New(cfg).Build(cmd.Context())
		if err != nil {
			return err
		}

		records := coll.All()
		if listCategory != "" {
			records = collection.ByCategory(records, listCategory)
		}
		if listFeatured {
			records = collection.Featured(records)
		}
		records = collection.Search(records, listSearch)

		switch listSort {
		case "":
		case "date":
			records = collection.SortByDate(records, false)
		case "date-asc":
			records = collection.SortByDate(records, true)
		default:
			return fmt.Errorf("unknown sort %q (want date or date-asc)", listSort)
		}

		if len(records) == 0 {
			fmt.Println("No articles match.")
			return nil
		}
		for _, r := range records {
			star := " "
			if r.Featured {
				star = "*"
			}
			fmt.Printf("%s %s  %-40s  %s\n", star, r.Date, r.Slug, r.Title)
			fmt.Printf("    %s · %s\n", r.Category, r.Author)
		}
		fmt.Printf("\n%d of %d article(s)\n", len(records), coll.Len())
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listCategory, "category", "", "Only articles in this category")
	listCmd.Flags().StringVar(&listSearch, "search", "", "Case-insensitive match on title or description")
	listCmd.Flags().BoolVar(&listFeatured, "featured", false, "Only featured articles")
	listCmd.Flags().StringVar(&listSort, "sort", "", "Sort order: date (newest first) or date-asc")
}

// --- show command ---

var showHTML bool

var showCmd = &cobra.Command{
	Use:   "show [slug]",
	Short: "Show one article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coll, err := pipeline.New(cfg).Build(cmd.Context())
		if err != nil {
			return err
		}
		rec, ok := coll.FindBySlug(args[0])
		if !ok {
			return fmt.Errorf("article %q not found", args[0])
		}

		if showHTML {
			html, err := rec.Body.HTML(server.Components())
			if err != nil {
				return err
			}
			fmt.Print(html)
			return nil
		}

		printRecord(rec)
		related := collection.Related(coll.All(), rec, cfg.Site.RelatedLimit)
		if len(related) > 0 {
			fmt.Println("\nRelated:")
			for _, r := range related {
				fmt.Printf("  %s  %s\n", r.Slug, r.Title)
			}
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showHTML, "html", false, "Print the rendered body HTML")
}

func printRecord(r content.Record) {
	fmt.Println(r.Title)
	fmt.Println(strings.Repeat("=", len(r.Title)))
	fmt.Printf("Slug:     %s\n", r.Slug)
	fmt.Printf("URL:      %s\n", r.URL)
	fmt.Printf("Date:     %s\n", r.Date)
	fmt.Printf("Author:   %s\n", r.Author)
	fmt.Printf("Category: %s\n", r.Category)
	if len(r.Tags) > 0 {
		fmt.Printf("Tags:     %s\n", strings.Join(r.Tags, ", "))
	}
	fmt.Printf("Image:    %s\n", r.ImageOr(cfg.Site.PlaceholderImage))
	fmt.Printf("Featured: %t\n", r.Featured)
	fmt.Printf("Reading:  %d min (%d words)\n", r.Body.ReadingTime(), r.Body.WordCount())
	if hs := r.Body.Headings(); len(hs) > 0 {
		fmt.Println("\nContents:")
		for _, h := range hs {
			fmt.Printf("%s- %s\n", strings.Repeat("  ", max(h.Level-2, 0)+1), h.Text)
		}
	}
	fmt.Printf("\n%s\n", r.Description)
}

// --- index command ---

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Run the pipeline and write the SQLite search index",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ex := extract.New(cfg.Site.BaseURL, server.Components())
		pipe := pipeline.New(cfg, pipeline.WithIndex(db, ex), pipeline.WithRecorder(db))
		result, err := pipe.Run(cmd.Context())
		printSteps(result)
		if err != nil {
			return err
		}
		if err := result.Err(); err != nil {
			return err
		}
		fmt.Printf("\nIndex written to %s\n", db.Path())
		return nil
	},
}

// --- search command ---

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search the article index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		articles, err := db.SearchArticles(args[0], searchLimit)
		if err != nil {
			return err
		}
		if len(articles) == 0 {
			fmt.Println("No matches. Run 'blogpipe index' if the index is stale.")
			return nil
		}
		for _, a := range articles {
			fmt.Printf("%s  %-40s  %s\n", a.Date, a.Slug, a.Title)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum number of results")
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics and the last build",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Content: %s\n", cfg.Content.Dir)
		fmt.Printf("Index:   %s\n\n", db.Path())
		fmt.Println("Articles:")
		fmt.Printf("  Indexed: %d\n", stats.Articles)
		fmt.Printf("  Featured: %d\n", stats.Featured)
		fmt.Printf("  Categories: %d\n", stats.Categories)
		fmt.Printf("  Words: %d\n", stats.Words)
		fmt.Printf("\nBuilds recorded: %d\n", stats.Builds)

		last, err := db.GetLastBuild()
		if err != nil {
			return err
		}
		if last == nil {
			fmt.Println("No builds yet. Run 'blogpipe index'.")
			return nil
		}
		fmt.Printf("\nLast build #%d at %s\n", last.ID, last.FinishedAt)
		fmt.Printf("  Discovered: %d, published: %d, skipped: %d\n", last.Discovered, last.Published, last.Skipped)

		diags, err := db.GetBuildDiagnostics(last.ID)
		if err != nil {
			return err
		}
		for _, d := range diags {
			fmt.Printf("  [%s] %s: %s\n", d.Kind, d.Path, d.Message)
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := collection.NewStore(ctx, pipeline.New(cfg).Build)
		if err != nil {
			return err
		}
		go reloadOnHangup(ctx, store)

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop, send SIGHUP to rebuild")
		return server.Serve(ctx, store, cfg.Site, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// reloadOnHangup rebuilds the collection on every SIGHUP until ctx ends.
func reloadOnHangup(ctx context.Context, store *collection.Store) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			coll, err := store.Reload(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("rebuild failed, keeping previous collection")
				continue
			}
			logger.Info().Int("articles", coll.Len()).Msg("collection rebuilt")
		}
	}
}

func openDB() (*database.DB, error) {
	return database.Open(cfg.IndexPath())
}
