// Package pipeline runs discover, parse and publish over the content
// directory and optionally persists the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/blogpipe/internal/collection"
	"github.com/TobiSchelling/blogpipe/internal/config"
	"github.com/TobiSchelling/blogpipe/internal/content"
	"github.com/TobiSchelling/blogpipe/internal/database"
	"github.com/TobiSchelling/blogpipe/internal/extract"
	"github.com/TobiSchelling/blogpipe/internal/logger"
	"github.com/TobiSchelling/blogpipe/internal/markup"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps       []StepResult
	Collection  *collection.Collection
	Diagnostics []content.Diagnostic
	Discovered  int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Err joins the errors of steps that failed after publishing.
func (r *Result) Err() error {
	var errs []error
	for _, s := range r.Steps {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, s.Err))
		}
	}
	return errors.Join(errs...)
}

// Recorder persists build reports. *database.DB implements it.
type Recorder interface {
	RecordBuild(b database.Build, diags []database.BuildDiagnostic) (int64, error)
}

// Indexer stores the searchable article set. *database.DB implements it.
type Indexer interface {
	ReplaceArticles(articles []database.Article) error
}

// Pipeline orchestrates discover, parse and publish.
type Pipeline struct {
	root      string
	patterns  []string
	prefix    string
	workers   int
	recorder  Recorder
	indexer   Indexer
	extractor *extract.Extractor
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecorder stores a build report after every run.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithIndex writes the published articles and their text to ix after every run.
func WithIndex(ix Indexer, ex *extract.Extractor) Option {
	return func(p *Pipeline) {
		p.indexer = ix
		p.extractor = ex
	}
}

// WithWorkers bounds the number of files parsed concurrently.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// New creates a pipeline for the content directory named in cfg.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		root:     cfg.ContentDir(""),
		patterns: cfg.Content.Patterns,
		prefix:   cfg.Site.RoutePrefix,
		workers:  runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.indexer != nil && p.extractor == nil {
		p.extractor = extract.New(cfg.Site.BaseURL, nil)
	}
	return p
}

// Root returns the content directory the pipeline reads.
func (p *Pipeline) Root() string {
	return p.root
}

// Run executes the pipeline. Only a missing content root or a cancelled
// context is fatal; files that fail to parse become diagnostics.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	r := &Result{StartedAt: time.Now()}

	// Step 1: Discover
	logger.Debug().Str("root", p.root).Msg("Step 1/3: Discovering articles")
	sources, diags, err := content.Discover(p.root, p.patterns)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Discover", Err: err})
		return r, err
	}
	r.Discovered = len(sources) + len(diags)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Discover",
		Summary: fmt.Sprintf("Found %d article files (%d unreadable)", len(sources), len(diags)),
	})

	// Step 2: Parse
	logger.Debug().Int("files", len(sources)).Msg("Step 2/3: Parsing articles")
	records, parseDiags, err := p.parseAll(ctx, sources)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Parse", Err: err})
		return r, err
	}
	diags = append(diags, parseDiags...)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Parse",
		Summary: fmt.Sprintf("Parsed %d articles, %d rejected", len(records), len(parseDiags)),
	})

	// Step 3: Publish
	logger.Debug().Msg("Step 3/3: Publishing collection")
	coll := collection.Publish(records, diags)
	r.Collection = coll
	r.Diagnostics = coll.Diagnostics()
	r.Steps = append(r.Steps, StepResult{
		Name:    "Publish",
		Summary: fmt.Sprintf("Published %d articles, skipped %d", coll.Len(), len(r.Diagnostics)),
	})
	for _, d := range r.Diagnostics {
		logger.Warn().Str("path", d.Path).Str("kind", string(d.Kind)).Err(d.Err).Msg("skipping article")
	}

	if p.indexer != nil {
		r.Steps = append(r.Steps, p.runIndex(coll))
	}

	r.FinishedAt = time.Now()
	if p.recorder != nil {
		r.Steps = append(r.Steps, p.runRecord(r))
	}

	logger.Info().
		Int("published", coll.Len()).
		Int("skipped", len(r.Diagnostics)).
		Dur("took", r.FinishedAt.Sub(r.StartedAt)).
		Msg("build complete")
	return r, nil
}

// Build runs the pipeline and returns only the collection, for collection.Store.
func (p *Pipeline) Build(ctx context.Context) (*collection.Collection, error) {
	r, err := p.Run(ctx)
	if err != nil {
		return nil, err
	}
	return r.Collection, nil
}

// DryRun reports what a run would read without parsing anything.
func (p *Pipeline) DryRun() (*Result, error) {
	r := &Result{StartedAt: time.Now()}
	sources, diags, err := content.Discover(p.root, p.patterns)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Discover", Err: err})
		return r, err
	}
	r.Discovered = len(sources) + len(diags)
	r.Diagnostics = diags
	r.Steps = append(r.Steps,
		StepResult{Name: "Discover", Summary: fmt.Sprintf("[dry-run] %d article files under %s", len(sources), p.root)},
		StepResult{Name: "Parse", Summary: fmt.Sprintf("[dry-run] Would parse %d articles", len(sources))},
		StepResult{Name: "Publish", Summary: "[dry-run] Would publish a new collection"},
	)
	r.FinishedAt = time.Now()
	return r, nil
}

// parseAll parses sources concurrently and returns records in source order.
// Each run uses a fresh compiler; compiled bodies are never shared across builds.
func (p *Pipeline) parseAll(ctx context.Context, sources []content.Source) ([]content.Record, []content.Diagnostic, error) {
	parser := content.NewParser(p.prefix, markup.NewCompiler())
	type outcome struct {
		rec content.Record
		err error
	}
	outcomes := make([]outcome, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := parser.Parse(src)
			outcomes[i] = outcome{rec: rec, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	records := make([]content.Record, 0, len(sources))
	var diags []content.Diagnostic
	for i, o := range outcomes {
		if o.err != nil {
			diags = append(diags, content.NewDiagnostic(sources[i].Path, o.err))
			continue
		}
		records = append(records, o.rec)
	}
	return records, diags, nil
}

func (p *Pipeline) runIndex(coll *collection.Collection) StepResult {
	logger.Debug().Msg("Indexing published articles")
	records := coll.All()
	texts, ex := p.extractor.All(records)

	articles := make([]database.Article, 0, len(records))
	for _, rec := range records {
		articles = append(articles, ArticleRow(rec, texts[rec.Slug]))
	}
	if err := p.indexer.ReplaceArticles(articles); err != nil {
		return StepResult{Name: "Index", Err: err}
	}
	return StepResult{
		Name:    "Index",
		Summary: fmt.Sprintf("Indexed %d articles (%d via readability, %d plain text)", len(articles), ex.Extracted, ex.Fallback),
	}
}

func (p *Pipeline) runRecord(r *Result) StepResult {
	build := database.Build{
		ContentDir: p.root,
		StartedAt:  r.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: r.FinishedAt.UTC().Format(time.RFC3339),
		Discovered: r.Discovered,
		Published:  r.Collection.Len(),
		Skipped:    len(r.Diagnostics),
	}
	diags := make([]database.BuildDiagnostic, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		diags = append(diags, database.BuildDiagnostic{Path: d.Path, Kind: string(d.Kind), Message: d.Err.Error()})
	}
	id, err := p.recorder.RecordBuild(build, diags)
	if err != nil {
		return StepResult{Name: "Record", Err: err}
	}
	return StepResult{Name: "Record", Summary: fmt.Sprintf("Recorded build #%d", id)}
}

// ArticleRow converts a published record into an index row.
func ArticleRow(rec content.Record, text string) database.Article {
	a := database.Article{
		Slug:        rec.Slug,
		URL:         rec.URL,
		Path:        rec.Path,
		Title:       rec.Title,
		Description: rec.Description,
		Date:        rec.Date,
		Author:      rec.Author,
		Category:    rec.Category,
		Tags:        rec.Tags,
		Image:       rec.Image,
		Featured:    rec.Featured,
		TextContent: text,
	}
	if rec.Body != nil {
		a.WordCount = rec.Body.WordCount()
		a.ReadingMinutes = rec.Body.ReadingTime()
	}
	return a
}
