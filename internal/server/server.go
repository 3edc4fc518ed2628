// Package server serves the published articles as a small website, an RSS
// feed and a JSON API.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/TobiSchelling/blogpipe/internal/collection"
	"github.com/TobiSchelling/blogpipe/internal/config"
	"github.com/TobiSchelling/blogpipe/internal/content"
	"github.com/TobiSchelling/blogpipe/internal/logger"
	"github.com/TobiSchelling/blogpipe/internal/markup"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server is the HTTP server for the blog.
type Server struct {
	store    *collection.Store
	site     config.Site
	prefix   string
	resolver markup.Resolver
	pages    map[string]*template.Template
	mux      *http.ServeMux
}

// New creates a new Server reading from store.
func New(store *collection.Store, site config.Site) (*Server, error) {
	if store == nil {
		return nil, errors.New("server: nil store")
	}

	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string { return t.Format("Jan 02, 2006") },
		"image": func(r content.Record) string {
			return r.ImageOr(site.PlaceholderImage)
		},
		"readingTime": func(r content.Record) int {
			if r.Body == nil {
				return 1
			}
			return r.Body.ReadingTime()
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "blog.html", "post.html", "notfound.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{
		store:    store,
		site:     site,
		prefix:   normalizePrefix(site.RoutePrefix),
		resolver: Components(),
		pages:    pages,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/api/posts", s.handleAPIList)
	s.mux.HandleFunc("/api/posts/", s.handleAPIPost)

	s.mux.HandleFunc("/", s.handleRoot)
	if s.prefix != "/" {
		s.mux.HandleFunc(s.prefix, s.handleBlog)
	}
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data map[string]any) {
	tmpl, ok := s.pages[name]
	if !ok {
		logger.Error().Str("template", name).Msg("template not found")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data["Site"] = s.site
	data["Prefix"] = s.prefix
	data["FeedURL"] = s.prefix + "rss.xml"

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		logger.Error().Err(err).Str("template", name).Msg("rendering template")
	}
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusNotFound, "notfound.html", map[string]any{"Path": r.URL.Path})
}

// Serve listens on port until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, store *collection.Store, site config.Site, port int) error {
	srv, err := New(store, site)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", "http://"+httpSrv.Addr).Msg("server listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info().Msg("shutting down server")
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func normalizePrefix(prefix string) string {
	p := strings.Trim(prefix, "/")
	if p == "" {
		if prefix == "" {
			return content.DefaultRoutePrefix
		}
		return "/"
	}
	return "/" + p + "/"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}
