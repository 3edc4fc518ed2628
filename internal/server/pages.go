package server

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"github.com/TobiSchelling/blogpipe/internal/collection"
	"github.com/TobiSchelling/blogpipe/internal/feed"
	"github.com/TobiSchelling/blogpipe/internal/logger"
)

// latestOnHome is the number of recent articles on the home page.
const latestOnHome = 3

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if s.prefix == "/" {
		s.handleBlog(w, r)
		return
	}
	if r.URL.Path != "/" {
		s.notFound(w, r)
		return
	}
	s.handleHome(w, r)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	all := s.store.Current().All()
	latest := collection.SortByDate(all, false)
	if len(latest) > latestOnHome {
		latest = latest[:latestOnHome]
	}
	s.render(w, http.StatusOK, "index.html", map[string]any{
		"Featured": collection.Featured(all),
		"Latest":   latest,
	})
}

// handleBlog serves everything under the route prefix: the listing, the
// feed and article pages.
func (s *Server) handleBlog(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, s.prefix)
	switch {
	case rest == "":
		s.handleList(w, r)
	case rest == "rss.xml":
		s.handleFeed(w, r)
	default:
		s.handlePost(w, r, strings.TrimSuffix(rest, "/"))
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	all := s.store.Current().All()
	category := r.URL.Query().Get("category")
	term := r.URL.Query().Get("q")

	posts := all
	if category != "" {
		posts = collection.ByCategory(posts, category)
	}
	posts = collection.Search(posts, term)

	s.render(w, http.StatusOK, "blog.html", map[string]any{
		"Posts":      posts,
		"Categories": collection.Categories(all),
		"Category":   category,
		"Query":      term,
	})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request, slug string) {
	c := s.store.Current()
	rec, ok := c.FindBySlug(slug)
	if !ok {
		s.notFound(w, r)
		return
	}

	var body bytes.Buffer
	if rec.Body != nil {
		if err := rec.Body.Render(&body, s.resolver); err != nil {
			logger.Error().Err(err).Str("slug", slug).Msg("rendering article")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	data := map[string]any{
		"Post":    rec,
		"Body":    template.HTML(body.String()), //nolint: gosec
		"Related": collection.Related(c.All(), rec, s.site.RelatedLimit),
	}
	if rec.Body != nil {
		data["Headings"] = rec.Body.Headings()
	}
	s.render(w, http.StatusOK, "post.html", data)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := feed.Write(&buf, feed.Channel{
		Title:       s.site.Title,
		Description: s.site.Description,
		BaseURL:     s.site.BaseURL,
		FeedPath:    s.prefix + "rss.xml",
	}, s.store.Current().All())
	if err != nil {
		logger.Error().Err(err).Msg("rendering feed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write(buf.Bytes())
}
