package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/TobiSchelling/blogpipe/internal/collection"
	"github.com/TobiSchelling/blogpipe/internal/content"
	"github.com/TobiSchelling/blogpipe/internal/logger"
	"github.com/TobiSchelling/blogpipe/internal/markup"
)

// PostSummary is the JSON form of an article in listings.
type PostSummary struct {
	Slug        string   `json:"slug"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Author      string   `json:"author"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Image       string   `json:"image"`
	Featured    bool     `json:"featured"`
	ReadingTime int      `json:"reading_time"`
}

// PostDetail adds the rendered body to a summary.
type PostDetail struct {
	PostSummary
	HTML     string           `json:"html"`
	Headings []markup.Heading `json:"headings"`
	Related  []PostSummary    `json:"related"`
}

type apiError struct {
	Error string `json:"error"`
}

func (s *Server) summary(r content.Record) PostSummary {
	minutes := 1
	if r.Body != nil {
		minutes = r.Body.ReadingTime()
	}
	return PostSummary{
		Slug:        r.Slug,
		URL:         r.URL,
		Title:       r.Title,
		Description: r.Description,
		Date:        r.Date,
		Author:      r.Author,
		Category:    r.Category,
		Tags:        r.Tags,
		Image:       r.ImageOr(s.site.PlaceholderImage),
		Featured:    r.Featured,
		ReadingTime: minutes,
	}
}

func (s *Server) summaries(records []content.Record) []PostSummary {
	out := make([]PostSummary, len(records))
	for i, r := range records {
		out[i] = s.summary(r)
	}
	return out
}

func (s *Server) handleAPIList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	q := r.URL.Query()
	posts := s.store.Current().All()
	if category := q.Get("category"); category != "" {
		posts = collection.ByCategory(posts, category)
	}
	if v := q.Get("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "featured must be true or false"})
			return
		}
		if featured {
			posts = collection.Featured(posts)
		}
	}
	posts = collection.Search(posts, q.Get("q"))

	writeJSON(w, http.StatusOK, s.summaries(posts))
}

func (s *Server) handleAPIPost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	slug := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/posts/"), "/")
	c := s.store.Current()
	rec, ok := c.FindBySlug(slug)
	if !ok {
		writeJSON(w, http.StatusNotFound, apiError{Error: "not found"})
		return
	}

	detail := PostDetail{
		PostSummary: s.summary(rec),
		Headings:    []markup.Heading{},
		Related:     s.summaries(collection.Related(c.All(), rec, s.site.RelatedLimit)),
	}
	if rec.Body != nil {
		html, err := rec.Body.HTML(s.resolver)
		if err != nil {
			logger.Error().Err(err).Str("slug", slug).Msg("rendering article")
			writeJSON(w, http.StatusInternalServerError, apiError{Error: "rendering failed"})
			return
		}
		detail.HTML = html
		detail.Headings = rec.Body.Headings()
	}
	writeJSON(w, http.StatusOK, detail)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Error().Err(err).Msg("encoding JSON response")
	}
}
