// Package extract derives the plain text of rendered articles for the
// search index.
package extract

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/TobiSchelling/blogpipe/internal/content"
	"github.com/TobiSchelling/blogpipe/internal/logger"
	"github.com/TobiSchelling/blogpipe/internal/markup"
)

// minReadable is the shortest readability output trusted over the
// compiler's own plain text.
const minReadable = 100

// Result holds the counts of an extraction run.
type Result struct {
	Extracted int
	Fallback  int
	Failed    int
}

// Extractor renders article bodies and runs readability over the page.
type Extractor struct {
	base     *url.URL
	resolver markup.Resolver
}

// New creates an extractor. baseURL resolves relative links; an empty or
// invalid value falls back to http://localhost.
func New(baseURL string, resolver markup.Resolver) *Extractor {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		u = &url.URL{Scheme: "http", Host: "localhost"}
	}
	return &Extractor{base: u, resolver: resolver}
}

// Text returns the readable text of rec. When readability finds too little,
// the body's own plain text is used and fallback is true.
func (e *Extractor) Text(rec content.Record) (text string, fallback bool, err error) {
	if rec.Body == nil {
		return "", true, nil
	}
	body, err := rec.Body.HTML(e.resolver)
	if err != nil {
		return "", false, fmt.Errorf("rendering %s: %w", rec.Slug, err)
	}

	page := e.base.ResolveReference(&url.URL{Path: rec.URL})
	doc := "<!DOCTYPE html><html><head><title>" + html.EscapeString(rec.Title) +
		"</title></head><body><article>" + body + "</article></body></html>"

	article, err := readability.FromReader(strings.NewReader(doc), page)
	if err == nil {
		text := strings.TrimSpace(article.TextContent)
		if len(text) > minReadable {
			return text, false, nil
		}
	}
	return rec.Body.PlainText(), true, nil
}

// All extracts text for every record, keyed by slug. Records that fail to
// render are logged and left out.
func (e *Extractor) All(records []content.Record) (map[string]string, *Result) {
	out := make(map[string]string, len(records))
	result := &Result{}
	for _, rec := range records {
		text, fallback, err := e.Text(rec)
		if err != nil {
			result.Failed++
			logger.Warn().Err(err).Str("slug", rec.Slug).Msg("text extraction failed")
			continue
		}
		if fallback {
			result.Fallback++
		} else {
			result.Extracted++
		}
		out[rec.Slug] = text
	}
	logger.Debug().
		Int("extracted", result.Extracted).
		Int("fallback", result.Fallback).
		Int("failed", result.Failed).
		Msg("text extraction complete")
	return out, result
}
