package content

import (
	"path"
	"strings"
	"time"

	"github.com/TobiSchelling/blogpipe/internal/markup"
)

// DefaultRoutePrefix is the URL path under which articles are served.
const DefaultRoutePrefix = "/blog/"

// Record is a validated article.
type Record struct {
	Slug string
	URL  string
	Path string

	Title       string
	Description string
	Date        string // YYYY-MM-DD
	Published   time.Time
	Author      string
	Category    string
	Tags        []string // never nil
	Image       string   // empty when absent
	Featured    bool

	Body *markup.Content
}

// ImageOr returns the article image, or placeholder when it has none.
func (r Record) ImageOr(placeholder string) string {
	if r.Image == "" {
		return placeholder
	}
	return r.Image
}

// Clone returns a copy that shares no mutable containers with r.
// Body is immutable and stays shared.
func (r Record) Clone() Record {
	c := r
	c.Tags = append(make([]string, 0, len(r.Tags)), r.Tags...)
	return c
}

// Slug derives an article's identity from its slash-separated relative
// path by dropping the extension.
func Slug(rel string) string {
	return strings.TrimSuffix(rel, path.Ext(rel))
}

// URLFor joins the route prefix and slug with exactly one slash between them.
func URLFor(prefix, slug string) string {
	p := strings.Trim(prefix, "/")
	if p == "" {
		return "/" + slug
	}
	return "/" + p + "/" + slug
}
