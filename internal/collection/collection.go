// Package collection holds the published set of articles and the pure
// query helpers that page renderers use to slice it.
package collection

import (
	"fmt"
	"time"

	"github.com/TobiSchelling/blogpipe/internal/content"
)

// Collection is an immutable, ordered set of records with unique slugs.
// Records keep discovery order. All accessors return copies.
type Collection struct {
	records     []content.Record
	bySlug      map[string]int
	diagnostics []content.Diagnostic
	builtAt     time.Time
}

// Publish assembles a collection from parsed records, in order. A record
// whose slug was already taken is left out and reported as a duplicate.
func Publish(records []content.Record, diags []content.Diagnostic) *Collection {
	c := &Collection{
		records:     make([]content.Record, 0, len(records)),
		bySlug:      make(map[string]int, len(records)),
		diagnostics: append([]content.Diagnostic(nil), diags...),
		builtAt:     time.Now(),
	}
	for _, r := range records {
		if i, taken := c.bySlug[r.Slug]; taken {
			c.diagnostics = append(c.diagnostics, content.Diagnostic{
				Path: r.Path,
				Kind: content.KindDuplicate,
				Err:  fmt.Errorf("%s: slug %q already used by %s", r.Path, r.Slug, c.records[i].Path),
			})
			continue
		}
		c.bySlug[r.Slug] = len(c.records)
		c.records = append(c.records, r.Clone())
	}
	return c
}

// All returns every record in discovery order.
func (c *Collection) All() []content.Record {
	if c == nil {
		return []content.Record{}
	}
	return cloneAll(c.records)
}

// FindBySlug looks up a record. The boolean is false for unknown slugs.
func (c *Collection) FindBySlug(slug string) (content.Record, bool) {
	if c == nil {
		return content.Record{}, false
	}
	i, ok := c.bySlug[slug]
	if !ok {
		return content.Record{}, false
	}
	return c.records[i].Clone(), true
}

func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// Diagnostics lists the sources that were skipped while building.
func (c *Collection) Diagnostics() []content.Diagnostic {
	if c == nil {
		return nil
	}
	return append([]content.Diagnostic(nil), c.diagnostics...)
}

func (c *Collection) BuiltAt() time.Time {
	if c == nil {
		return time.Time{}
	}
	return c.builtAt
}

func cloneAll(records []content.Record) []content.Record {
	out := make([]content.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
