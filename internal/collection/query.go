package collection

import (
	"sort"
	"strings"

	"github.com/TobiSchelling/blogpipe/internal/content"
)

// The helpers below never modify their input and always return a fresh
// slice of cloned records, so they are safe for concurrent views.

// ByCategory keeps records whose category equals category exactly.
func ByCategory(records []content.Record, category string) []content.Record {
	return filter(records, func(r content.Record) bool { return r.Category == category })
}

// Featured keeps records marked featured.
func Featured(records []content.Record) []content.Record {
	return filter(records, func(r content.Record) bool { return r.Featured })
}

// Related returns up to limit records sharing rec's category, excluding rec
// itself, in input order.
func Related(records []content.Record, rec content.Record, limit int) []content.Record {
	out := []content.Record{}
	if limit <= 0 {
		return out
	}
	for _, r := range records {
		if r.Slug == rec.Slug || r.Category != rec.Category {
			continue
		}
		out = append(out, r.Clone())
		if len(out) == limit {
			break
		}
	}
	return out
}

// Search matches term case-insensitively against title or description.
// Only the empty term matches everything; whitespace is part of the term.
func Search(records []content.Record, term string) []content.Record {
	term = strings.ToLower(term)
	if term == "" {
		return cloneAll(records)
	}
	return filter(records, func(r content.Record) bool {
		return strings.Contains(strings.ToLower(r.Title), term) ||
			strings.Contains(strings.ToLower(r.Description), term)
	})
}

// Categories lists distinct categories in first-seen order.
func Categories(records []content.Record) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range records {
		if !seen[r.Category] {
			seen[r.Category] = true
			out = append(out, r.Category)
		}
	}
	return out
}

// Tags lists distinct tags in first-seen order.
func Tags(records []content.Record) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range records {
		for _, t := range r.Tags {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// SortByDate returns records ordered by date, newest first unless oldestFirst.
// Records with equal dates keep their relative order.
func SortByDate(records []content.Record, oldestFirst bool) []content.Record {
	out := cloneAll(records)
	sort.SliceStable(out, func(i, j int) bool {
		if oldestFirst {
			return out[i].Published.Before(out[j].Published)
		}
		return out[i].Published.After(out[j].Published)
	})
	return out
}

func filter(records []content.Record, keep func(content.Record) bool) []content.Record {
	out := []content.Record{}
	for _, r := range records {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}
