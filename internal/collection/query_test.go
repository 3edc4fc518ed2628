package collection

import (
	"testing"
	"time"

	"github.com/TobiSchelling/blogpipe/internal/content"
)

func sample() []content.Record {
	return []content.Record{
		rec("seo", "Marketing", "SEO Strategies for 2024", "Ranking well", true),
		rec("api", "Backend", "API Design", "Designing interfaces", false),
		rec("ads", "Marketing", "Paid Ads", "Budgets and bids", false),
		rec("email", "Marketing", "Email", "Newsletters that convert", false),
		rec("brand", "Marketing", "Brand Voice", "Tone of seo-friendly copy", false),
	}
}

func TestRelated(t *testing.T) {
	records := sample()
	target := records[0]

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"limit three", 3, []string{"ads", "email", "brand"}},
		{"limit one", 1, []string{"ads"}},
		{"limit larger than matches", 10, []string{"ads", "email", "brand"}},
		{"zero limit", 0, []string{}},
		{"negative limit", -2, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Related(records, target, tt.limit)
			if !equal(slugs(got), tt.want) {
				t.Errorf("Related = %v, want %v", slugs(got), tt.want)
			}
			for _, r := range got {
				if r.Slug == target.Slug {
					t.Error("Related includes the record itself")
				}
				if r.Category != target.Category {
					t.Errorf("Related includes %s from %s", r.Slug, r.Category)
				}
			}
		})
	}
}

func TestRelatedNoMatches(t *testing.T) {
	records := sample()
	got := Related(records, records[1], 3)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", got)
	}
}

func TestSearch(t *testing.T) {
	records := sample()

	tests := []struct {
		term string
		want []string
	}{
		{"", []string{"seo", "api", "ads", "email", "brand"}},
		{"   ", []string{}},
		{" seo ", []string{}},
		{"of seo", []string{"brand"}},
		{"SEO", []string{"seo", "brand"}},
		{"seo strategies", []string{"seo"}},
		{"interfaces", []string{"api"}},
		{"nothing matches this", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			if got := slugs(Search(records, tt.term)); !equal(got, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.term, got, tt.want)
			}
		})
	}
}

func TestHelpersDoNotMutateInput(t *testing.T) {
	records := sample()
	records[0].Tags = []string{"x"}

	out := Featured(records)
	out[0].Tags[0] = "changed"
	out[0].Title = "changed"
	if records[0].Tags[0] != "x" || records[0].Title != "SEO Strategies for 2024" {
		t.Error("helper result aliases input")
	}

	searched := Search(records, "")
	searched[0].Tags[0] = "again"
	if records[0].Tags[0] != "x" {
		t.Error("empty search aliases input")
	}
}

func TestCategoriesAndTags(t *testing.T) {
	records := sample()
	records[0].Tags = []string{"seo", "growth"}
	records[2].Tags = []string{"growth", "ads"}

	if got := Categories(records); !equal(got, []string{"Marketing", "Backend"}) {
		t.Errorf("Categories = %v", got)
	}
	if got := Tags(records); !equal(got, []string{"seo", "growth", "ads"}) {
		t.Errorf("Tags = %v", got)
	}
}

func TestSortByDate(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	records := []content.Record{
		{Slug: "mid", Published: day(10)},
		{Slug: "old", Published: day(1)},
		{Slug: "new", Published: day(20)},
		{Slug: "mid2", Published: day(10)},
	}

	if got := slugs(SortByDate(records, false)); !equal(got, []string{"new", "mid", "mid2", "old"}) {
		t.Errorf("newest first = %v", got)
	}
	if got := slugs(SortByDate(records, true)); !equal(got, []string{"old", "mid", "mid2", "new"}) {
		t.Errorf("oldest first = %v", got)
	}
	if records[0].Slug != "mid" {
		t.Error("SortByDate reordered its input")
	}
}
