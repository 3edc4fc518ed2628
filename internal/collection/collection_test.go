package collection

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TobiSchelling/blogpipe/internal/content"
)

func rec(slug, category, title, desc string, featured bool) content.Record {
	return content.Record{
		Slug:        slug,
		URL:         content.URLFor(content.DefaultRoutePrefix, slug),
		Path:        "/content/" + slug + ".md",
		Title:       title,
		Description: desc,
		Category:    category,
		Featured:    featured,
		Tags:        []string{},
	}
}

func slugs(records []content.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Slug
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPublishSkipsDuplicateSlugs(t *testing.T) {
	first := rec("a", "X", "A", "", false)
	dup := rec("a", "Y", "A again", "", false)
	dup.Path = "/content/a.mdx"
	c := Publish([]content.Record{first, rec("b", "X", "B", "", false), dup}, []content.Diagnostic{
		{Path: "/content/bad.md", Kind: content.KindValidation},
	})

	if c.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", c.Len())
	}
	got, ok := c.FindBySlug("a")
	if !ok || got.Category != "X" {
		t.Errorf("expected first record to win, got %+v", got)
	}
	diags := c.Diagnostics()
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics, got %v", diags)
	}
	if diags[1].Kind != content.KindDuplicate || diags[1].Path != "/content/a.mdx" {
		t.Errorf("unexpected duplicate diagnostic %+v", diags[1])
	}
}

func TestFindBySlugUnknown(t *testing.T) {
	c := Publish([]content.Record{rec("a", "X", "A", "", false)}, nil)
	if _, ok := c.FindBySlug("missing"); ok {
		t.Error("expected unknown slug to be absent")
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	r := rec("a", "X", "A", "", false)
	r.Tags = []string{"go"}
	c := Publish([]content.Record{r}, nil)

	all := c.All()
	all[0].Title = "changed"
	all[0].Tags[0] = "changed"

	got, _ := c.FindBySlug("a")
	if got.Title != "A" || got.Tags[0] != "go" {
		t.Errorf("collection was mutated through a view: %+v", got)
	}

	// The caller's input is not aliased either.
	r.Tags[0] = "rust"
	got, _ = c.FindBySlug("a")
	if got.Tags[0] != "go" {
		t.Errorf("collection shares tags with publish input")
	}
}

func TestNilCollection(t *testing.T) {
	var c *Collection
	if c.Len() != 0 || len(c.All()) != 0 || c.Diagnostics() != nil {
		t.Error("nil collection should behave as empty")
	}
	if _, ok := c.FindBySlug("a"); ok {
		t.Error("nil collection should find nothing")
	}
}

func writeArticle(t *testing.T, root, rel, front string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	data := "---\n" + front + "---\nBody of " + rel + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func buildFrom(t *testing.T, root string) *Collection {
	t.Helper()
	sources, diags, err := content.Discover(root, nil)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	p := content.NewParser("/blog/", nil)
	var records []content.Record
	for _, src := range sources {
		r, err := p.Parse(src)
		if err != nil {
			diags = append(diags, content.NewDiagnostic(src.Path, err))
			continue
		}
		records = append(records, r)
	}
	return Publish(records, diags)
}

func TestEndToEndFeaturedAndCategory(t *testing.T) {
	root := t.TempDir()
	writeArticle(t, root, "a-backend.md", `title: Scaling APIs
description: Notes on backend work
date: 2024-01-10
author: Ada
category: Backend Development
featured: true
`)
	writeArticle(t, root, "b-colour.md", `title: Colour Theory
description: Picking palettes
date: 2024-02-01
author: Grace
category: Design
`)
	writeArticle(t, root, "c-type.md", `title: Typography
description: Choosing fonts
date: 2024-03-01
author: Grace
category: Design
`)
	writeArticle(t, root, "d-broken.md", `title: No Author
description: Missing a field
date: 2024-03-02
category: Design
`)

	c := buildFrom(t, root)
	all := c.All()

	if got := slugs(Featured(all)); !equal(got, []string{"a-backend"}) {
		t.Errorf("Featured = %v", got)
	}
	if got := slugs(ByCategory(all, "Design")); !equal(got, []string{"b-colour", "c-type"}) {
		t.Errorf("ByCategory(Design) = %v", got)
	}
	if got := ByCategory(all, "design"); len(got) != 0 {
		t.Errorf("category match should be case-sensitive, got %v", slugs(got))
	}
	if _, ok := c.FindBySlug("d-broken"); ok {
		t.Error("invalid article should not be published")
	}
	diags := c.Diagnostics()
	if len(diags) != 1 || diags[0].Kind != content.KindValidation {
		t.Fatalf("expected one validation diagnostic, got %v", diags)
	}
	for _, r := range all {
		if r.Featured && r.Slug != "a-backend" {
			t.Errorf("%s should default featured to false", r.Slug)
		}
		if r.Tags == nil {
			t.Errorf("%s has nil tags", r.Slug)
		}
	}
}

func TestNestedDirectoriesGiveDistinctSlugs(t *testing.T) {
	root := t.TempDir()
	front := "title: Intro\ndescription: d\ndate: 2024-01-01\nauthor: A\ncategory: C\n"
	writeArticle(t, root, "design/intro.md", front)
	writeArticle(t, root, "engineering/intro.md", front)

	c := buildFrom(t, root)
	if c.Len() != 2 {
		t.Fatalf("expected 2 records, got %d (%v)", c.Len(), c.Diagnostics())
	}
	if _, ok := c.FindBySlug("design/intro"); !ok {
		t.Error("missing design/intro")
	}
	if _, ok := c.FindBySlug("engineering/intro"); !ok {
		t.Error("missing engineering/intro")
	}
}

func TestBuiltAt(t *testing.T) {
	before := time.Now()
	c := Publish(nil, nil)
	if c.BuiltAt().Before(before) {
		t.Error("build time precedes publish")
	}
}
