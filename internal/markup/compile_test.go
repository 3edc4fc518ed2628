package markup

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func mustCompile(t *testing.T, raw string) *Content {
	t.Helper()
	c, err := NewCompiler().Compile(raw)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	return c
}

func TestCompilePlainMarkdown(t *testing.T) {
	c := mustCompile(t, "# Title\n\nSome *emphasis* and a list:\n\n- one\n- two\n")

	html, err := c.HTML(nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{`<h1 id="title">Title</h1>`, "<em>emphasis</em>", "<li>one</li>"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in output:\n%s", want, html)
		}
	}
	if len(c.Nodes()) != 1 {
		t.Errorf("expected a single markdown node, got %d", len(c.Nodes()))
	}
}

func TestCompileGFMTable(t *testing.T) {
	c := mustCompile(t, "| A | B |\n|---|---|\n| 1 | 2 |\n")
	html, _ := c.HTML(nil)
	if !strings.Contains(html, "<table>") {
		t.Errorf("expected table markup, got:\n%s", html)
	}
}

func TestCompileComponentTree(t *testing.T) {
	raw := `Intro paragraph.

<Callout type="warning" dismissible>
Watch out for **this**.

<Badge>New</Badge>
</Callout>

<Image src="/img/a.png" alt='Chart' width={640} />

Outro.
`
	c := mustCompile(t, raw)
	nodes := c.Nodes()
	if len(nodes) != 4 {
		t.Fatalf("expected 4 top-level nodes, got %d", len(nodes))
	}

	callout, ok := nodes[1].(*Component)
	if !ok || callout.Name != "Callout" {
		t.Fatalf("expected Callout component, got %#v", nodes[1])
	}
	if v, _ := callout.Prop("type"); v != "warning" {
		t.Errorf("expected type=warning, got %q", v)
	}
	if v, ok := callout.Prop("dismissible"); !ok || v != "true" {
		t.Errorf("expected bare flag prop, got %q %v", v, ok)
	}
	if callout.Line != 3 {
		t.Errorf("expected Callout on line 3, got %d", callout.Line)
	}
	if len(callout.Children) != 2 {
		t.Fatalf("expected markdown + Badge children, got %d", len(callout.Children))
	}
	badge, ok := callout.Children[1].(*Component)
	if !ok || badge.Name != "Badge" || len(badge.Children) != 1 {
		t.Errorf("expected inline Badge with one child, got %#v", callout.Children[1])
	}

	img, ok := nodes[2].(*Component)
	if !ok || !img.SelfClosing {
		t.Fatalf("expected self-closing Image, got %#v", nodes[2])
	}
	if v, _ := img.Prop("alt"); v != "Chart" {
		t.Errorf("expected single-quoted alt, got %q", v)
	}
	width := img.Props[2]
	if width.Value != "640" || !width.Expr {
		t.Errorf("expected expression prop 640, got %#v", width)
	}
}

func TestCompileMultiLineTag(t *testing.T) {
	raw := "<Tabs\n  items={[\"a\", \"b\"]}\n  label=\"Pick\"\n>\nBody\n</Tabs>\n"
	c := mustCompile(t, raw)
	tabs := c.Nodes()[0].(*Component)
	if v, _ := tabs.Prop("items"); v != `["a", "b"]` {
		t.Errorf("unexpected items expression %q", v)
	}
	if v, _ := tabs.Prop("label"); v != "Pick" {
		t.Errorf("unexpected label %q", v)
	}
}

func TestCompileIgnoresTagsInCodeFences(t *testing.T) {
	raw := "```jsx\n<Callout>\n```\n\n~~~~\n</Unbalanced>\n~~~~\n"
	c := mustCompile(t, raw)
	if len(c.Nodes()) != 1 {
		t.Fatalf("expected fenced code to stay markdown, got %d nodes", len(c.Nodes()))
	}
	if _, ok := c.Nodes()[0].(*Markdown); !ok {
		t.Error("expected a Markdown node")
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantLine int
		wantMsg  string
	}{
		{"never closed", "text\n\n<Callout>\nbody\n", 3, "never closed"},
		{"stray close", "text\n</Callout>\n", 2, "no matching opening"},
		{"mismatched", "<Tabs>\n<Tab>\n</Tabs>\n", 3, "does not match <Tab>"},
		{"unterminated", "<Callout type=\"x\n", 1, "unterminated"},
		{"unquoted value", "<Callout type=x>\n</Callout>\n", 1, "needs a quoted"},
		{"malformed close", "<Callout>\n</Callout extra>\n", 2, "malformed closing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCompiler().Compile(tt.raw)
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *CompileError, got %v", err)
			}
			if ce.Line != tt.wantLine {
				t.Errorf("expected line %d, got %d (%v)", tt.wantLine, ce.Line, ce)
			}
			if !strings.Contains(ce.Msg, tt.wantMsg) {
				t.Errorf("expected %q in %q", tt.wantMsg, ce.Msg)
			}
		})
	}
}

func TestCompileIsDeterministicAndCached(t *testing.T) {
	raw := "## Setup\n\n<Note>\nHello\n</Note>\n"
	comp := NewCompiler()
	a, err := comp.Compile(raw)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := comp.Compile(raw)
	if a != b {
		t.Error("expected cached *Content for identical input")
	}

	fresh, _ := NewCompiler().Compile(raw)
	ha, _ := a.HTML(nil)
	hf, _ := fresh.HTML(nil)
	if ha != hf {
		t.Errorf("expected identical output from separate compilers:\n%s\n---\n%s", ha, hf)
	}
}

func TestCompileNormalizesLineEndings(t *testing.T) {
	crlf := mustCompile(t, "<Note>\r\nHi\r\n</Note>\r\n")
	lf := mustCompile(t, "<Note>\nHi\n</Note>\n")
	a, _ := crlf.HTML(nil)
	b, _ := lf.HTML(nil)
	if a != b {
		t.Errorf("CRLF and LF bodies rendered differently:\n%q\n%q", a, b)
	}
}

func TestRenderWithResolver(t *testing.T) {
	c := mustCompile(t, "<Callout type=\"info\">\nInside\n</Callout>\n")

	var seen []string
	resolver := ResolverFunc(func(w io.Writer, comp *Component, children func(io.Writer) error) error {
		seen = append(seen, comp.Name)
		fmt.Fprintf(w, "<aside class=%q>", "callout")
		if err := children(w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</aside>")
		return err
	})

	html, err := c.HTML(resolver)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(seen) != 1 || seen[0] != "Callout" {
		t.Errorf("expected resolver called for Callout, got %v", seen)
	}
	if !strings.Contains(html, `<aside class="callout"><p>Inside</p>`) {
		t.Errorf("unexpected output: %s", html)
	}
}

func TestRenderResolverErrorIsWrapped(t *testing.T) {
	c := mustCompile(t, "text\n\n<Boom />\n")
	boom := errors.New("boom")
	_, err := c.HTML(ResolverFunc(func(io.Writer, *Component, func(io.Writer) error) error { return boom }))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped resolver error, got %v", err)
	}
	if !strings.Contains(err.Error(), "<Boom> (line 3)") {
		t.Errorf("expected component and line in error, got %v", err)
	}
}

func TestPassthroughRendering(t *testing.T) {
	c := mustCompile(t, "<YouTube id=\"abc&def\" />\n")
	html, _ := c.HTML(Passthrough)
	if !strings.Contains(html, `<div data-component="YouTube" data-id="abc&amp;def">`) {
		t.Errorf("unexpected passthrough output: %s", html)
	}
}

func TestHeadingsAcrossSegments(t *testing.T) {
	c := mustCompile(t, "## Overview\n\n<Note>\n## Overview\n</Note>\n\n### Next `step`\n")
	hs := c.Headings()
	if len(hs) != 3 {
		t.Fatalf("expected 3 headings, got %d", len(hs))
	}
	if hs[0].ID != "overview" || hs[1].ID != "overview-1" {
		t.Errorf("expected unique ids across segments, got %q and %q", hs[0].ID, hs[1].ID)
	}
	if hs[2].Level != 3 || hs[2].Text != "Next step" {
		t.Errorf("unexpected third heading %#v", hs[2])
	}
}

func TestPlainTextAndReadingTime(t *testing.T) {
	c := mustCompile(t, "Hello **world**.\n\n```go\nfunc ignored() {}\n```\n\n<Note>\nfrom a note\n</Note>\n")
	text := c.PlainText()
	if !strings.Contains(text, "Hello world.") || !strings.Contains(text, "from a note") {
		t.Errorf("unexpected plain text %q", text)
	}
	if strings.Contains(text, "ignored") {
		t.Error("code blocks should not be part of plain text")
	}
	if c.WordCount() != 5 {
		t.Errorf("expected 5 words, got %d", c.WordCount())
	}
	if c.ReadingTime() != 1 {
		t.Errorf("expected minimum reading time 1, got %d", c.ReadingTime())
	}

	long := mustCompile(t, strings.Repeat("word ", 450))
	if long.ReadingTime() != 3 {
		t.Errorf("expected 3 minutes for 450 words, got %d", long.ReadingTime())
	}
}

func TestAnchor(t *testing.T) {
	tests := map[string]string{
		"Hello World":       "hello-world",
		"  API -- Design  ": "api-design",
		"Ünïcode ok":        "ünïcode-ok",
		"!!!":               "",
	}
	for in, want := range tests {
		if got := anchor(in); got != want {
			t.Errorf("anchor(%q) = %q, want %q", in, got, want)
		}
	}
}
