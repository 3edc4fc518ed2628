package markup

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
)

// WordsPerMinute is the reading speed used by ReadingTime.
const WordsPerMinute = 200

// Node is an element of a compiled body: *Markdown or *Component.
type Node interface {
	node()
}

// Markdown is a parsed Markdown segment.
type Markdown struct {
	Source []byte
	Doc    ast.Node
}

// Component is a component invocation left for the display layer to resolve.
type Component struct {
	Name        string
	Props       []Prop
	SelfClosing bool
	Children    []Node
	Line        int
}

// Prop is a component attribute. Expr is set for {expression} values and
// bare flags, whose Value is the raw expression text ("true" for flags).
type Prop struct {
	Name  string
	Value string
	Expr  bool
}

func (*Markdown) node()  {}
func (*Component) node() {}

// Prop returns the value of the named attribute.
func (c *Component) Prop(name string) (string, bool) {
	for _, p := range c.Props {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Heading is a document heading, usable for a table of contents.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

// Content is a compiled body. It is immutable and safe for concurrent rendering.
type Content struct {
	nodes    []Node
	renderer renderer.Renderer
	headings []Heading
	text     string
	words    int
}

// Resolver renders component invocations. children renders the component's
// nested content and may be called at most once.
type Resolver interface {
	RenderComponent(w io.Writer, c *Component, children func(io.Writer) error) error
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(w io.Writer, c *Component, children func(io.Writer) error) error

func (f ResolverFunc) RenderComponent(w io.Writer, c *Component, children func(io.Writer) error) error {
	return f(w, c, children)
}

// Passthrough renders each component as a div carrying its name and props
// as data attributes, wrapping the rendered children.
var Passthrough Resolver = ResolverFunc(passthrough)

func passthrough(w io.Writer, c *Component, children func(io.Writer) error) error {
	var b strings.Builder
	fmt.Fprintf(&b, `<div data-component="%s"`, html.EscapeString(c.Name))
	for _, p := range c.Props {
		fmt.Fprintf(&b, ` data-%s="%s"`, html.EscapeString(strings.ToLower(p.Name)), html.EscapeString(p.Value))
	}
	b.WriteString(">\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if err := children(w); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</div>\n")
	return err
}

// Nodes returns the top-level nodes of the tree.
func (c *Content) Nodes() []Node {
	out := make([]Node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// Render writes HTML for the whole tree, resolving components through r.
// A nil resolver falls back to Passthrough.
func (c *Content) Render(w io.Writer, r Resolver) error {
	if r == nil {
		r = Passthrough
	}
	return c.renderNodes(w, c.nodes, r)
}

// HTML renders the tree into a string.
func (c *Content) HTML(r Resolver) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (c *Content) renderNodes(w io.Writer, nodes []Node, r Resolver) error {
	for _, n := range nodes {
		switch v := n.(type) {
		case *Markdown:
			if err := c.renderer.Render(w, v.Source, v.Doc); err != nil {
				return fmt.Errorf("rendering markdown: %w", err)
			}
		case *Component:
			children := func(cw io.Writer) error {
				return c.renderNodes(cw, v.Children, r)
			}
			if err := r.RenderComponent(w, v, children); err != nil {
				return fmt.Errorf("rendering <%s> (line %d): %w", v.Name, v.Line, err)
			}
		}
	}
	return nil
}

// Headings returns the headings in document order.
func (c *Content) Headings() []Heading {
	out := make([]Heading, len(c.headings))
	copy(out, c.headings)
	return out
}

// PlainText returns the visible prose of the body without markup or code.
func (c *Content) PlainText() string {
	return c.text
}

// WordCount returns the number of words in PlainText.
func (c *Content) WordCount() int {
	return c.words
}

// ReadingTime returns the estimated reading time in minutes, at least 1.
func (c *Content) ReadingTime() int {
	minutes := (c.words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// index derives headings and text once at compile time.
func (c *Content) index() {
	var text strings.Builder
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			switch v := n.(type) {
			case *Markdown:
				c.headings = append(c.headings, collectHeadings(v.Doc, v.Source)...)
				text.WriteString(docText(v.Doc, v.Source))
			case *Component:
				walk(v.Children)
			}
		}
	}
	walk(c.nodes)

	c.text = strings.TrimSpace(text.String())
	c.words = len(strings.FieldsFunc(c.text, unicode.IsSpace))
}

func collectHeadings(doc ast.Node, src []byte) []Heading {
	var out []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		heading := Heading{Level: h.Level, Text: strings.TrimSpace(docText(h, src))}
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				heading.ID = string(b)
			}
		}
		out = append(out, heading)
		return ast.WalkSkipChildren, nil
	})
	return out
}
