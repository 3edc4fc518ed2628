// Package markup compiles article bodies into a pre-parsed render tree.
//
// A body is Markdown interspersed with component invocations such as
// <Callout type="info"> ... </Callout>. Compilation parses every Markdown
// segment into a goldmark AST once and nests the segments under the
// components that enclose them. Rendering walks that tree: Markdown renders
// through goldmark without re-parsing, components are handed to a Resolver
// supplied by the display layer.
package markup

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

var crlfOrCR = regexp.MustCompile(`\r\n?`)

// Compiler turns raw body text into Content. It is safe for concurrent use.
type Compiler struct {
	md    goldmark.Markdown
	cache sync.Map // sha256 hex of raw text -> *Content
}

// NewCompiler creates a Compiler with GFM, footnotes, heading IDs and
// class-based syntax highlighting.
func NewCompiler() *Compiler {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)
	return &Compiler{md: md}
}

// Compile parses raw into Content. Identical input returns the same
// *Content from the cache; failures are not cached.
func (c *Compiler) Compile(raw string) (*Content, error) {
	key := hashText(raw)
	if cached, ok := c.cache.Load(key); ok {
		return cached.(*Content), nil
	}

	normalized := crlfOrCR.ReplaceAllString(raw, "\n")
	tree, err := buildTree(normalized)
	if err != nil {
		return nil, err
	}

	ids := newHeadingIDs()
	content := &Content{renderer: c.md.Renderer()}
	content.nodes = c.convert(tree, ids)
	content.index()

	actual, _ := c.cache.LoadOrStore(key, content)
	return actual.(*Content), nil
}

// convert parses the Markdown segments of a scanned tree.
func (c *Compiler) convert(items []item, ids parser.IDs) []Node {
	nodes := make([]Node, 0, len(items))
	for _, it := range items {
		if it.component == nil {
			src := []byte(it.markdown)
			doc := c.md.Parser().Parse(text.NewReader(src), parser.WithContext(parser.NewContext(parser.WithIDs(ids))))
			nodes = append(nodes, &Markdown{Source: src, Doc: doc})
			continue
		}
		comp := &Component{
			Name:        it.component.name,
			Props:       it.component.props,
			SelfClosing: it.component.selfClosing,
			Line:        it.component.line,
		}
		comp.Children = c.convert(it.component.children, ids)
		nodes = append(nodes, comp)
	}
	return nodes
}

func hashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// docText collects the visible text of a Markdown document, skipping code blocks.
func docText(doc ast.Node, src []byte) string {
	var buf []byte
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch v := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				buf = append(buf, v.Segment.Value(src)...)
				if v.SoftLineBreak() || v.HardLineBreak() {
					buf = append(buf, ' ')
				}
			}
		case *ast.String:
			if entering {
				buf = append(buf, v.Value...)
			}
		default:
			if !entering && n.Type() == ast.TypeBlock && len(buf) > 0 && buf[len(buf)-1] != '\n' {
				buf = append(buf, '\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return string(buf)
}
