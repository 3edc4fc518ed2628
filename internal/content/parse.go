package content

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/TobiSchelling/blogpipe/internal/markup"
)

// Parser turns sources into records. It is safe for concurrent use.
type Parser struct {
	prefix   string
	compiler *markup.Compiler
	validate *validator.Validate
}

// NewParser creates a Parser that builds URLs under prefix. A nil compiler
// gets a fresh markup.Compiler.
func NewParser(prefix string, compiler *markup.Compiler) *Parser {
	if prefix == "" {
		prefix = DefaultRoutePrefix
	}
	if compiler == nil {
		compiler = markup.NewCompiler()
	}
	return &Parser{prefix: prefix, compiler: compiler, validate: newValidator()}
}

// Parse validates the front matter of src and compiles its body. Failures
// are *ValidationError or *CompilationError.
func (p *Parser) Parse(src Source) (Record, error) {
	fm, body, err := SplitFrontMatter(src.Data)
	if err != nil {
		return Record{}, &ValidationError{Path: src.Path, Err: err}
	}

	values, err := decodeFrontMatter(fm)
	if err != nil {
		return Record{}, &ValidationError{Path: src.Path, Err: fmt.Errorf("decoding %s front matter: %w", fm.Format, err)}
	}

	coerced, fieldErrs := ArticleSchema.Apply(values)
	meta := metaFrom(coerced)
	fieldErrs = append(fieldErrs, checkMeta(p.validate, meta, fieldErrs)...)
	if len(fieldErrs) > 0 {
		return Record{}, &ValidationError{Path: src.Path, Fields: fieldErrs}
	}

	compiled, err := p.compiler.Compile(body)
	if err != nil {
		line := fm.BodyLine
		var ce *markup.CompileError
		if errors.As(err, &ce) {
			line += ce.Line - 1
		}
		return Record{}, &CompilationError{Path: src.Path, Line: line, Err: err}
	}

	published, _ := time.Parse(DateLayout, meta.Date)
	slug := Slug(src.Rel)
	return Record{
		Slug:        slug,
		URL:         URLFor(p.prefix, slug),
		Path:        src.Path,
		Title:       meta.Title,
		Description: meta.Description,
		Date:        meta.Date,
		Published:   published,
		Author:      meta.Author,
		Category:    meta.Category,
		Tags:        meta.Tags,
		Image:       meta.Image,
		Featured:    meta.Featured,
		Body:        compiled,
	}, nil
}
