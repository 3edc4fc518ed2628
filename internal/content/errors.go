package content

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TobiSchelling/blogpipe/internal/markup"
)

// Sentinel errors for content ingestion.
var (
	ErrContentRootMissing      = errors.New("content root missing")
	ErrNoFrontMatter           = errors.New("front matter delimiter missing at start of file")
	ErrUnterminatedFrontMatter = errors.New("front matter closing delimiter not found")
)

// FieldError describes one front-matter field problem.
type FieldError struct {
	Field   string
	Problem string
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Problem
}

// ValidationError rejects a source whose front matter cannot become a Record.
// Either Err (structural problem) or Fields (schema problems) is set.
type ValidationError struct {
	Path   string
	Fields []FieldError
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("%s: invalid front matter: %s", e.Path, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// HasField reports whether field (or one of its entries, e.g. tags[1]) failed.
func (e *ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field || strings.HasPrefix(f.Field, field+"[") {
			return true
		}
	}
	return false
}

// CompilationError rejects a source whose body fails to compile.
// Line is 1-based within the whole file.
type CompilationError struct {
	Path string
	Line int
	Err  error
}

func (e *CompilationError) Error() string {
	var ce *markup.CompileError
	if errors.As(e.Err, &ce) {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, ce.Msg)
	}
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

// DiagnosticKind classifies a skipped source.
type DiagnosticKind string

const (
	KindRead        DiagnosticKind = "read"
	KindValidation  DiagnosticKind = "validation"
	KindCompilation DiagnosticKind = "compilation"
	KindDuplicate   DiagnosticKind = "duplicate"
)

// Diagnostic records a source that was left out of the published collection.
type Diagnostic struct {
	Path string
	Kind DiagnosticKind
	Err  error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %v", d.Kind, d.Err)
}

// NewDiagnostic classifies err for the source at path.
func NewDiagnostic(path string, err error) Diagnostic {
	d := Diagnostic{Path: path, Err: err, Kind: KindRead}
	var ve *ValidationError
	var ce *CompilationError
	switch {
	case errors.As(err, &ve):
		d.Kind = KindValidation
	case errors.As(err, &ce):
		d.Kind = KindCompilation
	}
	return d
}
