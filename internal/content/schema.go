package content

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldType is the semantic type of a front-matter field.
type FieldType int

const (
	TypeText FieldType = iota
	TypeDate
	TypeBool
	TypeTextList
)

func (t FieldType) String() string {
	switch t {
	case TypeDate:
		return "date"
	case TypeBool:
		return "boolean"
	case TypeTextList:
		return "list of text"
	default:
		return "text"
	}
}

// DateLayout is the canonical form of the date field.
const DateLayout = "2006-01-02"

// Field describes one front-matter key. Default applies to optional fields
// that are absent or null.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
	Default  any
}

// Schema is an ordered list of fields; keys not listed are ignored.
type Schema []Field

// ArticleSchema is the front-matter contract for blog articles.
var ArticleSchema = Schema{
	{Name: "title", Type: TypeText, Required: true},
	{Name: "description", Type: TypeText, Required: true},
	{Name: "date", Type: TypeDate, Required: true},
	{Name: "author", Type: TypeText, Required: true},
	{Name: "category", Type: TypeText, Required: true},
	{Name: "tags", Type: TypeTextList, Default: []string{}},
	{Name: "image", Type: TypeText, Default: ""},
	{Name: "featured", Type: TypeBool, Default: false},
}

// Apply coerces values to the schema. The returned map holds a value of the
// declared Go type (string, bool, []string) for every field that passed.
func (s Schema) Apply(values map[string]any) (map[string]any, []FieldError) {
	out := make(map[string]any, len(s))
	var errs []FieldError
	for _, f := range s {
		raw, present := values[f.Name]
		if !present || raw == nil {
			if f.Required {
				errs = append(errs, FieldError{Field: f.Name, Problem: "required field is missing"})
				continue
			}
			out[f.Name] = defaultValue(f)
			continue
		}
		v, err := coerce(f.Type, raw)
		if err != nil {
			errs = append(errs, FieldError{Field: f.Name, Problem: err.Error()})
			continue
		}
		out[f.Name] = v
	}
	return out, errs
}

func defaultValue(f Field) any {
	switch d := f.Default.(type) {
	case []string:
		return append([]string{}, d...)
	case nil:
		switch f.Type {
		case TypeBool:
			return false
		case TypeTextList:
			return []string{}
		default:
			return ""
		}
	default:
		return d
	}
}

func coerce(t FieldType, raw any) (any, error) {
	switch t {
	case TypeText:
		s, ok := asText(raw)
		if !ok {
			return nil, fmt.Errorf("expected text, got %s", describe(raw))
		}
		return s, nil
	case TypeDate:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected a date (YYYY-MM-DD), got %s", describe(raw))
		}
		d, err := parseDate(s)
		if err != nil {
			return nil, fmt.Errorf("expected a date (YYYY-MM-DD), got %q", s)
		}
		return d.Format(DateLayout), nil
	case TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected true or false, got %s", describe(raw))
		}
		return b, nil
	case TypeTextList:
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("expected a list, got %s", describe(raw))
		}
		out := make([]string, 0, len(items))
		for i, it := range items {
			s, ok := asText(it)
			if !ok {
				return nil, fmt.Errorf("entry %d: expected text, got %s", i, describe(it))
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown field type %d", t)
}

func asText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return d, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}

func describe(v any) string {
	switch t := v.(type) {
	case nil:
		return "nothing"
	case string:
		return fmt.Sprintf("text %q", t)
	case bool:
		return fmt.Sprintf("boolean %v", t)
	case int64, float64:
		return fmt.Sprintf("number %v", t)
	case []any:
		return "a list"
	case map[string]any:
		return "a mapping"
	}
	return fmt.Sprintf("%T", v)
}

// Meta is the typed front matter after schema coercion. Value constraints
// are checked with validator tags.
type Meta struct {
	Title       string   `yaml:"title" validate:"required"`
	Description string   `yaml:"description" validate:"required"`
	Date        string   `yaml:"date" validate:"required,datetime=2006-01-02"`
	Author      string   `yaml:"author" validate:"required"`
	Category    string   `yaml:"category" validate:"required"`
	Tags        []string `yaml:"tags" validate:"dive,required"`
	Image       string   `yaml:"image"`
	Featured    bool     `yaml:"featured"`
}

func metaFrom(v map[string]any) Meta {
	m := Meta{}
	m.Title, _ = v["title"].(string)
	m.Description, _ = v["description"].(string)
	m.Date, _ = v["date"].(string)
	m.Author, _ = v["author"].(string)
	m.Category, _ = v["category"].(string)
	m.Tags, _ = v["tags"].([]string)
	m.Image, _ = v["image"].(string)
	m.Featured, _ = v["featured"].(bool)
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return m
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// checkMeta runs value constraints, skipping fields that already failed coercion.
func checkMeta(v *validator.Validate, m Meta, failed []FieldError) []FieldError {
	err := v.Struct(m)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "front matter", Problem: err.Error()}}
	}

	skip := make(map[string]bool, len(failed))
	for _, f := range failed {
		skip[f.Field] = true
	}
	var out []FieldError
	for _, fe := range verrs {
		field := fe.Field()
		root, _, _ := strings.Cut(field, "[")
		if skip[root] {
			continue
		}
		out = append(out, FieldError{Field: field, Problem: constraintMessage(fe)})
	}
	return out
}

func constraintMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "datetime":
		return fmt.Sprintf("must be a date formatted %s", fe.Param())
	}
	return fmt.Sprintf("failed %q constraint", fe.Tag())
}
