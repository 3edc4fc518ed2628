package content

import (
	"fmt"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is the syntax of a front-matter block.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var delimiters = map[string]Format{
	"---": FormatYAML,
	"+++": FormatTOML,
}

// FrontMatter is the raw header block of a source. BodyLine is the
// 1-based file line on which the body starts.
type FrontMatter struct {
	Format   Format
	Raw      []byte
	BodyLine int
}

// SplitFrontMatter separates the header block from the body. The file must
// open with a "---" (YAML) or "+++" (TOML) line and contain the same
// delimiter on a later line of its own. CRLF line endings are normalised.
func SplitFrontMatter(data []byte) (FrontMatter, string, error) {
	s := strings.TrimPrefix(string(data), "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")

	first, rest, _ := strings.Cut(s, "\n")
	delim := strings.TrimRight(first, " \t")
	format, ok := delimiters[delim]
	if !ok {
		return FrontMatter{}, "", ErrNoFrontMatter
	}

	line := 1
	offset := 0
	for offset <= len(rest) {
		end := strings.IndexByte(rest[offset:], '\n')
		var current string
		if end < 0 {
			current = rest[offset:]
		} else {
			current = rest[offset : offset+end]
		}
		line++

		if strings.TrimRight(current, " \t") == delim {
			body := ""
			if end >= 0 {
				body = rest[offset+end+1:]
			}
			return FrontMatter{
				Format:   format,
				Raw:      []byte(rest[:offset]),
				BodyLine: line + 1,
			}, body, nil
		}
		if end < 0 {
			break
		}
		offset += end + 1
	}
	return FrontMatter{}, "", ErrUnterminatedFrontMatter
}

// decodeFrontMatter turns the raw block into plain Go values: string, bool,
// int64, float64, []any, map[string]any and nil. Dates and timestamps
// become their textual form.
func decodeFrontMatter(fm FrontMatter) (map[string]any, error) {
	if strings.TrimSpace(string(fm.Raw)) == "" {
		return map[string]any{}, nil
	}
	switch fm.Format {
	case FormatTOML:
		return decodeTOML(fm.Raw)
	default:
		return decodeYAML(fm.Raw)
	}
}

func decodeYAML(raw []byte) (map[string]any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return map[string]any{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("front matter must be a mapping of keys to values")
	}
	v, err := yamlValue(root)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

// yamlValue keeps the resolved YAML tag, so quoted "true" stays text and
// yes/no are never booleans.
func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := yamlValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[n.Content[i].Value] = v
		}
		return out, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, err
			}
			return b, nil
		case "!!int":
			var i int64
			if err := n.Decode(&i); err != nil {
				return nil, err
			}
			return i, nil
		case "!!float":
			var f float64
			if err := n.Decode(&f); err != nil {
				return nil, err
			}
			return f, nil
		default:
			return n.Value, nil
		}
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

func decodeTOML(raw []byte) (map[string]any, error) {
	var m map[string]any
	if err := toml.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return normalizeTOML(m).(map[string]any), nil
}

func normalizeTOML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = normalizeTOML(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = normalizeTOML(t[i])
		}
		return out
	case toml.LocalDate:
		return t.String()
	case toml.LocalDateTime:
		return t.String()
	case toml.LocalTime:
		return t.String()
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return v
	}
}
