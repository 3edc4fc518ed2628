package markup

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// CompileError reports malformed component syntax. Line is 1-based within the body.
type CompileError struct {
	Line int
	Msg  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func errorf(line int, format string, args ...any) error {
	return &CompileError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

var (
	closeTagPattern = regexp.MustCompile(`^</([A-Z][A-Za-z0-9_.]*)\s*>$`)

	errIncompleteTag = errors.New("incomplete tag")
)

// item is a scanned body element before Markdown parsing.
type item struct {
	markdown  string
	component *componentItem
}

type componentItem struct {
	name        string
	props       []Prop
	selfClosing bool
	line        int
	children    []item
}

type frame struct {
	comp  *componentItem // nil for the document root
	items []item
	buf   strings.Builder
}

func (f *frame) write(line string) {
	f.buf.WriteString(line)
	f.buf.WriteByte('\n')
}

// flush turns buffered lines into a Markdown item; blank runs are dropped.
func (f *frame) flush() {
	if strings.TrimSpace(f.buf.String()) != "" {
		f.items = append(f.items, item{markdown: f.buf.String()})
	}
	f.buf.Reset()
}

// buildTree splits a body into Markdown runs and nested components.
// Component tags are recognised at the start of a line, outside fenced code.
func buildTree(body string) ([]item, error) {
	lines := strings.Split(body, "\n")
	root := &frame{}
	stack := []*frame{root}
	fence := ""

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		lineNo := i + 1
		top := stack[len(stack)-1]

		if fence != "" {
			top.write(line)
			if closesFence(line, fence) {
				fence = ""
			}
			continue
		}
		if marker := openingFence(line); marker != "" {
			fence = marker
			top.write(line)
			continue
		}

		trimmed := strings.TrimSpace(line)
		if !isComponentTag(trimmed) {
			top.write(line)
			continue
		}

		if strings.HasPrefix(trimmed, "</") {
			m := closeTagPattern.FindStringSubmatch(trimmed)
			if m == nil {
				return nil, errorf(lineNo, "malformed closing tag %q", trimmed)
			}
			if top.comp == nil {
				return nil, errorf(lineNo, "closing tag </%s> has no matching opening tag", m[1])
			}
			if top.comp.name != m[1] {
				return nil, errorf(lineNo, "closing tag </%s> does not match <%s> opened on line %d",
					m[1], top.comp.name, top.comp.line)
			}
			top.flush()
			top.comp.children = top.items
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]
			parent.items = append(parent.items, item{component: top.comp})
			continue
		}

		// Opening tags may spread their attributes over several lines.
		tagText := trimmed
		tag, rest, err := parseTag(tagText)
		for errors.Is(err, errIncompleteTag) && i+1 < len(lines) {
			i++
			tagText += "\n" + lines[i]
			tag, rest, err = parseTag(tagText)
		}
		if errors.Is(err, errIncompleteTag) {
			return nil, errorf(lineNo, "unterminated tag %q", firstLine(trimmed))
		}
		if err != nil {
			return nil, errorf(lineNo, "%v", err)
		}
		tag.line = lineNo
		top.flush()

		if tag.selfClosing {
			top.items = append(top.items, item{component: tag})
			if strings.TrimSpace(rest) != "" {
				top.write(rest)
			}
			continue
		}

		closing := "</" + tag.name + ">"
		if idx := strings.Index(rest, closing); idx >= 0 {
			if inner := rest[:idx]; strings.TrimSpace(inner) != "" {
				tag.children = []item{{markdown: strings.TrimSpace(inner) + "\n"}}
			}
			top.items = append(top.items, item{component: tag})
			if trailing := rest[idx+len(closing):]; strings.TrimSpace(trailing) != "" {
				top.write(trailing)
			}
			continue
		}

		f := &frame{comp: tag}
		if strings.TrimSpace(rest) != "" {
			f.write(rest)
		}
		stack = append(stack, f)
	}

	if len(stack) > 1 {
		open := stack[len(stack)-1].comp
		return nil, errorf(open.line, "component <%s> is never closed", open.name)
	}
	root.flush()
	return root.items, nil
}

// isComponentTag reports whether s starts with <Upper or </Upper.
func isComponentTag(s string) bool {
	if len(s) < 2 || s[0] != '<' {
		return false
	}
	if s[1] == '/' {
		return len(s) > 2 && isUpper(s[2])
	}
	return isUpper(s[1])
}

// parseTag reads an opening tag at the start of s and returns what follows it.
func parseTag(s string) (*componentItem, string, error) {
	i := 1
	for i < len(s) && isNameChar(s[i]) {
		i++
	}
	name := s[1:i]
	tag := &componentItem{name: name}

	for {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			return nil, "", errIncompleteTag
		}

		switch c := s[i]; {
		case c == '>':
			return tag, s[i+1:], nil
		case c == '/':
			if i+1 >= len(s) {
				return nil, "", errIncompleteTag
			}
			if s[i+1] != '>' {
				return nil, "", fmt.Errorf("unexpected '/' in <%s>", name)
			}
			tag.selfClosing = true
			return tag, s[i+2:], nil
		case isAttrStart(c):
			j := i
			for j < len(s) && isAttrChar(s[j]) {
				j++
			}
			prop := Prop{Name: s[i:j]}
			i = j

			k := i
			for k < len(s) && isSpace(s[k]) {
				k++
			}
			if k >= len(s) || s[k] != '=' {
				prop.Value, prop.Expr = "true", true
				tag.props = append(tag.props, prop)
				continue
			}

			i = k + 1
			for i < len(s) && isSpace(s[i]) {
				i++
			}
			if i >= len(s) {
				return nil, "", errIncompleteTag
			}
			switch q := s[i]; q {
			case '"', '\'':
				end := strings.IndexByte(s[i+1:], q)
				if end < 0 {
					return nil, "", errIncompleteTag
				}
				prop.Value = s[i+1 : i+1+end]
				i += end + 2
			case '{':
				end, ok := matchBrace(s, i)
				if !ok {
					return nil, "", errIncompleteTag
				}
				prop.Value = strings.TrimSpace(s[i+1 : end])
				prop.Expr = true
				i = end + 1
			default:
				return nil, "", fmt.Errorf("attribute %q of <%s> needs a quoted or {expression} value", prop.Name, name)
			}
			tag.props = append(tag.props, prop)
		default:
			return nil, "", fmt.Errorf("unexpected character %q in <%s>", c, name)
		}
	}
}

// matchBrace returns the index of the brace closing the one at open,
// skipping quoted strings.
func matchBrace(s string, open int) (int, bool) {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// openingFence returns the fence marker (``` or ~~~, possibly longer) opening a code block.
func openingFence(line string) string {
	s := trimIndent(line)
	if len(s) < 3 || (s[0] != '`' && s[0] != '~') {
		return ""
	}
	n := 0
	for n < len(s) && s[n] == s[0] {
		n++
	}
	if n < 3 {
		return ""
	}
	if s[0] == '`' && strings.Contains(s[n:], "`") {
		return ""
	}
	return s[:n]
}

func closesFence(line, marker string) bool {
	s := strings.TrimRight(trimIndent(line), " \t")
	if len(s) < len(marker) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != marker[0] {
			return false
		}
	}
	return true
}

// trimIndent drops up to three leading spaces.
func trimIndent(line string) string {
	for i := 0; i < 3 && strings.HasPrefix(line, " "); i++ {
		line = line[1:]
	}
	return line
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func isUpper(c byte) bool     { return c >= 'A' && c <= 'Z' }
func isSpace(c byte) bool     { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isNameChar(c byte) bool  { return isAttrStart(c) || (c >= '0' && c <= '9') || c == '.' }
func isAttrStart(c byte) bool { return (c >= 'a' && c <= 'z') || isUpper(c) || c == '_' }
func isAttrChar(c byte) bool  { return isNameChar(c) || c == '-' || c == ':' }
