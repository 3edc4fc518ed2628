package markup

import (
	"strconv"
	"unicode"

	"github.com/yuin/goldmark/ast"
)

// headingIDs generates heading anchors that stay unique across every
// Markdown segment of one body.
type headingIDs struct {
	seen map[string]struct{}
}

func newHeadingIDs() *headingIDs {
	return &headingIDs{seen: make(map[string]struct{})}
}

func (s *headingIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	base := anchor(string(value))
	if base == "" {
		if kind == ast.KindHeading {
			base = "heading"
		} else {
			base = "id"
		}
	}
	id := base
	for i := 1; ; i++ {
		if _, taken := s.seen[id]; !taken {
			break
		}
		id = base + "-" + strconv.Itoa(i)
	}
	s.seen[id] = struct{}{}
	return []byte(id)
}

func (s *headingIDs) Put(value []byte) {
	s.seen[string(value)] = struct{}{}
}

// anchor lowercases letters and digits and joins words with single dashes.
func anchor(s string) string {
	out := make([]rune, 0, len(s))
	dash := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && len(out) > 0 {
				out = append(out, '-')
			}
			dash = false
			out = append(out, unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-' || r == '_':
			dash = true
		}
	}
	return string(out)
}
