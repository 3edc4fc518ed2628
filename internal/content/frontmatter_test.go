package content

import (
	"errors"
	"testing"
)

func TestSplitFrontMatter(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		format   Format
		raw      string
		body     string
		bodyLine int
		wantErr  error
	}{
		{
			name:     "yaml",
			data:     "---\ntitle: Hi\n---\nBody text\n",
			format:   FormatYAML,
			raw:      "title: Hi\n",
			body:     "Body text\n",
			bodyLine: 4,
		},
		{
			name:     "toml",
			data:     "+++\ntitle = \"Hi\"\n+++\n\nBody\n",
			format:   FormatTOML,
			raw:      "title = \"Hi\"\n",
			body:     "\nBody\n",
			bodyLine: 4,
		},
		{
			name:     "crlf and bom",
			data:     "\ufeff---\r\ntitle: Hi\r\n---\r\nBody\r\n",
			format:   FormatYAML,
			raw:      "title: Hi\n",
			body:     "Body\n",
			bodyLine: 4,
		},
		{
			name:     "dashes inside body are kept",
			data:     "---\na: 1\n---\nabove\n---\nbelow\n",
			format:   FormatYAML,
			raw:      "a: 1\n",
			body:     "above\n---\nbelow\n",
			bodyLine: 4,
		},
		{
			name:     "no trailing newline",
			data:     "---\na: 1\n---",
			format:   FormatYAML,
			raw:      "a: 1\n",
			body:     "",
			bodyLine: 4,
		},
		{
			name:    "missing opening delimiter",
			data:    "title: Hi\n---\nBody\n",
			wantErr: ErrNoFrontMatter,
		},
		{
			name:    "leading blank line",
			data:    "\n---\ntitle: Hi\n---\n",
			wantErr: ErrNoFrontMatter,
		},
		{
			name:    "unterminated",
			data:    "---\ntitle: Hi\nBody\n",
			wantErr: ErrUnterminatedFrontMatter,
		},
		{
			name:    "mismatched delimiters",
			data:    "---\ntitle: Hi\n+++\nBody\n",
			wantErr: ErrUnterminatedFrontMatter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, err := SplitFrontMatter([]byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fm.Format != tt.format {
				t.Errorf("format = %q, want %q", fm.Format, tt.format)
			}
			if string(fm.Raw) != tt.raw {
				t.Errorf("raw = %q, want %q", fm.Raw, tt.raw)
			}
			if body != tt.body {
				t.Errorf("body = %q, want %q", body, tt.body)
			}
			if fm.BodyLine != tt.bodyLine {
				t.Errorf("body line = %d, want %d", fm.BodyLine, tt.bodyLine)
			}
		})
	}
}

func TestDecodeYAMLKeepsTags(t *testing.T) {
	values, err := decodeFrontMatter(FrontMatter{Format: FormatYAML, Raw: []byte(`
title: Hello
date: 2024-01-03
count: 3
ratio: 1.5
flag: true
quoted: "true"
word: yes
tags: [a, b]
empty:
`)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checks := map[string]any{
		"title":  "Hello",
		"date":   "2024-01-03",
		"count":  int64(3),
		"ratio":  1.5,
		"flag":   true,
		"quoted": "true",
		"word":   "yes",
		"empty":  nil,
	}
	for k, want := range checks {
		if got := values[k]; got != want {
			t.Errorf("%s = %#v, want %#v", k, got, want)
		}
	}
	tags, ok := values["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "a" {
		t.Errorf("unexpected tags %#v", values["tags"])
	}
}

func TestDecodeTOMLNormalizesDates(t *testing.T) {
	values, err := decodeFrontMatter(FrontMatter{Format: FormatTOML, Raw: []byte(`
title = "Hello"
date = 2024-01-03
featured = true
tags = ["x"]
`)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values["date"] != "2024-01-03" {
		t.Errorf("expected textual date, got %#v", values["date"])
	}
	if values["featured"] != true {
		t.Errorf("expected bool, got %#v", values["featured"])
	}
}

func TestDecodeYAMLRejectsNonMapping(t *testing.T) {
	_, err := decodeFrontMatter(FrontMatter{Format: FormatYAML, Raw: []byte("- a\n- b\n")})
	if err == nil {
		t.Fatal("expected error for sequence front matter")
	}
}
