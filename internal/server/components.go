package server

import (
	"fmt"
	"html"
	"io"
	"regexp"

	"github.com/TobiSchelling/blogpipe/internal/markup"
)

var youTubeID = regexp.MustCompile(`^[A-Za-z0-9_-]{6,20}$`)

var calloutKinds = map[string]bool{"info": true, "tip": true, "warning": true, "danger": true}

// Components returns the resolver for the components articles may use.
// Unknown components fall back to markup.Passthrough.
func Components() markup.Resolver {
	return markup.ResolverFunc(renderComponent)
}

func renderComponent(w io.Writer, c *markup.Component, children func(io.Writer) error) error {
	switch c.Name {
	case "Callout":
		return renderCallout(w, c, children)
	case "YouTube":
		return renderYouTube(w, c)
	default:
		return markup.Passthrough.RenderComponent(w, c, children)
	}
}

func renderCallout(w io.Writer, c *markup.Component, children func(io.Writer) error) error {
	kind, _ := c.Prop("type")
	if !calloutKinds[kind] {
		kind = "info"
	}
	if _, err := fmt.Fprintf(w, "<aside class=\"callout callout-%s\">\n", kind); err != nil {
		return err
	}
	if title, ok := c.Prop("title"); ok && title != "" {
		if _, err := fmt.Fprintf(w, "<p class=\"callout-title\">%s</p>\n", html.EscapeString(title)); err != nil {
			return err
		}
	}
	if err := children(w); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</aside>\n")
	return err
}

func renderYouTube(w io.Writer, c *markup.Component) error {
	id, _ := c.Prop("id")
	if !youTubeID.MatchString(id) {
		return fmt.Errorf("invalid video id %q", id)
	}
	title, ok := c.Prop("title")
	if !ok {
		title = "YouTube video"
	}
	_, err := fmt.Fprintf(w,
		"<div class=\"video\"><iframe src=\"https://www.youtube-nocookie.com/embed/%s\" title=\"%s\" loading=\"lazy\" allowfullscreen></iframe></div>\n",
		id, html.EscapeString(title))
	return err
}
