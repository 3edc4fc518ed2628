// Package feed renders the published articles as an RSS 2.0 channel.
package feed

import (
	"encoding/xml"
	"io"
	"strings"
	"time"

	"github.com/TobiSchelling/blogpipe/internal/collection"
	"github.com/TobiSchelling/blogpipe/internal/content"
)

// DefaultLimit is the number of items in a feed.
const DefaultLimit = 20

// Channel describes the feed as a whole.
type Channel struct {
	Title       string
	Description string
	BaseURL     string // absolute site root, e.g. https://example.com
	FeedPath    string // path of the feed itself, for the self link
	Limit       int
}

type rss struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Self          *atomLink `xml:"atom:link,omitempty"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	Author      string   `xml:"author,omitempty"`
	Categories  []string `xml:"category"`
	GUID        rssGUID  `xml:"guid"`
	PubDate     string   `xml:"pubDate"`
	Enclosure   *rssEnc  `xml:"enclosure,omitempty"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssEnc struct {
	URL    string `xml:"url,attr"`
	Type   string `xml:"type,attr"`
	Length int    `xml:"length,attr"`
}

// Write renders records as RSS, newest first, at most ch.Limit items.
// Record URLs are made absolute against ch.BaseURL.
func Write(w io.Writer, ch Channel, records []content.Record) error {
	limit := ch.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	sorted := collection.SortByDate(records, false)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	base := strings.TrimRight(ch.BaseURL, "/")
	doc := rss{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:       ch.Title,
			Link:        base + "/",
			Description: ch.Description,
			Language:    "en",
			Items:       make([]rssItem, 0, len(sorted)),
		},
	}
	if ch.FeedPath != "" {
		doc.Channel.Self = &atomLink{Href: base + ch.FeedPath, Rel: "self", Type: "application/rss+xml"}
	}
	if len(sorted) > 0 {
		doc.Channel.LastBuildDate = sorted[0].Published.Format(time.RFC1123Z)
	}

	for _, r := range sorted {
		link := base + r.URL
		item := rssItem{
			Title:       r.Title,
			Link:        link,
			Description: r.Description,
			Author:      r.Author,
			Categories:  append([]string{r.Category}, r.Tags...),
			GUID:        rssGUID{IsPermaLink: true, Value: link},
			PubDate:     r.Published.Format(time.RFC1123Z),
		}
		if r.Image != "" {
			item.Enclosure = &rssEnc{URL: absolute(base, r.Image), Type: imageType(r.Image)}
		}
		doc.Channel.Items = append(doc.Channel.Items, item)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func absolute(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return base + "/" + strings.TrimLeft(ref, "/")
}

func imageType(ref string) string {
	ref = strings.ToLower(ref)
	switch {
	case strings.HasSuffix(ref, ".png"):
		return "image/png"
	case strings.HasSuffix(ref, ".gif"):
		return "image/gif"
	case strings.HasSuffix(ref, ".webp"):
		return "image/webp"
	case strings.HasSuffix(ref, ".svg"):
		return "image/svg+xml"
	}
	return "image/jpeg"
}
