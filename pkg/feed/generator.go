package feed

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/umputun/enggist/pkg/domain"
)

// Generator creates RSS and OPML documents
type Generator struct {
	baseURL string
	now     func() time.Time
}

// NewGenerator creates a new feed generator
func NewGenerator(baseURL string) *Generator {
	return &Generator{
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// GenerateRSS creates an RSS 2.0 feed of posts with their summaries when present, optionally scoped to a tag
func (g *Generator) GenerateRSS(posts []domain.PostView, tag domain.Tag) (string, error) {
	title := "Enggist - Engineering Blog Digest"
	selfLink := g.baseURL + "/rss"
	description := "Summaries of the latest engineering blog posts"
	if tag != "" {
		title = "Enggist - " + tag.Label()
		selfLink = fmt.Sprintf("%s/rss/tag/%s", g.baseURL, tag)
		description = fmt.Sprintf("Summaries of engineering blog posts about %s", tag.Label())
	}

	items := make([]*RSSItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, g.toRSSItem(p))
	}

	doc := &RSS{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: &RSSChannel{
			Title:         title,
			Link:          g.baseURL + "/",
			Description:   description,
			AtomLink:      &AtomLink{Href: selfLink, Rel: "self", Type: "application/rss+xml"},
			LastBuildDate: g.now().UTC().Format(time.RFC1123Z),
			Items:         items,
		},
	}

	output, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}
	return xml.Header + string(output), nil
}

func (g *Generator) toRSSItem(p domain.PostView) *RSSItem {
	var desc strings.Builder
	categories := []string{}
	if p.Summary != nil {
		desc.WriteString(p.Summary.WhyItMatters)
		for _, b := range p.Summary.Bullets {
			desc.WriteString("\n- " + b)
		}
		for _, t := range p.Summary.Tags {
			categories = append(categories, t.Label())
		}
	} else {
		desc.WriteString(p.Excerpt)
	}

	pub := p.CreatedAt
	if p.PublishedAt != nil {
		pub = *p.PublishedAt
	}

	link := p.CanonicalURL
	if link == "" {
		link = p.URL
	}

	return &RSSItem{
		Title:       fmt.Sprintf("%s (%s)", p.Title, p.Source.Name),
		Link:        link,
		GUID:        link,
		Description: strings.TrimSpace(desc.String()),
		Author:      p.Author,
		PubDate:     pub.UTC().Format(time.RFC1123Z),
		Categories:  categories,
	}
}

// GenerateOPML creates an OPML document of enabled sources, grouped by category
func (g *Generator) GenerateOPML(sources []domain.Source) (string, error) {
	var outlines []OPMLOutline
	folders := map[string]int{} // category -> index in outlines
	for _, s := range sources {
		if !s.Enabled {
			continue
		}
		o := OPMLOutline{Text: s.Name, Title: s.Name, Type: "rss", XMLURL: s.FeedURL, HTMLURL: s.Site}
		if s.Category == "" {
			outlines = append(outlines, o)
			continue
		}
		idx, ok := folders[s.Category]
		if !ok {
			outlines = append(outlines, OPMLOutline{Text: s.Category, Title: s.Category})
			idx = len(outlines) - 1
			folders[s.Category] = idx
		}
		outlines[idx].Outlines = append(outlines[idx].Outlines, o)
	}

	doc := OPML{
		Version: "2.0",
		Head: OPMLHead{
			Title:       "Enggist Sources",
			DateCreated: g.now().UTC().Format(time.RFC1123Z),
		},
		Body: OPMLBody{Outlines: outlines},
	}

	output, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal OPML: %w", err)
	}
	return xml.Header + string(output), nil
}
