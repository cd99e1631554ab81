package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/umputun/enggist/pkg/domain"
)

// ParseOPML reads subscriptions from an OPML document, descending into nested outlines.
// Outlines without a feed url are treated as folders, their text becomes the category of children.
func ParseOPML(r io.Reader) ([]domain.Source, error) {
	var doc OPML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode opml: %w", err)
	}

	var res []domain.Source
	var walk func(outlines []OPMLOutline, category string)
	walk = func(outlines []OPMLOutline, category string) {
		for _, o := range outlines {
			name := firstNonEmpty(o.Title, o.Text)
			feedURL := strings.TrimSpace(firstNonEmpty(o.XMLURL, o.URL))
			if feedURL == "" {
				walk(o.Outlines, name)
				continue
			}
			site := strings.TrimSpace(firstNonEmpty(o.HTMLURL, o.URL))
			if site == "" || site == feedURL {
				site = siteOf(feedURL)
			}
			if name == "" {
				name = feedURL
			}
			res = append(res, domain.Source{
				Name:     strings.TrimSpace(name),
				Site:     site,
				FeedURL:  feedURL,
				Category: category,
				Enabled:  true,
			})
			walk(o.Outlines, category)
		}
	}
	walk(doc.Body.Outlines, "")

	return res, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// siteOf returns scheme and host of a feed url
func siteOf(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return feedURL
	}
	return u.Scheme + "://" + u.Host
}
