package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/umputun/enggist/pkg/domain"
)

var ugcPolicy = bluemonday.UGCPolicy()

// toFeedItem maps a parsed feed entry to a candidate item.
// gofeed already resolves content:encoded (rss) and content (atom) into item.Content.
func toFeedItem(item *gofeed.Item) domain.FeedItem {
	res := domain.FeedItem{
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Published:   item.Published,
		RichContent: item.Content,
		Content:     item.Description,
		Author:      itemAuthor(item),
	}

	switch {
	case item.PublishedParsed != nil:
		t := item.PublishedParsed.UTC()
		res.PublishedAt = &t
	case item.UpdatedParsed != nil:
		t := item.UpdatedParsed.UTC()
		res.PublishedAt = &t
		res.Published = item.Updated
	}

	snippetSrc := item.Description
	if snippetSrc == "" {
		snippetSrc = item.Content
	}
	res.Snippet = StripHTML(snippetSrc)

	return res
}

func itemAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return item.DublinCoreExt.Creator[0]
	}
	return ""
}

// StripHTML returns the plain text of an html fragment with whitespace collapsed
func StripHTML(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	doc.Find("script,style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Sanitize removes unsafe markup from feed-provided html, keeping formatting
func Sanitize(html string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(html))
}
