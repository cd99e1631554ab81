package ingest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-pkgz/lgr"

	"github.com/umputun/enggist/pkg/domain"
	"github.com/umputun/enggist/pkg/feed"
)

//go:generate moq -out mocks/post_store.go -pkg mocks -skip-ensure -fmt goimports . PostStore

const (
	maxExcerptLen = 500
	excerptCut    = 497
)

// Outcome is the result of upserting one candidate item
type Outcome int

// upsert outcomes, everything but OutcomeInserted counts as skipped
const (
	OutcomeInserted Outcome = iota
	OutcomeDuplicate
	OutcomeInvalid
	OutcomeFailed
)

// PostStore persists posts
type PostStore interface {
	CreatePost(ctx context.Context, post *domain.Post) error
}

// Upserter turns feed items into stored posts, deduplicated by content hash
type Upserter struct {
	store PostStore
}

// NewUpserter makes Upserter for the given store
func NewUpserter(store PostStore) *Upserter {
	return &Upserter{store: store}
}

// Upsert inserts the item as a post of the source unless a post with the same content hash exists.
// Store failures other than duplicates are logged and reported as OutcomeFailed, never returned.
func (u *Upserter) Upsert(ctx context.Context, src domain.Source, item domain.FeedItem) Outcome {
	title, link := strings.TrimSpace(item.Title), strings.TrimSpace(item.Link)
	if title == "" || link == "" {
		return OutcomeInvalid
	}

	publishedAt := itemDate(item)

	post := &domain.Post{
		SourceID:     src.ID,
		Title:        title,
		URL:          link,
		CanonicalURL: link,
		PublishedAt:  publishedAt,
		Author:       strings.TrimSpace(item.Author),
		Content:      feed.Sanitize(pickContent(item)),
		Excerpt:      makeExcerpt(item),
		ContentHash:  ContentHash(link, title, publishedAt),
	}

	err := u.store.CreatePost(ctx, post)
	switch {
	case err == nil:
		return OutcomeInserted
	case errors.Is(err, domain.ErrDuplicate):
		return OutcomeDuplicate
	default:
		lgr.Printf("[WARN] failed to store post %q from %s: %v", title, src.Name, err)
		return OutcomeFailed
	}
}

// itemDate returns parsed publish time of the item, falling back to its raw date text
func itemDate(item domain.FeedItem) *time.Time {
	if item.PublishedAt != nil {
		return item.PublishedAt
	}
	return parseDate(item.Published)
}

// parseDate parses raw feed date text in any common format, nil if empty or unparsable
func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		lgr.Printf("[DEBUG] can't parse date %q: %v", raw, err)
		return nil
	}
	t = t.UTC()
	return &t
}

// pickContent returns the richest content available
func pickContent(item domain.FeedItem) string {
	for _, c := range []string{item.RichContent, item.Content, item.Snippet} {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return ""
}

// makeExcerpt builds a plain text excerpt from the snippet, falling back to content
func makeExcerpt(item domain.FeedItem) string {
	excerpt := strings.TrimSpace(item.Snippet)
	if excerpt == "" {
		excerpt = feed.StripHTML(item.Content)
	}
	if excerpt == "" {
		excerpt = feed.StripHTML(item.RichContent)
	}
	runes := []rune(excerpt)
	if len(runes) > maxExcerptLen {
		return string(runes[:excerptCut]) + "..."
	}
	return excerpt
}
