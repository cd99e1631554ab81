package domain

import "time"

// Source represents a feed endpoint of one publisher
type Source struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Site             string    `json:"site"`
	FeedURL          string    `json:"feedUrl"`
	Category         string    `json:"category,omitempty"`
	Enabled          bool      `json:"enabled"`
	LastSeenItemHash string    `json:"-"`
	LastETag         string    `json:"-"`
	LastModified     string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
}

// SourceRef is the short source representation attached to posts
type SourceRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Site string `json:"site"`
}

// FeedItem is a candidate item parsed from a feed, not yet persisted
type FeedItem struct {
	Title       string
	Link        string
	Published   string     // raw date text as delivered by the feed
	PublishedAt *time.Time // nil if missing or unparsable
	Author      string
	RichContent string // content:encoded or equivalent
	Content     string
	Snippet     string // plain text
}
