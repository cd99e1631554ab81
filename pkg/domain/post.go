package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a record violates a uniqueness constraint
var ErrDuplicate = errors.New("duplicate")

// ErrNoAPIKey is returned when the LLM API key is not configured
var ErrNoAPIKey = errors.New("API key not configured")

// Post represents one ingested article
type Post struct {
	ID           int64      `json:"id"`
	SourceID     int64      `json:"sourceId"`
	Title        string     `json:"title"`
	URL          string     `json:"url"`
	CanonicalURL string     `json:"canonicalUrl"`
	PublishedAt  *time.Time `json:"publishedAt"`
	Author       string     `json:"author,omitempty"`
	Excerpt      string     `json:"excerpt"`
	Content      string     `json:"content,omitempty"`
	ContentHash  string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// PostView is a post joined with its source and optional summary
type PostView struct {
	Post
	Source  SourceRef `json:"source"`
	Summary *Summary  `json:"summary"`
}

// PostSort defines ordering of post lists
type PostSort string

// post sort options
const (
	SortNewest    PostSort = "newest"
	SortOldest    PostSort = "oldest"
	SortTitleAsc  PostSort = "title_asc"
	SortSourceAsc PostSort = "source_asc"
)

// ParsePostSort converts a raw value to PostSort, falling back to SortNewest
func ParsePostSort(s string) PostSort {
	switch PostSort(s) {
	case SortNewest, SortOldest, SortTitleAsc, SortSourceAsc:
		return PostSort(s)
	default:
		return SortNewest
	}
}

// PostFilter selects a page of posts
type PostFilter struct {
	SourceID int64
	Tag      Tag
	Sort     PostSort
	Page     int
	Limit    int
}

// PostPage is a page of posts with pagination info
type PostPage struct {
	Posts      []PostView `json:"posts"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"totalPages"`
}
