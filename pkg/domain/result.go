package domain

import "time"

// SourceResult is the outcome of ingesting one source
type SourceResult struct {
	Name    string `json:"name"`
	New     int    `json:"new"`
	Skipped int    `json:"skipped"`
	Error   string `json:"error,omitempty"`
}

// IngestResult aggregates a whole ingestion pass
type IngestResult struct {
	Sources  []SourceResult `json:"sources"`
	TotalNew int            `json:"totalNew"`
}

// SummaryFailure describes a post that could not be summarized
type SummaryFailure struct {
	PostID int64  `json:"postId"`
	Title  string `json:"title"`
	Error  string `json:"error"`
}

// SummarizeResult aggregates a summarization batch
type SummarizeResult struct {
	Summarized int              `json:"summarized"`
	Failed     int              `json:"failed"`
	Errors     []SummaryFailure `json:"errors,omitempty"`
	Message    string           `json:"message,omitempty"`
}

// SourceHealth holds ingestion stats of one source
type SourceHealth struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	FeedURL      string     `json:"feedUrl"`
	Enabled      bool       `json:"enabled"`
	Posts24h     int        `json:"posts24h"`
	Posts7d      int        `json:"posts7d"`
	TotalPosts   int        `json:"totalPosts"`
	LatestPostAt *time.Time `json:"latestPostAt"`
}

// HealthTotals holds global counters
type HealthTotals struct {
	Posts            int `json:"posts"`
	Posts24h         int `json:"posts24h"`
	Summaries        int `json:"summaries"`
	PendingSummaries int `json:"pendingSummaries"`
}

// HealthReport is the admin view of ingestion health
type HealthReport struct {
	Totals  HealthTotals   `json:"totals"`
	Sources []SourceHealth `json:"sources"`
	Stale   []SourceHealth `json:"stale"`
}
