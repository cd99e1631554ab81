package summarize

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/enggist/pkg/domain"
	"github.com/umputun/enggist/pkg/feed"
)

//go:generate moq -out mocks/post_source.go -pkg mocks -skip-ensure -fmt goimports . PostSource
//go:generate moq -out mocks/summary_store.go -pkg mocks -skip-ensure -fmt goimports . SummaryStore
//go:generate moq -out mocks/summarizer.go -pkg mocks -skip-ensure -fmt goimports . Summarizer
//go:generate moq -out mocks/extractor.go -pkg mocks -skip-ensure -fmt goimports . Extractor

// messages returned when a run does no work
const (
	MsgNothingToDo = "No posts need summarization"
	MsgDisabled    = "Summarization is disabled"
)

// PostSource selects posts waiting for a summary
type PostSource interface {
	PostsWithoutSummary(ctx context.Context, limit int) ([]domain.Post, error)
}

// SummaryStore persists summaries
type SummaryStore interface {
	CreateSummary(ctx context.Context, summary *domain.Summary) error
}

// Summarizer generates a summary of one post
type Summarizer interface {
	Configured() bool
	Summarize(ctx context.Context, post domain.Post) (domain.Summary, error)
}

// Extractor fetches full article text
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Config holds batch settings
type Config struct {
	MaxPosts         int
	BatchSize        int
	Disabled         bool
	WarnThreshold    int
	MinContentLength int // posts with shorter plain text are extracted, if extractor is set
}

// Batcher summarizes pending posts in small concurrent groups
type Batcher struct {
	posts      PostSource
	summaries  SummaryStore
	summarizer Summarizer
	extractor  Extractor
	cfg        Config
}

// NewBatcher makes Batcher. extractor is optional, nil disables content enrichment.
func NewBatcher(posts PostSource, summaries SummaryStore, summarizer Summarizer, extractor Extractor, cfg Config) *Batcher {
	if cfg.MaxPosts <= 0 {
		cfg.MaxPosts = 15
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 3
	}
	if cfg.WarnThreshold <= 0 {
		cfg.WarnThreshold = 15
	}
	return &Batcher{posts: posts, summaries: summaries, summarizer: summarizer, extractor: extractor, cfg: cfg}
}

// Run summarizes up to MaxPosts posts without a summary, newest first. Groups of BatchSize run one
// after another, posts inside a group concurrently. Per-post failures are collected in the result.
// Returns domain.ErrNoAPIKey if the summarizer is not configured.
func (b *Batcher) Run(ctx context.Context) (domain.SummarizeResult, error) {
	if b.cfg.Disabled {
		lgr.Printf("[INFO] summarization disabled, skipping run")
		return domain.SummarizeResult{Message: MsgDisabled}, nil
	}
	if !b.summarizer.Configured() {
		return domain.SummarizeResult{}, domain.ErrNoAPIKey
	}

	posts, err := b.posts.PostsWithoutSummary(ctx, b.cfg.MaxPosts)
	if err != nil {
		return domain.SummarizeResult{}, fmt.Errorf("select posts: %w", err)
	}
	if len(posts) == 0 {
		lgr.Printf("[INFO] no posts need summarization")
		return domain.SummarizeResult{Message: MsgNothingToDo}, nil
	}

	runID := uuid.NewString()[:8]
	st := time.Now()
	lgr.Printf("[INFO] summarize %s started, %d posts in groups of %d", runID, len(posts), b.cfg.BatchSize)

	var res domain.SummarizeResult
	var mu sync.Mutex
	for start := 0; start < len(posts); start += b.cfg.BatchSize {
		if ctx.Err() != nil {
			lgr.Printf("[WARN] summarize %s interrupted: %v", runID, ctx.Err())
			break
		}
		group := posts[start:min(start+b.cfg.BatchSize, len(posts))]

		g, gctx := errgroup.WithContext(ctx)
		for _, post := range group {
			g.Go(func() error {
				err := b.summarizePost(gctx, post)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					lgr.Printf("[WARN] failed to summarize post %d %q: %v", post.ID, post.Title, err)
					res.Failed++
					res.Errors = append(res.Errors, domain.SummaryFailure{PostID: post.ID, Title: post.Title, Error: err.Error()})
					return nil
				}
				res.Summarized++
				return nil
			})
		}
		_ = g.Wait() // failures are collected, never returned
	}

	if res.Summarized > b.cfg.WarnThreshold {
		lgr.Printf("[WARN] summarize %s produced %d summaries, above threshold %d", runID, res.Summarized, b.cfg.WarnThreshold)
	}
	lgr.Printf("[INFO] summarize %s completed in %v, %d summarized, %d failed",
		runID, time.Since(st).Round(time.Millisecond), res.Summarized, res.Failed)
	return res, nil
}

// summarizePost generates and stores the summary of one post. An existing summary counts as success.
func (b *Batcher) summarizePost(ctx context.Context, post domain.Post) error {
	post.Content = b.prepareContent(ctx, post)

	summary, err := b.summarizer.Summarize(ctx, post)
	if err != nil {
		return err
	}
	summary.PostID = post.ID

	err = b.summaries.CreateSummary(ctx, &summary)
	if errors.Is(err, domain.ErrDuplicate) {
		lgr.Printf("[DEBUG] post %d already summarized", post.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

// prepareContent converts stored html to plain text, fetching the full article for thin posts
func (b *Batcher) prepareContent(ctx context.Context, post domain.Post) string {
	text := feed.StripHTML(post.Content)
	if b.extractor == nil || len([]rune(text)) >= b.cfg.MinContentLength || post.URL == "" {
		return text
	}

	extracted, err := b.extractor.Extract(ctx, post.URL)
	if err != nil {
		lgr.Printf("[DEBUG] extraction failed for post %d, using stored content: %v", post.ID, err)
		return text
	}
	if len([]rune(extracted)) > len([]rune(text)) {
		return extracted
	}
	return text
}
