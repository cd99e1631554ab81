package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/enggist/pkg/domain"
)

//go:generate moq -out mocks/source_store.go -pkg mocks -skip-ensure -fmt goimports . SourceStore
//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher

// SourceStore provides sources to ingest and records ingestion progress
type SourceStore interface {
	ListSources(ctx context.Context, enabledOnly bool) ([]domain.Source, error)
	UpdateLastSeen(ctx context.Context, id int64, itemHash string) error
}

// Fetcher retrieves feed items of a source
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]domain.FeedItem, error)
}

// Ingester pulls all enabled sources and stores new posts
type Ingester struct {
	sources    SourceStore
	fetcher    Fetcher
	upserter   *Upserter
	maxWorkers int
}

// NewIngester makes Ingester. maxWorkers limits sources fetched in parallel, 1 or less means sequential.
func NewIngester(sources SourceStore, posts PostStore, fetcher Fetcher, maxWorkers int) *Ingester {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Ingester{sources: sources, fetcher: fetcher, upserter: NewUpserter(posts), maxWorkers: maxWorkers}
}

// Run performs one ingestion pass over enabled sources. Per-source failures are reported in the
// result, only failure to list sources is returned as error.
func (i *Ingester) Run(ctx context.Context) (domain.IngestResult, error) {
	runID := uuid.NewString()[:8]
	st := time.Now()

	sources, err := i.sources.ListSources(ctx, true)
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("list sources: %w", err)
	}
	lgr.Printf("[INFO] ingest %s started, %d enabled sources", runID, len(sources))

	results := make([]domain.SourceResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.maxWorkers)
	for idx, src := range sources {
		g.Go(func() error {
			results[idx] = i.ingestSource(gctx, src)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	res := domain.IngestResult{Sources: results}
	for _, r := range results {
		res.TotalNew += r.New
	}
	lgr.Printf("[INFO] ingest %s completed in %v, %d new posts", runID, time.Since(st).Round(time.Millisecond), res.TotalNew)
	return res, nil
}

// ingestSource fetches and stores items of a single source
func (i *Ingester) ingestSource(ctx context.Context, src domain.Source) domain.SourceResult {
	res := domain.SourceResult{Name: src.Name}
	lgr.Printf("[DEBUG] fetching %s: %s", src.Name, src.FeedURL)

	items, err := i.fetcher.Fetch(ctx, src.FeedURL)
	if err != nil {
		lgr.Printf("[WARN] failed to fetch %s: %v", src.Name, err)
		res.Error = err.Error()
		return res
	}

	for _, item := range items {
		if ctx.Err() != nil {
			res.Error = ctx.Err().Error()
			return res
		}
		if i.upserter.Upsert(ctx, src, item) == OutcomeInserted {
			res.New++
			continue
		}
		res.Skipped++
	}

	if len(items) > 0 {
		first := items[0]
		hash := ContentHash(first.Link, first.Title, itemDate(first))
		if err := i.sources.UpdateLastSeen(ctx, src.ID, hash); err != nil {
			lgr.Printf("[WARN] failed to update last seen item of %s: %v", src.Name, err)
		}
	}

	lgr.Printf("[INFO] %s: %d new, %d skipped", src.Name, res.New, res.Skipped)
	return res
}
