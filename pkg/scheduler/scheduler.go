package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/enggist/pkg/domain"
)

//go:generate moq -out mocks/ingester.go -pkg mocks -skip-ensure -fmt goimports . Ingester
//go:generate moq -out mocks/batcher.go -pkg mocks -skip-ensure -fmt goimports . Batcher

// Ingester runs one ingestion pass
type Ingester interface {
	Run(ctx context.Context) (domain.IngestResult, error)
}

// Batcher runs one summarization batch
type Batcher interface {
	Run(ctx context.Context) (domain.SummarizeResult, error)
}

// Params groups scheduler dependencies and intervals
type Params struct {
	Ingester          Ingester
	Batcher           Batcher
	IngestInterval    time.Duration
	IngestTimeout     time.Duration
	SummarizeInterval time.Duration
	SummarizeTimeout  time.Duration
}

// Scheduler runs ingestion and summarization periodically in-process
type Scheduler struct {
	ingester          Ingester
	batcher           Batcher
	ingestInterval    time.Duration
	ingestTimeout     time.Duration
	summarizeInterval time.Duration
	summarizeTimeout  time.Duration
	wg                sync.WaitGroup
	cancel            context.CancelFunc
}

// NewScheduler creates a new scheduler instance
func NewScheduler(params Params) *Scheduler {
	if params.IngestInterval == 0 {
		params.IngestInterval = 24 * time.Hour
	}
	if params.SummarizeInterval == 0 {
		params.SummarizeInterval = 24 * time.Hour
	}
	if params.IngestTimeout == 0 {
		params.IngestTimeout = 10 * time.Minute
	}
	if params.SummarizeTimeout == 0 {
		params.SummarizeTimeout = 10 * time.Minute
	}
	return &Scheduler{
		ingester:          params.Ingester,
		batcher:           params.Batcher,
		ingestInterval:    params.IngestInterval,
		ingestTimeout:     params.IngestTimeout,
		summarizeInterval: params.SummarizeInterval,
		summarizeTimeout:  params.SummarizeTimeout,
	}
}

// Start begins the scheduler. Ingestion runs immediately and then every ingest interval,
// summarization runs every summarize interval.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	if s.ingester != nil {
		s.wg.Add(1)
		go s.worker(ctx, "ingest", s.ingestInterval, true, s.runIngest)
	}
	if s.batcher != nil {
		s.wg.Add(1)
		go s.worker(ctx, "summarize", s.summarizeInterval, false, s.runSummarize)
	}

	lgr.Printf("[INFO] scheduler started with ingest interval %v, summarize interval %v", s.ingestInterval, s.summarizeInterval)
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// worker calls job on every tick until ctx is canceled. Failed runs wait for the next tick.
func (s *Scheduler) worker(ctx context.Context, name string, interval time.Duration, immediate bool, job func(ctx context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if immediate {
		job(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			lgr.Printf("[DEBUG] %s worker stopped", name)
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

// runIngest performs one time-boxed ingestion pass
func (s *Scheduler) runIngest(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.ingestTimeout)
	defer cancel()

	res, err := s.ingester.Run(ctx)
	if err != nil {
		lgr.Printf("[ERROR] scheduled ingest failed: %v", err)
		return
	}
	failed := 0
	for _, r := range res.Sources {
		if r.Error != "" {
			failed++
		}
	}
	lgr.Printf("[INFO] scheduled ingest done, %d new posts from %d sources, %d sources failed",
		res.TotalNew, len(res.Sources), failed)
}

// runSummarize performs one time-boxed summarization batch
func (s *Scheduler) runSummarize(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.summarizeTimeout)
	defer cancel()

	res, err := s.batcher.Run(ctx)
	if errors.Is(err, domain.ErrNoAPIKey) {
		lgr.Printf("[WARN] scheduled summarize skipped, %v", err)
		return
	}
	if err != nil {
		lgr.Printf("[ERROR] scheduled summarize failed: %v", err)
		return
	}
	if res.Message != "" {
		lgr.Printf("[INFO] scheduled summarize: %s", res.Message)
		return
	}
	lgr.Printf("[INFO] scheduled summarize done, %d summarized, %d failed", res.Summarized, res.Failed)
}
