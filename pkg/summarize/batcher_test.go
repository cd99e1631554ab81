package summarize

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/enggist/pkg/domain"
	"github.com/umputun/enggist/pkg/repository"
	"github.com/umputun/enggist/pkg/summarize/mocks"
)

func testPosts(n int) []domain.Post {
	posts := make([]domain.Post, n)
	for i := range posts {
		posts[i] = domain.Post{ID: int64(i + 1), Title: fmt.Sprintf("post %d", i+1), URL: fmt.Sprintf("https://ex.com/%d", i+1),
			Content: "<p>some content</p>"}
	}
	return posts
}

func okSummary(post domain.Post) domain.Summary {
	return domain.Summary{
		PostID:       post.ID,
		Bullets:      []string{"a", "b", "c"},
		WhyItMatters: "why",
		Tags:         []domain.Tag{domain.TagSRE},
		Keywords:     []string{"k1", "k2"},
		Model:        "test-model",
	}
}

func TestBatcher_Run(t *testing.T) {
	posts := testPosts(7)
	postSource := &mocks.PostSourceMock{PostsWithoutSummaryFunc: func(ctx context.Context, limit int) ([]domain.Post, error) {
		assert.Equal(t, 15, limit)
		return posts, nil
	}}

	// track concurrency per group
	var active, peak int32
	var mu sync.Mutex
	summarizer := &mocks.SummarizerMock{
		ConfiguredFunc: func() bool { return true },
		SummarizeFunc: func(ctx context.Context, post domain.Post) (domain.Summary, error) {
			n := atomic.AddInt32(&active, 1)
			mu.Lock()
			peak = max(peak, n)
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			if post.ID == 5 {
				return domain.Summary{}, errors.New("llm exploded")
			}
			return okSummary(post), nil
		},
	}
	store := &mocks.SummaryStoreMock{CreateSummaryFunc: func(ctx context.Context, summary *domain.Summary) error { return nil }}

	b := NewBatcher(postSource, store, summarizer, nil, Config{MaxPosts: 15, BatchSize: 3})
	res, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, res.Summarized)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, domain.SummaryFailure{PostID: 5, Title: "post 5", Error: "llm exploded"}, res.Errors[0])
	assert.Empty(t, res.Message)

	assert.Len(t, summarizer.SummarizeCalls(), 7)
	assert.Len(t, store.CreateSummaryCalls(), 6)
	assert.LessOrEqual(t, peak, int32(3), "at most one group in flight")

	// html stripped before summarizing
	for _, c := range summarizer.SummarizeCalls() {
		assert.Equal(t, "some content", c.Post.Content)
	}
}

func TestBatcher_RunGroupsSequential(t *testing.T) {
	posts := testPosts(7)
	postSource := &mocks.PostSourceMock{PostsWithoutSummaryFunc: func(ctx context.Context, limit int) ([]domain.Post, error) {
		return posts, nil
	}}

	var mu sync.Mutex
	var order []int64
	summarizer := &mocks.SummarizerMock{
		ConfiguredFunc: func() bool { return true },
		SummarizeFunc: func(ctx context.Context, post domain.Post) (domain.Summary, error) {
			mu.Lock()
			order = append(order, post.ID)
			mu.Unlock()
			return okSummary(post), nil
		},
	}
	store := &mocks.SummaryStoreMock{CreateSummaryFunc: func(ctx context.Context, summary *domain.Summary) error { return nil }}

	res, err := NewBatcher(postSource, store, summarizer, nil, Config{BatchSize: 3}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, res.Summarized)

	// groups of 3,3,1 complete in order
	require.Len(t, order, 7)
	assert.ElementsMatch(t, []int64{1, 2, 3}, order[:3])
	assert.ElementsMatch(t, []int64{4, 5, 6}, order[3:6])
	assert.Equal(t, int64(7), order[6])
}

func TestBatcher_RunNoAPIKey(t *testing.T) {
	postSource := &mocks.PostSourceMock{}
	summarizer := &mocks.SummarizerMock{ConfiguredFunc: func() bool { return false }}
	_, err := NewBatcher(postSource, &mocks.SummaryStoreMock{}, summarizer, nil, Config{}).Run(context.Background())
	require.ErrorIs(t, err, domain.ErrNoAPIKey)
	assert.Empty(t, postSource.PostsWithoutSummaryCalls(), "no selection without a key")
}

func TestBatcher_RunNothingToDo(t *testing.T) {
	postSource := &mocks.PostSourceMock{PostsWithoutSummaryFunc: func(ctx context.Context, limit int) ([]domain.Post, error) {
		return nil, nil
	}}
	summarizer := &mocks.SummarizerMock{ConfiguredFunc: func() bool { return true }}
	res, err := NewBatcher(postSource, &mocks.SummaryStoreMock{}, summarizer, nil, Config{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SummarizeResult{Message: MsgNothingToDo}, res)
}

func TestBatcher_RunDisabled(t *testing.T) {
	postSource := &mocks.PostSourceMock{}
	summarizer := &mocks.SummarizerMock{}
	res, err := NewBatcher(postSource, &mocks.SummaryStoreMock{}, summarizer, nil, Config{Disabled: true}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MsgDisabled, res.Message)
	assert.Empty(t, postSource.PostsWithoutSummaryCalls())
	assert.Empty(t, summarizer.ConfiguredCalls())
}

func TestBatcher_RunSelectFailure(t *testing.T) {
	postSource := &mocks.PostSourceMock{PostsWithoutSummaryFunc: func(ctx context.Context, limit int) ([]domain.Post, error) {
		return nil, errors.New("db locked")
	}}
	summarizer := &mocks.SummarizerMock{ConfiguredFunc: func() bool { return true }}
	_, err := NewBatcher(postSource, &mocks.SummaryStoreMock{}, summarizer, nil, Config{}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db locked")
}

func TestBatcher_RunDuplicateIsSuccess(t *testing.T) {
	postSource := &mocks.PostSourceMock{PostsWithoutSummaryFunc: func(ctx context.Context, limit int) ([]domain.Post, error) {
		return testPosts(2), nil
	}}
	summarizer := &mocks.SummarizerMock{
		ConfiguredFunc: func() bool { return true },
		SummarizeFunc:  func(ctx context.Context, post domain.Post) (domain.Summary, error) { return okSummary(post), nil },
	}
	store := &mocks.SummaryStoreMock{CreateSummaryFunc: func(ctx context.Context, summary *domain.Summary) error {
		if summary.PostID == 2 {
			return domain.ErrDuplicate
		}
		return nil
	}}
	res, err := NewBatcher(postSource, store, summarizer, nil, Config{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Summarized)
	assert.Equal(t, 0, res.Failed)
}

func TestBatcher_RunStoreFailure(t *testing.T) {
	postSource := &mocks.PostSourceMock{PostsWithoutSummaryFunc: func(ctx context.Context, limit int) ([]domain.Post, error) {
		return testPosts(1), nil
	}}
	summarizer := &mocks.SummarizerMock{
		ConfiguredFunc: func() bool { return true },
		SummarizeFunc:  func(ctx context.Context, post domain.Post) (domain.Summary, error) { return okSummary(post), nil },
	}
	store := &mocks.SummaryStoreMock{CreateSummaryFunc: func(ctx context.Context, summary *domain.Summary) error {
		return errors.New("disk full")
	}}
	res, err := NewBatcher(postSource, store, summarizer, nil, Config{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, res.Errors[0].Error, "disk full")
}

func TestBatcher_PrepareContent(t *testing.T) {
	t.Run("thin post extracted", func(t *testing.T) {
		extractor := &mocks.ExtractorMock{ExtractFunc: func(ctx context.Context, url string) (string, error) {
			return "full article text that is much longer than the feed snippet", nil
		}}
		b := NewBatcher(nil, nil, nil, extractor, Config{MinContentLength: 100})
		got := b.prepareContent(context.Background(), domain.Post{ID: 1, URL: "https://ex.com/1", Content: "<p>short</p>"})
		assert.Equal(t, "full article text that is much longer than the feed snippet", got)
		require.Len(t, extractor.ExtractCalls(), 1)
		assert.Equal(t, "https://ex.com/1", extractor.ExtractCalls()[0].URL)
	})

	t.Run("long post not extracted", func(t *testing.T) {
		extractor := &mocks.ExtractorMock{}
		b := NewBatcher(nil, nil, nil, extractor, Config{MinContentLength: 5})
		got := b.prepareContent(context.Background(), domain.Post{ID: 1, URL: "https://ex.com/1", Content: "<p>long enough</p>"})
		assert.Equal(t, "long enough", got)
		assert.Empty(t, extractor.ExtractCalls())
	})

	t.Run("extraction failure falls back", func(t *testing.T) {
		extractor := &mocks.ExtractorMock{ExtractFunc: func(ctx context.Context, url string) (string, error) {
			return "", errors.New("403")
		}}
		b := NewBatcher(nil, nil, nil, extractor, Config{MinContentLength: 100})
		got := b.prepareContent(context.Background(), domain.Post{ID: 1, URL: "https://ex.com/1", Content: "short"})
		assert.Equal(t, "short", got)
	})

	t.Run("no extractor", func(t *testing.T) {
		b := NewBatcher(nil, nil, nil, nil, Config{MinContentLength: 100})
		assert.Equal(t, "short", b.prepareContent(context.Background(), domain.Post{Content: "short"}))
	})
}

func TestBatcher_Idempotent(t *testing.T) {
	ctx := context.Background()
	repos, err := repository.NewRepositories(ctx, repository.Config{DSN: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1})
	require.NoError(t, err)
	defer repos.Close()

	src := &domain.Source{Name: "Eng", Site: "https://eng.example.com", FeedURL: "https://eng.example.com/feed", Enabled: true}
	require.NoError(t, repos.Source.CreateSource(ctx, src))
	for i := 1; i <= 4; i++ {
		p := &domain.Post{SourceID: src.ID, Title: fmt.Sprintf("p%d", i), URL: fmt.Sprintf("https://eng.example.com/%d", i),
			ContentHash: fmt.Sprintf("h%d", i), Content: "text"}
		require.NoError(t, repos.Post.CreatePost(ctx, p))
	}

	summarizer := &mocks.SummarizerMock{
		ConfiguredFunc: func() bool { return true },
		SummarizeFunc:  func(ctx context.Context, post domain.Post) (domain.Summary, error) { return okSummary(post), nil },
	}
	b := NewBatcher(repos.Post, repos.Summary, summarizer, nil, Config{MaxPosts: 3, BatchSize: 2})

	res, err := b.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Summarized)

	res, err = b.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summarized)

	res, err = b.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, MsgNothingToDo, res.Message)
	assert.Len(t, summarizer.SummarizeCalls(), 4, "every post summarized exactly once")

	report, err := repos.Stats.Health(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Totals.Summaries)
	assert.Equal(t, 0, report.Totals.PendingSummaries)
}
