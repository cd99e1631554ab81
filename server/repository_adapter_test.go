package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/enggist/pkg/domain"
	"github.com/umputun/enggist/pkg/repository"
	"github.com/umputun/enggist/server/mocks"
)

func setupAdapter(t *testing.T) (*RepositoryAdapter, *repository.Repositories) {
	t.Helper()
	repos, err := repository.NewRepositories(context.Background(), repository.Config{DSN: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return NewRepositoryAdapter(repos), repos
}

func TestRepositoryAdapter_EndToEnd(t *testing.T) {
	adapter, repos := setupAdapter(t)
	ctx := context.Background()

	src := &domain.Source{Name: "Uber Eng", Site: "https://uber.com/blog", FeedURL: "https://uber.com/blog/rss", Enabled: true}
	require.NoError(t, repos.Source.CreateSource(ctx, src))

	published := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	summarized := &domain.Post{SourceID: src.ID, Title: "Kafka tiered storage at scale", URL: "https://uber.com/blog/kafka",
		CanonicalURL: "https://uber.com/blog/kafka", PublishedAt: &published, Excerpt: "how we moved kafka to tiered storage",
		ContentHash: "h1"}
	require.NoError(t, repos.Post.CreatePost(ctx, summarized))
	plain := &domain.Post{SourceID: src.ID, Title: "Hiring principles", URL: "https://uber.com/blog/hiring",
		CanonicalURL: "https://uber.com/blog/hiring", Excerpt: "culture notes", ContentHash: "h2"}
	require.NoError(t, repos.Post.CreatePost(ctx, plain))
	require.NoError(t, repos.Summary.CreateSummary(ctx, &domain.Summary{PostID: summarized.ID,
		Bullets: []string{"a", "b", "c"}, WhyItMatters: "cheaper retention", Tags: []domain.Tag{domain.TagData, domain.TagDist},
		Keywords: []string{"kafka", "tiered storage"}, Model: "test"}))

	srv := testServer(t, adapter, &mocks.IngesterMock{}, &mocks.BatcherMock{})

	t.Run("search", func(t *testing.T) {
		w := do(t, srv, "GET", "/api/search?q=kafka", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Results []domain.PostView `json:"results"`
			Count   int               `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, summarized.ID, resp.Results[0].ID)
		assert.Equal(t, "Uber Eng", resp.Results[0].Source.Name)
		require.NotNil(t, resp.Results[0].Summary)
		assert.Equal(t, "cheaper retention", resp.Results[0].Summary.WhyItMatters)
	})

	t.Run("tag posts", func(t *testing.T) {
		w := do(t, srv, "GET", "/api/v1/tags/data/posts", "")
		require.Equal(t, http.StatusOK, w.Code)
		var page domain.PostPage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, "Kafka tiered storage at scale", page.Posts[0].Title)
	})

	t.Run("post without summary", func(t *testing.T) {
		w := do(t, srv, "GET", "/api/v1/posts/"+strconv.FormatInt(plain.ID, 10), "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"summary":null`)
	})

	t.Run("health", func(t *testing.T) {
		w := do(t, srv, "GET", "/api/admin/health", testSecret)
		require.Equal(t, http.StatusOK, w.Code)
		var report domain.HealthReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		assert.Equal(t, 2, report.Totals.Posts)
		assert.Equal(t, 1, report.Totals.Summaries)
		assert.Equal(t, 1, report.Totals.PendingSummaries)
	})

	t.Run("rss", func(t *testing.T) {
		w := do(t, srv, "GET", "/rss/tag/dist", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Kafka tiered storage at scale (Uber Eng)")
		assert.NotContains(t, w.Body.String(), "Hiring principles")
	})
}
