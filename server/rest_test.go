package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/enggist/pkg/domain"
	"github.com/umputun/enggist/server/mocks"
)

func samplePost(id int64, withSummary bool) domain.PostView {
	published := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := domain.PostView{
		Post: domain.Post{ID: id, SourceID: 1, Title: "Scaling queues", URL: "https://eng.example.com/q",
			CanonicalURL: "https://eng.example.com/q", PublishedAt: &published, Excerpt: "excerpt", Content: "<p>full</p>"},
		Source: domain.SourceRef{ID: 1, Name: "Example Eng", Site: "https://eng.example.com"},
	}
	if withSummary {
		p.Summary = &domain.Summary{Bullets: []string{"a", "b", "c"}, WhyItMatters: "why", Tags: []domain.Tag{domain.TagDist},
			Keywords: []string{"kafka", "queues"}}
	}
	return p
}

func TestServer_IngestRun(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ingester := &mocks.IngesterMock{RunFunc: func(ctx context.Context) (domain.IngestResult, error) {
			return domain.IngestResult{
				Sources:  []domain.SourceResult{{Name: "a", New: 2, Skipped: 1}, {Name: "b", Error: "status 503"}},
				TotalNew: 2,
			}, nil
		}}
		w := do(t, testServer(t, nil, ingester, nil), "POST", "/api/ingest/run", testSecret)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"totalNew":2,"sources":[
			{"name":"a","new":2,"skipped":1},
			{"name":"b","new":0,"skipped":0,"error":"status 503"}]}`, w.Body.String())
	})

	t.Run("fatal error", func(t *testing.T) {
		ingester := &mocks.IngesterMock{RunFunc: func(ctx context.Context) (domain.IngestResult, error) {
			return domain.IngestResult{}, errors.New("list sources: db is gone")
		}}
		w := do(t, testServer(t, nil, ingester, nil), "POST", "/api/ingest/run", testSecret)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Internal server error","message":"list sources: db is gone"}`, w.Body.String())
	})
}

func TestServer_SummarizeRun(t *testing.T) {
	tests := []struct {
		name string
		res  domain.SummarizeResult
		err  error
		code int
		body string
	}{
		{
			name: "summarized with failures",
			res: domain.SummarizeResult{Summarized: 2, Failed: 1,
				Errors: []domain.SummaryFailure{{PostID: 7, Title: "t", Error: "llm down"}}},
			code: http.StatusOK,
			body: `{"success":true,"summarized":2,"failed":1,"errors":[{"postId":7,"title":"t","error":"llm down"}]}`,
		},
		{
			name: "all good",
			res:  domain.SummarizeResult{Summarized: 3},
			code: http.StatusOK,
			body: `{"success":true,"summarized":3,"failed":0}`,
		},
		{
			name: "nothing to do",
			res:  domain.SummarizeResult{Message: "No posts need summarization"},
			code: http.StatusOK,
			body: `{"success":true,"summarized":0,"message":"No posts need summarization"}`,
		},
		{
			name: "no api key",
			err:  domain.ErrNoAPIKey,
			code: http.StatusInternalServerError,
			body: `{"error":"API key not configured"}`,
		},
		{
			name: "fatal",
			err:  errors.New("select posts: locked"),
			code: http.StatusInternalServerError,
			body: `{"error":"Internal server error","message":"select posts: locked"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batcher := &mocks.BatcherMock{RunFunc: func(ctx context.Context) (domain.SummarizeResult, error) {
				_, ok := ctx.Deadline()
				assert.True(t, ok, "summarize run is time-boxed")
				return tt.res, tt.err
			}}
			w := do(t, testServer(t, nil, nil, batcher), "POST", "/api/summarize/run", testSecret)
			assert.Equal(t, tt.code, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestServer_Search(t *testing.T) {
	t.Run("short query skips storage", func(t *testing.T) {
		database := &mocks.DatabaseMock{}
		srv := testServer(t, database, nil, nil)
		for _, q := range []string{"", "a", "%20b%20", "%20%20"} {
			w := do(t, srv, "GET", "/api/search?q="+q, "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"results":[],"count":0}`, w.Body.String())
		}
		assert.Empty(t, database.SearchCalls())
	})

	t.Run("results", func(t *testing.T) {
		database := &mocks.DatabaseMock{SearchFunc: func(ctx context.Context, query string, limit int) ([]domain.PostView, error) {
			assert.Equal(t, "kafka queue", query)
			assert.Equal(t, 50, limit)
			return []domain.PostView{samplePost(1, true), samplePost(2, false)}, nil
		}}
		w := do(t, testServer(t, database, nil, nil), "GET", "/api/search?q=+kafka+queue+", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Results []map[string]any `json:"results"`
			Count   int              `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, "Scaling queues", resp.Results[0]["title"])
		assert.NotNil(t, resp.Results[0]["summary"])
		assert.Contains(t, resp.Results[1], "summary")
		assert.Nil(t, resp.Results[1]["summary"], "missing summary rendered as null")
		assert.NotContains(t, resp.Results[0], "content")
		src := resp.Results[0]["source"].(map[string]any)
		assert.Equal(t, "Example Eng", src["name"])
	})

	t.Run("storage failure", func(t *testing.T) {
		database := &mocks.DatabaseMock{SearchFunc: func(ctx context.Context, query string, limit int) ([]domain.PostView, error) {
			return nil, errors.New("fts broken")
		}}
		w := do(t, testServer(t, database, nil, nil), "GET", "/api/search?q=kafka", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Search failed")
	})
}

func TestServer_ListPosts(t *testing.T) {
	var got domain.PostFilter
	database := &mocks.DatabaseMock{ListPostsFunc: func(ctx context.Context, filter domain.PostFilter) (domain.PostPage, error) {
		got = filter
		return domain.PostPage{Posts: []domain.PostView{samplePost(1, true)}, Total: 41, Page: filter.Page,
			Limit: filter.Limit, TotalPages: 3}, nil
	}}
	srv := testServer(t, database, nil, nil)

	t.Run("defaults", func(t *testing.T) {
		w := do(t, srv, "GET", "/api/v1/posts", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, domain.PostFilter{Sort: domain.SortNewest, Page: 1, Limit: 20}, got)

		var page domain.PostPage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(t, 41, page.Total)
		assert.Equal(t, 3, page.TotalPages)
		require.Len(t, page.Posts, 1)
		assert.Empty(t, page.Posts[0].Content)
	})

	t.Run("params", func(t *testing.T) {
		w := do(t, srv, "GET", "/api/v1/posts?page=2&limit=500&sort=title_asc", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, domain.PostFilter{Sort: domain.SortTitleAsc, Page: 2, Limit: 100}, got)
	})

	t.Run("bad params fall back", func(t *testing.T) {
		w := do(t, srv, "GET", "/api/v1/posts?page=-1&limit=abc&sort=random", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, domain.PostFilter{Sort: domain.SortNewest, Page: 1, Limit: 20}, got)
	})
}

func TestServer_GetPost(t *testing.T) {
	database := &mocks.DatabaseMock{GetPostFunc: func(ctx context.Context, id int64) (*domain.PostView, error) {
		switch id {
		case 1:
			p := samplePost(1, false)
			return &p, nil
		case 2:
			return nil, domain.ErrNotFound
		default:
			return nil, errors.New("boom")
		}
	}}
	srv := testServer(t, database, nil, nil)

	w := do(t, srv, "GET", "/api/v1/posts/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"summary":null`)
	var post domain.PostView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	assert.Equal(t, "<p>full</p>", post.Content, "single post keeps full content")

	assert.Equal(t, http.StatusNotFound, do(t, srv, "GET", "/api/v1/posts/2", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, srv, "GET", "/api/v1/posts/3", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, "GET", "/api/v1/posts/abc", "").Code)
}

func TestServer_Sources(t *testing.T) {
	database := &mocks.DatabaseMock{
		ListSourcesFunc: func(ctx context.Context, enabledOnly bool) ([]domain.Source, error) {
			assert.False(t, enabledOnly)
			return []domain.Source{{ID: 1, Name: "A", Enabled: true}, {ID: 2, Name: "B"}}, nil
		},
		GetSourceFunc: func(ctx context.Context, id int64) (*domain.Source, error) {
			if id == 1 {
				return &domain.Source{ID: 1, Name: "A"}, nil
			}
			return nil, domain.ErrNotFound
		},
		ListPostsFunc: func(ctx context.Context, filter domain.PostFilter) (domain.PostPage, error) {
			assert.Equal(t, int64(1), filter.SourceID)
			return domain.PostPage{Posts: []domain.PostView{}, Page: 1, Limit: filter.Limit}, nil
		},
	}
	srv := testServer(t, database, nil, nil)

	w := do(t, srv, "GET", "/api/v1/sources", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)
	assert.NotContains(t, w.Body.String(), "lastSeenItemHash")

	assert.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/sources/1/posts", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, "GET", "/api/v1/sources/9/posts", "").Code)
	assert.Len(t, database.ListPostsCalls(), 1)
}

func TestServer_Tags(t *testing.T) {
	database := &mocks.DatabaseMock{ListPostsFunc: func(ctx context.Context, filter domain.PostFilter) (domain.PostPage, error) {
		assert.Equal(t, domain.TagFinOps, filter.Tag)
		return domain.PostPage{Posts: []domain.PostView{}}, nil
	}}
	srv := testServer(t, database, nil, nil)

	w := do(t, srv, "GET", "/api/v1/tags", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Tags []tagInfo `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Tags, 9)
	assert.Equal(t, tagInfo{Tag: domain.TagSRE, Label: "SRE & Reliability"}, resp.Tags[0])

	assert.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/tags/FinOps/posts", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, "GET", "/api/v1/tags/golang/posts", "").Code)
	assert.Len(t, database.ListPostsCalls(), 1)
}

func TestServer_Health(t *testing.T) {
	latest := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	database := &mocks.DatabaseMock{HealthFunc: func(ctx context.Context, now time.Time) (domain.HealthReport, error) {
		return domain.HealthReport{
			Totals:  domain.HealthTotals{Posts: 10, Posts24h: 2, Summaries: 8, PendingSummaries: 2},
			Sources: []domain.SourceHealth{{ID: 1, Name: "A", Enabled: true, Posts7d: 0, TotalPosts: 10, LatestPostAt: &latest}},
			Stale:   []domain.SourceHealth{{ID: 1, Name: "A", Enabled: true, TotalPosts: 10, LatestPostAt: &latest}},
		}, nil
	}}
	w := do(t, testServer(t, database, nil, nil), "GET", "/api/admin/health", testSecret)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pendingSummaries":2`)
	assert.Contains(t, w.Body.String(), `"stale":[`)
}

func TestServer_Status(t *testing.T) {
	w := do(t, testServer(t, nil, nil, nil), "GET", "/api/v1/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "test", resp["version"])
	assert.True(t, strings.HasSuffix(resp["uptime"].(string), "s"))
}
