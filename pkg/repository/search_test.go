package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/enggist/pkg/domain"
)

func TestFTS5TrigramSupport(t *testing.T) {
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE VIRTUAL TABLE t USING fts5(title, tokenize='trigram')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO t(title) VALUES ('Scaling Kubernetes clusters')`)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM t WHERE t MATCH '"bernet"'`))
	assert.Equal(t, 1, count)
}

func TestSearchRepository_Search(t *testing.T) {
	ctx := context.Background()
	repos := setupTestDB(t)
	src := createTestSource(t, repos, "alpha")

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mk := func(title, excerpt string, published *time.Time) *domain.Post {
		p := &domain.Post{SourceID: src.ID, Title: title, URL: "https://example.com/" + title,
			Excerpt: excerpt, ContentHash: "h-" + title, PublishedAt: published}
		require.NoError(t, repos.Post.CreatePost(ctx, p))
		return p
	}
	kube := mk("Scaling Kubernetes at Example", "how we run many clusters", &older)
	mk("Database migrations", "moving kubernetes workloads between regions", &newer)
	mk("Frontend performance", "bundle sizes and caching", &newer)

	t.Run("full text match ranks title higher", func(t *testing.T) {
		res, err := repos.Search.Search(ctx, "kubernetes", 50)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, kube.ID, res[0].ID)
		assert.Equal(t, "alpha", res[0].Source.Name)
		assert.Nil(t, res[0].Summary)
	})

	t.Run("stemmed match", func(t *testing.T) {
		res, err := repos.Search.Search(ctx, "migration", 50)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "Database migrations", res[0].Title)
	})

	t.Run("fuzzy title substring", func(t *testing.T) {
		res, err := repos.Search.Search(ctx, "ubernet", 50)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, kube.ID, res[0].ID)
	})

	t.Run("limit", func(t *testing.T) {
		res, err := repos.Search.Search(ctx, "kubernetes", 1)
		require.NoError(t, err)
		assert.Len(t, res, 1)
	})

	t.Run("no match", func(t *testing.T) {
		res, err := repos.Search.Search(ctx, "blockchain", 50)
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("punctuation only", func(t *testing.T) {
		res, err := repos.Search.Search(ctx, `"*"`, 50)
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("summary included", func(t *testing.T) {
		require.NoError(t, repos.Summary.CreateSummary(ctx, &domain.Summary{
			PostID: kube.ID, Bullets: []string{"b1", "b2", "b3"}, WhyItMatters: "scale",
			Tags: []domain.Tag{domain.TagSRE}, Keywords: []string{"k8s", "scaling"},
		}))
		res, err := repos.Search.Search(ctx, "scaling", 50)
		require.NoError(t, err)
		require.Len(t, res, 1)
		require.NotNil(t, res[0].Summary)
		assert.Equal(t, "scale", res[0].Summary.WhyItMatters)
	})
}

func TestBuildFTSQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"kubernetes", `"kubernetes"*`},
		{"  Go  generics ", `"go" "generics"*`},
		{`drop"; table`, `"drop" "table"*`},
		{"***", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, buildFTSQuery(tt.in))
		})
	}

	assert.Empty(t, buildTrigramQuery("go"))
	assert.Equal(t, `"say ""hi"""`, buildTrigramQuery(` say "hi" `))
}
