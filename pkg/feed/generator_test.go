package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/enggist/pkg/domain"
)

func TestGenerator_GenerateRSS(t *testing.T) {
	generator := NewGenerator("https://enggist.example.com/")
	generator.now = func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) }

	pub := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	posts := []domain.PostView{
		{
			Post: domain.Post{ID: 1, Title: "Scaling Postgres", URL: "https://alpha.example.com/pg",
				CanonicalURL: "https://alpha.example.com/pg", PublishedAt: &pub, Author: "Jane"},
			Source: domain.SourceRef{ID: 1, Name: "Alpha"},
			Summary: &domain.Summary{
				Bullets:      []string{"sharding", "replicas"},
				WhyItMatters: "Databases & scale.",
				Tags:         []domain.Tag{domain.TagData},
			},
		},
		{
			Post:   domain.Post{ID: 2, Title: "No summary", URL: "https://beta.example.com/x", Excerpt: "just an excerpt", CreatedAt: pub},
			Source: domain.SourceRef{ID: 2, Name: "Beta"},
		},
	}

	t.Run("all posts", func(t *testing.T) {
		rss, err := generator.GenerateRSS(posts, "")
		require.NoError(t, err)

		assert.Contains(t, rss, `<?xml version="1.0" encoding="UTF-8"?>`)
		assert.Contains(t, rss, `<title>Enggist - Engineering Blog Digest</title>`)
		assert.Contains(t, rss, `<link>https://enggist.example.com/</link>`)
		assert.Contains(t, rss, `href="https://enggist.example.com/rss"`)
		assert.Contains(t, rss, `<lastBuildDate>Tue, 02 Jan 2024 00:00:00 +0000</lastBuildDate>`)
		assert.Contains(t, rss, `<title>Scaling Postgres (Alpha)</title>`)
		assert.Contains(t, rss, `<guid>https://alpha.example.com/pg</guid>`)
		assert.Contains(t, rss, `Databases &amp; scale.`)
		assert.Contains(t, rss, `- sharding`)
		assert.Contains(t, rss, `<category>Data Engineering</category>`)
		assert.Contains(t, rss, `<pubDate>Mon, 01 Jan 2024 12:00:00 +0000</pubDate>`)
		assert.Contains(t, rss, `<link>https://beta.example.com/x</link>`)
		assert.Contains(t, rss, `<description>just an excerpt</description>`)
	})

	t.Run("tag feed", func(t *testing.T) {
		rss, err := generator.GenerateRSS(posts[:1], domain.TagData)
		require.NoError(t, err)
		assert.Contains(t, rss, `<title>Enggist - Data Engineering</title>`)
		assert.Contains(t, rss, `href="https://enggist.example.com/rss/tag/data"`)
	})
}
