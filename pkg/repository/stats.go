package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/enggist/pkg/domain"
)

// StatsRepository computes ingestion health statistics
type StatsRepository struct {
	db *sqlx.DB
}

type sourceHealthSQL struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	FeedURL      string         `db:"feed_url"`
	Enabled      bool           `db:"enabled"`
	Posts24h     int            `db:"posts_24h"`
	Posts7d      int            `db:"posts_7d"`
	TotalPosts   int            `db:"total_posts"`
	LatestPostAt sql.NullString `db:"latest_post_at"`
}

type healthTotalsSQL struct {
	Posts            int `db:"posts"`
	Posts24h         int `db:"posts_24h"`
	Summaries        int `db:"summaries"`
	PendingSummaries int `db:"pending_summaries"`
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(database *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: database}
}

// Health returns per-source and global ingestion stats relative to now.
// Stale sources are enabled ones with posts in the past but none in the last 7 days.
func (r *StatsRepository) Health(ctx context.Context, now time.Time) (domain.HealthReport, error) {
	day := now.Add(-24 * time.Hour).UTC().Format(sqlTimeLayout)
	week := now.Add(-7 * 24 * time.Hour).UTC().Format(sqlTimeLayout)

	sourcesQuery := `
		SELECT s.id, s.name, s.feed_url, s.enabled,
			COUNT(CASE WHEN p.created_at >= ? THEN 1 END) AS posts_24h,
			COUNT(CASE WHEN p.created_at >= ? THEN 1 END) AS posts_7d,
			COUNT(p.id) AS total_posts,
			MAX(COALESCE(p.published_at, p.created_at)) AS latest_post_at
		FROM sources s
		LEFT JOIN posts p ON p.source_id = s.id
		GROUP BY s.id
		ORDER BY s.name COLLATE NOCASE, s.id
	`
	var recs []sourceHealthSQL
	if err := r.db.SelectContext(ctx, &recs, sourcesQuery, day, week); err != nil {
		return domain.HealthReport{}, fmt.Errorf("get source stats: %w", err)
	}

	totalsQuery := `
		SELECT
			(SELECT COUNT(*) FROM posts) AS posts,
			(SELECT COUNT(*) FROM posts WHERE created_at >= ?) AS posts_24h,
			(SELECT COUNT(*) FROM summaries) AS summaries,
			(SELECT COUNT(*) FROM posts p LEFT JOIN summaries sm ON sm.post_id = p.id WHERE sm.id IS NULL) AS pending_summaries
	`
	var totals healthTotalsSQL
	if err := r.db.GetContext(ctx, &totals, totalsQuery, day); err != nil {
		return domain.HealthReport{}, fmt.Errorf("get totals: %w", err)
	}

	report := domain.HealthReport{
		Totals: domain.HealthTotals{
			Posts:            totals.Posts,
			Posts24h:         totals.Posts24h,
			Summaries:        totals.Summaries,
			PendingSummaries: totals.PendingSummaries,
		},
		Sources: make([]domain.SourceHealth, 0, len(recs)),
		Stale:   []domain.SourceHealth{},
	}
	for _, rec := range recs {
		h := domain.SourceHealth{
			ID:         rec.ID,
			Name:       rec.Name,
			FeedURL:    rec.FeedURL,
			Enabled:    rec.Enabled,
			Posts24h:   rec.Posts24h,
			Posts7d:    rec.Posts7d,
			TotalPosts: rec.TotalPosts,
		}
		if rec.LatestPostAt.Valid {
			if t, ok := parseSQLTime(rec.LatestPostAt.String); ok {
				h.LatestPostAt = &t
			}
		}
		report.Sources = append(report.Sources, h)
		if h.Enabled && h.Posts7d == 0 && h.TotalPosts > 0 {
			report.Stale = append(report.Stale, h)
		}
	}
	return report, nil
}
