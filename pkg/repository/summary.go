package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/enggist/pkg/domain"
)

// SummaryRepository handles summary-related database operations
type SummaryRepository struct {
	db *sqlx.DB
}

// summarySQL represents a summary for SQL operations
type summarySQL struct {
	PostID       int64      `db:"post_id"`
	Bullets      stringsSQL `db:"bullets"`
	WhyItMatters string     `db:"why_it_matters"`
	Tags         stringsSQL `db:"tags"`
	Keywords     stringsSQL `db:"keywords"`
	Model        string     `db:"model"`
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(database *sqlx.DB) *SummaryRepository {
	return &SummaryRepository{db: database}
}

// CreateSummary inserts the summary of a post. A second summary for the same post
// is rejected with domain.ErrDuplicate.
func (r *SummaryRepository) CreateSummary(ctx context.Context, summary *domain.Summary) error {
	rec := &summarySQL{
		PostID:       summary.PostID,
		Bullets:      stringsSQL(summary.Bullets),
		WhyItMatters: summary.WhyItMatters,
		Tags:         make(stringsSQL, 0, len(summary.Tags)),
		Keywords:     stringsSQL(summary.Keywords),
		Model:        summary.Model,
	}
	for _, t := range summary.Tags {
		rec.Tags = append(rec.Tags, string(t))
	}

	query := `
		INSERT INTO summaries (post_id, bullets, why_it_matters, tags, keywords, model)
		VALUES (:post_id, :bullets, :why_it_matters, :tags, :keywords, :model)
	`
	var id int64
	err := withLockRetry(ctx, func() error {
		res, err := r.db.NamedExecContext(ctx, query, rec)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		if isUniqueError(err) {
			return fmt.Errorf("create summary for post %d: %w", summary.PostID, domain.ErrDuplicate)
		}
		return fmt.Errorf("create summary: %w", err)
	}

	summary.ID = id
	return nil
}
