package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/enggist/pkg/domain"
)

// SourceRepository handles source-related database operations
type SourceRepository struct {
	db *sqlx.DB
}

// sourceSQL represents a source for SQL operations
type sourceSQL struct {
	ID               int64     `db:"id"`
	Name             string    `db:"name"`
	Site             string    `db:"site"`
	FeedURL          string    `db:"feed_url"`
	Category         string    `db:"category"`
	Enabled          bool      `db:"enabled"`
	LastSeenItemHash string    `db:"last_seen_item_hash"`
	LastETag         string    `db:"last_etag"`
	LastModified     string    `db:"last_modified"`
	CreatedAt        time.Time `db:"created_at"`
}

// NewSourceRepository creates a new source repository
func NewSourceRepository(database *sqlx.DB) *SourceRepository {
	return &SourceRepository{db: database}
}

// CreateSource inserts a new source, returns domain.ErrDuplicate if feed url is already known
func (r *SourceRepository) CreateSource(ctx context.Context, src *domain.Source) error {
	rec := &sourceSQL{
		Name:     src.Name,
		Site:     src.Site,
		FeedURL:  src.FeedURL,
		Category: src.Category,
		Enabled:  src.Enabled,
	}

	query := `
		INSERT INTO sources (name, site, feed_url, category, enabled)
		VALUES (:name, :site, :feed_url, :category, :enabled)
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
			return fmt.Errorf("create source %s: %w", src.FeedURL, domain.ErrDuplicate)
		}
		return fmt.Errorf("create source: %w", err)
	}

	src.ID = id
	return nil
}

// CreateSourceIfAbsent inserts a source unless its feed url already exists.
// Returns true if a new source was created.
func (r *SourceRepository) CreateSourceIfAbsent(ctx context.Context, src *domain.Source) (bool, error) {
	err := r.CreateSource(ctx, src)
	if errors.Is(err, domain.ErrDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetSource retrieves a source by ID
func (r *SourceRepository) GetSource(ctx context.Context, id int64) (*domain.Source, error) {
	var rec sourceSQL
	if err := r.db.GetContext(ctx, &rec, "SELECT * FROM sources WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get source %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get source: %w", err)
	}
	return rec.toDomain(), nil
}

// ListSources retrieves sources ordered by name, optionally only enabled ones
func (r *SourceRepository) ListSources(ctx context.Context, enabledOnly bool) ([]domain.Source, error) {
	query := "SELECT * FROM sources"
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY name COLLATE NOCASE, id"

	var recs []sourceSQL
	if err := r.db.SelectContext(ctx, &recs, query); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	res := make([]domain.Source, 0, len(recs))
	for i := range recs {
		res = append(res, *recs[i].toDomain())
	}
	return res, nil
}

// SetEnabled enables or disables a source
func (r *SourceRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	return r.exec(ctx, "set source enabled", "UPDATE sources SET enabled = ? WHERE id = ?", enabled, id)
}

// UpdateLastSeen records the hash of the newest item seen in the source feed
func (r *SourceRepository) UpdateLastSeen(ctx context.Context, id int64, itemHash string) error {
	return r.exec(ctx, "update last seen", "UPDATE sources SET last_seen_item_hash = ? WHERE id = ?", itemHash, id)
}

func (r *SourceRepository) exec(ctx context.Context, op, query string, args ...any) error {
	var affected int64
	err := withLockRetry(ctx, func() error {
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func (s *sourceSQL) toDomain() *domain.Source {
	return &domain.Source{
		ID:               s.ID,
		Name:             s.Name,
		Site:             s.Site,
		FeedURL:          s.FeedURL,
		Category:         s.Category,
		Enabled:          s.Enabled,
		LastSeenItemHash: s.LastSeenItemHash,
		LastETag:         s.LastETag,
		LastModified:     s.LastModified,
		CreatedAt:        s.CreatedAt,
	}
}
