package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/enggist/pkg/domain"
)

// PostRepository handles post-related database operations
type PostRepository struct {
	db *sqlx.DB
}

// postSQL represents a post for SQL operations
type postSQL struct {
	ID           int64      `db:"id"`
	SourceID     int64      `db:"source_id"`
	Title        string     `db:"title"`
	URL          string     `db:"url"`
	CanonicalURL string     `db:"canonical_url"`
	PublishedAt  *time.Time `db:"published_at"`
	Author       string     `db:"author"`
	Excerpt      string     `db:"excerpt"`
	Content      string     `db:"content"`
	ContentHash  string     `db:"content_hash"`
	CreatedAt    time.Time  `db:"created_at"`
}

// postViewSQL is a post joined with source and optional summary
type postViewSQL struct {
	postSQL
	SourceName       string         `db:"source_name"`
	SourceSite       string         `db:"source_site"`
	SummaryID        sql.NullInt64  `db:"summary_id"`
	SummaryBullets   stringsSQL     `db:"summary_bullets"`
	SummaryWhy       sql.NullString `db:"summary_why"`
	SummaryTags      stringsSQL     `db:"summary_tags"`
	SummaryKeywords  stringsSQL     `db:"summary_keywords"`
	SummaryModel     sql.NullString `db:"summary_model"`
	SummaryCreatedAt *time.Time     `db:"summary_created_at"`
}

// postViewColumns selects everything postViewSQL needs, expects aliases p, s and sm
var postViewColumns = []string{
	"p.id", "p.source_id", "p.title", "p.url", "p.canonical_url", "p.published_at",
	"p.author", "p.excerpt", "p.content", "p.content_hash", "p.created_at",
	"s.name AS source_name", "s.site AS source_site",
	"sm.id AS summary_id", "sm.bullets AS summary_bullets", "sm.why_it_matters AS summary_why",
	"sm.tags AS summary_tags", "sm.keywords AS summary_keywords", "sm.model AS summary_model",
	"sm.created_at AS summary_created_at",
}

// NewPostRepository creates a new post repository
func NewPostRepository(database *sqlx.DB) *PostRepository {
	return &PostRepository{db: database}
}

// CreatePost inserts a new post. A post with already known content hash is rejected
// with domain.ErrDuplicate, the existing row is never overwritten.
func (r *PostRepository) CreatePost(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (source_id, title, url, canonical_url, published_at, author, excerpt, content, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))
	`
	var createdAt *time.Time
	if !post.CreatedAt.IsZero() {
		createdAt = &post.CreatedAt
	}

	var id int64
	err := withLockRetry(ctx, func() error {
		res, err := r.db.ExecContext(ctx, query, post.SourceID, post.Title, post.URL, post.CanonicalURL,
			sqlTime(post.PublishedAt), post.Author, post.Excerpt, post.Content, post.ContentHash, sqlTime(createdAt))
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		if isUniqueError(err) {
			return fmt.Errorf("create post %q: %w", post.Title, domain.ErrDuplicate)
		}
		return fmt.Errorf("create post: %w", err)
	}

	post.ID = id
	return nil
}

// GetPost retrieves a post with its source and summary
func (r *PostRepository) GetPost(ctx context.Context, id int64) (*domain.PostView, error) {
	query, args, err := r.viewQuery().Where(sq.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get post query: %w", err)
	}

	var rec postViewSQL
	if err := r.db.GetContext(ctx, &rec, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get post %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	view := rec.toDomain()
	return &view, nil
}

// ListPosts returns a page of posts filtered by source or tag and ordered by the filter sort
func (r *PostRepository) ListPosts(ctx context.Context, f domain.PostFilter) (domain.PostPage, error) {
	if f.Limit <= 0 {
		f.Limit = 30
	}
	if f.Page < 1 {
		f.Page = 1
	}

	where := sq.And{}
	if f.SourceID > 0 {
		where = append(where, sq.Eq{"p.source_id": f.SourceID})
	}
	if f.Tag != "" {
		where = append(where, sq.Expr("EXISTS (SELECT 1 FROM json_each(sm.tags) WHERE json_each.value = ?)", string(f.Tag)))
	}

	countQuery, countArgs, err := sq.Select("COUNT(*)").From("posts p").
		LeftJoin("summaries sm ON sm.post_id = p.id").Where(where).ToSql()
	if err != nil {
		return domain.PostPage{}, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return domain.PostPage{}, fmt.Errorf("count posts: %w", err)
	}

	query, args, err := r.viewQuery().Where(where).
		OrderBy(sortClause(domain.ParsePostSort(string(f.Sort)))...).
		Limit(uint64(f.Limit)).                 //nolint:gosec // limit is positive
		Offset(uint64((f.Page - 1) * f.Limit)). //nolint:gosec // page is at least 1
		ToSql()
	if err != nil {
		return domain.PostPage{}, fmt.Errorf("build list query: %w", err)
	}

	var recs []postViewSQL
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return domain.PostPage{}, fmt.Errorf("list posts: %w", err)
	}

	page := domain.PostPage{
		Posts:      make([]domain.PostView, 0, len(recs)),
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: (total + f.Limit - 1) / f.Limit,
	}
	for i := range recs {
		page.Posts = append(page.Posts, recs[i].toDomain())
	}
	return page, nil
}

// PostsWithoutSummary returns up to limit posts lacking a summary, most recently created first
func (r *PostRepository) PostsWithoutSummary(ctx context.Context, limit int) ([]domain.Post, error) {
	query := `
		SELECT p.* FROM posts p
		LEFT JOIN summaries s ON s.post_id = p.id
		WHERE s.id IS NULL
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ?
	`
	var recs []postSQL
	if err := r.db.SelectContext(ctx, &recs, query, limit); err != nil {
		return nil, fmt.Errorf("get posts without summary: %w", err)
	}

	res := make([]domain.Post, 0, len(recs))
	for i := range recs {
		res = append(res, recs[i].toDomain())
	}
	return res, nil
}

func (r *PostRepository) viewQuery() sq.SelectBuilder {
	return sq.Select(postViewColumns...).From("posts p").
		Join("sources s ON s.id = p.source_id").
		LeftJoin("summaries sm ON sm.post_id = p.id")
}

func sortClause(sort domain.PostSort) []string {
	switch sort {
	case domain.SortOldest:
		return []string{"COALESCE(p.published_at, p.created_at) ASC", "p.id ASC"}
	case domain.SortTitleAsc:
		return []string{"p.title COLLATE NOCASE ASC", "p.id DESC"}
	case domain.SortSourceAsc:
		return []string{"s.name COLLATE NOCASE ASC", "COALESCE(p.published_at, p.created_at) DESC", "p.id DESC"}
	default:
		return []string{"COALESCE(p.published_at, p.created_at) DESC", "p.id DESC"}
	}
}

func (p *postSQL) toDomain() domain.Post {
	res := domain.Post{
		ID:           p.ID,
		SourceID:     p.SourceID,
		Title:        p.Title,
		URL:          p.URL,
		CanonicalURL: p.CanonicalURL,
		Author:       p.Author,
		Excerpt:      p.Excerpt,
		Content:      p.Content,
		ContentHash:  p.ContentHash,
		CreatedAt:    p.CreatedAt.UTC(),
	}
	if p.PublishedAt != nil {
		t := p.PublishedAt.UTC()
		res.PublishedAt = &t
	}
	return res
}

func (v *postViewSQL) toDomain() domain.PostView {
	res := domain.PostView{
		Post:   v.postSQL.toDomain(),
		Source: domain.SourceRef{ID: v.SourceID, Name: v.SourceName, Site: v.SourceSite},
	}
	if !v.SummaryID.Valid {
		return res
	}

	summary := &domain.Summary{
		ID:           v.SummaryID.Int64,
		PostID:       v.ID,
		Bullets:      []string(v.SummaryBullets),
		WhyItMatters: v.SummaryWhy.String,
		Keywords:     []string(v.SummaryKeywords),
		Model:        v.SummaryModel.String,
		Tags:         make([]domain.Tag, 0, len(v.SummaryTags)),
	}
	for _, t := range v.SummaryTags {
		summary.Tags = append(summary.Tags, domain.Tag(t))
	}
	if v.SummaryCreatedAt != nil {
		summary.CreatedAt = v.SummaryCreatedAt.UTC()
	}
	res.Summary = summary
	return res
}
