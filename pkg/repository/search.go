package repository

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/enggist/pkg/domain"
)

// titleMatchBoost is added to the rank of posts whose title fuzzy-matches the query
const titleMatchBoost = 0.5

// SearchRepository runs full-text and fuzzy title search over posts
type SearchRepository struct {
	db *sqlx.DB
}

type searchRowSQL struct {
	postViewSQL
	Rank float64 `db:"rank"`
}

// NewSearchRepository creates a new search repository
func NewSearchRepository(database *sqlx.DB) *SearchRepository {
	return &SearchRepository{db: database}
}

// Search returns posts matching the query by full-text index or trigram title match.
// Rank is the bm25 relevance plus a fixed boost for title matches, ties broken by newest publish date.
func (r *SearchRepository) Search(ctx context.Context, query string, limit int) ([]domain.PostView, error) {
	ftsQuery := buildFTSQuery(query)
	trgQuery := buildTrigramQuery(query)
	if ftsQuery == "" && trgQuery == "" {
		return []domain.PostView{}, nil
	}

	var withArgs []any
	ftsCTE := "SELECT rowid AS id, 0.0 AS score FROM posts_fts WHERE 0"
	if ftsQuery != "" {
		ftsCTE = "SELECT rowid AS id, -bm25(posts_fts, 3.0, 2.0, 1.0) AS score FROM posts_fts WHERE posts_fts MATCH ?"
		withArgs = append(withArgs, ftsQuery)
	}
	trgCTE := "SELECT rowid AS id FROM posts_title_trgm WHERE 0"
	if trgQuery != "" {
		trgCTE = "SELECT rowid AS id FROM posts_title_trgm WHERE posts_title_trgm MATCH ?"
		withArgs = append(withArgs, trgQuery)
	}

	columns := append(append([]string{}, postViewColumns...),
		fmt.Sprintf("COALESCE(fts.score, 0) + CASE WHEN trg.id IS NULL THEN 0 ELSE %g END AS rank", titleMatchBoost))

	sqlQuery, args, err := sq.Select(columns...).
		Prefix(fmt.Sprintf("WITH fts AS (%s), trg AS (%s)", ftsCTE, trgCTE), withArgs...).
		From("posts p").
		Join("sources s ON s.id = p.source_id").
		LeftJoin("summaries sm ON sm.post_id = p.id").
		LeftJoin("fts ON fts.id = p.id").
		LeftJoin("trg ON trg.id = p.id").
		Where("fts.id IS NOT NULL OR trg.id IS NOT NULL").
		OrderBy("rank DESC", "p.published_at IS NULL", "p.published_at DESC", "p.id DESC").
		Limit(uint64(limit)). //nolint:gosec // limit is positive
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}

	var recs []searchRowSQL
	if err := r.db.SelectContext(ctx, &recs, sqlQuery, args...); err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}

	res := make([]domain.PostView, 0, len(recs))
	for i := range recs {
		res = append(res, recs[i].toDomain())
	}
	return res, nil
}

// buildFTSQuery turns free text into an FTS5 expression of quoted terms joined by AND,
// the last term is a prefix match
func buildFTSQuery(query string) string {
	terms := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(terms) == 0 {
		return ""
	}

	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+t+`"`)
	}
	quoted[len(quoted)-1] += "*"
	return strings.Join(quoted, " ")
}

// buildTrigramQuery makes a substring phrase for the trigram index, which needs at least 3 characters
func buildTrigramQuery(query string) string {
	q := strings.TrimSpace(query)
	if len([]rune(q)) < 3 {
		return ""
	}
	return `"` + strings.ReplaceAll(q, `"`, `""`) + `"`
}
