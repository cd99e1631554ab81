package server

import (
	"context"
	"time"

	"github.com/umputun/enggist/pkg/domain"
	"github.com/umputun/enggist/pkg/repository"
)

// RepositoryAdapter adapts repositories to server.Database interface
type RepositoryAdapter struct {
	repos *repository.Repositories
}

// NewRepositoryAdapter creates a new repository adapter
func NewRepositoryAdapter(repos *repository.Repositories) *RepositoryAdapter {
	return &RepositoryAdapter{repos: repos}
}

// ListSources returns sources, optionally only enabled ones
func (r *RepositoryAdapter) ListSources(ctx context.Context, enabledOnly bool) ([]domain.Source, error) {
	return r.repos.Source.ListSources(ctx, enabledOnly)
}

// GetSource returns source by id
func (r *RepositoryAdapter) GetSource(ctx context.Context, id int64) (*domain.Source, error) {
	return r.repos.Source.GetSource(ctx, id)
}

// GetPost returns post view by id
func (r *RepositoryAdapter) GetPost(ctx context.Context, id int64) (*domain.PostView, error) {
	return r.repos.Post.GetPost(ctx, id)
}

// ListPosts returns a filtered page of posts
func (r *RepositoryAdapter) ListPosts(ctx context.Context, filter domain.PostFilter) (domain.PostPage, error) {
	return r.repos.Post.ListPosts(ctx, filter)
}

// Search runs ranked post search
func (r *RepositoryAdapter) Search(ctx context.Context, query string, limit int) ([]domain.PostView, error) {
	return r.repos.Search.Search(ctx, query, limit)
}

// Health returns ingestion health report as of now
func (r *RepositoryAdapter) Health(ctx context.Context, now time.Time) (domain.HealthReport, error) {
	return r.repos.Stats.Health(ctx, now)
}
