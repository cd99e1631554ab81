package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-pkgz/rest"

	"github.com/umputun/enggist/pkg/domain"
)

const (
	minSearchLen   = 2
	maxSearchLimit = 50
	maxPageLimit   = 100
)

// ingestRunHandler runs one ingestion pass synchronously
func (s *Server) ingestRunHandler(w http.ResponseWriter, r *http.Request) {
	res, err := s.ingester.Run(r.Context())
	if err != nil {
		log.Printf("[ERROR] ingest failed: %v", err)
		renderJSON(w, r, http.StatusInternalServerError, rest.JSON{"error": "Internal server error", "message": err.Error()})
		return
	}
	renderJSON(w, r, http.StatusOK, rest.JSON{"success": true, "sources": res.Sources, "totalNew": res.TotalNew})
}

// summarizeRunHandler runs one summarization batch bounded by the summarize timeout
func (s *Server) summarizeRunHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SummarizeTimeout)
	defer cancel()

	res, err := s.batcher.Run(ctx)
	if errors.Is(err, domain.ErrNoAPIKey) {
		log.Printf("[ERROR] summarize requested, but %v", err)
		renderJSON(w, r, http.StatusInternalServerError, rest.JSON{"error": "API key not configured"})
		return
	}
	if err != nil {
		log.Printf("[ERROR] summarize failed: %v", err)
		renderJSON(w, r, http.StatusInternalServerError, rest.JSON{"error": "Internal server error", "message": err.Error()})
		return
	}

	if res.Message != "" {
		renderJSON(w, r, http.StatusOK, rest.JSON{"success": true, "summarized": 0, "message": res.Message})
		return
	}
	resp := rest.JSON{"success": true, "summarized": res.Summarized, "failed": res.Failed}
	if len(res.Errors) > 0 {
		resp["errors"] = res.Errors
	}
	renderJSON(w, r, http.StatusOK, resp)
}

// healthHandler returns ingestion health report
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	report, err := s.db.Health(r.Context(), time.Now())
	if err != nil {
		log.Printf("[ERROR] failed to build health report: %v", err)
		renderError(w, r, errors.New("failed to build health report"), http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, report)
}

// searchHandler runs full text and fuzzy title search. Queries shorter than 2 chars return nothing.
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len([]rune(query)) < minSearchLen {
		renderJSON(w, r, http.StatusOK, rest.JSON{"results": []domain.PostView{}, "count": 0})
		return
	}

	results, err := s.db.Search(r.Context(), query, maxSearchLimit)
	if err != nil {
		log.Printf("[ERROR] search for %q failed: %v", query, err)
		renderJSON(w, r, http.StatusInternalServerError, rest.JSON{"error": "Search failed", "message": err.Error()})
		return
	}
	results = withoutContent(results)
	renderJSON(w, r, http.StatusOK, rest.JSON{"results": results, "count": len(results)})
}

// listPostsHandler returns a page of posts
func (s *Server) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	s.renderPosts(w, r, s.postFilter(r))
}

// getPostHandler returns a single post with its source and summary
func (s *Server) getPostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		renderError(w, r, errors.New("invalid post ID"), http.StatusBadRequest)
		return
	}

	post, err := s.db.GetPost(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		renderError(w, r, errors.New("post not found"), http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[ERROR] failed to get post %d: %v", id, err)
		renderError(w, r, errors.New("failed to get post"), http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, post)
}

// listSourcesHandler returns all sources
func (s *Server) listSourcesHandler(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.ListSources(r.Context(), false)
	if err != nil {
		log.Printf("[ERROR] failed to list sources: %v", err)
		renderError(w, r, errors.New("failed to list sources"), http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, rest.JSON{"sources": sources, "count": len(sources)})
}

// sourcePostsHandler returns a page of posts of one source
func (s *Server) sourcePostsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		renderError(w, r, errors.New("invalid source ID"), http.StatusBadRequest)
		return
	}

	if _, err = s.db.GetSource(r.Context(), id); errors.Is(err, domain.ErrNotFound) {
		renderError(w, r, errors.New("source not found"), http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[ERROR] failed to get source %d: %v", id, err)
		renderError(w, r, errors.New("failed to get source"), http.StatusInternalServerError)
		return
	}

	filter := s.postFilter(r)
	filter.SourceID = id
	s.renderPosts(w, r, filter)
}

type tagInfo struct {
	Tag   domain.Tag `json:"tag"`
	Label string     `json:"label"`
}

// listTagsHandler returns the tag vocabulary
func (s *Server) listTagsHandler(w http.ResponseWriter, r *http.Request) {
	tags := make([]tagInfo, 0, len(domain.AllTags()))
	for _, t := range domain.AllTags() {
		tags = append(tags, tagInfo{Tag: t, Label: t.Label()})
	}
	renderJSON(w, r, http.StatusOK, rest.JSON{"tags": tags})
}

// tagPostsHandler returns a page of posts summarized with the tag
func (s *Server) tagPostsHandler(w http.ResponseWriter, r *http.Request) {
	tag, err := domain.ParseTag(r.PathValue("tag"))
	if err != nil {
		renderError(w, r, errors.New("unknown tag"), http.StatusNotFound)
		return
	}
	filter := s.postFilter(r)
	filter.Tag = tag
	s.renderPosts(w, r, filter)
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := rest.JSON{
		"status":  "ok",
		"version": s.cfg.Version,
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
		"time":    time.Now().UTC(),
	}
	renderJSON(w, r, http.StatusOK, status)
}

// postFilter builds a post filter from page, limit and sort query params
func (s *Server) postFilter(r *http.Request) domain.PostFilter {
	q := r.URL.Query()
	filter := domain.PostFilter{Sort: domain.ParsePostSort(q.Get("sort")), Page: 1, Limit: s.cfg.PageSize}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = min(limit, maxPageLimit)
	}
	return filter
}

func (s *Server) renderPosts(w http.ResponseWriter, r *http.Request, filter domain.PostFilter) {
	page, err := s.db.ListPosts(r.Context(), filter)
	if err != nil {
		log.Printf("[ERROR] failed to list posts: %v", err)
		renderError(w, r, errors.New("failed to list posts"), http.StatusInternalServerError)
		return
	}
	page.Posts = withoutContent(page.Posts)
	renderJSON(w, r, http.StatusOK, page)
}

// withoutContent drops full post bodies from list responses
func withoutContent(posts []domain.PostView) []domain.PostView {
	if posts == nil {
		return []domain.PostView{}
	}
	for i := range posts {
		posts[i].Content = ""
	}
	return posts
}
