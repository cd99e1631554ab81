package server

import (
	"log"
	"net/http"

	"github.com/umputun/enggist/pkg/domain"
)

const defaultRSSLimit = 50

// rssHandler serves RSS feed of recent posts
// Supports both /rss and /rss/tag/{tag} patterns
func (s *Server) rssHandler(w http.ResponseWriter, r *http.Request) {
	var tag domain.Tag
	if raw := r.PathValue("tag"); raw != "" {
		t, err := domain.ParseTag(raw)
		if err != nil {
			http.Error(w, "Unknown tag", http.StatusNotFound)
			return
		}
		tag = t
	}

	page, err := s.db.ListPosts(r.Context(), domain.PostFilter{Tag: tag, Sort: domain.SortNewest, Page: 1, Limit: defaultRSSLimit})
	if err != nil {
		log.Printf("[ERROR] failed to get posts for RSS: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	rss, err := s.generator.GenerateRSS(page.Posts, tag)
	if err != nil {
		log.Printf("[ERROR] failed to generate RSS feed: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write([]byte(rss)); err != nil {
		log.Printf("[ERROR] failed to write RSS response: %v", err)
	}
}

// opmlHandler exports enabled sources as OPML
func (s *Server) opmlHandler(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.ListSources(r.Context(), true)
	if err != nil {
		log.Printf("[ERROR] failed to get sources for OPML: %v", err)
		http.Error(w, "Failed to generate OPML", http.StatusInternalServerError)
		return
	}

	opml, err := s.generator.GenerateOPML(sources)
	if err != nil {
		log.Printf("[ERROR] failed to generate OPML: %v", err)
		http.Error(w, "Failed to generate OPML", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/x-opml; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="enggist.opml"`)
	if _, err := w.Write([]byte(opml)); err != nil {
		log.Printf("[ERROR] failed to write OPML response: %v", err)
	}
}
