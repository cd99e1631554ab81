package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/enggist/pkg/domain"
	"github.com/umputun/enggist/server/mocks"
)

func TestServer_Auth(t *testing.T) {
	ingester := &mocks.IngesterMock{RunFunc: func(ctx context.Context) (domain.IngestResult, error) {
		return domain.IngestResult{Sources: []domain.SourceResult{}}, nil
	}}
	database := &mocks.DatabaseMock{HealthFunc: func(ctx context.Context, now time.Time) (domain.HealthReport, error) {
		return domain.HealthReport{}, nil
	}}
	srv := testServer(t, database, ingester, nil)

	tests := []struct {
		name   string
		method string
		path   string
		header string
		code   int
	}{
		{"ingest without header", "POST", "/api/ingest/run", "", http.StatusUnauthorized},
		{"ingest wrong secret", "POST", "/api/ingest/run", "Bearer nope", http.StatusUnauthorized},
		{"ingest wrong scheme", "POST", "/api/ingest/run", "Basic " + testSecret, http.StatusUnauthorized},
		{"ingest raw secret", "POST", "/api/ingest/run", testSecret, http.StatusUnauthorized},
		{"ingest ok", "POST", "/api/ingest/run", "Bearer " + testSecret, http.StatusOK},
		{"ingest lowercase scheme", "POST", "/api/ingest/run", "bearer " + testSecret, http.StatusOK},
		{"ingest uppercase scheme", "POST", "/api/ingest/run", "BEARER  " + testSecret, http.StatusOK},
		{"ingest scheme without space", "POST", "/api/ingest/run", "Bearer" + testSecret, http.StatusUnauthorized},
		{"summarize without header", "POST", "/api/summarize/run", "", http.StatusUnauthorized},
		{"health without header", "GET", "/api/admin/health", "", http.StatusUnauthorized},
		{"health ok", "GET", "/api/admin/health", "Bearer " + testSecret, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
			}
		})
	}
	assert.Len(t, ingester.RunCalls(), 3, "ingest runs only when authorized")
}

func TestServer_AuthEmptySecret(t *testing.T) {
	ingester := &mocks.IngesterMock{}
	srv := New(Config{}, &mocks.DatabaseMock{}, ingester, &mocks.BatcherMock{})

	for _, token := range []string{"", "Bearer ", "Bearer anything"} {
		req := httptest.NewRequest("POST", "/api/ingest/run", http.NoBody)
		req.Header.Set("Authorization", token)
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, "token %q", token)
	}
	assert.Empty(t, ingester.RunCalls())
}
