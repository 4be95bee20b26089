package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubChecker struct{ err error }

func (s *stubChecker) CheckReadiness(context.Context) error { return s.err }

func serve(t *testing.T, srv *Server, path string) int {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code
}

func TestHealthz(t *testing.T) {
	srv := NewServer(":0", slog.Default())
	assert.Equal(t, http.StatusOK, serve(t, srv, "/healthz"))
}

func TestReadyz_FollowsCheckers(t *testing.T) {
	pipeline := &stubChecker{err: errors.New("pipeline has not completed a run yet")}
	db := &stubChecker{}
	srv := NewServer(":0", slog.Default(), pipeline, db)

	assert.Equal(t, http.StatusServiceUnavailable, serve(t, srv, "/readyz"))

	pipeline.err = nil
	assert.Equal(t, http.StatusOK, serve(t, srv, "/readyz"))

	db.err = errors.New("connection refused")
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, srv, "/readyz"))
}

func TestMetrics(t *testing.T) {
	srv := NewServer(":0", slog.Default())
	assert.Equal(t, http.StatusOK, serve(t, srv, "/metrics"))
}

func TestUnknownMethod(t *testing.T) {
	srv := NewServer(":0", slog.Default())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
