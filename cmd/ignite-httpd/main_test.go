package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ignitedb/ignite/internal/metrics"
	"github.com/ignitedb/ignite/pkg/ignite"
	"github.com/ignitedb/ignite/pkg/logger"
	"github.com/ignitedb/ignite/pkg/options"
	"github.com/ignitedb/ignite/pkg/pool"
	"github.com/stretchr/testify/require"
)

// sanitizeMetricName makes a subtest name safe to use as a Prometheus
// namespace, so each test in this file registers under a distinct namespace
// instead of panicking on duplicate collector registration.
func sanitizeMetricName(name string) string {
	name = strings.ToLower(name)
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, name)
}

func newTestServer(t *testing.T) *server {
	t.Helper()

	log, err := logger.New("ignite-httpd-test", logger.Config{})
	require.NoError(t, err)

	namespace := "ignite_httpd_test_" + sanitizeMetricName(t.Name())
	m := metrics.New(namespace)

	inst, err := ignite.NewInstance(t.Context(), "ignite-httpd-test", m,
		options.WithDataDir(t.TempDir()), options.WithCompactInterval(0))
	require.NoError(t, err)
	t.Cleanup(func() { inst.Close(t.Context()) })

	blocking := pool.NewShared(2, 16, log)
	t.Cleanup(func() { blocking.Close() })

	return &server{inst: inst, log: log, metrics: m, blocking: blocking}
}

func newTestMux(s *server) *http.ServeMux {
	mux := http.NewServeMux()
	s.routes(mux)
	return mux
}

func TestHandlePutGetDelete(t *testing.T) {
	s := newTestServer(t)
	mux := newTestMux(s)

	body, _ := json.Marshal(map[string]string{"value": "bar"})
	req := httptest.NewRequest(http.MethodPut, "/api/keys/foo", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/keys/foo", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "bar", got["value"])

	req = httptest.NewRequest(http.MethodDelete, "/api/keys/foo", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/keys/foo", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGet_MissingKey(t *testing.T) {
	s := newTestServer(t)
	mux := newTestMux(s)

	req := httptest.NewRequest(http.MethodGet, "/api/keys/nope", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDelete_MissingKey(t *testing.T) {
	s := newTestServer(t)
	mux := newTestMux(s)

	req := httptest.NewRequest(http.MethodDelete, "/api/keys/nope", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleBatchSetAndGet(t *testing.T) {
	s := newTestServer(t)
	mux := newTestMux(s)

	setBody, _ := json.Marshal(map[string]map[string]string{
		"items": {"a": "1", "b": "2"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/batch/set", bytes.NewReader(setBody))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	getBody, _ := json.Marshal(map[string][]string{"keys": {"a", "b", "missing"}})
	req = httptest.NewRequest(http.MethodPost, "/api/batch/get", bytes.NewReader(getBody))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "1", got["a"])
	require.Equal(t, "2", got["b"])
	require.NotContains(t, got, "missing")
}

func TestHandleReset(t *testing.T) {
	s := newTestServer(t)
	mux := newTestMux(s)

	body, _ := json.Marshal(map[string]string{"value": "bar"})
	req := httptest.NewRequest(http.MethodPut, "/api/keys/foo", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/reset", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/keys/foo", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)
	mux := newTestMux(s)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "ok", got["status"])
}
