package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/prism/internal/config"
	"github.com/aretw0/prism/internal/dynamic"
	"github.com/aretw0/prism/internal/inspect"
	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (http.Handler, *observability.Journal) {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	journal := observability.NewJournal(64)

	hooks := domain.MergeHooks(metrics.Hooks(), journal.Hooks())
	s := &Server{
		Inspector: inspect.New(config.Defaults(), inspect.WithLifecycleHooks(hooks)),
		Journal:   journal,
		Gatherer:  reg,
		Version:   "test",
	}
	return NewHandler(s), journal
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetHealth(t *testing.T) {
	h, _ := newServer(t)
	rr := do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	h, _ := newServer(t)
	rr := do(h, http.MethodGet, "/info", "")

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "prism-http", resp["app"])
	assert.Equal(t, "test", resp["version"])
}

func TestPostSplit(t *testing.T) {
	h, journal := newServer(t)
	rr := do(h, http.MethodPost, "/split", `[{"name": "a", "n": 1}, {"name": "b", "n": 2}]`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var report inspect.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Slices)

	values := make(map[string][]any)
	for _, p := range report.Ports {
		values[p.Name] = p.Values
	}
	assert.Equal(t, []any{"a", "b"}, values["name"])
	assert.Equal(t, []any{1.0, 2.0}, values["n"], "JSON numbers decode as float64")
	assert.NotEmpty(t, journal.Snapshot())

	rr = do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "prism_split_member_reads_total")
}

func TestPostLayout(t *testing.T) {
	h, _ := newServer(t)
	rr := do(h, http.MethodPost, "/layout", "name: a\ntags: [x]\n")
	require.Equal(t, http.StatusOK, rr.Code)

	var report inspect.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	require.Len(t, report.Members, 2)
	assert.Equal(t, "enumerable", report.Members[1].Kind)
}

func TestPostSplit_BadDocument(t *testing.T) {
	h, _ := newServer(t)
	rr := do(h, http.MethodPost, "/split", "42")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unsupported document")
}

func TestPostSplit_TooLarge(t *testing.T) {
	s := &Server{Inspector: inspect.New(config.Defaults()), MaxBody: 8}
	rr := do(NewHandler(s), http.MethodPost, "/split", `{"name": "far too long"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

type cancelled struct{ Inspector }

func (cancelled) Split(ctx context.Context, doc *dynamic.Document) (inspect.Report, error) {
	return inspect.Report{}, context.Canceled
}

func TestPostSplit_Cancelled(t *testing.T) {
	s := &Server{Inspector: cancelled{}}
	rr := do(NewHandler(s), http.MethodPost, "/split", "a: 1")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestOptionalRoutes(t *testing.T) {
	s := &Server{Inspector: inspect.New(config.Defaults())}
	h := NewHandler(s)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/events", "").Code)
}
