package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/prism/internal/dynamic"
	"github.com/aretw0/prism/internal/inspect"
	"github.com/aretw0/prism/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMaxBody bounds request documents.
const DefaultMaxBody = 1 << 20

// Inspector defines the projection operations served over HTTP.
type Inspector interface {
	Layout(doc *dynamic.Document) (inspect.Report, error)
	Split(ctx context.Context, doc *dynamic.Document) (inspect.Report, error)
}

// Server serves the inspector API.
type Server struct {
	Inspector Inspector
	Journal   *observability.Journal // optional, backs GET /events
	Gatherer  prometheus.Gatherer    // optional, backs GET /metrics
	Logger    *slog.Logger
	Version   string
	MaxBody   int64
}

// NewHandler creates the HTTP handler for s.
func NewHandler(s *Server) http.Handler {
	if s.Logger == nil {
		s.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.MaxBody <= 0 {
		s.MaxBody = DefaultMaxBody
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Post("/layout", s.PostLayout)
	r.Post("/split", s.PostSplit)
	if s.Journal != nil {
		r.Get("/events", s.GetEvents)
	}
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.write(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.write(w, http.StatusOK, map[string]string{"app": "prism-http", "version": s.Version})
}

// PostLayout handles the POST /layout request: the body is a YAML or JSON document.
func (s *Server) PostLayout(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	report, err := s.Inspector.Layout(doc)
	if err != nil {
		s.fail(w, http.StatusUnprocessableEntity, "layout", err)
		return
	}
	s.write(w, http.StatusOK, report)
}

// PostSplit handles the POST /split request.
func (s *Server) PostSplit(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	report, err := s.Inspector.Split(r.Context(), doc)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		s.fail(w, status, "split", err)
		return
	}
	s.write(w, http.StatusOK, report)
}

// GetEvents handles the GET /events request with the journaled lifecycle events.
func (s *Server) GetEvents(w http.ResponseWriter, r *http.Request) {
	s.write(w, http.StatusOK, s.Journal.Snapshot())
}

// -- Helpers --

func (s *Server) document(w http.ResponseWriter, r *http.Request) (*dynamic.Document, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.MaxBody))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.fail(w, status, "document", err)
		return nil, false
	}
	doc, err := dynamic.Parse(bytes.NewReader(body))
	if err != nil {
		s.fail(w, http.StatusBadRequest, "document", err)
		return nil, false
	}
	return doc, true
}

func (s *Server) fail(w http.ResponseWriter, status int, op string, err error) {
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "op", op, "err", err)
	} else {
		s.Logger.Debug("request rejected", "op", op, "err", err)
	}
	s.write(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("encode response", "err", err)
	}
}
