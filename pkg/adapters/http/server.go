// Package http exposes a loaded engine over a small REST surface:
// create an execution, tick it, inspect its blackboard, and export the
// tree graph. It serves automation and debugging UIs, not production
// robot control loops.
package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/domain"
)

// Server holds the engine and its in-flight executions.
type Server struct {
	engine *arbor.Engine
	logger *slog.Logger

	mu     sync.Mutex
	nextID int
	runs   map[string]*arbor.Execution
}

// NewHandler creates the HTTP handler for a loaded engine.
func NewHandler(engine *arbor.Engine, logger *slog.Logger) http.Handler {
	s := &Server{
		engine: engine,
		logger: logger,
		runs:   make(map[string]*arbor.Execution),
	}
	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Get("/graph", s.graph)
	r.Post("/executions", s.create)
	r.Post("/executions/{id}/tick", s.tick)
	r.Get("/executions/{id}/blackboard", s.blackboard)
	r.Delete("/executions/{id}", s.cancel)
	return r
}

type createRequest struct {
	Params map[string]any `json:"params"`
}

type createResponse struct {
	ID string `json:"id"`
}

type tickResponse struct {
	Status domain.Status `json:"status"`
	Ticks  int           `json:"ticks"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Describe())
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.fail(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
			return
		}
	}
	exec, err := s.engine.NewExecution(req.Params)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	s.nextID++
	id := fmt.Sprintf("exec-%d", s.nextID)
	s.runs[id] = exec
	s.mu.Unlock()

	s.logger.Info("execution created", "id", id)
	writeJSON(w, http.StatusCreated, createResponse{ID: id})
}

func (s *Server) tick(w http.ResponseWriter, r *http.Request) {
	exec, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		s.fail(w, http.StatusNotFound, fmt.Errorf("unknown execution"))
		return
	}
	status, err := exec.Tick(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, tickResponse{Status: status, Ticks: exec.Ticks()})
}

func (s *Server) blackboard(w http.ResponseWriter, r *http.Request) {
	exec, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		s.fail(w, http.StatusNotFound, fmt.Errorf("unknown execution"))
		return
	}
	bb := exec.Blackboard()
	out := make(map[string]any, bb.Len())
	for _, key := range bb.Keys() {
		if v, found := bb.Get(key); found {
			out[key] = v.Interface()
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	exec, ok := s.lookup(id)
	if !ok {
		s.fail(w, http.StatusNotFound, fmt.Errorf("unknown execution"))
		return
	}
	if err := exec.Cancel(r.Context()); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	s.mu.Lock()
	delete(s.runs, id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookup(id string) (*arbor.Execution, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exec, ok := s.runs[id]
	return exec, ok
}

func (s *Server) fail(w http.ResponseWriter, code int, err error) {
	s.logger.Error("request failed", "error", err)
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
