// Package httpapi exposes the engine over HTTP: thread and run management
// as JSON endpoints, run progress as Server-Sent Events.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/polytrader/polytrader"
	"github.com/polytrader/polytrader/internal/logging"
	"github.com/polytrader/polytrader/pkg/domain"
)

// Server wires the engine into HTTP handlers.
type Server struct {
	engine *polytrader.Engine
	logger *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler builds the HTTP handler for the engine.
func NewHandler(engine *polytrader.Engine, opts ...Option) http.Handler {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/threads", s.createThread)
	r.Route("/threads/{threadID}", func(r chi.Router) {
		r.Get("/checkpoints", s.getCheckpoints)
		r.Post("/resume", s.resume)
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.listRuns)
			r.Post("/", s.startRun)
			r.Get("/{runID}", s.getRun)
			r.Post("/{runID}/resolve", s.resolveInterrupt)
		})
	})
	return r
}

// runRequest is the body of run-starting endpoints.
type runRequest struct {
	MarketID string         `json:"market_id"`
	Tokens   []domain.Token `json:"tokens,omitempty"`
}

// resolveRequest carries the human decision for an interrupted run.
type resolveRequest struct {
	Decision map[string]any `json:"decision"`
}

func (s *Server) createThread(w http.ResponseWriter, r *http.Request) {
	id := s.engine.CreateThread(r.Context())
	writeJSON(w, http.StatusCreated, map[string]string{"thread_id": id})
}

func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	var body runRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	events, run, err := s.engine.StartRun(r.Context(), chi.URLParam(r, "threadID"), polytrader.RunInputs{
		MarketID: body.MarketID,
		Tokens:   body.Tokens,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.streamRun(w, r, events, run.ID)
}

func (s *Server) resume(w http.ResponseWriter, r *http.Request) {
	var body runRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	events, run, err := s.engine.Resume(r.Context(), chi.URLParam(r, "threadID"), polytrader.RunInputs{
		MarketID: body.MarketID,
		Tokens:   body.Tokens,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.streamRun(w, r, events, run.ID)
}

func (s *Server) resolveInterrupt(w http.ResponseWriter, r *http.Request) {
	var body resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Decision == nil {
		http.Error(w, "decision is required", http.StatusBadRequest)
		return
	}

	events, run, err := s.engine.ResolveInterrupt(r.Context(),
		chi.URLParam(r, "threadID"), chi.URLParam(r, "runID"), body.Decision)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.streamRun(w, r, events, run.ID)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.engine.Run(chi.URLParam(r, "runID"))
	if !ok || run.ThreadID != chi.URLParam(r, "threadID") {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs := s.engine.ThreadRuns(chi.URLParam(r, "threadID"))
	if runs == nil {
		runs = []*domain.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getCheckpoints(w http.ResponseWriter, r *http.Request) {
	history, err := s.engine.History(r.Context(), chi.URLParam(r, "threadID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if history == nil {
		history = []*domain.Checkpoint{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "polytrader-http",
		"version": polytrader.Version,
	})
}

// streamRun forwards engine events to the client as SSE frames and closes
// with a final "run" frame carrying the run's terminal snapshot. Client
// disconnect cancels the request context, which stops the run at its last
// checkpoint.
func (s *Server) streamRun(w http.ResponseWriter, r *http.Request, events <-chan domain.Event, runID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("streamRun: streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "run_id", runID)
			return
		case ev, ok := <-events:
			if !ok {
				if run, ok := s.engine.Run(runID); ok {
					writeSSE(w, "run", run)
					flusher.Flush()
				}
				return
			}
			writeSSE(w, string(ev.Kind), ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(`{}`)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrThreadNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrNoInterrupt):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, polytrader.ErrMissingMarketID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("request failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
