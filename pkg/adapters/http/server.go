package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/branchtale"
	"github.com/aretw0/branchtale/internal/presentation/graph"
	"github.com/aretw0/branchtale/pkg/adapters/memory"
	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/aretw0/branchtale/pkg/input"
	"github.com/aretw0/branchtale/pkg/ports"
	"github.com/aretw0/branchtale/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StepRequest is the body of POST /sessions/{id}/input.
type StepRequest struct {
	Input string `json:"input"`
}

// StepResponse pairs the session snapshot with the result that produced it.
type StepResponse struct {
	Session *domain.Session   `json:"session"`
	Result  domain.StepResult `json:"result"`
}

// Server serves concurrent playthroughs of one engine's story.
type Server struct {
	Engine   *branchtale.Engine
	Sessions *session.Manager

	store       ports.TranscriptStore
	metrics     http.Handler
	turnTimeout time.Duration
	logger      *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStore archives finished sessions, from both the REST API and /play.
func WithStore(store ports.TranscriptStore) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithMetrics mounts a metrics handler at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithTurnTimeout bounds how long a /play turn waits for input.
func WithTurnTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.turnTimeout = d
	}
}

// WithLogger overrides slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer wires a session manager around the engine.
func NewServer(engine *branchtale.Engine, opts ...Option) *Server {
	s := &Server{
		Engine: engine,
		store:  memory.NewStore(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Sessions = engine.Sessions(session.WithStore(s.store), session.WithLogger(s.logger))
	return s
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine *branchtale.Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	r.Get("/story", s.GetStory)
	r.Get("/story/graph", s.GetGraph)
	r.Get("/events", s.SubscribeReloads)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.StartSession)
		r.Get("/{id}", s.GetSession)
		r.Delete("/{id}", s.AbandonSession)
		r.Post("/{id}/input", s.StepSession)
		r.Get("/{id}/events", s.SubscribeSession)
	})

	r.Get("/play", s.Play)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>branchtale API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	resp := map[string]any{
		"app":             "branchtale-http",
		"version":         branchtale.Version,
		"api_version":     apiVersion,
		"story":           s.Engine.Story().ID,
		"active_sessions": len(s.Sessions.Active()),
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetStory handles the GET /story request.
func (s *Server) GetStory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Story())
}

// GetGraph handles the GET /story/graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	story := s.Engine.Story()

	var overlay *graph.GraphOverlay
	if id := r.URL.Query().Get("session_id"); id != "" {
		sess, err := s.Sessions.Get(r.Context(), id)
		if err != nil {
			s.fail(w, "GetGraph", err)
			return
		}
		if sess.Done() {
			overlay = graph.OverlayFromTranscript(story, domain.NewTranscript(sess))
		} else {
			overlay = &graph.GraphOverlay{VisitedNodes: sess.History, CurrentNode: sess.CurrentNodeID}
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(graph.GenerateMermaid(story, overlay)))
}

// StartSession handles the POST /sessions request.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	sess, res, err := s.Sessions.Start(r.Context())
	if err != nil {
		s.fail(w, "StartSession", err)
		return
	}
	writeJSON(w, http.StatusCreated, StepResponse{Session: sess, Result: res})
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// AbandonSession handles the DELETE /sessions/{id} request.
func (s *Server) AbandonSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Abandon(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "AbandonSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StepSession handles the POST /sessions/{id}/input request.
func (s *Server) StepSession(w http.ResponseWriter, r *http.Request) {
	var body StepRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("StepSession: Invalid request body", "err", err)
		return
	}

	// Rejected input is stepped as absent input.
	clean, err := input.Sanitize(body.Input)
	if err != nil {
		s.logger.Warn("StepSession: Input rejected", "err", err, "size", len(body.Input))
	}

	sess, res, err := s.Sessions.Step(r.Context(), chi.URLParam(r, "id"), clean)
	if err != nil {
		s.fail(w, "StepSession", err)
		return
	}
	writeJSON(w, http.StatusOK, StepResponse{Session: sess, Result: res})
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrTranscriptNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrSessionAlreadyTerminal):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nothing to write.
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
		s.logger.Error(op+" failed", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
