package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SubscribeSession handles the GET /sessions/{id}/events request (SSE).
// The stream ends when the session finishes or is abandoned.
func (s *Server) SubscribeSession(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sessionID := chi.URLParam(r, "id")
	ch, cancel, err := s.Sessions.Subscribe(sessionID)
	if err != nil {
		s.fail(w, "SubscribeSession", err)
		return
	}
	defer cancel()

	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)
	startStream(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case diff, ok := <-ch:
			if !ok {
				fmt.Fprintf(w, "event: end\ndata: %s\n\n", sessionID)
				flusher.Flush()
				return
			}
			data, err := json.Marshal(diff)
			if err != nil {
				s.logger.Error("SSE: encode diff failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: diff\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// SubscribeReloads handles the GET /events request (SSE).
// Each story reload is reported as "reload" or, when rejected, "reload_failed".
func (s *Server) SubscribeReloads(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	results, err := s.Engine.Watch(r.Context())
	if err != nil {
		writeError(w, http.StatusNotImplemented, err.Error())
		return
	}

	startStream(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case err, ok := <-results:
			if !ok {
				return
			}
			if err != nil {
				data, _ := json.Marshal(err.Error())
				fmt.Fprintf(w, "event: reload_failed\ndata: %s\n\n", data)
			} else {
				fmt.Fprintf(w, "event: reload\ndata: %s\n\n", s.Engine.Story().ID)
			}
			flusher.Flush()
		}
	}
}

func startStream(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}
