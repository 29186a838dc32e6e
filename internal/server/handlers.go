package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/studyscroll/studyscroll/internal/deck"
	"github.com/studyscroll/studyscroll/internal/generate"
	"github.com/studyscroll/studyscroll/internal/narrate"
	"github.com/studyscroll/studyscroll/internal/pipeline"
	"github.com/studyscroll/studyscroll/internal/session"
)

// createRequest is the POST /api/sessions body.
type createRequest struct {
	Topic string `json:"topic"`
}

// createResponse is returned on successful generation.
type createResponse struct {
	SessionID  string        `json:"session_id"`
	Cards      deck.Sequence `json:"cards"`
	AudioReady bool          `json:"audio_ready"`
}

// sessionResponse is the GET /api/sessions/{id} body.
type sessionResponse struct {
	SessionID string            `json:"session_id"`
	Topic     string            `json:"topic"`
	Cards     deck.Sequence     `json:"cards"`
	Alignment narrate.Alignment `json:"alignment,omitempty"`
	AudioURL  string            `json:"audio_url,omitempty"`
	CreatedAt string            `json:"created_at"`
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be JSON with a topic field")
		return
	}

	// Reject immediately when all generation slots are taken; queueing would
	// only pile synchronous requests behind minute-long pipeline runs.
	if !s.sem.TryAcquire(1) {
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusServiceUnavailable, "generation capacity exhausted, retry later")
		return
	}
	defer s.sem.Release(1)

	id, err := s.pipeline.Run(r.Context(), req.Topic)
	switch {
	case errors.Is(err, pipeline.ErrInvalidTopic):
		writeError(w, http.StatusBadRequest, "topic must be non-empty and at most 500 characters")
		return
	case errors.Is(err, generate.ErrExhausted):
		writeError(w, http.StatusBadGateway, "all generation providers failed, try again later")
		return
	case err != nil:
		slog.Error("pipeline run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "session generation failed")
		return
	}

	sess, err := s.store.Load(r.Context(), id)
	if err != nil {
		slog.Error("load freshly created session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "session generation failed")
		return
	}

	writeJSON(w, http.StatusCreated, createResponse{
		SessionID:  sess.ID,
		Cards:      sess.Cards,
		AudioReady: sess.HasAudio(),
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	resp := sessionResponse{
		SessionID: sess.ID,
		Topic:     sess.Topic,
		Cards:     sess.Cards,
		Alignment: sess.Alignment,
		CreatedAt: sess.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if sess.HasAudio() {
		resp.AudioURL = "/api/sessions/" + sess.ID + "/audio"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if !sess.HasAudio() {
		writeError(w, http.StatusNotFound, "session has no narration audio")
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	w.Write(sess.Audio)
}

func (s *Server) handleAudioStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ready": sess.HasAudio()})
}

// loadSession resolves the {id} path value, writing the 404 response itself
// when the session does not exist.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := r.PathValue("id")
	sess, err := s.store.Load(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	if err != nil {
		slog.Error("load session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return nil, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
