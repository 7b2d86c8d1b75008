package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"vnplayer/internal/services"
	"vnplayer/internal/services/events"
	"vnplayer/internal/storage"
	"vnplayer/pkg/script"
	"vnplayer/pkg/stream"
)

// SessionHandler manages playback sessions and triggers upstream story
// requests for them.
type SessionHandler struct {
	storage     storage.Storage
	source      services.StorySource
	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

func NewSessionHandler(s storage.Storage, source services.StorySource, b *events.Broadcaster, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		storage:     s,
		source:      source,
		broadcaster: b,
		logger:      logger,
	}
}

type CreateSessionRequest struct {
	Script string `json:"script,omitempty"`
}

type StoryRequest struct {
	Message string `json:"message"`
	// Repeat re-requests the previous reply instead of sending Message.
	Repeat bool `json:"repeat,omitempty"`
}

type SessionResponse struct {
	*storage.Session
	Commands int `json:"commands"`
}

// ServeHTTP routes:
//
//	POST   /v1/sessions
//	GET    /v1/sessions/{id}
//	PUT    /v1/sessions/{id}
//	DELETE /v1/sessions/{id}
//	POST   /v1/sessions/{id}/story
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "v1" || parts[1] != "sessions" {
		writeError(w, h.logger, http.StatusNotFound, "Not found")
		return
	}

	switch {
	case len(parts) == 2 && r.Method == http.MethodPost:
		h.create(w, r)
	case len(parts) == 3:
		h.byID(w, r, parts[2])
	case len(parts) == 4 && parts[3] == "story" && r.Method == http.MethodPost:
		h.story(w, r, parts[2])
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	sess := &storage.Session{
		ID:     uuid.New(),
		Script: req.Script,
	}
	if req.Script != "" {
		sess.Choices = script.Parse(req.Script).Choices
	}

	if err := h.storage.SaveSession(r.Context(), sess); err != nil {
		h.logger.Error("Failed to create session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.logger.Info("Session created", "session_id", sess.ID.String())
	writeJSON(w, h.logger, http.StatusCreated, h.view(sess))
}

func (h *SessionHandler) byID(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	switch r.Method {
	case http.MethodGet:
		sess, err := h.storage.LoadSession(r.Context(), id)
		if err != nil {
			h.notFoundOrFail(w, err, id)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, h.view(sess))

	case http.MethodPut:
		var sess storage.Session
		if err := json.NewDecoder(r.Body).Decode(&sess); err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
			return
		}
		sess.ID = id
		if err := h.storage.SaveSession(r.Context(), &sess); err != nil {
			h.logger.Error("Failed to update session", "error", err, "session_id", id.String())
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to update session")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, h.view(&sess))

	case http.MethodDelete:
		if err := h.storage.DeleteSession(r.Context(), id); err != nil {
			h.notFoundOrFail(w, err, id)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// story requests an upstream story for the session and relays the stream
// records over pub/sub. The HTTP response returns immediately; clients
// follow the stream on the session's SSE endpoint.
func (h *SessionHandler) story(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	if _, err := h.storage.LoadSession(r.Context(), id); err != nil {
		h.notFoundOrFail(w, err, id)
		return
	}

	var req StoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Repeat && strings.TrimSpace(req.Message) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Message is required")
		return
	}

	// The relay outlives the HTTP request.
	ctx := context.WithoutCancel(r.Context())
	var records <-chan stream.Record
	if req.Repeat {
		records = h.source.RepeatPrevious(ctx)
	} else {
		records = h.source.RequestStory(ctx, req.Message)
	}
	go h.relayAndPersist(ctx, id, records)

	h.logger.Info("Story requested", "session_id", id.String(), "repeat", req.Repeat)
	w.WriteHeader(http.StatusAccepted)
}

// relayAndPersist forwards the stream to pub/sub and, on done, saves the
// final script and choices back onto the session.
func (h *SessionHandler) relayAndPersist(ctx context.Context, id uuid.UUID, records <-chan stream.Record) {
	for rec := range records {
		if err := h.broadcaster.Publish(ctx, id, rec); err != nil {
			h.logger.Error("Failed to relay stream record", "error", err, "session_id", id.String())
		}
		if rec.Type != stream.RecordDone {
			continue
		}

		sess, err := h.storage.LoadSession(ctx, id)
		if err != nil {
			h.logger.Error("Failed to load session for persist", "error", err, "session_id", id.String())
			continue
		}
		sess.Script += rec.Text
		sess.Choices = script.Parse(rec.Text).Choices
		if err := h.storage.SaveSession(ctx, sess); err != nil {
			h.logger.Error("Failed to persist streamed script", "error", err, "session_id", id.String())
		}
	}
}

func (h *SessionHandler) view(sess *storage.Session) SessionResponse {
	return SessionResponse{
		Session:  sess,
		Commands: len(script.Parse(sess.Script).Commands),
	}
}

func (h *SessionHandler) notFoundOrFail(w http.ResponseWriter, err error, id uuid.UUID) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}
	h.logger.Error("Session storage failure", "error", err, "session_id", id.String())
	writeError(w, h.logger, http.StatusInternalServerError, "Storage failure")
}
