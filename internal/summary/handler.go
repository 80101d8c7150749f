package summary

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"groupchat/internal/httpx"
	"groupchat/internal/message"
	"groupchat/internal/room"
)

// RoomChecker answers room existence.
type RoomChecker interface {
	Exists(ctx context.Context, code string) (bool, error)
}

// TranscriptSource exports a room's full message text in
// chronological order.
type TranscriptSource interface {
	Transcript(ctx context.Context, room string) ([]*message.Message, error)
}

type Handler struct {
	rooms      RoomChecker
	store      TranscriptSource
	summarizer Summarizer // nil when unconfigured
	log        *zap.Logger
}

func NewHandler(rooms RoomChecker, store TranscriptSource, summarizer Summarizer, log *zap.Logger) *Handler {
	return &Handler{rooms: rooms, store: store, summarizer: summarizer, log: log}
}

// Summarize returns a short summary of the room's conversation.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	if h.summarizer == nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "summarization is not configured")
		return
	}

	code := room.NormalizeCode(chi.URLParam(r, "code"))
	exists, err := h.rooms.Exists(r.Context(), code)
	if err != nil {
		h.log.Error("room lookup failed", zap.String("room", code), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "could not summarize room")
		return
	}
	if !exists {
		httpx.JSONError(w, http.StatusNotFound, "room not found")
		return
	}

	msgs, err := h.store.Transcript(r.Context(), code)
	if err != nil {
		h.log.Error("transcript load failed", zap.String("room", code), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "could not summarize room")
		return
	}
	if len(msgs) == 0 {
		httpx.JSON(w, http.StatusOK, map[string]string{"summary": ""})
		return
	}

	text, err := h.summarizer.Summarize(r.Context(), BuildTranscript(msgs))
	if err != nil {
		h.log.Warn("summarization failed", zap.String("room", code), zap.Error(err))
		httpx.JSONError(w, http.StatusServiceUnavailable, "summarization unavailable")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"summary": text})
}
