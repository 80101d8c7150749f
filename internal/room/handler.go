package room

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"groupchat/internal/httpx"
)

const maxNameLength = 100

// Registry is what the HTTP surface needs from the room store.
type Registry interface {
	Exists(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, code, name string, isPublic bool) (*Room, error)
	AddMember(ctx context.Context, code, username string) error
	ListPublic(ctx context.Context, page int) ([]*Room, error)
}

// PresenceReader supplies live online users for room listings.
type PresenceReader interface {
	ListActive(ctx context.Context, code string) ([]string, error)
}

type Handler struct {
	registry Registry
	gen      *CodeGenerator
	presence PresenceReader
	log      *zap.Logger
}

func NewHandler(registry Registry, gen *CodeGenerator, presence PresenceReader, log *zap.Logger) *Handler {
	return &Handler{registry: registry, gen: gen, presence: presence, log: log}
}

type createRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Public   bool   `json:"public"`
}

type joinRequest struct {
	Username string `json:"username"`
}

// listedRoom is a Room plus its live online count.
type listedRoom struct {
	*Room
	Online int `json:"online"`
}

// Create generates a code, stores the room and puts the creator on the
// roster.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	if req.Username == "" || len(req.Username) > maxNameLength || len(req.Name) > maxNameLength {
		httpx.JSONError(w, http.StatusBadRequest, "invalid username or room name")
		return
	}

	code, err := h.gen.Generate(r.Context())
	if err != nil {
		if errors.Is(err, ErrCodeSpaceExhausted) {
			httpx.JSONError(w, http.StatusServiceUnavailable, "could not allocate a room code")
			return
		}
		h.log.Error("room code generation failed", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "could not create room")
		return
	}

	room, err := h.registry.Create(r.Context(), code, req.Name, req.Public)
	if err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			// lost the race between pre-check and insert
			httpx.JSONError(w, http.StatusConflict, "room code already taken")
			return
		}
		h.log.Error("room creation failed", zap.String("code", code), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "could not create room")
		return
	}

	if err := h.registry.AddMember(r.Context(), room.Code, req.Username); err != nil {
		h.log.Error("adding creator to roster failed", zap.String("code", room.Code), zap.Error(err))
	}

	httpx.JSON(w, http.StatusCreated, room)
}

// Join validates the code and records the member. Idempotent.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	code := NormalizeCode(chi.URLParam(r, "code"))

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Username) > maxNameLength {
		httpx.JSONError(w, http.StatusBadRequest, "invalid username")
		return
	}

	exists, err := h.registry.Exists(r.Context(), code)
	if err != nil {
		h.log.Error("room lookup failed", zap.String("code", code), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "could not join room")
		return
	}
	if !exists {
		httpx.JSONError(w, http.StatusNotFound, "room not found")
		return
	}

	if err := h.registry.AddMember(r.Context(), code, req.Username); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "room not found")
			return
		}
		h.log.Error("roster add failed", zap.String("code", code), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "could not join room")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"code": code})
}

// ListPublic returns one page of public rooms, newest first, each with
// its live online count. A presence outage degrades counts to zero
// rather than failing the listing.
func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	rooms, err := h.registry.ListPublic(r.Context(), page)
	if err != nil {
		h.log.Error("public room listing failed", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "could not list rooms")
		return
	}

	listed := make([]listedRoom, 0, len(rooms))
	for _, room := range rooms {
		online, err := h.presence.ListActive(r.Context(), room.Code)
		if err != nil {
			h.log.Warn("presence read failed", zap.String("code", room.Code), zap.Error(err))
			online = nil
		}
		listed = append(listed, listedRoom{Room: room, Online: len(online)})
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"page": page, "rooms": listed})
}

// Online returns the usernames currently active in the room.
func (h *Handler) Online(w http.ResponseWriter, r *http.Request) {
	code := NormalizeCode(chi.URLParam(r, "code"))

	exists, err := h.registry.Exists(r.Context(), code)
	if err != nil {
		h.log.Error("room lookup failed", zap.String("code", code), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "could not read presence")
		return
	}
	if !exists {
		httpx.JSONError(w, http.StatusNotFound, "room not found")
		return
	}

	users, err := h.presence.ListActive(r.Context(), code)
	if err != nil {
		h.log.Warn("presence read failed", zap.String("code", code), zap.Error(err))
		users = nil
	}
	if users == nil {
		users = []string{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"online": users})
}
