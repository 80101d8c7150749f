package chat

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"groupchat/internal/message"
	"groupchat/internal/room"
)

// CloseRoomNotFound is the close code sent when a client connects to a
// room code that does not exist.
const CloseRoomNotFound = 4004

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Consumer-side contracts; they keep this package decoupled from the
// storage and presence implementations.

// RoomDirectory answers room existence and roster writes.
type RoomDirectory interface {
	Exists(ctx context.Context, code string) (bool, error)
	AddMember(ctx context.Context, code, username string) error
}

// MessageLog is the persistence contract for chat messages.
type MessageLog interface {
	Append(ctx context.Context, room, username, content string) (*message.Message, error)
	RecentHistory(ctx context.Context, room string) ([]*message.Message, error)
}

// Presence is the best-effort online tracker.
type Presence interface {
	MarkActive(ctx context.Context, room, username string) error
	Remove(ctx context.Context, room, username string) error
}

type Handler struct {
	hub      *Hub
	rooms    RoomDirectory
	store    MessageLog
	presence Presence
	log      *zap.Logger
}

func NewHandler(hub *Hub, rooms RoomDirectory, store MessageLog, presence Presence, log *zap.Logger) *Handler {
	return &Handler{hub: hub, rooms: rooms, store: store, presence: presence, log: log}
}

// ServeWs upgrades the connection and runs the join flow: existence
// check, roster add, history replay to this client only, hub
// registration, join notification, then the two pumps. A nonexistent
// room closes the socket with CloseRoomNotFound before anything is
// replayed or broadcast.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	code := room.NormalizeCode(chi.URLParam(r, "code"))
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		username = "Anonymous"
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	exists, err := h.rooms.Exists(r.Context(), code)
	if err != nil {
		h.log.Error("room lookup failed", zap.String("room", code), zap.Error(err))
		closeWith(conn, websocket.CloseInternalServerErr, "room lookup failed")
		return
	}
	if !exists {
		closeWith(conn, CloseRoomNotFound, "room not found")
		return
	}

	if err := h.rooms.AddMember(r.Context(), code, username); err != nil {
		h.log.Error("roster add failed", zap.String("room", code), zap.Error(err))
		closeWith(conn, websocket.CloseInternalServerErr, "could not join room")
		return
	}

	client := &Client{
		id:       uuid.NewString(),
		room:     code,
		username: username,
		hub:      h.hub,
		store:    h.store,
		presence: h.presence,
		log:      h.log,
		conn:     conn,
		send:     make(chan []byte, 256),
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := h.presence.MarkActive(ctx, code, username); err != nil {
		// degrade: the user just won't show as online yet
		h.log.Warn("presence mark failed", zap.String("room", code), zap.Error(err))
	}

	// Queue the replay before registering with the hub so history
	// always precedes live fan-out on this connection.
	history, err := h.store.RecentHistory(ctx, code)
	if err != nil {
		h.log.Error("history load failed", zap.String("room", code), zap.Error(err))
		closeWith(conn, websocket.CloseInternalServerErr, "could not load history")
		return
	}
	for _, msg := range history {
		client.send <- historyFrame(msg.Username, msg.Content, msg.CreatedAt)
	}

	h.hub.Join(code, client)
	h.hub.Broadcast(code, systemFrame(username+" joined the chat.", time.Now()))

	go client.writePump()
	go client.readPump()
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	conn.Close()
}
