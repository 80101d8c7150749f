package message

import (
	"errors"
	"time"
)

// ErrRoomNotFound is returned when appending to a room that does not
// exist. The store re-validates the foreign key even though the join
// path checks first.
var ErrRoomNotFound = errors.New("room not found")

// Message is one persisted chat line. Immutable once stored; ordering
// key is CreatedAt ascending with ties broken by ID.
type Message struct {
	ID        int64     `json:"id"`
	RoomCode  string    `json:"room_code"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
