package room

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a room code does not exist.
	ErrNotFound = errors.New("room not found")

	// ErrDuplicateCode is returned when creating a room whose code is taken.
	ErrDuplicateCode = errors.New("room code already taken")

	// ErrCodeSpaceExhausted is returned when the generator spends its retry
	// budget without finding a free code.
	ErrCodeSpaceExhausted = errors.New("could not generate a unique room code")
)

type Room struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsPublic  bool      `json:"public"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeCode maps user-supplied codes onto the stored form.
// Codes are case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
