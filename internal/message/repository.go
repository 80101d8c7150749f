package message

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// HistoryLimit is how many recent messages a joining client is replayed.
const HistoryLimit = 20

const pgForeignKeyViolation = "23503"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Append persists one message with a server-assigned timestamp and
// returns the stored row.
func (r *Repository) Append(ctx context.Context, room, username, content string) (*Message, error) {
	msg := &Message{RoomCode: room, Username: username, Content: content}
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO messages (room_code, username, content) VALUES ($1, $2, $3) RETURNING id, created_at",
		room, username, content).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("saving message in %s: %w", room, err)
	}
	return msg, nil
}

// RecentHistory returns the most recent HistoryLimit messages of the
// room in chronological order. Recency decides which rows qualify, so
// the query fetches newest-first and the result is reversed for
// presentation.
func (r *Repository) RecentHistory(ctx context.Context, room string) ([]*Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, room_code, username, content, created_at
		FROM messages
		WHERE room_code = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, room, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("loading history for %s: %w", room, err)
	}
	defer rows.Close()

	msgs, err := scanAll(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Transcript returns every message of the room, oldest first. Used as
// the export feeding the optional summarizer.
func (r *Repository) Transcript(ctx context.Context, room string) ([]*Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, room_code, username, content, created_at
		FROM messages
		WHERE room_code = $1
		ORDER BY created_at ASC, id ASC
	`, room)
	if err != nil {
		return nil, fmt.Errorf("loading transcript for %s: %w", room, err)
	}
	defer rows.Close()

	return scanAll(rows)
}

func scanAll(rows *sql.Rows) ([]*Message, error) {
	var msgs []*Message
	for rows.Next() {
		msg := &Message{}
		if err := rows.Scan(&msg.ID, &msg.RoomCode, &msg.Username, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
