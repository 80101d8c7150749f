package room

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PageSize is the fixed page size for public room listings.
const PageSize = 10

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM rooms WHERE code = $1)",
		NormalizeCode(code)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking room: %w", err)
	}
	return exists, nil
}

// Create reserves the code and stores the room in one statement. The
// primary key on rooms.code closes the race between the generator's
// pre-check and creation.
func (r *Repository) Create(ctx context.Context, code, name string, isPublic bool) (*Room, error) {
	code = NormalizeCode(code)
	if name == "" {
		name = "Room " + code
	}
	room := &Room{Code: code, Name: name, IsPublic: isPublic}
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO rooms (code, name, is_public) VALUES ($1, $2, $3) RETURNING created_at",
		code, name, isPublic).Scan(&room.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("creating room %s: %w", code, err)
	}
	return room, nil
}

// AddMember records the username on the room's roster. Adding an
// already-present member is a no-op. The roster only grows; presence,
// not membership, tracks who is connected right now.
func (r *Repository) AddMember(ctx context.Context, code, username string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO room_members (room_code, username) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		NormalizeCode(code), username)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("adding member to %s: %w", code, err)
	}
	return nil
}

// ListPublic returns one page of public rooms, newest first. Pages are
// 1-based; out-of-range pages return an empty slice.
func (r *Repository) ListPublic(ctx context.Context, page int) ([]*Room, error) {
	if page < 1 {
		page = 1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT code, name, is_public, created_at
		FROM rooms
		WHERE is_public
		ORDER BY created_at DESC, code
		LIMIT $1 OFFSET $2
	`, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, fmt.Errorf("listing public rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*Room
	for rows.Next() {
		room := &Room{}
		if err := rows.Scan(&room.Code, &room.Name, &room.IsPublic, &room.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}
