package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateRoom(ctx context.Context, room *Room) error {
	query := `
		INSERT INTO rooms (id, room_code, name, created_by, list_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		room.ID,
		room.RoomCode,
		room.Name,
		room.CreatedBy,
		room.ListID,
		room.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetRoomByCode(ctx context.Context, roomCode string) (*Room, error) {
	query := `
		SELECT id, room_code, name, created_by, list_id, created_at
		FROM rooms
		WHERE room_code = $1
	`

	room := &Room{}
	err := s.pool.QueryRow(ctx, query, roomCode).Scan(
		&room.ID,
		&room.RoomCode,
		&room.Name,
		&room.CreatedBy,
		&room.ListID,
		&room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

func (s *PostgresStore) DeleteRoomByID(ctx context.Context, roomID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, roomID)
	if err != nil {
		return false, fmt.Errorf("failed to delete room: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) CodeExists(ctx context.Context, roomCode string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM rooms WHERE room_code = $1)`,
		roomCode,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check room code: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) AddParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	query := `
		INSERT INTO room_participants (room_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (room_id, user_id) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query, roomID, userID)
	if err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}

	return nil
}

func (s *PostgresStore) RemoveParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	query := `DELETE FROM room_participants WHERE room_id = $1 AND user_id = $2`

	_, err := s.pool.Exec(ctx, query, roomID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}

	return nil
}

func (s *PostgresStore) CountParticipants(ctx context.Context, roomID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM room_participants WHERE room_id = $1`,
		roomID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) GetParticipantUsernames(ctx context.Context, roomID uuid.UUID) ([]string, error) {
	query := `
		SELECT u.username
		FROM room_participants rp
		JOIN users u ON u.id = rp.user_id
		WHERE rp.room_id = $1
		ORDER BY u.username
	`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	usernames := []string{}
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		usernames = append(usernames, username)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return usernames, nil
}

func (s *PostgresStore) RemoveUserFromAllRooms(ctx context.Context, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM room_participants WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove user from rooms: %w", err)
	}
	return nil
}
