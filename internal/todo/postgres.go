package todo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool}
}

// CreateList creates a new to-do list
func (s *PostgresStore) CreateList(ctx context.Context, list *List) error {
	query := `
		INSERT INTO lists (id, name, is_shared, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	list.ID = uuid.New()
	list.CreatedAt = time.Now()

	_, err := s.pool.Exec(ctx, query,
		list.ID,
		list.Name,
		list.IsShared,
		list.OwnerID,
		list.CreatedAt,
	)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("operation cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to create list: %w", err)
	}

	return nil
}

// GetListByID retrieves a list by its ID
func (s *PostgresStore) GetListByID(ctx context.Context, listID uuid.UUID) (*List, error) {
	query := `
		SELECT id, name, is_shared, owner_id, created_at
		FROM lists
		WHERE id = $1
	`

	list := &List{}
	err := s.pool.QueryRow(ctx, query, listID).Scan(
		&list.ID,
		&list.Name,
		&list.IsShared,
		&list.OwnerID,
		&list.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("failed to get list: %w", err)
	}

	return list, nil
}

// GetListTasks gets all tasks of a list
func (s *PostgresStore) GetListTasks(ctx context.Context, listID uuid.UUID) ([]*Task, error) {
	query := `
		SELECT id, list_id, title, content, is_completed, created_at
		FROM tasks
		WHERE list_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*Task{}
	for rows.Next() {
		t := &Task{}
		err := rows.Scan(&t.ID, &t.ListID, &t.Title, &t.Content, &t.IsCompleted, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// GetUserLists gets all personal (non-shared) lists owned by a user
func (s *PostgresStore) GetUserLists(ctx context.Context, ownerID uuid.UUID) ([]*List, error) {
	query := `
		SELECT id, name, is_shared, owner_id, created_at
		FROM lists
		WHERE owner_id = $1 AND is_shared = FALSE
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user lists: %w", err)
	}
	defer rows.Close()

	lists := []*List{}
	for rows.Next() {
		list := &List{}
		err := rows.Scan(&list.ID, &list.Name, &list.IsShared, &list.OwnerID, &list.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, list)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lists: %w", err)
	}

	return lists, nil
}

// DeleteList deletes a list (cascades to its tasks)
func (s *PostgresStore) DeleteList(ctx context.Context, listID uuid.UUID) error {
	query := `DELETE FROM lists WHERE id = $1`

	result, err := s.pool.Exec(ctx, query, listID)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrListNotFound
	}

	return nil
}

// CreateTask creates a new task in a list
func (s *PostgresStore) CreateTask(ctx context.Context, task *Task) error {
	query := `
		INSERT INTO tasks (id, list_id, title, content, is_completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	task.ID = uuid.New()
	task.CreatedAt = time.Now()

	_, err := s.pool.Exec(ctx, query,
		task.ID,
		task.ListID,
		task.Title,
		task.Content,
		task.IsCompleted,
		task.CreatedAt,
	)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("operation cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetTaskByID retrieves a task by its ID
func (s *PostgresStore) GetTaskByID(ctx context.Context, taskID uuid.UUID) (*Task, error) {
	query := `
		SELECT id, list_id, title, content, is_completed, created_at
		FROM tasks
		WHERE id = $1
	`

	t := &Task{}
	err := s.pool.QueryRow(ctx, query, taskID).Scan(
		&t.ID,
		&t.ListID,
		&t.Title,
		&t.Content,
		&t.IsCompleted,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return t, nil
}

// ToggleTask flips a task's completion flag and returns the updated row
func (s *PostgresStore) ToggleTask(ctx context.Context, taskID uuid.UUID) (*Task, error) {
	query := `
		UPDATE tasks
		SET is_completed = NOT is_completed
		WHERE id = $1
		RETURNING id, list_id, title, content, is_completed, created_at
	`

	t := &Task{}
	err := s.pool.QueryRow(ctx, query, taskID).Scan(
		&t.ID,
		&t.ListID,
		&t.Title,
		&t.Content,
		&t.IsCompleted,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to toggle task: %w", err)
	}

	return t, nil
}

// DeleteTask deletes a task
func (s *PostgresStore) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1`

	result, err := s.pool.Exec(ctx, query, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// GetRoomCodeByListID resolves the room a shared list is attached to
func (s *PostgresStore) GetRoomCodeByListID(ctx context.Context, listID uuid.UUID) (string, error) {
	query := `SELECT room_code FROM rooms WHERE list_id = $1`

	var roomCode string
	err := s.pool.QueryRow(ctx, query, listID).Scan(&roomCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNoRoom
		}
		return "", fmt.Errorf("failed to resolve room for list: %w", err)
	}

	return roomCode, nil
}
