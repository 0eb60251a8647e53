package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

const (
	createTodosTable = `
CREATE TABLE IF NOT EXISTS todos (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	text TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL DEFAULT 'Moderate',
	is_complete INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`
	createTodosOwnerIndex = `
CREATE INDEX IF NOT EXISTS todos_user_created ON todos (user_id, created_at DESC);
`
	selectTodo = `
SELECT id, user_id, text, description, priority, is_complete, created_at, updated_at
FROM todos`
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) repository.TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTodosTable); err != nil {
		return fmt.Errorf("create todos table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createTodosOwnerIndex); err != nil {
		return fmt.Errorf("create todos index: %w", err)
	}
	return nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO todos (id, user_id, text, description, priority, is_complete, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.OwnerID,
		task.Text,
		task.Description,
		string(task.Priority),
		task.IsComplete,
		toUnix(task.CreatedAt),
		toUnix(task.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert todo: %w", err)
	}
	return nil
}

func (r *TaskRepository) Get(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, selectTodo+`
WHERE id=?`,
		id,
	)
	return scanTask(row)
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, selectTodo+`
WHERE user_id=?
ORDER BY created_at DESC, rowid DESC
LIMIT ? OFFSET ?`,
		ownerID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	return tasks, rows.Err()
}

func (r *TaskRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos WHERE user_id=?`, ownerID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count todos: %w", err)
	}
	return total, nil
}

// Update persists the mutable fields; the owner column is never rewritten.
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE todos
SET text=?, description=?, priority=?, is_complete=?, updated_at=?
WHERE id=?`,
		task.Text,
		task.Description,
		string(task.Priority),
		task.IsComplete,
		toUnix(task.UpdatedAt),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("todo update rows affected: %w", err)
	}
	if aff == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("todo delete rows affected: %w", err)
	}
	if aff == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*domain.Task, error) {
	var (
		task      domain.Task
		priority  string
		createdAt int64
		updatedAt int64
	)

	if err := scanner.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Text,
		&task.Description,
		&priority,
		&task.IsComplete,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan todo: %w", err)
	}

	task.Priority = domain.TaskPriority(priority)
	task.CreatedAt = fromUnix(createdAt)
	task.UpdatedAt = fromUnix(updatedAt)
	return &task, nil
}
