package repository

import (
	"context"

	"taskboard/internal/domain"
)

// TaskRepository exposes persistence operations for Task records.
// Get, Update and Delete return domain.ErrTaskNotFound for unknown ids.
type TaskRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, task *domain.Task) error
	Get(ctx context.Context, id string) (*domain.Task, error)
	// ListByOwner returns tasks newest-created first.
	ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]domain.Task, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
