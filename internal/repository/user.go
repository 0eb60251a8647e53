package repository

import (
	"context"

	"taskboard/internal/domain"
)

// UserRepository defines persistence operations for User entities.
//
// Lookups return domain.ErrUserNotFound when nothing matches. Writes that
// violate the email or username unique index return domain.ErrEmailTaken or
// domain.ErrUsernameTaken.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByIdentifier matches either the email or the username.
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	// EmailTaken reports whether another user (not excludeID) has email.
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	UsernameTaken(ctx context.Context, username, excludeID string) (bool, error)
	Update(ctx context.Context, user *domain.User) error
}
