package repository

import (
	"context"

	"github.com/sikshyalaya/backend/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// Update persists mutable account state: verification fields, lockout
	// counters, password hash.
	Update(ctx context.Context, u *entity.User) error
	// Delete removes a user row; used as the compensating action when the
	// verification email cannot be enqueued right after registration.
	Delete(ctx context.Context, id string) error

	// Set-semantics adds; adding an id already present is a no-op.
	AddEnrolledCourse(ctx context.Context, userID, courseID string) error
	AddPremiumCourse(ctx context.Context, userID, courseID string) error
}
