package repository

import (
	"context"

	"github.com/sikshyalaya/backend/internal/domain/entity"
)

// CourseRepository defines catalog persistence. The auth/payment core only
// needs GetByID and IncrementEnrollment; the rest serves the admin CRUD
// surface.
type CourseRepository interface {
	Create(ctx context.Context, c *entity.Course) error
	GetByID(ctx context.Context, id string) (*entity.Course, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Course, error)
	Update(ctx context.Context, c *entity.Course) error
	Delete(ctx context.Context, id string) error
	SetThumbnail(ctx context.Context, id, url string) error
	IncrementEnrollment(ctx context.Context, id string) error
}
