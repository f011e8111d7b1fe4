package repository

import (
	"context"
	"time"

	"github.com/sikshyalaya/backend/internal/domain/entity"
)

// RefreshTokenRepository persists refresh tokens so sessions can be revoked.
type RefreshTokenRepository interface {
	Create(ctx context.Context, t *entity.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*entity.RefreshToken, error)
	// DeleteByToken has delete-if-exists semantics; deleting an absent token
	// is not an error.
	DeleteByToken(ctx context.Context, token string) error
	// DeleteExpired removes tokens whose expiry is before the cutoff and
	// returns the number of rows removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
