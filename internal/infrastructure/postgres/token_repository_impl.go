package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sikshyalaya/backend/internal/domain/entity"
	"github.com/sikshyalaya/backend/internal/domain/repository"
)

type RefreshTokenRepository struct {
	pool *pgxpool.Pool
}

func NewRefreshTokenRepository(pool *pgxpool.Pool) *RefreshTokenRepository {
	return &RefreshTokenRepository{pool: pool}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t *entity.RefreshToken) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, t.UserID, t.Token, t.ExpiresAt)
	return row.Scan(&t.ID, &t.CreatedAt)
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	t := &entity.RefreshToken{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, token, created_at, expires_at
		FROM refresh_tokens
		WHERE token = $1
	`, token)
	if err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt, &t.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *RefreshTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	// Delete-if-exists; logout with a stale cookie is not an error.
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	return err
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

var _ repository.RefreshTokenRepository = (*RefreshTokenRepository)(nil)
