package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sikshyalaya/backend/internal/domain/entity"
	"github.com/sikshyalaya/backend/internal/domain/repository"
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, full_name, email, password_hash, role, is_verified,
	verification_code, code_expires_at, login_attempts, lock_until,
	enrolled_course_ids, premium_course_ids, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Password, &u.Role, &u.IsVerified,
		&u.VerificationCode, &u.CodeExpiresAt, &u.LoginAttempts, &u.LockUntil,
		&u.EnrolledCourseIDs, &u.PremiumCourseIDs, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (full_name, email, password_hash, role, verification_code, code_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, u.FullName, u.Email, u.Password, u.Role, u.VerificationCode, u.CodeExpiresAt)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email))
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET full_name = $1, password_hash = $2, role = $3, is_verified = $4,
		    verification_code = $5, code_expires_at = $6, login_attempts = $7,
		    lock_until = $8, updated_at = $9
		WHERE id = $10
	`, u.FullName, u.Password, u.Role, u.IsVerified,
		u.VerificationCode, u.CodeExpiresAt, u.LoginAttempts,
		u.LockUntil, u.UpdatedAt, u.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) AddEnrolledCourse(ctx context.Context, userID, courseID string) error {
	// Single-statement set-add; no-op when the id is already present.
	_, err := r.pool.Exec(ctx, `
		UPDATE users
		SET enrolled_course_ids = array_append(enrolled_course_ids, $2), updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY(enrolled_course_ids))
	`, userID, courseID)
	return err
}

func (r *UserRepository) AddPremiumCourse(ctx context.Context, userID, courseID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users
		SET premium_course_ids = array_append(premium_course_ids, $2), updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY(premium_course_ids))
	`, userID, courseID)
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
