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

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO payments (user_id, course_id, transaction_uuid, transaction_code, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, p.UserID, p.CourseID, p.TransactionUUID, p.TransactionCode, p.Amount, p.Status)

	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *PaymentRepository) GetByTransactionUUID(ctx context.Context, txnUUID string) (*entity.Payment, error) {
	p := &entity.Payment{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, course_id, transaction_uuid, transaction_code, amount, status, created_at, applied_at
		FROM payments
		WHERE transaction_uuid = $1
	`, txnUUID)
	err := row.Scan(&p.ID, &p.UserID, &p.CourseID, &p.TransactionUUID, &p.TransactionCode,
		&p.Amount, &p.Status, &p.CreatedAt, &p.AppliedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PaymentRepository) MarkApplied(ctx context.Context, txnUUID string, at time.Time) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE payments SET status = $1, applied_at = $2 WHERE transaction_uuid = $3
	`, entity.PaymentStatusApplied, at, txnUUID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PaymentRepository) ListUnapplied(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, course_id, transaction_uuid, transaction_code, amount, status, created_at, applied_at
		FROM payments
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3
	`, entity.PaymentStatusVerified, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Payment
	for rows.Next() {
		p := &entity.Payment{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.CourseID, &p.TransactionUUID, &p.TransactionCode,
			&p.Amount, &p.Status, &p.CreatedAt, &p.AppliedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ repository.PaymentRepository = (*PaymentRepository)(nil)
