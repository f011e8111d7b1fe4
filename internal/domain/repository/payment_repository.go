package repository

import (
	"context"
	"time"

	"github.com/sikshyalaya/backend/internal/domain/entity"
)

// PaymentRepository records gateway-confirmed transactions. The unique
// transaction UUID gives end-to-end idempotency; rows left in "verified"
// status are picked up by the reconcile worker.
type PaymentRepository interface {
	// Create inserts the payment; ErrDuplicate when the transaction uuid was
	// already recorded.
	Create(ctx context.Context, p *entity.Payment) error
	GetByTransactionUUID(ctx context.Context, txnUUID string) (*entity.Payment, error)
	MarkApplied(ctx context.Context, txnUUID string, at time.Time) error
	// ListUnapplied returns verified-but-unapplied payments older than the
	// cutoff, oldest first.
	ListUnapplied(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Payment, error)
}
