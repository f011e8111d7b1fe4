package entity

import "time"

// Payment status transitions: verified -> applied. A payment stuck in
// "verified" means the gateway confirmed the money but the local enrollment
// update did not converge yet; the reconcile worker retries those.
const (
	PaymentStatusVerified = "verified"
	PaymentStatusApplied  = "applied"
)

// Payment is the durable record of a gateway-confirmed transaction, keyed by
// the gateway transaction UUID for idempotency.
type Payment struct {
	ID              string
	UserID          string
	CourseID        string
	TransactionUUID string
	TransactionCode string
	Amount          float64
	Status          string
	CreatedAt       time.Time
	AppliedAt       *time.Time
}
