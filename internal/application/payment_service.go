package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sikshyalaya/backend/internal/domain/entity"
	"github.com/sikshyalaya/backend/internal/domain/repository"
	"github.com/sikshyalaya/backend/internal/gateway/esewa"
	"github.com/sikshyalaya/backend/pkg/mailer"
	"github.com/sikshyalaya/backend/pkg/mailer/templates"
)

// EsewaCallback carries the fields the eSewa success redirect posts back,
// plus the HMAC signature material.
type EsewaCallback struct {
	TransactionUUID  string
	TransactionCode  string
	Status           string
	TotalAmount      string
	ProductCode      string
	SignedFieldNames string
	Signature        string
}

// ReconcileJob is the queue payload for payments whose record updates did not
// converge in the request path.
type ReconcileJob struct {
	TransactionUUID string `json:"transaction_uuid"`
}

// PaymentResult reports the outcome of a verification to the handler.
type PaymentResult struct {
	Payment        *entity.Payment
	AlreadyApplied bool
}

// PaymentService verifies eSewa transactions server-to-server and applies the
// resulting premium enrollment idempotently. A payment row keyed by the
// gateway transaction UUID is the durable idempotency record; a short Redis
// latch sheds concurrent duplicates of the same transaction before Postgres
// sees them.
type PaymentService struct {
	users    repository.UserRepository
	courses  repository.CourseRepository
	progress repository.ProgressRepository
	payments repository.PaymentRepository
	gateway  GatewayVerifier
	latch    Latch
	emails   Publisher
	reconci  Publisher
	logger   *logrus.Logger

	appName          string
	secretKey        string
	enforceSignature bool

	now func() time.Time
}

func NewPaymentService(
	users repository.UserRepository,
	courses repository.CourseRepository,
	progress repository.ProgressRepository,
	payments repository.PaymentRepository,
	gateway GatewayVerifier,
	latch Latch,
	emails Publisher,
	reconcile Publisher,
	logger *logrus.Logger,
	appName, secretKey string,
	enforceSignature bool,
) *PaymentService {
	return &PaymentService{
		users:            users,
		courses:          courses,
		progress:         progress,
		payments:         payments,
		gateway:          gateway,
		latch:            latch,
		emails:           emails,
		reconci:          reconcile,
		logger:           logger,
		appName:          appName,
		secretKey:        secretKey,
		enforceSignature: enforceSignature,
		now:              time.Now,
	}
}

const latchTTL = 30 * time.Second

// VerifyEsewa runs the full verification pipeline for the v2 callback:
// status gate, amount parse, user and course existence, signature check,
// duplicate shedding, server-to-server confirmation, durable payment record,
// then enrollment application.
// Calling it twice with the same transaction UUID applies the enrollment once.
func (s *PaymentService) VerifyEsewa(ctx context.Context, userID, courseID string, cb EsewaCallback) (*PaymentResult, error) {
	if cb.Status != esewa.StatusComplete {
		return nil, ErrPaymentIncomplete
	}
	amount, err := strconv.ParseFloat(cb.TotalAmount, 64)
	if err != nil {
		return nil, ErrInvalidAmount
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	if err := s.checkSignature(cb); err != nil {
		return nil, err
	}

	// Fast path for retries of an already processed transaction.
	if existing, err := s.payments.GetByTransactionUUID(ctx, cb.TransactionUUID); err == nil {
		return s.resultForExisting(ctx, existing)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	key := "pay:" + cb.TransactionUUID
	won, err := s.latch.Acquire(ctx, key, latchTTL)
	if err != nil {
		s.logger.WithError(err).Warn("payment latch unavailable, relying on unique constraint")
	} else if !won {
		return nil, ErrPaymentInFlight
	} else {
		defer func() {
			if relErr := s.latch.Release(context.WithoutCancel(ctx), key); relErr != nil {
				s.logger.WithError(relErr).Warn("payment latch release failed")
			}
		}()
	}

	ok, err := s.gateway.VerifyTransaction(ctx, cb.TransactionUUID, cb.TransactionCode, cb.TotalAmount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVerificationFailed
	}

	p := &entity.Payment{
		ID:              uuid.NewString(),
		UserID:          u.ID,
		CourseID:        course.ID,
		TransactionUUID: cb.TransactionUUID,
		TransactionCode: cb.TransactionCode,
		Amount:          amount,
		Status:          entity.PaymentStatusVerified,
		CreatedAt:       s.now(),
	}
	if err := s.payments.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			existing, getErr := s.payments.GetByTransactionUUID(ctx, cb.TransactionUUID)
			if getErr != nil {
				return nil, getErr
			}
			return s.resultForExisting(ctx, existing)
		}
		return nil, err
	}

	if err := s.ApplyPremium(ctx, p); err != nil {
		s.enqueueReconcile(ctx, p.TransactionUUID)
		return nil, ErrEnrollmentNotSynced
	}

	s.sendReceipt(ctx, u, course, p)
	return &PaymentResult{Payment: p}, nil
}

// VerifyEsewaLegacy handles the older callback shape {oid, amt, refId}. The
// order id is the course id and refId stands in for the transaction UUID; the
// pipeline past that point is shared with v2.
func (s *PaymentService) VerifyEsewaLegacy(ctx context.Context, userID, oid, amt, refID string) (*PaymentResult, error) {
	return s.VerifyEsewa(ctx, userID, oid, EsewaCallback{
		TransactionUUID: refID,
		TransactionCode: refID,
		Status:          esewa.StatusComplete,
		TotalAmount:     amt,
	})
}

// ApplyPremium applies a verified payment's record updates. Every step is a
// set-add or upsert, so the reconcile worker can retry it safely.
func (s *PaymentService) ApplyPremium(ctx context.Context, p *entity.Payment) error {
	if p.Status == entity.PaymentStatusApplied {
		return nil
	}
	if err := s.users.AddEnrolledCourse(ctx, p.UserID, p.CourseID); err != nil {
		return fmt.Errorf("add enrolled course: %w", err)
	}
	if err := s.users.AddPremiumCourse(ctx, p.UserID, p.CourseID); err != nil {
		return fmt.Errorf("add premium course: %w", err)
	}
	wasInserted, err := s.progress.UpsertPremium(ctx, p.UserID, p.CourseID, s.now())
	if err != nil {
		return fmt.Errorf("upsert premium progress: %w", err)
	}
	if wasInserted {
		if err := s.courses.IncrementEnrollment(ctx, p.CourseID); err != nil {
			return fmt.Errorf("increment enrollment: %w", err)
		}
	}
	at := s.now()
	if err := s.payments.MarkApplied(ctx, p.TransactionUUID, at); err != nil {
		return fmt.Errorf("mark applied: %w", err)
	}
	p.Status = entity.PaymentStatusApplied
	p.AppliedAt = &at
	return nil
}

// Reconcile retries the record updates for a single stuck payment. Used by
// the queue consumer and the cron sweep.
func (s *PaymentService) Reconcile(ctx context.Context, txnUUID string) error {
	p, err := s.payments.GetByTransactionUUID(ctx, txnUUID)
	if err != nil {
		return err
	}
	return s.ApplyPremium(ctx, p)
}

// SweepUnapplied re-applies every verified-but-unapplied payment older than
// the cutoff and returns how many converged.
func (s *PaymentService) SweepUnapplied(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	pending, err := s.payments.ListUnapplied(ctx, s.now().Add(-olderThan), limit)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, p := range pending {
		if err := s.ApplyPremium(ctx, p); err != nil {
			s.logger.WithError(err).WithField("transaction_uuid", p.TransactionUUID).Warn("reconcile sweep: payment still not applied")
			continue
		}
		applied++
	}
	return applied, nil
}

// PendingReconciliation lists verified-but-unapplied payments, newest cutoff
// now, for the admin ops view.
func (s *PaymentService) PendingReconciliation(ctx context.Context, limit int) ([]*entity.Payment, error) {
	return s.payments.ListUnapplied(ctx, s.now(), limit)
}

func (s *PaymentService) checkSignature(cb EsewaCallback) error {
	if cb.Signature == "" || cb.SignedFieldNames == "" {
		return nil
	}
	fields := map[string]string{
		"transaction_code":   cb.TransactionCode,
		"status":             cb.Status,
		"total_amount":       cb.TotalAmount,
		"transaction_uuid":   cb.TransactionUUID,
		"product_code":       cb.ProductCode,
		"signed_field_names": cb.SignedFieldNames,
	}
	if esewa.VerifySignature(s.secretKey, cb.SignedFieldNames, fields, cb.Signature) {
		return nil
	}
	if s.enforceSignature {
		return ErrSignatureMismatch
	}
	s.logger.WithField("transaction_uuid", cb.TransactionUUID).Warn("esewa signature mismatch (not enforced)")
	return nil
}

// resultForExisting is the idempotent answer for a transaction already on
// record. A still-verified row gets one more application attempt in-line.
func (s *PaymentService) resultForExisting(ctx context.Context, p *entity.Payment) (*PaymentResult, error) {
	if p.Status == entity.PaymentStatusApplied {
		return &PaymentResult{Payment: p, AlreadyApplied: true}, nil
	}
	if err := s.ApplyPremium(ctx, p); err != nil {
		s.enqueueReconcile(ctx, p.TransactionUUID)
		return nil, ErrEnrollmentNotSynced
	}
	return &PaymentResult{Payment: p, AlreadyApplied: true}, nil
}

func (s *PaymentService) enqueueReconcile(ctx context.Context, txnUUID string) {
	if err := s.reconci.PublishJSON(context.WithoutCancel(ctx), ReconcileJob{TransactionUUID: txnUUID}); err != nil {
		s.logger.WithError(err).WithField("transaction_uuid", txnUUID).Error("failed to enqueue reconcile job, cron sweep will pick it up")
	}
}

func (s *PaymentService) sendReceipt(ctx context.Context, u *entity.User, course *entity.Course, p *entity.Payment) {
	data := templates.EmailData{
		Name:            u.FullName,
		Email:           u.Email,
		AppName:         s.appName,
		CourseTitle:     course.Title,
		Amount:          p.Amount,
		TransactionCode: p.TransactionCode,
	}
	if err := s.emails.PublishJSON(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: templates.PaymentReceipt,
		Data:     templates.ToMap(data),
	}); err != nil {
		s.logger.WithError(err).WithField("email", u.Email).Warn("receipt email enqueue failed")
	}
}
