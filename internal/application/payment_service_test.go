package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sikshyalaya/backend/internal/domain/entity"
	"github.com/sikshyalaya/backend/internal/gateway/esewa"
	"github.com/sikshyalaya/backend/pkg/mailer"
)

type paymentFixture struct {
	svc       *PaymentService
	users     *memUserRepo
	courses   *memCourseRepo
	progress  *memProgressRepo
	payments  *memPaymentRepo
	gateway   *fakeGateway
	latch     *fakeLatch
	emails    *fakePublisher
	reconcile *fakePublisher
	userID    string
	courseID  string
}

func newPaymentFixture(t *testing.T, enforceSignature bool) *paymentFixture {
	t.Helper()
	f := &paymentFixture{
		users:     newMemUserRepo(),
		courses:   newMemCourseRepo(),
		progress:  newMemProgressRepo(),
		payments:  newMemPaymentRepo(),
		gateway:   &fakeGateway{OK: true},
		latch:     newFakeLatch(),
		emails:    &fakePublisher{},
		reconcile: &fakePublisher{},
		userID:    uuid.NewString(),
		courseID:  uuid.NewString(),
	}
	ctx := context.Background()
	require.NoError(t, f.users.Create(ctx, &entity.User{
		ID:         f.userID,
		FullName:   "Asha Thapa",
		Email:      "asha@example.com",
		IsVerified: true,
		Role:       entity.RoleUser,
	}))
	require.NoError(t, f.courses.Create(ctx, &entity.Course{
		ID:           f.courseID,
		Title:        "Go from Scratch",
		Tier:         entity.TierPremium,
		PremiumPrice: 1500,
	}))
	f.svc = NewPaymentService(
		f.users, f.courses, f.progress, f.payments,
		f.gateway, f.latch, f.emails, f.reconcile,
		testLogger(), "Sikshyalaya", "test-esewa-secret", enforceSignature,
	)
	return f
}

func (f *paymentFixture) callback(txnUUID string) EsewaCallback {
	return EsewaCallback{
		TransactionUUID: txnUUID,
		TransactionCode: "000ABC",
		Status:          esewa.StatusComplete,
		TotalAmount:     "1500",
	}
}

func TestVerifyEsewaHappyPath(t *testing.T) {
	f := newPaymentFixture(t, false)
	ctx := context.Background()

	res, err := f.svc.VerifyEsewa(ctx, f.userID, f.courseID, f.callback("txn-1"))
	require.NoError(t, err)
	assert.False(t, res.AlreadyApplied)
	assert.Equal(t, entity.PaymentStatusApplied, res.Payment.Status)
	require.NotNil(t, res.Payment.AppliedAt)

	u, err := f.users.GetByID(ctx, f.userID)
	require.NoError(t, err)
	assert.Contains(t, u.EnrolledCourseIDs, f.courseID)
	assert.Contains(t, u.PremiumCourseIDs, f.courseID)

	p, err := f.progress.Get(ctx, f.userID, f.courseID)
	require.NoError(t, err)
	assert.True(t, p.IsPremium)
	require.NotNil(t, p.PurchasedAt)

	c, err := f.courses.GetByID(ctx, f.courseID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.EnrollmentCount)

	require.Equal(t, 1, f.emails.count())
	job := f.emails.Messages[0].(mailer.EmailJob)
	assert.Equal(t, "asha@example.com", job.To)
}

func TestVerifyEsewaIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.VerifyEsewa(ctx, f.userID, f.courseID, f.callback("txn-1"))
	require.NoError(t, err)

	res, err := f.svc.VerifyEsewa(ctx, f.userID, f.courseID, f.callback("txn-1"))
	require.NoError(t, err)
	assert.True(t, res.AlreadyApplied)

	// The enrollment counter moved once, premium stayed set, and the
	// gateway was only consulted for the first submission.
	c, err := f.courses.GetByID(ctx, f.courseID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.EnrollmentCount)

	p, err := f.progress.Get(ctx, f.userID, f.courseID)
	require.NoError(t, err)
	assert.True(t, p.IsPremium)

	assert.Equal(t, 1, f.gateway.Calls)
	assert.Equal(t, 1, f.emails.count())
}

func TestVerifyEsewaRejectsIncompleteStatus(t *testing.T) {
	f := newPaymentFixture(t, false)
	cb := f.callback("txn-1")
	cb.Status = "PENDING"

	_, err := f.svc.VerifyEsewa(context.Background(), f.userID, f.courseID, cb)
	assert.ErrorIs(t, err, ErrPaymentIncomplete)
	assert.Zero(t, f.gateway.Calls)
}

func TestVerifyEsewaRejectsMalformedAmount(t *testing.T) {
	f := newPaymentFixture(t, false)
	cb := f.callback("txn-1")
	cb.TotalAmount = "1,500.00"

	_, err := f.svc.VerifyEsewa(context.Background(), f.userID, f.courseID, cb)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Zero(t, f.gateway.Calls)

	// No zero-amount payment row sneaks in.
	_, err = f.payments.GetByTransactionUUID(context.Background(), "txn-1")
	assert.Error(t, err)
}

func TestVerifyEsewaGatewayRejection(t *testing.T) {
	f := newPaymentFixture(t, false)
	f.gateway.OK = false
	ctx := context.Background()

	_, err := f.svc.VerifyEsewa(ctx, f.userID, f.courseID, f.callback("txn-1"))
	assert.ErrorIs(t, err, ErrVerificationFailed)

	// Nothing was recorded; the user gained nothing.
	_, err = f.payments.GetByTransactionUUID(ctx, "txn-1")
	assert.Error(t, err)
	u, err := f.users.GetByID(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, u.PremiumCourseIDs)
}

func TestVerifyEsewaUnknownUserAndCourse(t *testing.T) {
	f := newPaymentFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.VerifyEsewa(ctx, uuid.NewString(), f.courseID, f.callback("txn-1"))
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.VerifyEsewa(ctx, f.userID, uuid.NewString(), f.callback("txn-1"))
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestVerifyEsewaSignatureEnforcement(t *testing.T) {
	cb := EsewaCallback{
		TransactionUUID:  "txn-1",
		TransactionCode:  "000ABC",
		Status:           esewa.StatusComplete,
		TotalAmount:      "1500",
		ProductCode:      "EPAYTEST",
		SignedFieldNames: "total_amount,transaction_uuid,product_code",
	}

	t.Run("log-only by default", func(t *testing.T) {
		f := newPaymentFixture(t, false)
		bad := cb
		bad.Signature = "bm90LXRoZS1yZWFsLXNpZ25hdHVyZQ=="
		_, err := f.svc.VerifyEsewa(context.Background(), f.userID, f.courseID, bad)
		assert.NoError(t, err)
	})

	t.Run("rejected when enforced", func(t *testing.T) {
		f := newPaymentFixture(t, true)
		bad := cb
		bad.Signature = "bm90LXRoZS1yZWFsLXNpZ25hdHVyZQ=="
		_, err := f.svc.VerifyEsewa(context.Background(), f.userID, f.courseID, bad)
		assert.ErrorIs(t, err, ErrSignatureMismatch)
	})

	t.Run("valid signature passes enforcement", func(t *testing.T) {
		f := newPaymentFixture(t, true)
		good := cb
		good.Signature = esewa.Sign("test-esewa-secret", cb.SignedFieldNames, map[string]string{
			"total_amount":     cb.TotalAmount,
			"transaction_uuid": cb.TransactionUUID,
			"product_code":     cb.ProductCode,
		})
		_, err := f.svc.VerifyEsewa(context.Background(), f.userID, f.courseID, good)
		assert.NoError(t, err)
	})
}

func TestVerifyEsewaShedsConcurrentDuplicate(t *testing.T) {
	f := newPaymentFixture(t, false)
	ctx := context.Background()

	won, err := f.latch.Acquire(ctx, "pay:txn-1", time.Minute)
	require.NoError(t, err)
	require.True(t, won)

	_, err = f.svc.VerifyEsewa(ctx, f.userID, f.courseID, f.callback("txn-1"))
	assert.ErrorIs(t, err, ErrPaymentInFlight)
}

// failingUserRepo makes premium set-adds fail to simulate a partial outage
// between gateway confirmation and record updates.
type failingUserRepo struct {
	*memUserRepo
	failPremium bool
}

func (r *failingUserRepo) AddPremiumCourse(ctx context.Context, userID, courseID string) error {
	if r.failPremium {
		return errors.New("connection reset")
	}
	return r.memUserRepo.AddPremiumCourse(ctx, userID, courseID)
}

func TestVerifyEsewaPartialFailureEnqueuesReconcile(t *testing.T) {
	f := newPaymentFixture(t, false)
	ctx := context.Background()
	failing := &failingUserRepo{memUserRepo: f.users, failPremium: true}
	f.svc.users = failing

	_, err := f.svc.VerifyEsewa(ctx, f.userID, f.courseID, f.callback("txn-1"))
	assert.ErrorIs(t, err, ErrEnrollmentNotSynced)

	// The payment row survives in verified state and a reconcile job is queued.
	p, err := f.payments.GetByTransactionUUID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusVerified, p.Status)
	require.Equal(t, 1, f.reconcile.count())
	job := f.reconcile.Messages[0].(ReconcileJob)
	assert.Equal(t, "txn-1", job.TransactionUUID)

	// Once the outage clears, reconciliation converges the records.
	failing.failPremium = false
	require.NoError(t, f.svc.Reconcile(ctx, "txn-1"))

	p, err = f.payments.GetByTransactionUUID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusApplied, p.Status)
	u, err := f.users.GetByID(ctx, f.userID)
	require.NoError(t, err)
	assert.Contains(t, u.PremiumCourseIDs, f.courseID)
}

func TestSweepUnapplied(t *testing.T) {
	f := newPaymentFixture(t, false)
	ctx := context.Background()

	stale := time.Now().Add(-time.Hour)
	for _, txn := range []string{"txn-a", "txn-b"} {
		require.NoError(t, f.payments.Create(ctx, &entity.Payment{
			ID:              uuid.NewString(),
			UserID:          f.userID,
			CourseID:        f.courseID,
			TransactionUUID: txn,
			Status:          entity.PaymentStatusVerified,
			CreatedAt:       stale,
		}))
	}

	applied, err := f.svc.SweepUnapplied(ctx, 10*time.Minute, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	for _, txn := range []string{"txn-a", "txn-b"} {
		p, err := f.payments.GetByTransactionUUID(ctx, txn)
		require.NoError(t, err)
		assert.Equal(t, entity.PaymentStatusApplied, p.Status)
	}

	// Both payments target the same (user, course) pair, so the counter
	// still only moved once.
	c, err := f.courses.GetByID(ctx, f.courseID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.EnrollmentCount)
}

func TestVerifyEsewaLegacyCallback(t *testing.T) {
	f := newPaymentFixture(t, false)
	ctx := context.Background()

	res, err := f.svc.VerifyEsewaLegacy(ctx, f.userID, f.courseID, "1500", "ref-42")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusApplied, res.Payment.Status)
	assert.Equal(t, "ref-42", res.Payment.TransactionUUID)

	u, err := f.users.GetByID(ctx, f.userID)
	require.NoError(t, err)
	assert.Contains(t, u.PremiumCourseIDs, f.courseID)
}
