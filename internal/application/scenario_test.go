package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sikshyalaya/backend/internal/domain/entity"
	"github.com/sikshyalaya/backend/pkg/helpers"
)

// Walks the whole learner lifecycle across services sharing one set of
// repositories: register, verify, login, enroll free, buy premium, complete
// lessons, read progress back.
func TestLearnerLifecycle(t *testing.T) {
	ctx := context.Background()

	users := newMemUserRepo()
	tokens := newMemTokenRepo()
	courses := newMemCourseRepo()
	progress := newMemProgressRepo()
	payments := newMemPaymentRepo()
	emails := &fakePublisher{}
	reconcile := &fakePublisher{}

	jwt := helpers.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	authSvc := NewAuthService(users, tokens, jwt, emails, testLogger(), "Sikshyalaya", 15*time.Minute, 5, 30*time.Minute)
	paySvc := NewPaymentService(users, courses, progress, payments, &fakeGateway{OK: true}, newFakeLatch(), emails, reconcile, testLogger(), "Sikshyalaya", "secret", false)
	progSvc := NewProgressService(users, courses, progress, testLogger())

	course := &entity.Course{
		ID:           "11111111-1111-1111-1111-111111111111",
		Title:        "Advanced PostgreSQL",
		Tier:         entity.TierPremium,
		PremiumPrice: 1500,
		Topics: []entity.Topic{
			{ID: "t1", Title: "Indexing", SubTopics: []entity.SubTopic{
				{ID: "l1", Title: "B-tree Internals"},
				{ID: "l2", Title: "GIN and GiST"},
			}},
		},
	}
	require.NoError(t, courses.Create(ctx, course))

	// Register and verify.
	registered, err := authSvc.Register(ctx, "Asha Thapa", "asha@example.com", "user", "s3cretpass")
	require.NoError(t, err)
	_, _, _, err = authSvc.VerifyEmail(ctx, "asha@example.com", storedCode(t, users, "asha@example.com"))
	require.NoError(t, err)

	// Login.
	u, pair, err := authSvc.Login(ctx, "asha@example.com", "s3cretpass")
	require.NoError(t, err)
	require.Equal(t, registered.ID, u.ID)
	require.NotEmpty(t, pair.Access)

	// Free enrollment.
	_, already, err := progSvc.Enroll(ctx, u.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, already)

	// Premium purchase; enrollment already existed, so the counter stays at 1.
	res, err := paySvc.VerifyEsewa(ctx, u.ID, course.ID, EsewaCallback{
		TransactionUUID: "txn-lifecycle",
		TransactionCode: "000ABC",
		Status:          "COMPLETE",
		TotalAmount:     "1500",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusApplied, res.Payment.Status)

	c, err := courses.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.EnrollmentCount)

	// Complete both lessons.
	_, err = progSvc.SetLessonState(ctx, u.ID, course.ID, "l1", true)
	require.NoError(t, err)
	view, err := progSvc.SetLessonState(ctx, u.ID, course.ID, "l2", true)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, view.Percentage, 0.001)

	// Final read-back.
	view, err = progSvc.Get(ctx, u.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, view.Progress.IsPremium)
	assert.ElementsMatch(t, []string{"l1", "l2"}, view.Progress.CompletedLessons)

	final, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Contains(t, final.EnrolledCourseIDs, course.ID)
	assert.Contains(t, final.PremiumCourseIDs, course.ID)

	// One verification email plus one payment receipt.
	assert.Equal(t, 2, emails.count())
	assert.Zero(t, reconcile.count())
}
