package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sikshyalaya/backend/internal/domain/entity"
)

func newProgressFixture(t *testing.T) (*ProgressService, *memUserRepo, *memCourseRepo, string, string) {
	t.Helper()
	users := newMemUserRepo()
	courses := newMemCourseRepo()
	progress := newMemProgressRepo()
	svc := NewProgressService(users, courses, progress, testLogger())

	userID := uuid.NewString()
	courseID := uuid.NewString()
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &entity.User{ID: userID, Email: "asha@example.com", IsVerified: true}))
	require.NoError(t, courses.Create(ctx, &entity.Course{
		ID:    courseID,
		Title: "Go from Scratch",
		Tier:  entity.TierFree,
		Topics: []entity.Topic{
			{ID: "t1", Title: "Basics", SubTopics: []entity.SubTopic{
				{ID: "l1", Title: "Hello World"},
				{ID: "l2", Title: "Variables"},
			}},
			{ID: "t2", Title: "Concurrency", SubTopics: []entity.SubTopic{
				{ID: "l3", Title: "Goroutines"},
				{ID: "l4", Title: "Channels"},
			}},
		},
	}))
	return svc, users, courses, userID, courseID
}

func TestGetProgressReturnsZeroShape(t *testing.T) {
	svc, _, _, userID, courseID := newProgressFixture(t)

	view, err := svc.Get(context.Background(), userID, courseID)
	require.NoError(t, err)
	assert.Equal(t, userID, view.Progress.UserID)
	assert.Equal(t, courseID, view.Progress.CourseID)
	assert.NotNil(t, view.Progress.CompletedLessons)
	assert.Empty(t, view.Progress.CompletedLessons)
	assert.False(t, view.Progress.IsPremium)
	assert.Equal(t, 4, view.TotalLessons)
	assert.Zero(t, view.Percentage)
}

func TestGetProgressUnknownCourse(t *testing.T) {
	svc, _, _, userID, _ := newProgressFixture(t)
	_, err := svc.Get(context.Background(), userID, uuid.NewString())
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestSetLessonStateRoundTrip(t *testing.T) {
	svc, _, _, userID, courseID := newProgressFixture(t)
	ctx := context.Background()

	view, err := svc.SetLessonState(ctx, userID, courseID, "l1", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"l1"}, view.Progress.CompletedLessons)
	assert.Equal(t, "l1", view.Progress.LastAccessedLesson)
	assert.InDelta(t, 25.0, view.Percentage, 0.001)

	// Completing the same lesson again does not double-count.
	view, err = svc.SetLessonState(ctx, userID, courseID, "l1", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"l1"}, view.Progress.CompletedLessons)

	view, err = svc.SetLessonState(ctx, userID, courseID, "l2", true)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, view.Percentage, 0.001)

	// Un-completing removes the lesson but keeps it as last accessed.
	view, err = svc.SetLessonState(ctx, userID, courseID, "l1", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"l2"}, view.Progress.CompletedLessons)
	assert.Equal(t, "l1", view.Progress.LastAccessedLesson)
	assert.InDelta(t, 25.0, view.Percentage, 0.001)
}

func TestSetLessonStateRejectsUnknownLesson(t *testing.T) {
	svc, _, _, userID, courseID := newProgressFixture(t)
	_, err := svc.SetLessonState(context.Background(), userID, courseID, "no-such-lesson", true)
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestEnrollIsIdempotent(t *testing.T) {
	svc, users, courses, userID, courseID := newProgressFixture(t)
	ctx := context.Background()

	view, already, err := svc.Enroll(ctx, userID, courseID)
	require.NoError(t, err)
	assert.False(t, already)
	assert.False(t, view.Progress.EnrolledAt.IsZero())

	_, already, err = svc.Enroll(ctx, userID, courseID)
	require.NoError(t, err)
	assert.True(t, already)

	c, err := courses.GetByID(ctx, courseID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.EnrollmentCount, "counter counts distinct enrollees")

	u, err := users.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{courseID}, u.EnrolledCourseIDs)
}

func TestEnrollUnknownCourse(t *testing.T) {
	svc, _, _, userID, _ := newProgressFixture(t)
	_, _, err := svc.Enroll(context.Background(), userID, uuid.NewString())
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestEnrollDoesNotResetLessonProgress(t *testing.T) {
	svc, _, _, userID, courseID := newProgressFixture(t)
	ctx := context.Background()

	_, _, err := svc.Enroll(ctx, userID, courseID)
	require.NoError(t, err)
	_, err = svc.SetLessonState(ctx, userID, courseID, "l1", true)
	require.NoError(t, err)

	view, already, err := svc.Enroll(ctx, userID, courseID)
	require.NoError(t, err)
	assert.True(t, already)
	assert.Equal(t, []string{"l1"}, view.Progress.CompletedLessons)
}
