package repository

import (
	"context"
	"time"

	"github.com/sikshyalaya/backend/internal/domain/entity"
)

// ProgressRepository owns the (userID, courseID) progress rows. All writes are
// single-row atomic upserts; the wasInserted result makes "first enrollment"
// explicit instead of inferring it from timestamp equality.
type ProgressRepository interface {
	Get(ctx context.Context, userID, courseID string) (*entity.UserProgress, error)

	// UpsertEnrollment records an enrollment. wasInserted is true only when
	// the row did not exist before.
	UpsertEnrollment(ctx context.Context, userID, courseID string, at time.Time) (wasInserted bool, err error)

	// UpsertPremium marks the pair premium with a purchase timestamp, also
	// setting the enrollment timestamp when the row is first created.
	UpsertPremium(ctx context.Context, userID, courseID string, at time.Time) (wasInserted bool, err error)

	// SetLessonState set-adds (completed) or set-removes the lesson id and
	// always records it as the last accessed lesson, creating the row if
	// needed.
	SetLessonState(ctx context.Context, userID, courseID, lessonID string, completed bool, at time.Time) (*entity.UserProgress, error)
}
