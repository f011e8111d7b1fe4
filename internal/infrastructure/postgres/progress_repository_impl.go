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

// ProgressRepository relies on single-document upsert atomicity: every write
// is one INSERT..ON CONFLICT statement, and (xmax = 0) in RETURNING exposes
// whether the statement inserted or updated.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

const progressColumns = `user_id, course_id, completed_lessons, last_accessed_lesson,
	enrolled_at, is_premium, purchased_at, created_at, updated_at`

func scanProgress(row pgx.Row) (*entity.UserProgress, error) {
	p := &entity.UserProgress{}
	err := row.Scan(&p.UserID, &p.CourseID, &p.CompletedLessons, &p.LastAccessedLesson,
		&p.EnrolledAt, &p.IsPremium, &p.PurchasedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *ProgressRepository) Get(ctx context.Context, userID, courseID string) (*entity.UserProgress, error) {
	return scanProgress(r.pool.QueryRow(ctx, `
		SELECT `+progressColumns+`
		FROM user_progress
		WHERE user_id = $1 AND course_id = $2
	`, userID, courseID))
}

func (r *ProgressRepository) UpsertEnrollment(ctx context.Context, userID, courseID string, at time.Time) (bool, error) {
	var inserted bool
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_progress (user_id, course_id, enrolled_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, course_id) DO UPDATE SET updated_at = now()
		RETURNING (xmax = 0)
	`, userID, courseID, at).Scan(&inserted)
	return inserted, err
}

func (r *ProgressRepository) UpsertPremium(ctx context.Context, userID, courseID string, at time.Time) (bool, error) {
	var inserted bool
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_progress (user_id, course_id, enrolled_at, is_premium, purchased_at)
		VALUES ($1, $2, $3, true, $3)
		ON CONFLICT (user_id, course_id) DO UPDATE
		SET is_premium = true, purchased_at = EXCLUDED.purchased_at, updated_at = now()
		RETURNING (xmax = 0)
	`, userID, courseID, at).Scan(&inserted)
	return inserted, err
}

func (r *ProgressRepository) SetLessonState(ctx context.Context, userID, courseID, lessonID string, completed bool, at time.Time) (*entity.UserProgress, error) {
	if completed {
		return scanProgress(r.pool.QueryRow(ctx, `
			INSERT INTO user_progress (user_id, course_id, completed_lessons, last_accessed_lesson, enrolled_at)
			VALUES ($1, $2, ARRAY[$3]::text[], $3, $4)
			ON CONFLICT (user_id, course_id) DO UPDATE SET
				completed_lessons = CASE
					WHEN $3 = ANY(user_progress.completed_lessons) THEN user_progress.completed_lessons
					ELSE array_append(user_progress.completed_lessons, $3)
				END,
				last_accessed_lesson = $3,
				updated_at = now()
			RETURNING `+progressColumns+`
		`, userID, courseID, lessonID, at))
	}
	return scanProgress(r.pool.QueryRow(ctx, `
		INSERT INTO user_progress (user_id, course_id, last_accessed_lesson, enrolled_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, course_id) DO UPDATE SET
			completed_lessons = array_remove(user_progress.completed_lessons, $3),
			last_accessed_lesson = $3,
			updated_at = now()
		RETURNING `+progressColumns+`
	`, userID, courseID, lessonID, at))
}

var _ repository.ProgressRepository = (*ProgressRepository)(nil)
