package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sikshyalaya/backend/internal/domain/entity"
	"github.com/sikshyalaya/backend/internal/domain/repository"
)

// ProgressView is the read model handlers serialize: raw progress plus the
// completion stats computed against the current course outline.
type ProgressView struct {
	Progress     *entity.UserProgress
	TotalLessons int
	Percentage   float64
}

// ProgressService owns enrollment and lesson completion state.
type ProgressService struct {
	users    repository.UserRepository
	courses  repository.CourseRepository
	progress repository.ProgressRepository
	logger   *logrus.Logger

	now func() time.Time
}

func NewProgressService(
	users repository.UserRepository,
	courses repository.CourseRepository,
	progress repository.ProgressRepository,
	logger *logrus.Logger,
) *ProgressService {
	return &ProgressService{
		users:    users,
		courses:  courses,
		progress: progress,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns the user's progress for a course. When no record exists yet it
// returns the zero-value shape instead of an error, so the frontend never has
// to special-case first reads.
func (s *ProgressService) Get(ctx context.Context, userID, courseID string) (*ProgressView, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	p, err := s.progress.Get(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			p = entity.ZeroProgress(userID, courseID)
		} else {
			return nil, err
		}
	}
	return s.view(p, course), nil
}

// SetLessonState marks a lesson completed or not. The lesson must exist in
// the course outline; the write creates the progress row when needed.
func (s *ProgressService) SetLessonState(ctx context.Context, userID, courseID, lessonID string, completed bool) (*ProgressView, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if !lessonInCourse(course, lessonID) {
		return nil, ErrLessonNotFound
	}

	p, err := s.progress.SetLessonState(ctx, userID, courseID, lessonID, completed, s.now())
	if err != nil {
		return nil, err
	}
	return s.view(p, course), nil
}

// Enroll records a free-tier enrollment. Re-enrolling is a no-op: the
// enrollment counter moves only when the progress row is first created, so it
// counts distinct enrollees.
func (s *ProgressService) Enroll(ctx context.Context, userID, courseID string) (*ProgressView, bool, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, ErrCourseNotFound
		}
		return nil, false, err
	}

	wasInserted, err := s.progress.UpsertEnrollment(ctx, userID, courseID, s.now())
	if err != nil {
		return nil, false, err
	}
	if err := s.users.AddEnrolledCourse(ctx, userID, courseID); err != nil {
		return nil, false, err
	}
	if wasInserted {
		if err := s.courses.IncrementEnrollment(ctx, courseID); err != nil {
			s.logger.WithError(err).WithField("course_id", courseID).Error("enrollment counter increment failed")
		}
	}

	p, err := s.progress.Get(ctx, userID, courseID)
	if err != nil {
		return nil, false, err
	}
	return s.view(p, course), !wasInserted, nil
}

func (s *ProgressService) view(p *entity.UserProgress, course *entity.Course) *ProgressView {
	total := course.SubTopicCount()
	return &ProgressView{
		Progress:     p,
		TotalLessons: total,
		Percentage:   p.Percentage(total),
	}
}

func lessonInCourse(c *entity.Course, lessonID string) bool {
	for _, t := range c.Topics {
		for _, st := range t.SubTopics {
			if st.ID == lessonID {
				return true
			}
		}
	}
	return false
}
