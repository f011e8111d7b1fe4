package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sikshyalaya/backend/internal/domain/entity"
	"github.com/sikshyalaya/backend/internal/domain/repository"
)

// CourseService is the catalog surface: admin CRUD, full-text search through
// the index mirror, and thumbnail uploads to object storage. Postgres stays
// the source of truth; index failures are logged and never fail the write.
type CourseService struct {
	courses repository.CourseRepository
	index   CourseIndex
	store   ObjectStore
	logger  *logrus.Logger

	now func() time.Time
}

func NewCourseService(courses repository.CourseRepository, index CourseIndex, store ObjectStore, logger *logrus.Logger) *CourseService {
	return &CourseService{
		courses: courses,
		index:   index,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *CourseService) Create(ctx context.Context, c *entity.Course) (*entity.Course, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Tier == "" {
		c.Tier = entity.TierFree
	}
	now := s.now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.courses.Create(ctx, c); err != nil {
		return nil, err
	}
	s.reindex(ctx, c)
	return c, nil
}

func (s *CourseService) Get(ctx context.Context, id string) (*entity.Course, error) {
	c, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *CourseService) List(ctx context.Context, limit, offset int) ([]*entity.Course, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.courses.List(ctx, limit, offset)
}

func (s *CourseService) Update(ctx context.Context, c *entity.Course) (*entity.Course, error) {
	existing, err := s.courses.GetByID(ctx, c.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	// Server-owned fields are never overwritten from the request body.
	c.EnrollmentCount = existing.EnrollmentCount
	c.ThumbnailURL = existing.ThumbnailURL
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now()
	if err := s.courses.Update(ctx, c); err != nil {
		return nil, err
	}
	s.reindex(ctx, c)
	return c, nil
}

func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCourseNotFound
		}
		return err
	}
	if err := s.index.Remove(ctx, id); err != nil {
		s.logger.WithError(err).WithField("course_id", id).Warn("course index removal failed")
	}
	return nil
}

// Search resolves matching ids from the index, then loads the rows from
// Postgres so results always reflect the source of truth.
func (s *CourseService) Search(ctx context.Context, query string, limit int) ([]*entity.Course, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	ids, err := s.index.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Course, 0, len(ids))
	for _, id := range ids {
		c, err := s.courses.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue // stale index entry
			}
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// UploadThumbnail stores the image and records its public URL on the course.
func (s *CourseService) UploadThumbnail(ctx context.Context, courseID, filename, contentType string, r io.Reader) (string, error) {
	if _, err := s.Get(ctx, courseID); err != nil {
		return "", err
	}
	object := fmt.Sprintf("courses/%s/thumbnail%s", courseID, path.Ext(filename))
	url, err := s.store.Upload(ctx, object, contentType, r)
	if err != nil {
		return "", err
	}
	if err := s.courses.SetThumbnail(ctx, courseID, url); err != nil {
		return "", err
	}
	return url, nil
}

func (s *CourseService) reindex(ctx context.Context, c *entity.Course) {
	if err := s.index.Index(ctx, c); err != nil {
		s.logger.WithError(err).WithField("course_id", c.ID).Warn("course indexing failed")
	}
}
