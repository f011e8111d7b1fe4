package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sikshyalaya/backend/internal/domain/entity"
	"github.com/sikshyalaya/backend/internal/domain/repository"
)

type CourseRepository struct {
	pool *pgxpool.Pool
}

func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

const courseColumns = `id, title, description, topics, price, premium_price,
	tier, enrollment_count, thumbnail_url, created_at, updated_at`

func scanCourse(row pgx.Row) (*entity.Course, error) {
	c := &entity.Course{}
	var topics []byte
	err := row.Scan(&c.ID, &c.Title, &c.Description, &topics, &c.Price, &c.PremiumPrice,
		&c.Tier, &c.EnrollmentCount, &c.ThumbnailURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(topics, &c.Topics); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CourseRepository) Create(ctx context.Context, c *entity.Course) error {
	topics, err := json.Marshal(c.Topics)
	if err != nil {
		return err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO courses (title, description, topics, price, premium_price, tier)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, enrollment_count, created_at, updated_at
	`, c.Title, c.Description, topics, c.Price, c.PremiumPrice, c.Tier)
	return row.Scan(&c.ID, &c.EnrollmentCount, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CourseRepository) GetByID(ctx context.Context, id string) (*entity.Course, error) {
	return scanCourse(r.pool.QueryRow(ctx, `
		SELECT `+courseColumns+`
		FROM courses
		WHERE id = $1
	`, id))
}

func (r *CourseRepository) List(ctx context.Context, limit, offset int) ([]*entity.Course, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+courseColumns+`
		FROM courses
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*entity.Course, 0, limit)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CourseRepository) Update(ctx context.Context, c *entity.Course) error {
	topics, err := json.Marshal(c.Topics)
	if err != nil {
		return err
	}
	res, err := r.pool.Exec(ctx, `
		UPDATE courses
		SET title = $1, description = $2, topics = $3, price = $4,
		    premium_price = $5, tier = $6, updated_at = now()
		WHERE id = $7
	`, c.Title, c.Description, topics, c.Price, c.PremiumPrice, c.Tier, c.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CourseRepository) SetThumbnail(ctx context.Context, id, url string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE courses SET thumbnail_url = $1, updated_at = now() WHERE id = $2
	`, url, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CourseRepository) IncrementEnrollment(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE courses SET enrollment_count = enrollment_count + 1, updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.CourseRepository = (*CourseRepository)(nil)
