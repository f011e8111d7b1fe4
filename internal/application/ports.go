package application

import (
	"context"
	"io"
	"time"

	"github.com/sikshyalaya/backend/internal/domain/entity"
)

// Publisher is the slice of helpers.RabbitPublisher the services need.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// GatewayVerifier is the server-to-server payment status check.
// *esewa.Client implements it.
type GatewayVerifier interface {
	VerifyTransaction(ctx context.Context, txnUUID, txnCode, totalAmount string) (bool, error)
}

// Latch sheds concurrent duplicate submissions of the same transaction before
// they reach Postgres. Backed by Redis SETNX in production.
type Latch interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// CourseIndex mirrors the catalog into the search backend.
type CourseIndex interface {
	Index(ctx context.Context, c *entity.Course) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// ObjectStore uploads binary assets (course thumbnails) and returns a public URL.
type ObjectStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}
