package gcs

import (
	"context"
	"io"

	"cloud.google.com/go/storage"

	"github.com/sikshyalaya/backend/pkg/helpers"
)

// Store uploads objects into a fixed bucket and hands back public URLs.
type Store struct {
	client *storage.Client
	bucket string
}

func NewStore(client *storage.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

func (s *Store) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	return helpers.UploadObject(ctx, s.client, s.bucket, objectPath, contentType, r)
}
