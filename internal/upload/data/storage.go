package data

import (
	"bytes"
	"context"

	"github.com/sheetlens/sheetlens-backend/internal/pkg/minio"
	"github.com/sheetlens/sheetlens-backend/internal/upload/biz"
)

// BlobStore keeps uploaded workbooks in object storage
type BlobStore struct {
	client *minio.Client
}

// NewBlobStore creates an object-storage blob store
func NewBlobStore(client *minio.Client) biz.BlobStore {
	return &BlobStore{client: client}
}

// Put stores a workbook blob
func (s *BlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return s.client.PutObject(ctx, s.client.Bucket(), key, bytes.NewReader(data), int64(len(data)), contentType)
}

// Get fetches a workbook blob
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.client.GetObject(ctx, s.client.Bucket(), key)
}

// Delete removes a workbook blob
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.client.Bucket(), key)
}
