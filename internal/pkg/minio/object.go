package minio

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

// PutObject uploads an object from a reader
func (c *Client) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	_, err := c.client.PutObject(ctx, bucketName, objectName, reader, objectSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %q: %w", objectName, err)
	}
	return nil
}

// GetObject downloads an object's full content
func (c *Client) GetObject(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	obj, err := c.client.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %q: %w", objectName, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %q: %w", objectName, err)
	}
	return data, nil
}

// RemoveObject deletes an object
func (c *Client) RemoveObject(ctx context.Context, bucketName, objectName string) error {
	if err := c.client.RemoveObject(ctx, bucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %q: %w", objectName, err)
	}
	return nil
}
