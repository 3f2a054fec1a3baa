package minio

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// EnsureBucket creates the bucket if it does not exist
func (c *Client) EnsureBucket(ctx context.Context, bucketName string) error {
	exists, err := c.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket %q: %w", bucketName, err)
	}
	if exists {
		return nil
	}

	opts := minio.MakeBucketOptions{Region: c.config.Region}
	if err := c.client.MakeBucket(ctx, bucketName, opts); err != nil {
		return fmt.Errorf("failed to create bucket %q: %w", bucketName, err)
	}

	c.logger.Info("bucket created", zap.String("bucket", bucketName))
	return nil
}
