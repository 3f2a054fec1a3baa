package minio

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// Client wraps the MinIO client with additional functionality
type Client struct {
	client *minio.Client
	config *Config
	logger *logger.Logger
}

// NewClient creates a new MinIO client
func NewClient(cfg *Config, log *logger.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("minio config is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid minio configuration: %w", err)
	}

	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	}
	if cfg.Region != "" {
		opts.Region = cfg.Region
	}

	client, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	log.Info("minio client created",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.Bucket),
	)

	return &Client{
		client: client,
		config: cfg,
		logger: log,
	}, nil
}

// Bucket returns the configured default bucket name
func (c *Client) Bucket() string {
	return c.config.Bucket
}

// ObjectURL builds the public URL of an object in the default bucket
func (c *Client) ObjectURL(objectName string) string {
	scheme := "http"
	if c.config.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, c.config.Endpoint, c.config.Bucket, objectName)
}

// HealthCheck verifies the default bucket is reachable
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.client.BucketExists(ctx, c.config.Bucket)
	return err
}
