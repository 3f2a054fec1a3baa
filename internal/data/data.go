// Package data wires the shared infrastructure clients.
package data

import (
	"context"
	"fmt"

	authdata "github.com/sheetlens/sheetlens-backend/internal/auth/data"
	"github.com/sheetlens/sheetlens-backend/internal/conf"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/database"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/logger"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/minio"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/redis"
	uploaddata "github.com/sheetlens/sheetlens-backend/internal/upload/data"
	userdata "github.com/sheetlens/sheetlens-backend/internal/user/data"
	"go.uber.org/zap"
)

// Data bundles the infrastructure clients the verticals share
type Data struct {
	DB          *database.DB
	RedisClient *redis.Client
	MinIOClient *minio.Client
}

// NewData connects to PostgreSQL, Redis, and MinIO, migrates the schema,
// and ensures the storage bucket exists. The returned cleanup closes every
// client.
func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	dbCfg := database.DefaultConfig()
	dbCfg.Host = config.Database.Host
	dbCfg.Port = config.Database.Port
	dbCfg.User = config.Database.User
	dbCfg.Password = config.Database.Password
	dbCfg.DBName = config.Database.DBName
	dbCfg.SSLMode = config.Database.SSLMode

	db, err := database.New(dbCfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := autoMigrate(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	redisCfg := redis.DefaultConfig()
	redisCfg.Host = config.Redis.Host
	redisCfg.Port = config.Redis.Port
	redisCfg.Password = config.Redis.Password
	redisCfg.DB = config.Redis.DB

	redisClient, err := redis.New(redisCfg, log)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to init redis: %w", err)
	}

	minioCfg := &minio.Config{
		Endpoint:  config.MinIO.Endpoint,
		AccessKey: config.MinIO.AccessKey,
		SecretKey: config.MinIO.SecretKey,
		UseSSL:    config.MinIO.UseSSL,
		Bucket:    config.MinIO.Bucket,
	}

	minioClient, err := minio.NewClient(minioCfg, log)
	if err != nil {
		redisClient.Close()
		db.Close()
		return nil, nil, fmt.Errorf("failed to init minio: %w", err)
	}

	if err := minioClient.EnsureBucket(context.Background(), config.MinIO.Bucket); err != nil {
		redisClient.Close()
		db.Close()
		return nil, nil, fmt.Errorf("failed to ensure bucket: %w", err)
	}

	d := &Data{
		DB:          db,
		RedisClient: redisClient,
		MinIOClient: minioClient,
	}

	cleanup := func() {
		log.Info("cleaning up data resources")

		if err := redisClient.Close(); err != nil {
			log.Warn("failed to close redis client", zap.Error(err))
		}
		if err := db.Close(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}

	return d, cleanup, nil
}

func autoMigrate(db *database.DB) error {
	return db.GetDB().AutoMigrate(
		&authdata.UserPO{},
		&userdata.ProfilePO{},
		&uploaddata.UploadPO{},
		&uploaddata.SheetPreviewPO{},
		&uploaddata.ValidationResultPO{},
	)
}
