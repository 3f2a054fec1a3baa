package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sheetlens/sheetlens-backend/internal/ai/provider/factory"
	"github.com/sheetlens/sheetlens-backend/internal/ai/provider/types"
	authbiz "github.com/sheetlens/sheetlens-backend/internal/auth/biz"
	authdata "github.com/sheetlens/sheetlens-backend/internal/auth/data"
	authservice "github.com/sheetlens/sheetlens-backend/internal/auth/service"
	"github.com/sheetlens/sheetlens-backend/internal/conf"
	"github.com/sheetlens/sheetlens-backend/internal/data"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/logger"
	"github.com/sheetlens/sheetlens-backend/internal/server"
	uploadbiz "github.com/sheetlens/sheetlens-backend/internal/upload/biz"
	uploaddata "github.com/sheetlens/sheetlens-backend/internal/upload/data"
	uploadservice "github.com/sheetlens/sheetlens-backend/internal/upload/service"
	userbiz "github.com/sheetlens/sheetlens-backend/internal/user/biz"
	userdata "github.com/sheetlens/sheetlens-backend/internal/user/data"
	userservice "github.com/sheetlens/sheetlens-backend/internal/user/service"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logConfig := &logger.Config{
		Level:            config.Log.Level,
		Format:           config.Log.Format,
		Output:           config.Log.Output,
		EnableCaller:     config.Log.EnableCaller,
		EnableStacktrace: config.Log.EnableStacktrace,
		File: logger.FileConfig{
			Filename:   config.Log.File.Filename,
			MaxSize:    config.Log.File.MaxSize,
			MaxAge:     config.Log.File.MaxAge,
			MaxBackups: config.Log.File.MaxBackups,
			Compress:   config.Log.File.Compress,
		},
	}

	log, err := logger.New(logConfig)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("config loaded successfully")

	d, cleanup, err := data.NewData(config, log)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	// Repositories
	authUserRepo := authdata.NewAuthUserRepo(d.DB)
	profileRepo := userdata.NewProfileRepo(d.DB)
	avatarStore := userdata.NewAvatarStore(d.MinIOClient)
	uploadRepo := uploaddata.NewUploadRepo(d.DB)
	validationRepo := uploaddata.NewValidationRepo(d.DB)
	blobStore := uploaddata.NewBlobStore(d.MinIOClient)

	// Use cases
	authUseCase := authbiz.NewAuthUseCase(authUserRepo, config.Auth.JWTSecret, config.Auth.JWTIssuer)
	profileUseCase := userbiz.NewProfileUseCase(profileRepo, avatarStore, config.Upload.MaxAvatarSize, log)
	uploadUseCase := uploadbiz.NewUploadUseCase(uploadRepo, blobStore, config.Upload.MaxFileSize, log)

	services := &server.Services{
		Auth:    authservice.NewAuthService(authUseCase, log),
		Profile: userservice.NewProfileService(profileUseCase, log),
		Upload:  uploadservice.NewUploadService(uploadUseCase, log),
	}

	// Validation routes mount only when an AI provider is configured
	if config.AI.Enabled {
		provider, err := factory.NewProvider(&types.Config{
			Enabled:   config.AI.Enabled,
			Provider:  config.AI.Provider,
			APIKey:    config.AI.APIKey,
			BaseURL:   config.AI.BaseURL,
			Model:     config.AI.Model,
			MaxTokens: config.AI.MaxTokens,
			Timeout:   config.AI.Timeout,
		})
		if err != nil {
			log.Fatal("failed to initialize ai provider", zap.Error(err))
		}

		validationUseCase := uploadbiz.NewValidationUseCase(
			uploadRepo,
			validationRepo,
			factory.NewClient(provider),
			config.Upload.CacheFreshness,
			log,
		)
		services.Validation = uploadservice.NewValidationService(validationUseCase, log)

		log.Info("ai validation enabled", zap.String("provider", config.AI.Provider))
	} else {
		log.Warn("ai validation disabled, validation routes will not be mounted")
	}

	httpServer := server.NewHTTPServer(config, log, d, services)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
