package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sheetlens/sheetlens-backend/internal/auth/middleware"
	authservice "github.com/sheetlens/sheetlens-backend/internal/auth/service"
	"github.com/sheetlens/sheetlens-backend/internal/conf"
	"github.com/sheetlens/sheetlens-backend/internal/data"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/logger"
	uploadservice "github.com/sheetlens/sheetlens-backend/internal/upload/service"
	userservice "github.com/sheetlens/sheetlens-backend/internal/user/service"
	"go.uber.org/zap"
)

// Services groups the HTTP handler sets mounted on the router. Validation
// is optional; it is nil when no AI provider is configured.
type Services struct {
	Auth       *authservice.AuthService
	Profile    *userservice.ProfileService
	Upload     *uploadservice.UploadService
	Validation *uploadservice.ValidationService
}

type HTTPServer struct {
	server *http.Server
	logger *logger.Logger
}

func NewHTTPServer(
	config *conf.Config,
	log *logger.Logger,
	d *data.Data,
	services *Services,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		checks := gin.H{
			"database": "ok",
			"redis":    "ok",
			"storage":  "ok",
		}
		status := http.StatusOK

		if err := d.DB.HealthCheck(ctx); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := d.RedisClient.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := d.MinIOClient.HealthCheck(ctx); err != nil {
			checks["storage"] = err.Error()
			status = http.StatusServiceUnavailable
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		c.JSON(status, gin.H{
			"status": overall,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")

	jwtAuth := middleware.JWTAuth(config.Auth.JWTSecret, log)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register",
			middleware.RegisterRateLimiter(d.RedisClient, log),
			services.Auth.Register)
		authGroup.POST("/login",
			middleware.LoginRateLimiter(d.RedisClient, log),
			services.Auth.Login)
		authGroup.POST("/refresh", services.Auth.Refresh)
		authGroup.POST("/logout", jwtAuth, services.Auth.Logout)
		authGroup.GET("/me", jwtAuth, services.Auth.Me)
	}

	protected := api.Group("")
	protected.Use(jwtAuth)
	protected.Use(middleware.APIRateLimiter(d.RedisClient, log))
	{
		protected.GET("/users/me", services.Auth.Me)
		protected.GET("/profile", services.Profile.GetProfile)
		protected.PUT("/profile", services.Profile.UpdateProfile)
		protected.POST("/profile/avatar", services.Profile.UploadAvatar)

		protected.POST("/uploads", services.Upload.Create)
		protected.GET("/uploads", services.Upload.List)
		protected.GET("/uploads/:id", services.Upload.Get)
		protected.DELETE("/uploads/:id", services.Upload.Delete)
		protected.GET("/uploads/:id/sheets", services.Upload.ListSheets)
		protected.GET("/uploads/:id/sheets/:index", services.Upload.GetSheet)

		if services.Validation != nil {
			protected.POST("/uploads/:id/validate", services.Validation.Validate)
			protected.GET("/uploads/:id/validation", services.Validation.Latest)
		}
	}

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	return &HTTPServer{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		logger: log,
	}
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		log.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
