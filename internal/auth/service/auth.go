package service

import (
	"github.com/gin-gonic/gin"
	"github.com/sheetlens/sheetlens-backend/internal/auth/biz"
	"github.com/sheetlens/sheetlens-backend/internal/auth/middleware"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/logger"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// AuthService exposes the authentication HTTP handlers
type AuthService struct {
	authUC *biz.AuthUseCase
	logger *logger.Logger
}

// NewAuthService creates an authentication service
func NewAuthService(authUC *biz.AuthUseCase, log *logger.Logger) *AuthService {
	return &AuthService{
		authUC: authUC,
		logger: log,
	}
}

// RegisterRequest is the signup payload
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// Register handles POST /auth/register
func (s *AuthService) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := s.authUC.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		fail(c, s.logger, "failed to register user", err, zap.String("email", req.Email))
		return
	}

	response.Created(c, gin.H{
		"user_id": user.ID,
		"email":   user.Email,
	})
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"` // extends the refresh token to 90 days
}

// Login handles POST /auth/login
func (s *AuthService) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ip := c.ClientIP()

	result, err := s.authUC.Login(c.Request.Context(), req.Email, req.Password, ip, req.RememberMe)
	if err != nil {
		// Rejected logins are worth a trace even when the caller is at fault
		s.logger.Warn("login failed",
			zap.Error(err),
			zap.String("email", req.Email),
			zap.String("ip", ip))
		response.HandleError(c, appError(err))
		return
	}

	response.Success(c, gin.H{
		"user_id": result.UserID,
		"tokens":  result.Tokens,
	})
}

// RefreshRequest carries the refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh handles POST /auth/refresh
func (s *AuthService) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	tokens, err := s.authUC.RefreshAccessToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, s.logger, "token refresh failed", err)
		return
	}

	response.Success(c, gin.H{"tokens": tokens})
}

// Logout handles POST /auth/logout
func (s *AuthService) Logout(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	if err := s.authUC.Logout(c.Request.Context(), userID); err != nil {
		fail(c, s.logger, "logout failed", err, zap.String("user_id", userID))
		return
	}

	response.SuccessWithMessage(c, "logged out", struct{}{})
}

// Me handles GET /auth/me
func (s *AuthService) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	user, err := s.authUC.GetUser(c.Request.Context(), userID)
	if err != nil {
		fail(c, s.logger, "failed to load account", err, zap.String("user_id", userID))
		return
	}

	response.Success(c, gin.H{
		"user_id":       user.ID,
		"name":          user.Name,
		"email":         user.Email,
		"last_login_at": user.LastLoginAt,
		"created_at":    user.CreatedAt,
	})
}
