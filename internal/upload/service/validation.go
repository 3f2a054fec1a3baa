package service

import (
	"github.com/gin-gonic/gin"
	"github.com/sheetlens/sheetlens-backend/internal/auth/middleware"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/logger"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/response"
	"github.com/sheetlens/sheetlens-backend/internal/upload/biz"
)

// ValidationService exposes the AI validation HTTP handlers
type ValidationService struct {
	validationUC *biz.ValidationUseCase
	logger       *logger.Logger
}

// NewValidationService creates a validation service
func NewValidationService(validationUC *biz.ValidationUseCase, log *logger.Logger) *ValidationService {
	return &ValidationService{
		validationUC: validationUC,
		logger:       log,
	}
}

// Validate handles POST /uploads/:id/validate. The force_refresh flag, from
// either a query or form parameter, bypasses the freshness window.
func (s *ValidationService) Validate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	force := c.Query("force_refresh") == "true" || c.PostForm("force_refresh") == "true"

	out, err := s.validationUC.Validate(c.Request.Context(), userID, c.Param("id"), force)
	if err != nil {
		fail(c, s.logger, "validation failed", userID, err)
		return
	}

	response.Success(c, validationView(out.Result, out.Cached))
}

// Latest handles GET /uploads/:id/validation
func (s *ValidationService) Latest(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	result, err := s.validationUC.LatestResult(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		fail(c, s.logger, "failed to load validation result", userID, err)
		return
	}

	response.Success(c, validationView(result, true))
}

func validationView(r *biz.ValidationResult, cached bool) gin.H {
	return gin.H{
		"id":               r.ID,
		"upload_id":        r.UploadID,
		"result":           r.Outcome,
		"issue_count":      r.IssueCount,
		"model":            r.Model,
		"input_tokens":     r.InputTokens,
		"output_tokens":    r.OutputTokens,
		"response_time_ms": r.ResponseTimeMs,
		"cost":             r.Cost(),
		"cached":           cached,
		"created_at":       r.CreatedAt,
	}
}
