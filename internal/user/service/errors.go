package service

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/sheetlens/sheetlens-backend/internal/pkg/errors"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/logger"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/response"
	"github.com/sheetlens/sheetlens-backend/internal/user/biz"
)

// fail logs server-side failures and writes the mapped error envelope
func fail(c *gin.Context, log *logger.Logger, msg, userID string, err error) {
	appErr := appError(err)
	if apperrors.IsServerError(appErr.Code) {
		log.Error(msg, zap.Error(err), zap.String("user_id", userID))
	}
	response.HandleError(c, appErr)
}

// appError maps profile domain errors onto the business error-code table.
// Unrecognized errors collapse to an internal error with no detail text so
// nothing from the storage layer leaks into responses.
func appError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, biz.ErrProfileNotFound):
		return apperrors.New(apperrors.ErrUserNotFound)
	case errors.Is(err, biz.ErrAvatarTooLarge):
		return apperrors.New(apperrors.ErrAvatarTooLarge)
	case errors.Is(err, biz.ErrAvatarInvalidType):
		return apperrors.New(apperrors.ErrAvatarInvalidType)
	default:
		return apperrors.New(apperrors.ErrInternalServer)
	}
}
