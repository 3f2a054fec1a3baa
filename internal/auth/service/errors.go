package service

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sheetlens/sheetlens-backend/internal/auth/biz"
	apperrors "github.com/sheetlens/sheetlens-backend/internal/pkg/errors"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/logger"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/response"
)

// fail logs server-side failures and writes the mapped error envelope
func fail(c *gin.Context, log *logger.Logger, msg string, err error, fields ...zap.Field) {
	appErr := appError(err)
	if apperrors.IsServerError(appErr.Code) {
		log.Error(msg, append(fields, zap.Error(err))...)
	}
	response.HandleError(c, appErr)
}

// appError maps authentication domain errors onto the business error-code
// table. Unrecognized errors collapse to an internal error with no detail
// text so nothing from the storage layer leaks into responses.
func appError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, biz.ErrInvalidCredentials):
		return apperrors.New(apperrors.ErrAuthInvalidCredentials)
	case errors.Is(err, biz.ErrAccountLocked):
		return apperrors.New(apperrors.ErrAuthAccountLocked)
	case errors.Is(err, biz.ErrEmailAlreadyExists):
		return apperrors.New(apperrors.ErrAuthEmailExists)
	case errors.Is(err, biz.ErrUserNotFound):
		return apperrors.New(apperrors.ErrAuthUserNotFound)
	case errors.Is(err, biz.ErrInvalidToken):
		return apperrors.New(apperrors.ErrAuthInvalidToken)
	default:
		return apperrors.New(apperrors.ErrInternalServer)
	}
}
