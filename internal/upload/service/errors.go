package service

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/sheetlens/sheetlens-backend/internal/pkg/errors"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/logger"
	"github.com/sheetlens/sheetlens-backend/internal/pkg/response"
	"github.com/sheetlens/sheetlens-backend/internal/upload/biz"
)

// fail logs server-side failures and writes the mapped error envelope.
// Client errors carry enough context in their code already and stay quiet.
func fail(c *gin.Context, log *logger.Logger, msg, userID string, err error) {
	appErr := appError(err)
	if apperrors.IsServerError(appErr.Code) {
		log.Error(msg, zap.Error(err), zap.String("user_id", userID))
	}
	response.HandleError(c, appErr)
}

// appError maps upload domain errors onto the business error-code table.
// Unrecognized errors collapse to an internal error with no detail text so
// nothing from the storage layer leaks into responses.
func appError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, biz.ErrFileTooLarge):
		return apperrors.New(apperrors.ErrUploadFileTooLarge)
	case errors.Is(err, biz.ErrInvalidFileType):
		return apperrors.New(apperrors.ErrUploadInvalidFileType)
	case errors.Is(err, biz.ErrMacrosForbidden):
		return apperrors.New(apperrors.ErrUploadMacrosForbidden)
	case errors.Is(err, biz.ErrDuplicateFile):
		return apperrors.New(apperrors.ErrUploadDuplicate)
	case errors.Is(err, biz.ErrParseFailed):
		return apperrors.New(apperrors.ErrUploadParseFailed)
	case errors.Is(err, biz.ErrSheetNotFound):
		return apperrors.New(apperrors.ErrSheetNotFound)
	case errors.Is(err, biz.ErrUploadNotFound):
		return apperrors.New(apperrors.ErrUploadNotFound)
	case errors.Is(err, biz.ErrValidationNotFound):
		return apperrors.New(apperrors.ErrNotFound, "no validation result")
	case errors.Is(err, biz.ErrValidationNoData):
		return apperrors.New(apperrors.ErrValidationNoData)
	case errors.Is(err, biz.ErrValidationFailed):
		return apperrors.New(apperrors.ErrValidationServiceFailed)
	default:
		return apperrors.New(apperrors.ErrInternalServer)
	}
}
