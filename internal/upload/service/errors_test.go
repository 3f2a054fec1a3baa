package service

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/sheetlens/sheetlens-backend/internal/pkg/errors"
	"github.com/sheetlens/sheetlens-backend/internal/upload/biz"
)

func TestAppErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus int
	}{
		{"file too large", biz.ErrFileTooLarge, apperrors.ErrUploadFileTooLarge, http.StatusRequestEntityTooLarge},
		{"invalid type", biz.ErrInvalidFileType, apperrors.ErrUploadInvalidFileType, http.StatusBadRequest},
		{"macros", biz.ErrMacrosForbidden, apperrors.ErrUploadMacrosForbidden, http.StatusBadRequest},
		{"duplicate", biz.ErrDuplicateFile, apperrors.ErrUploadDuplicate, http.StatusConflict},
		{"parse failed", biz.ErrParseFailed, apperrors.ErrUploadParseFailed, http.StatusUnprocessableEntity},
		{"sheet not found", biz.ErrSheetNotFound, apperrors.ErrSheetNotFound, http.StatusNotFound},
		{"upload not found", biz.ErrUploadNotFound, apperrors.ErrUploadNotFound, http.StatusNotFound},
		{"no validation yet", biz.ErrValidationNotFound, apperrors.ErrNotFound, http.StatusNotFound},
		{"nothing to validate", biz.ErrValidationNoData, apperrors.ErrValidationNoData, http.StatusBadRequest},
		{"validator down", biz.ErrValidationFailed, apperrors.ErrValidationServiceFailed, http.StatusBadGateway},
		{"wrapped sentinel", fmt.Errorf("loading upload: %w", biz.ErrUploadNotFound), apperrors.ErrUploadNotFound, http.StatusNotFound},
		{"unknown", errors.New("pq: connection reset"), apperrors.ErrInternalServer, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := appError(tt.err)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.wantStatus, apperrors.GetHTTPStatus(appErr.Code))
		})
	}
}

func TestAppErrorHidesInternalDetail(t *testing.T) {
	appErr := appError(errors.New("pq: relation uploads does not exist"))
	assert.NotContains(t, apperrors.GetDetails(appErr), "pq:")
}
