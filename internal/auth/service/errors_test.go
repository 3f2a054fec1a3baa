package service

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sheetlens/sheetlens-backend/internal/auth/biz"
	apperrors "github.com/sheetlens/sheetlens-backend/internal/pkg/errors"
)

func TestAppErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus int
	}{
		{"bad credentials", biz.ErrInvalidCredentials, apperrors.ErrAuthInvalidCredentials, http.StatusUnauthorized},
		{"locked", biz.ErrAccountLocked, apperrors.ErrAuthAccountLocked, http.StatusForbidden},
		{"email exists", biz.ErrEmailAlreadyExists, apperrors.ErrAuthEmailExists, http.StatusConflict},
		{"user not found", biz.ErrUserNotFound, apperrors.ErrAuthUserNotFound, http.StatusNotFound},
		{"bad token", biz.ErrInvalidToken, apperrors.ErrAuthInvalidToken, http.StatusUnauthorized},
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
