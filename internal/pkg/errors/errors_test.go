package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorError(t *testing.T) {
	e := New(ErrUploadNotFound)
	assert.Contains(t, e.Error(), "4000")

	wrapped := Wrap(stderrors.New("row missing"), ErrUploadNotFound)
	assert.Contains(t, wrapped.Error(), "row missing")
}

func TestWrapAndExtractCode(t *testing.T) {
	base := stderrors.New("connection refused")
	e := Wrap(base, ErrUploadStorageFailed, "put failed")

	assert.Equal(t, ErrUploadStorageFailed, ExtractCode(e))
	assert.True(t, Is(e, ErrUploadStorageFailed))
	assert.False(t, Is(e, ErrUploadNotFound))
	assert.ErrorIs(t, e, base)
}

func TestExtractCodeFallback(t *testing.T) {
	assert.Equal(t, ErrInternalServer, ExtractCode(stderrors.New("plain")))
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		code int
		want int
	}{
		{"not found", ErrUploadNotFound, http.StatusNotFound},
		{"sheet not found", ErrSheetNotFound, http.StatusNotFound},
		{"duplicate", ErrUploadDuplicate, http.StatusConflict},
		{"too large", ErrUploadFileTooLarge, http.StatusRequestEntityTooLarge},
		{"bad type", ErrUploadInvalidFileType, http.StatusBadRequest},
		{"locked", ErrAuthAccountLocked, http.StatusForbidden},
		{"bad credentials", ErrAuthInvalidCredentials, http.StatusUnauthorized},
		{"validation down", ErrValidationServiceFailed, http.StatusBadGateway},
		{"unknown code", 9999, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestGetDetails(t *testing.T) {
	// A bare AppError adds nothing beyond the code table's message
	assert.Equal(t, "", GetDetails(New(ErrUploadNotFound)))
	assert.Equal(t, "file.xlsx", GetDetails(New(ErrUploadDuplicate, "file.xlsx")))
	assert.Equal(t, "disk full", GetDetails(Wrap(stderrors.New("disk full"), ErrUploadStorageFailed)))
	assert.Equal(t, "plain", GetDetails(stderrors.New("plain")))
}

func TestClientServerClassification(t *testing.T) {
	assert.True(t, IsClientError(ErrUploadNotFound))
	assert.False(t, IsServerError(ErrUploadNotFound))
	assert.True(t, IsServerError(ErrInternalServer))
}
