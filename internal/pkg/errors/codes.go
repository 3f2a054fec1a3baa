package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrUnauthorized    = 1003
	ErrForbidden       = 1004
	ErrConflict        = 1005
	ErrTooManyRequests = 1006
	ErrBadRequest      = 1007
	ErrServiceUnavail  = 1008

	// Auth errors (2000-2999)
	ErrAuthInvalidCredentials = 2000
	ErrAuthUserNotFound       = 2001
	ErrAuthEmailExists        = 2002
	ErrAuthAccountLocked      = 2003
	ErrAuthInvalidToken       = 2004
	ErrAuthTokenExpired       = 2005

	// User/profile errors (3000-3999)
	ErrUserNotFound      = 3000
	ErrUserInvalidInput  = 3001
	ErrAvatarInvalidType = 3002
	ErrAvatarTooLarge    = 3003

	// Upload errors (4000-4999)
	ErrUploadNotFound        = 4000
	ErrUploadInvalidFileType = 4001
	ErrUploadFileTooLarge    = 4002
	ErrUploadMacrosForbidden = 4003
	ErrUploadDuplicate       = 4004
	ErrUploadParseFailed     = 4005
	ErrUploadStorageFailed   = 4006
	ErrSheetNotFound         = 4007

	// AI validation errors (5000-5999)
	ErrValidationNoData        = 5000
	ErrValidationServiceFailed = 5001
	ErrValidationUnavailable   = 5002
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	// Common errors
	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrUnauthorized:    {ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	ErrForbidden:       {ErrForbidden, http.StatusForbidden, "Forbidden"},
	ErrConflict:        {ErrConflict, http.StatusConflict, "Resource conflict"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail:  {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},

	// Auth errors
	ErrAuthInvalidCredentials: {ErrAuthInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	ErrAuthUserNotFound:       {ErrAuthUserNotFound, http.StatusNotFound, "User not found"},
	ErrAuthEmailExists:        {ErrAuthEmailExists, http.StatusConflict, "Email already exists"},
	ErrAuthAccountLocked:      {ErrAuthAccountLocked, http.StatusForbidden, "Account locked due to too many failed attempts"},
	ErrAuthInvalidToken:       {ErrAuthInvalidToken, http.StatusUnauthorized, "Invalid or expired token"},
	ErrAuthTokenExpired:       {ErrAuthTokenExpired, http.StatusUnauthorized, "Token expired"},

	// User/profile errors
	ErrUserNotFound:      {ErrUserNotFound, http.StatusNotFound, "User not found"},
	ErrUserInvalidInput:  {ErrUserInvalidInput, http.StatusBadRequest, "Invalid user input"},
	ErrAvatarInvalidType: {ErrAvatarInvalidType, http.StatusBadRequest, "Unsupported avatar image type"},
	ErrAvatarTooLarge:    {ErrAvatarTooLarge, http.StatusRequestEntityTooLarge, "Avatar image exceeds size limit"},

	// Upload errors
	ErrUploadNotFound:        {ErrUploadNotFound, http.StatusNotFound, "Upload not found"},
	ErrUploadInvalidFileType: {ErrUploadInvalidFileType, http.StatusBadRequest, "Unsupported spreadsheet file type"},
	ErrUploadFileTooLarge:    {ErrUploadFileTooLarge, http.StatusRequestEntityTooLarge, "File size exceeds limit"},
	ErrUploadMacrosForbidden: {ErrUploadMacrosForbidden, http.StatusBadRequest, "Files with macros are not allowed"},
	ErrUploadDuplicate:       {ErrUploadDuplicate, http.StatusConflict, "This file has already been uploaded"},
	ErrUploadParseFailed:     {ErrUploadParseFailed, http.StatusUnprocessableEntity, "Spreadsheet processing failed"},
	ErrUploadStorageFailed:   {ErrUploadStorageFailed, http.StatusInternalServerError, "Storage operation failed"},
	ErrSheetNotFound:         {ErrSheetNotFound, http.StatusNotFound, "Sheet not found"},

	// AI validation errors
	ErrValidationNoData:        {ErrValidationNoData, http.StatusBadRequest, "No data to validate"},
	ErrValidationServiceFailed: {ErrValidationServiceFailed, http.StatusBadGateway, "AI validation service failed"},
	ErrValidationUnavailable:   {ErrValidationUnavailable, http.StatusServiceUnavailable, "AI validation is not available"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsClientError checks if the code represents a client error (4xx)
func IsClientError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}

// IsServerError checks if the code represents a server error (5xx)
func IsServerError(code int) bool {
	return GetHTTPStatus(code) >= 500
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
