// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/marketplace-backend/internal/i18n"
	"github.com/javajoker/marketplace-backend/internal/models"
)

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Context keys set by the auth and i18n middleware
const (
	ContextKeyLang     = "lang"
	ContextKeyIdentity = "identity"
	ContextKeyUserID   = "user_id"
)

// Error codes that do not come from a domain error kind
const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	CodeInternal        = "INTERNAL_ERROR"
)

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: meta})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// ErrorResponse aborts the chain; nothing after it may write the body.
func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(statusCode, APIResponse{
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// localizedError falls back to the translation of key when message is empty.
func localizedError(c *gin.Context, status int, code, key, message string, details interface{}) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), key)
	}
	ErrorResponse(c, status, code, message, details)
}

func InvalidInputResponse(c *gin.Context, message string, details interface{}) {
	localizedError(c, http.StatusBadRequest, CodeInvalidInput, i18n.KeyInvalidInput, message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	localizedError(c, http.StatusUnauthorized, CodeUnauthenticated, i18n.KeyAuthRequired, message, nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	localizedError(c, http.StatusForbidden, CodeForbidden, i18n.KeyAuthSellerRequired, message, nil)
}

func TooManyRequestsResponse(c *gin.Context) {
	localizedError(c, http.StatusTooManyRequests, CodeRateLimited, i18n.KeyRateLimitExceeded, "", nil)
}

func InternalErrorResponse(c *gin.Context, message string) {
	localizedError(c, http.StatusInternalServerError, CodeInternal, i18n.KeyInternalError, message, nil)
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	SuccessResponseWithMeta(c, result.Data, gin.H{"pagination": result.Meta()})
}

func GetLangFromContext(c *gin.Context) string {
	if lang, ok := c.Get(ContextKeyLang); ok {
		if s, ok := lang.(string); ok {
			return s
		}
	}
	return i18n.DefaultLanguage
}

func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID := c.GetString(ContextKeyUserID)
	return userID, userID != ""
}

func GetIdentityFromContext(c *gin.Context) (*models.Identity, bool) {
	value, ok := c.Get(ContextKeyIdentity)
	if !ok {
		return nil, false
	}
	identity, ok := value.(*models.Identity)
	return identity, ok && identity != nil
}
