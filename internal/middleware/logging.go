// internal/middleware/logging.go
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

const redacted = "[REDACTED]"

// Bodies larger than this are audited without their values.
const maxAuditBody = 64 * 1024

var sensitiveKeys = []string{"password", "token", "secret"}

// AuditLogMiddleware records every mutating request. Rows are written
// asynchronously so auditing never delays the response.
func AuditLogMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip reads and health checks
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		// Only JSON bodies are captured; multipart uploads are left alone
		var requestBody []byte
		if c.Request.Body != nil && strings.HasPrefix(c.ContentType(), "application/json") && c.Request.ContentLength <= maxAuditBody {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		c.Next()

		auditLog := &models.AuditLog{
			UserID:       auditUserID(c),
			Action:       c.Request.Method + " " + c.FullPath(),
			ResourceType: extractResourceType(c.Request.URL.Path),
			StatusCode:   c.Writer.Status(),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
		}
		if c.FullPath() == "" {
			auditLog.Action = c.Request.Method + " " + c.Request.URL.Path
		}

		var requestData map[string]interface{}
		if len(requestBody) > 0 && json.Unmarshal(requestBody, &requestData) == nil {
			auditLog.NewValues = models.JSONB(redact(requestData).(map[string]interface{}))
		}

		auditLog.ResourceID = extractResourceID(c.Request.URL.Path)

		go func() {
			if err := db.Create(auditLog).Error; err != nil {
				logrus.WithError(err).Error("Failed to create audit log")
			}
		}()
	}
}

func auditUserID(c *gin.Context) *uuid.UUID {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return nil
	}
	parsed, err := uuid.Parse(userID)
	if err != nil {
		return nil
	}
	return &parsed
}

// redact masks credential-like keys at any depth.
func redact(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, inner := range v {
			if isSensitiveKey(key) {
				out[key] = redacted
				continue
			}
			out[key] = redact(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i] = redact(inner)
		}
		return out
	default:
		return v
	}
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(key, sensitive) {
			return true
		}
	}
	return false
}

func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "v1" {
		return parts[1]
	}
	if len(parts) >= 1 && parts[0] != "" {
		return parts[0]
	}
	return "unknown"
}

func extractResourceID(path string) *uuid.UUID {
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if parsed, err := uuid.Parse(part); err == nil {
			return &parsed
		}
	}
	return nil
}

// RequestLogger logs one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		entry := logrus.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"duration":   time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		})
		if userID, ok := utils.GetUserIDFromContext(c); ok {
			entry = entry.WithField("user_id", userID)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request processed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request processed")
		default:
			entry.Info("Request processed")
		}
	}
}
