// internal/middleware/logging.go
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/readsphere/readsphere-api/internal/events"
	"github.com/readsphere/readsphere-api/internal/models"
	"github.com/readsphere/readsphere-api/internal/utils"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags every request with an ID and logs its outcome
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = utils.GenerateRequestID()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(events.WithCorrelationID(c.Request.Context(), requestID))

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"duration":   time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		})
		if userID, ok := GetUserID(c); ok {
			entry = entry.WithField("user_id", userID)
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

// AuditLogMiddleware stores one audit_logs row per mutating request.
// With async set the row is written in the background.
func AuditLogMiddleware(db *gorm.DB, async bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		auditLog := &models.AuditLog{
			Action:       c.Request.Method + " " + route,
			ResourceType: extractResourceType(c.Request.URL.Path),
			StatusCode:   c.Writer.Status(),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
		}
		if userID, ok := GetUserID(c); ok {
			auditLog.UserID = &userID
		}
		if resourceID, ok := extractResourceID(c.Request.URL.Path); ok {
			auditLog.ResourceID = &resourceID
		}

		save := func() {
			if err := db.Create(auditLog).Error; err != nil {
				logrus.WithError(err).Error("Failed to create audit log")
			}
		}
		if async {
			go save()
		} else {
			save()
		}
	}
}

func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "api" {
		return parts[1]
	}
	if len(parts) >= 1 && parts[0] != "" {
		return parts[0]
	}
	return "unknown"
}

func extractResourceID(path string) (uuid.UUID, bool) {
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if id, err := uuid.Parse(part); err == nil {
			return id, true
		}
	}
	return uuid.Nil, false
}
