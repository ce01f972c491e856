// internal/models/audit.go
package models

import (
	"github.com/google/uuid"
)

// AuditLog is one mutating request against the API.
type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"userId" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resourceType" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resourceId" gorm:"type:uuid;index"`
	StatusCode   int        `json:"statusCode"`
	IPAddress    string     `json:"ipAddress" gorm:"size:45"`
	UserAgent    string     `json:"userAgent" gorm:"type:text"`
}
