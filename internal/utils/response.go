// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/readsphere/readsphere-api/internal/i18n"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type APIErrorResponse struct {
	Success bool              `json:"success"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// MessageResponse replies 200 with a translated message and optional data
func MessageResponse(c *gin.Context, key string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: i18n.T(GetLangFromContext(c), key),
		Data:    data,
	})
}

func CreatedResponse(c *gin.Context, key string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: i18n.T(GetLangFromContext(c), key),
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details []ValidationError) {
	c.AbortWithStatusJSON(statusCode, APIErrorResponse{
		Success: false,
		Code:    code,
		Message: message,
		Errors:  details,
	})
}

// HandleError maps any error onto the error envelope
func HandleError(c *gin.Context, err error) {
	appErr := GetAppError(err)
	if appErr == nil {
		appErr = UnexpectedErr(err)
	}

	if appErr.Status >= http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Request failed")
	}

	c.Error(err)
	ErrorResponse(c, appErr.Status, appErr.Code, appErr.Message(GetLangFromContext(c)), appErr.Details)
}

func UnauthorizedResponse(c *gin.Context, key string) {
	if key == "" {
		key = i18n.KeyAuthRequired
	}
	HandleError(c, AuthenticationErr(key))
}

func ForbiddenResponse(c *gin.Context, key string) {
	if key == "" {
		key = i18n.KeyAdminAccessDenied
	}
	HandleError(c, AuthorizationErr(key))
}

// PaginatedResponse replies with {data: {<itemsKey>: items, pagination}}
func PaginatedResponse(c *gin.Context, itemsKey string, items interface{}, total int64, params PaginationParams) {
	result := CreatePaginationResult(total, params)
	SetPaginationHeaders(c, result)
	SuccessResponse(c, gin.H{
		itemsKey:     items,
		"pagination": result.ToMap(itemsKey),
	})
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get("lang"); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return i18n.DefaultLang
}
