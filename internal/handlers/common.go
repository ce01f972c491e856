// internal/handlers/common.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/readsphere/readsphere-api/internal/i18n"
	"github.com/readsphere/readsphere-api/internal/middleware"
	"github.com/readsphere/readsphere-api/internal/utils"
)

// bindJSON decodes the body into req and answers 400 on malformed input
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.HandleError(c, utils.BadRequestErr(i18n.KeyValidationBody))
		return false
	}
	return true
}

// paramID parses the :id path parameter; label names the resource in the error message
func paramID(c *gin.Context, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.HandleError(c, utils.BadRequestErr(i18n.KeyInvalidID, label))
		return uuid.Nil, false
	}
	return id, true
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.KeyAuthRequired)
		return uuid.Nil, false
	}
	return userID, true
}
