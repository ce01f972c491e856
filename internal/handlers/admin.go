// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/readsphere/readsphere-api/internal/i18n"
	"github.com/readsphere/readsphere-api/internal/services"
	"github.com/readsphere/readsphere-api/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// GET /api/admin/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"stats": stats})
}

// GET /api/admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	var query services.AdminUserQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.HandleError(c, utils.BadRequestErr(i18n.KeyValidationBody))
		return
	}

	users, total, params, err := h.adminService.ListUsers(c.Request.Context(), query)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, "users", users, total, params)
}

// PUT /api/admin/users/:id/status
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	userID, ok := paramID(c, "user")
	if !ok {
		return
	}

	var req services.UpdateUserStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.adminService.UpdateUserStatus(c.Request.Context(), adminID, userID, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	key := i18n.KeyAdminUserReactivated
	if !user.Active {
		key = i18n.KeyAdminUserSuspended
	}
	utils.MessageResponse(c, key, gin.H{"user": user})
}

// GET /api/admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	var query services.AuditLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.HandleError(c, utils.BadRequestErr(i18n.KeyValidationBody))
		return
	}

	logs, total, params, err := h.adminService.ListAuditLogs(c.Request.Context(), query)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, "auditLogs", logs, total, params)
}
