// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/readsphere/readsphere-api/internal/i18n"
	"github.com/readsphere/readsphere-api/internal/middleware"
	"github.com/readsphere/readsphere-api/internal/services"
	"github.com/readsphere/readsphere-api/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "user")
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"user": user})
}

// PUT /api/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "user")
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), actorID, id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, i18n.KeyUserProfileUpdated, gin.H{"user": user})
}

// DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "user")
	if !ok {
		return
	}

	if err := h.userService.Deactivate(c.Request.Context(), actorID, middleware.IsAdmin(c), id); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, i18n.KeyUserDeactivated, nil)
}

// GET /api/users/:id/reviews
func (h *UserHandler) ListUserReviews(c *gin.Context) {
	id, ok := paramID(c, "user")
	if !ok {
		return
	}

	params, err := utils.GetPaginationParams(c, services.DefaultReviewLimit, services.MaxReviewLimit)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	reviews, total, err := h.userService.ListUserReviews(c.Request.Context(), id, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, "reviews", reviews, total, params)
}

// GET /api/users/:id/stats
func (h *UserHandler) GetUserStats(c *gin.Context) {
	id, ok := paramID(c, "user")
	if !ok {
		return
	}

	stats, err := h.userService.GetStats(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"stats": stats})
}
