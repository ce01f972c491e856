// internal/handlers/review.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/readsphere/readsphere-api/internal/i18n"
	"github.com/readsphere/readsphere-api/internal/services"
	"github.com/readsphere/readsphere-api/internal/utils"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

// GET /api/reviews
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	var query services.ReviewListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.HandleError(c, utils.BadRequestErr(i18n.KeyValidationBody))
		return
	}

	reviews, total, params, err := h.reviewService.ListReviews(c.Request.Context(), query)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, "reviews", reviews, total, params)
}

// GET /api/reviews/:id
func (h *ReviewHandler) GetReview(c *gin.Context) {
	id, ok := paramID(c, "review")
	if !ok {
		return
	}

	review, err := h.reviewService.GetReview(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"review": review})
}

// POST /api/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), userID, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.KeyReviewCreated, gin.H{"review": review})
}

// PUT /api/reviews/:id
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "review")
	if !ok {
		return
	}

	var req services.UpdateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), userID, id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, i18n.KeyReviewUpdated, gin.H{"review": review})
}

// DELETE /api/reviews/:id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "review")
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), userID, id); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, i18n.KeyReviewDeleted, nil)
}

// POST /api/reviews/:id/helpful
func (h *ReviewHandler) MarkHelpful(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "review")
	if !ok {
		return
	}

	helpfulVotes, err := h.reviewService.MarkHelpful(c.Request.Context(), userID, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, i18n.KeyReviewVoted, gin.H{"helpfulVotes": helpfulVotes})
}
