// internal/handlers/recommendation.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/readsphere/readsphere-api/internal/services"
	"github.com/readsphere/readsphere-api/internal/utils"
)

type RecommendationHandler struct {
	recommendationService *services.RecommendationService
}

func NewRecommendationHandler(recommendationService *services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		recommendationService: recommendationService,
	}
}

// GET /api/recommendations/user/:id
func (h *RecommendationHandler) ForUser(c *gin.Context) {
	id, ok := paramID(c, "user")
	if !ok {
		return
	}
	limit, ok := recommendationLimit(c, services.DefaultUserRecommendations)
	if !ok {
		return
	}

	recs := h.recommendationService.ForUser(c.Request.Context(), id, limit)
	utils.SuccessResponse(c, gin.H{"recommendations": recs})
}

// GET /api/recommendations/similar/:id
func (h *RecommendationHandler) SimilarBooks(c *gin.Context) {
	id, ok := paramID(c, "book")
	if !ok {
		return
	}
	limit, ok := recommendationLimit(c, services.DefaultSimilarRecommendations)
	if !ok {
		return
	}

	recs := h.recommendationService.SimilarBooks(c.Request.Context(), id, limit)
	utils.SuccessResponse(c, gin.H{"recommendations": recs})
}

func recommendationLimit(c *gin.Context, defaultLimit int) (int, bool) {
	params, errs := utils.ParsePageLimit("", c.Query("limit"), defaultLimit, services.MaxRecommendations)
	if len(errs) > 0 {
		utils.HandleError(c, utils.ValidationErr(errs))
		return 0, false
	}
	return params.Limit, true
}
