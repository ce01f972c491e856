// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/readsphere/readsphere-api/internal/i18n"
	"github.com/readsphere/readsphere-api/internal/models"
	"github.com/readsphere/readsphere-api/internal/repo"
	"github.com/readsphere/readsphere-api/internal/utils"
)

const (
	ProfileRecentReviews = 5
	TopGenresLimit       = 5
)

type UserService struct {
	users   *repo.UserRepository
	reviews *repo.ReviewRepository
}

type UpdateProfileRequest struct {
	Name           *string  `json:"name" validate:"omitempty,min=2,max=50"`
	Bio            *string  `json:"bio" validate:"omitempty,max=500"`
	Avatar         *string  `json:"avatar" validate:"omitempty,url"`
	FavoriteGenres []string `json:"favoriteGenres" validate:"omitempty,dive,genre"`
}

type UserStats struct {
	TotalReviews        int64             `json:"totalReviews"`
	AverageRating       float64           `json:"averageRating"`
	BooksRead           int               `json:"booksRead"`
	RatingsDistribution map[string]int64  `json:"ratingsDistribution"`
	TopGenres           []repo.GenreCount `json:"topGenres"`
}

func NewUserService(users *repo.UserRepository, reviews *repo.ReviewRepository) *UserService {
	return &UserService{
		users:   users,
		reviews: reviews,
	}
}

// GetProfile returns an active user with their most recent active reviews
func (s *UserService) GetProfile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetActive(ctx, id)
	if err != nil {
		return nil, userError(err)
	}

	reviews, err := s.reviews.FindActiveByUser(ctx, id, ProfileRecentReviews)
	if err != nil {
		return nil, utils.UnexpectedErr(err)
	}
	user.RecentReviews = reviews

	return user, nil
}

// UpdateProfile lets users edit their own profile only
func (s *UserService) UpdateProfile(ctx context.Context, actorID, targetID uuid.UUID, req *UpdateProfileRequest) (*models.User, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if req.Bio != nil {
		bio := strings.TrimSpace(*req.Bio)
		req.Bio = &bio
	}
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	if actorID != targetID {
		return nil, utils.AuthorizationErr(i18n.KeyUserForbidden)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if req.FavoriteGenres != nil {
		updates["favorite_genres"] = models.StringList(req.FavoriteGenres)
	}

	if len(updates) > 0 {
		if err := s.users.Update(ctx, targetID, updates); err != nil {
			return nil, userError(err)
		}
	}

	user, err := s.users.GetActive(ctx, targetID)
	if err != nil {
		return nil, userError(err)
	}
	return user, nil
}

// Deactivate soft-deletes an account; allowed for the owner and for admins
func (s *UserService) Deactivate(ctx context.Context, actorID uuid.UUID, actorIsAdmin bool, targetID uuid.UUID) error {
	if actorID != targetID && !actorIsAdmin {
		return utils.AuthorizationErr(i18n.KeyUserForbidden)
	}

	if err := s.users.Deactivate(ctx, targetID); err != nil {
		return userError(err)
	}

	logrus.WithFields(logrus.Fields{"user_id": targetID, "actor_id": actorID}).Info("User deactivated")
	return nil
}

func (s *UserService) ListUserReviews(ctx context.Context, id uuid.UUID, params utils.PaginationParams) ([]models.Review, int64, error) {
	if _, err := s.users.GetActive(ctx, id); err != nil {
		return nil, 0, userError(err)
	}

	reviews, total, err := s.reviews.List(ctx, repo.ReviewFilter{
		UserID: &id,
		Offset: params.Offset(),
		Limit:  params.Limit,
	})
	if err != nil {
		return nil, 0, utils.UnexpectedErr(err)
	}
	return reviews, total, nil
}

// GetStats computes a user's review statistics on demand
func (s *UserService) GetStats(ctx context.Context, id uuid.UUID) (*UserStats, error) {
	user, err := s.users.GetActive(ctx, id)
	if err != nil {
		return nil, userError(err)
	}

	average, total, err := s.reviews.UserRatingStats(ctx, id)
	if err != nil {
		return nil, utils.UnexpectedErr(err)
	}

	distribution, err := s.reviews.RatingDistributionByUser(ctx, id)
	if err != nil {
		return nil, utils.UnexpectedErr(err)
	}

	topGenres, err := s.reviews.TopGenresByUser(ctx, id, TopGenresLimit)
	if err != nil {
		return nil, utils.UnexpectedErr(err)
	}

	stats := &UserStats{
		TotalReviews:        total,
		BooksRead:           user.BooksRead,
		RatingsDistribution: make(map[string]int64, 5),
		TopGenres:           topGenres,
	}
	if total > 0 {
		stats.AverageRating = RoundRating(average)
	}
	for rating := 1; rating <= 5; rating++ {
		stats.RatingsDistribution[strconv.Itoa(rating)] = distribution[rating]
	}

	return stats, nil
}

func userError(err error) error {
	if errors.Is(err, repo.ErrUserNotFound) {
		return utils.NotFoundErr(i18n.KeyUserNotFound)
	}
	return utils.UnexpectedErr(err)
}
