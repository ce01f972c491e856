// internal/services/review_service.go
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/readsphere/readsphere-api/internal/events"
	"github.com/readsphere/readsphere-api/internal/i18n"
	"github.com/readsphere/readsphere-api/internal/metrics"
	"github.com/readsphere/readsphere-api/internal/models"
	"github.com/readsphere/readsphere-api/internal/repo"
	"github.com/readsphere/readsphere-api/internal/utils"
)

// ReviewObserver is notified after every persisted review write
type ReviewObserver interface {
	OnReviewWritten(ctx context.Context, review *models.Review)
}

type ReviewService struct {
	reviews   *repo.ReviewRepository
	books     *repo.BookRepository
	observer  ReviewObserver
	publisher events.Publisher
}

type ReviewListQuery struct {
	BookID string `form:"bookId" validate:"omitempty,uuid"`
	UserID string `form:"userId" validate:"omitempty,uuid"`
	Page   string `form:"page" validate:"omitempty,int_range=1:"`
	Limit  string `form:"limit" validate:"omitempty,int_range=1:50"`
}

type CreateReviewRequest struct {
	BookID        string `json:"bookId" validate:"required_without=Book,omitempty,uuid"`
	Book          string `json:"book" validate:"omitempty,uuid"`
	Rating        *int   `json:"rating" validate:"required,min=1,max=5"`
	Comment       string `json:"comment" validate:"required,min=10,max=1000"`
	IsRecommended *bool  `json:"isRecommended"`
}

type UpdateReviewRequest struct {
	Rating        *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment       *string `json:"comment" validate:"omitempty,min=10,max=1000"`
	IsRecommended *bool   `json:"isRecommended"`
}

func NewReviewService(reviews *repo.ReviewRepository, books *repo.BookRepository, observer ReviewObserver, publisher events.Publisher) *ReviewService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &ReviewService{
		reviews:   reviews,
		books:     books,
		observer:  observer,
		publisher: publisher,
	}
}

func (r *CreateReviewRequest) targetBook() string {
	if r.BookID != "" {
		return r.BookID
	}
	return r.Book
}

func (s *ReviewService) ListReviews(ctx context.Context, query ReviewListQuery) ([]models.Review, int64, utils.PaginationParams, error) {
	if err := utils.ValidateRequest(&query); err != nil {
		return nil, 0, utils.PaginationParams{}, err
	}

	params, pageErrs := utils.ParsePageLimit(query.Page, query.Limit, DefaultReviewLimit, MaxReviewLimit)
	if len(pageErrs) > 0 {
		return nil, 0, params, utils.ValidationErr(pageErrs)
	}

	filter := repo.ReviewFilter{Offset: params.Offset(), Limit: params.Limit}
	if query.BookID != "" {
		id := uuid.MustParse(query.BookID)
		filter.BookID = &id
	}
	if query.UserID != "" {
		id := uuid.MustParse(query.UserID)
		filter.UserID = &id
	}

	reviews, total, err := s.reviews.List(ctx, filter)
	if err != nil {
		return nil, 0, params, utils.UnexpectedErr(err)
	}
	return reviews, total, params, nil
}

func (s *ReviewService) GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	review, err := s.reviews.GetActive(ctx, id)
	if err != nil {
		return nil, reviewError(err)
	}
	return review, nil
}

// CreateReview moves the (user, book) pair from no review to an active review
func (s *ReviewService) CreateReview(ctx context.Context, userID uuid.UUID, req *CreateReviewRequest) (*models.Review, error) {
	req.Comment = strings.TrimSpace(req.Comment)

	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}
	bookID := uuid.MustParse(req.targetBook())

	if _, err := s.books.GetActive(ctx, bookID); err != nil {
		return nil, bookError(err)
	}

	exists, err := s.reviews.HasActiveReview(ctx, userID, bookID)
	if err != nil {
		return nil, utils.UnexpectedErr(err)
	}
	if exists {
		return nil, utils.ConflictErr(i18n.KeyReviewExists)
	}

	review := &models.Review{
		BookID:        bookID,
		UserID:        userID,
		Rating:        *req.Rating,
		Comment:       req.Comment,
		IsRecommended: true,
		Active:        true,
	}
	if req.IsRecommended != nil {
		review.IsRecommended = *req.IsRecommended
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repo.ErrDuplicateReview) {
			return nil, utils.ConflictErr(i18n.KeyReviewExists)
		}
		return nil, utils.UnexpectedErr(err)
	}

	s.afterWrite(ctx, events.EventReviewCreated, review)
	return s.GetReview(ctx, review.ID)
}

// UpdateReview lets the author change rating, comment or recommendation
func (s *ReviewService) UpdateReview(ctx context.Context, userID, reviewID uuid.UUID, req *UpdateReviewRequest) (*models.Review, error) {
	if req.Comment != nil {
		trimmed := strings.TrimSpace(*req.Comment)
		req.Comment = &trimmed
	}
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	review, err := s.ownedReview(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Rating != nil {
		updates["rating"] = *req.Rating
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		updates["comment"] = *req.Comment
		review.Comment = *req.Comment
	}
	if req.IsRecommended != nil {
		updates["is_recommended"] = *req.IsRecommended
		review.IsRecommended = *req.IsRecommended
	}

	if len(updates) > 0 {
		if err := s.reviews.Update(ctx, reviewID, updates); err != nil {
			return nil, reviewError(err)
		}
	}

	s.afterWrite(ctx, events.EventReviewUpdated, review)
	return s.GetReview(ctx, reviewID)
}

// DeleteReview soft-deletes the author's review
func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID uuid.UUID) error {
	review, err := s.ownedReview(ctx, userID, reviewID)
	if err != nil {
		return err
	}

	if err := s.reviews.SoftDelete(ctx, reviewID); err != nil {
		return reviewError(err)
	}
	review.Active = false

	s.afterWrite(ctx, events.EventReviewDeleted, review)
	return nil
}

// MarkHelpful records one helpful vote per voter and returns the new count
func (s *ReviewService) MarkHelpful(ctx context.Context, voterID, reviewID uuid.UUID) (int, error) {
	if _, err := s.reviews.GetActive(ctx, reviewID); err != nil {
		return 0, reviewError(err)
	}

	helpfulVotes, err := s.reviews.AddHelpfulVote(ctx, reviewID, voterID)
	if err != nil {
		if errors.Is(err, repo.ErrAlreadyVoted) {
			return 0, utils.ConflictErr(i18n.KeyReviewAlreadyVoted)
		}
		return 0, reviewError(err)
	}

	metrics.HelpfulVotesTotal.Inc()
	return helpfulVotes, nil
}

func (s *ReviewService) ownedReview(ctx context.Context, userID, reviewID uuid.UUID) (*models.Review, error) {
	review, err := s.reviews.GetActive(ctx, reviewID)
	if err != nil {
		return nil, reviewError(err)
	}
	if review.UserID != userID {
		return nil, utils.AuthorizationErr(i18n.KeyReviewForbidden)
	}
	return review, nil
}

// afterWrite runs the aggregation trigger and publishes the review event; neither can fail the request
func (s *ReviewService) afterWrite(ctx context.Context, eventType string, review *models.Review) {
	ctx = context.WithoutCancel(ctx)

	if s.observer != nil {
		s.observer.OnReviewWritten(ctx, review)
	}

	err := s.publisher.Publish(ctx, eventType, map[string]interface{}{
		"review_id": review.ID.String(),
		"book_id":   review.BookID.String(),
		"user_id":   review.UserID.String(),
		"rating":    review.Rating,
		"active":    review.Active,
	})
	if err != nil {
		logrus.WithError(err).WithField("review_id", review.ID).Warn("Failed to publish review event")
	}
}

func reviewError(err error) error {
	switch {
	case errors.Is(err, repo.ErrReviewNotFound):
		return utils.NotFoundErr(i18n.KeyReviewNotFound)
	case errors.Is(err, repo.ErrBookNotFound):
		return utils.NotFoundErr(i18n.KeyBookNotFound)
	default:
		return utils.UnexpectedErr(err)
	}
}
