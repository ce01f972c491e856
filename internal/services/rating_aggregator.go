// internal/services/rating_aggregator.go
package services

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/readsphere/readsphere-api/internal/events"
	"github.com/readsphere/readsphere-api/internal/metrics"
	"github.com/readsphere/readsphere-api/internal/models"
	"github.com/readsphere/readsphere-api/internal/repo"
)

// ReviewStatsSource reads aggregates over the currently persisted active reviews
type ReviewStatsSource interface {
	BookRatingStats(ctx context.Context, bookID uuid.UUID) (float64, int64, error)
	CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type BookRatingWriter interface {
	UpdateRatingStats(ctx context.Context, bookID uuid.UUID, averageRating float64, reviewCount int64) error
}

type UserReviewCountWriter interface {
	UpdateReviewCount(ctx context.Context, userID uuid.UUID, count int64) error
}

// RatingAggregator keeps Book.averageRating/reviewCount and User.reviewCount
// equal to the aggregate of active reviews.
type RatingAggregator struct {
	reviews   ReviewStatsSource
	books     BookRatingWriter
	users     UserReviewCountWriter
	publisher events.Publisher
}

func NewRatingAggregator(reviews ReviewStatsSource, books BookRatingWriter, users UserReviewCountWriter, publisher events.Publisher) *RatingAggregator {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &RatingAggregator{
		reviews:   reviews,
		books:     books,
		users:     users,
		publisher: publisher,
	}
}

// OnReviewWritten runs after a review create, update or soft delete has been persisted.
// Failures are logged and counted; the review write is never undone.
func (a *RatingAggregator) OnReviewWritten(ctx context.Context, review *models.Review) {
	log := logrus.WithFields(logrus.Fields{
		"review_id": review.ID,
		"book_id":   review.BookID,
		"user_id":   review.UserID,
	})

	a.recomputeBook(ctx, review.BookID, log)
	a.recomputeUser(ctx, review.UserID, log)
}

func (a *RatingAggregator) recomputeBook(ctx context.Context, bookID uuid.UUID, log *logrus.Entry) {
	average, count, err := a.reviews.BookRatingStats(ctx, bookID)
	if err != nil {
		log.WithError(err).Error("Failed to read book rating stats")
		metrics.RecordRecomputation("book", "error")
		return
	}

	average = RoundRating(average)
	if count == 0 {
		average = 0
	}

	if err := a.books.UpdateRatingStats(ctx, bookID, average, count); err != nil {
		if errors.Is(err, repo.ErrBookNotFound) {
			metrics.RecordRecomputation("book", "skipped")
			return
		}
		log.WithError(err).Error("Failed to persist book rating stats")
		metrics.RecordRecomputation("book", "error")
		return
	}
	metrics.RecordRecomputation("book", "success")

	err = a.publisher.Publish(ctx, events.EventBookRatingUpdated, map[string]interface{}{
		"book_id":        bookID.String(),
		"average_rating": average,
		"review_count":   count,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to publish rating update")
	}
}

func (a *RatingAggregator) recomputeUser(ctx context.Context, userID uuid.UUID, log *logrus.Entry) {
	count, err := a.reviews.CountActiveByUser(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Failed to count user reviews")
		metrics.RecordRecomputation("user", "error")
		return
	}

	if err := a.users.UpdateReviewCount(ctx, userID, count); err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			metrics.RecordRecomputation("user", "skipped")
			return
		}
		log.WithError(err).Error("Failed to persist user review count")
		metrics.RecordRecomputation("user", "error")
		return
	}
	metrics.RecordRecomputation("user", "success")
}

// RoundRating rounds a mean rating to one decimal place
func RoundRating(value float64) float64 {
	return math.Round(value*10) / 10
}
