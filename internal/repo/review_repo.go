// internal/repo/review_repo.go
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/readsphere/readsphere-api/internal/models"
)

var (
	// ErrReviewNotFound is returned when a review does not exist or is inactive
	ErrReviewNotFound = errors.New("review not found")

	// ErrDuplicateReview is returned when the user already has an active review of the book
	ErrDuplicateReview = errors.New("review already exists")

	// ErrAlreadyVoted is returned when the voter already marked the review helpful
	ErrAlreadyVoted = errors.New("already voted")
)

// ReviewFilter selects a page of active reviews
type ReviewFilter struct {
	BookID *uuid.UUID
	UserID *uuid.UUID
	Offset int
	Limit  int
}

// GenreCount is one row of a user's genre histogram
type GenreCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count" gorm:"column:total"`
}

// ReviewRepository handles review persistence and review-derived aggregates
type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) List(ctx context.Context, filter ReviewFilter) ([]models.Review, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Review{}).Where("reviews.active = ?", true)
	if filter.BookID != nil {
		query = query.Where("reviews.book_id = ?", *filter.BookID)
	}
	if filter.UserID != nil {
		query = query.Where("reviews.user_id = ?", *filter.UserID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	reviews := []models.Review{}
	err := query.Session(&gorm.Session{}).
		Preload("User").
		Preload("Book").
		Order("reviews.created_at DESC, reviews.id ASC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}

	return reviews, total, nil
}

// FindActiveByBook returns the most recent active reviews of a book
func (r *ReviewRepository) FindActiveByBook(ctx context.Context, bookID uuid.UUID, limit int) ([]models.Review, error) {
	reviews := []models.Review{}
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("book_id = ? AND active = ?", bookID, true).
		Order("created_at DESC, id ASC").
		Limit(limit).
		Find(&reviews).Error
	return reviews, err
}

// FindActiveByUser returns the most recent active reviews written by a user
func (r *ReviewRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Review, error) {
	reviews := []models.Review{}
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ? AND active = ?", userID, true).
		Order("created_at DESC, id ASC").
		Limit(limit).
		Find(&reviews).Error
	return reviews, err
}

func (r *ReviewRepository) GetActive(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Book").
		Where("id = ? AND active = ?", id, true).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}

	return &review, nil
}

// HasActiveReview reports whether the user has an active review of the book
func (r *ReviewRepository) HasActiveReview(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("user_id = ? AND book_id = ? AND active = ?", userID, bookID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateReview
		}
		return err
	}
	return nil
}

func (r *ReviewRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("id = ? AND active = ?", id, true).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.Update(ctx, id, map[string]interface{}{"active": false})
}

// AddHelpfulVote records the voter and increments the counter in one transaction
func (r *ReviewRepository) AddHelpfulVote(ctx context.Context, reviewID, voterID uuid.UUID) (int, error) {
	var helpfulVotes int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.ReviewVote{}).
			Where("review_id = ? AND user_id = ?", reviewID, voterID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyVoted
		}

		if err := tx.Create(&models.ReviewVote{ReviewID: reviewID, UserID: voterID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyVoted
			}
			return err
		}

		result := tx.Model(&models.Review{}).
			Where("id = ? AND active = ?", reviewID, true).
			UpdateColumn("helpful_votes", gorm.Expr("helpful_votes + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrReviewNotFound
		}

		return tx.Model(&models.Review{}).
			Where("id = ?", reviewID).
			Pluck("helpful_votes", &helpfulVotes).Error
	})

	return helpfulVotes, err
}

// BookRatingStats returns the mean rating and count of a book's active reviews
func (r *ReviewRepository) BookRatingStats(ctx context.Context, bookID uuid.UUID) (float64, int64, error) {
	var stats struct {
		Average float64
		Total   int64
	}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS total").
		Where("book_id = ? AND active = ?", bookID, true).
		Scan(&stats).Error
	return stats.Average, stats.Total, err
}

// UserRatingStats returns the mean rating and count of a user's active reviews
func (r *ReviewRepository) UserRatingStats(ctx context.Context, userID uuid.UUID) (float64, int64, error) {
	var stats struct {
		Average float64
		Total   int64
	}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS total").
		Where("user_id = ? AND active = ?", userID, true).
		Scan(&stats).Error
	return stats.Average, stats.Total, err
}

func (r *ReviewRepository) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("user_id = ? AND active = ?", userID, true).
		Count(&count).Error
	return count, err
}

// RatingDistributionByUser counts a user's active reviews per star rating
func (r *ReviewRepository) RatingDistributionByUser(ctx context.Context, userID uuid.UUID) (map[int]int64, error) {
	var rows []struct {
		Rating int
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("rating, COUNT(*) AS total").
		Where("user_id = ? AND active = ?", userID, true).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	distribution := make(map[int]int64, len(rows))
	for _, row := range rows {
		distribution[row.Rating] = row.Total
	}
	return distribution, nil
}

// TopGenresByUser ranks genres across the books a user actively reviewed
func (r *ReviewRepository) TopGenresByUser(ctx context.Context, userID uuid.UUID, limit int) ([]GenreCount, error) {
	genres := []GenreCount{}
	err := r.db.WithContext(ctx).Table("reviews").
		Select("book_genres.genre AS name, COUNT(*) AS total").
		Joins("JOIN book_genres ON book_genres.book_id = reviews.book_id").
		Where("reviews.user_id = ? AND reviews.active = ?", userID, true).
		Group("book_genres.genre").
		Order("total DESC, name ASC").
		Limit(limit).
		Scan(&genres).Error
	return genres, err
}
