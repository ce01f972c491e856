// internal/models/review.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	BaseModel
	BookID        uuid.UUID `json:"bookId" gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	Rating        int       `json:"rating" gorm:"not null"`
	Comment       string    `json:"comment" gorm:"type:text;not null"`
	IsRecommended bool      `json:"isRecommended" gorm:"not null"`
	HelpfulVotes  int       `json:"helpfulVotes" gorm:"not null;default:0"`
	Active        bool      `json:"isActive" gorm:"not null;default:true;index"`

	// Relationships
	Book *BookSummary `json:"book,omitempty" gorm:"foreignKey:BookID"`
	User *UserSummary `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// ReviewVote records that a user marked a review as helpful.
type ReviewVote struct {
	ReviewID  uuid.UUID `json:"reviewId" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
}
