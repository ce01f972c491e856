// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const DefaultAvatar = "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=100&h=100&fit=crop&crop=face"

// PasswordCost is the bcrypt work factor used for new credentials.
var PasswordCost = 12

type User struct {
	BaseModel
	Name           string     `json:"name" gorm:"size:50;not null"`
	Email          string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash   string     `json:"-" gorm:"size:255;not null"`
	Avatar         string     `json:"avatar" gorm:"size:500"`
	Bio            string     `json:"bio" gorm:"size:500"`
	IsAdmin        bool       `json:"isAdmin" gorm:"not null;default:false"`
	ReviewCount    int        `json:"reviewCount" gorm:"not null;default:0"`
	BooksRead      int        `json:"booksRead" gorm:"not null;default:0"`
	FavoriteGenres StringList `json:"favoriteGenres"`
	Active         bool       `json:"isActive" gorm:"not null;default:true"`
	LastLoginAt    *time.Time `json:"lastLogin"`

	RecentReviews []Review `json:"recentReviews,omitempty" gorm:"-"`
}

// UserSummary is the public slice of a user embedded in book and review payloads.
type UserSummary struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
}

func (UserSummary) TableName() string {
	return "users"
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
