// internal/models/book.go
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const DefaultCoverImage = "/placeholder.svg?height=400&width=300"

// BookSortColumns maps API sort fields onto book columns.
var BookSortColumns = map[string]string{
	"title":         "title",
	"author":        "author",
	"averageRating": "average_rating",
	"reviewCount":   "review_count",
	"createdAt":     "created_at",
}

type Book struct {
	BaseModel
	Title         string     `json:"title" gorm:"size:200;not null"`
	Author        string     `json:"author" gorm:"size:100;not null"`
	ISBN          *string    `json:"isbn,omitempty" gorm:"size:13;uniqueIndex"`
	Description   string     `json:"description" gorm:"type:text;not null"`
	CoverImage    string     `json:"coverImage" gorm:"size:500"`
	PublishedDate time.Time  `json:"publishedDate" gorm:"not null"`
	Publisher     string     `json:"publisher,omitempty" gorm:"size:100"`
	PageCount     *int       `json:"pageCount,omitempty"`
	Language      string     `json:"language" gorm:"size:50;default:'English'"`
	Tags          StringList `json:"tags"`
	AverageRating float64    `json:"averageRating" gorm:"not null;default:0"`
	ReviewCount   int        `json:"reviewCount" gorm:"not null;default:0"`
	Active        bool       `json:"isActive" gorm:"not null;default:true;index"`
	AddedByID     uuid.UUID  `json:"-" gorm:"type:uuid;not null;index"`

	// Relationships
	Genres  []BookGenre  `json:"genres" gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
	AddedBy *UserSummary `json:"addedBy,omitempty" gorm:"foreignKey:AddedByID"`
	Reviews []Review     `json:"reviews,omitempty" gorm:"-"`
}

// BookGenre is one row of a book's genre set.
type BookGenre struct {
	BookID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Genre  Genre     `gorm:"type:varchar(20);primaryKey;index"`
}

func (g BookGenre) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(g.Genre))
}

// BookSummary is the slice of a book embedded in review payloads.
type BookSummary struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	CoverImage    string    `json:"coverImage"`
	AverageRating float64   `json:"averageRating"`
}

func (BookSummary) TableName() string {
	return "books"
}

func (b *Book) GenreList() []Genre {
	genres := make([]Genre, 0, len(b.Genres))
	for _, g := range b.Genres {
		genres = append(genres, g.Genre)
	}
	return genres
}

func (b *Book) SetGenres(genres []Genre) {
	seen := make(map[Genre]bool, len(genres))
	b.Genres = b.Genres[:0]
	for _, g := range genres {
		if seen[g] {
			continue
		}
		seen[g] = true
		b.Genres = append(b.Genres, BookGenre{BookID: b.ID, Genre: g})
	}
}
