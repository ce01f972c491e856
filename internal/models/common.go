// internal/models/common.go
package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// StringList is a text[] column on postgres and a text column holding the
// same array literal on other dialects.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return pq.StringArray{}.Value()
	}
	return pq.StringArray(s).Value()
}

func (s *StringList) Scan(value interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(value); err != nil {
		return err
	}
	*s = StringList(arr)
	return nil
}

func (StringList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// Enums
type Genre string

const (
	GenreFiction    Genre = "Fiction"
	GenreNonFiction Genre = "Non-Fiction"
	GenreMystery    Genre = "Mystery"
	GenreRomance    Genre = "Romance"
	GenreSciFi      Genre = "Sci-Fi"
	GenreFantasy    Genre = "Fantasy"
	GenreBiography  Genre = "Biography"
	GenreHistory    Genre = "History"
	GenreSelfHelp   Genre = "Self-Help"
	GenreBusiness   Genre = "Business"
	GenreManga      Genre = "Manga"
	GenreComics     Genre = "Comics"
)

var Genres = []Genre{
	GenreFiction, GenreNonFiction, GenreMystery, GenreRomance,
	GenreSciFi, GenreFantasy, GenreBiography, GenreHistory,
	GenreSelfHelp, GenreBusiness, GenreManga, GenreComics,
}

func (g Genre) IsValid() bool {
	for _, genre := range Genres {
		if genre == g {
			return true
		}
	}
	return false
}
