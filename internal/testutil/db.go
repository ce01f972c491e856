// internal/testutil/db.go
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/readsphere/readsphere-api/internal/config"
	"github.com/readsphere/readsphere-api/internal/database"
	"github.com/readsphere/readsphere-api/internal/models"
)

// NewDB opens a private in-memory sqlite database with the production schema.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	models.PasswordCost = bcrypt.MinCost

	db, err := database.Initialize(config.DatabaseConfig{
		Driver:       "sqlite",
		SQLitePath:   "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	t.Cleanup(func() { database.Close(db) })
	return db
}

// CreateUser inserts an active user with password "password123".
func CreateUser(t testing.TB, db *gorm.DB, name string, isAdmin bool) *models.User {
	t.Helper()

	user := &models.User{
		Name:    name,
		Email:   uuid.NewString()[:8] + "@example.com",
		Avatar:  models.DefaultAvatar,
		IsAdmin: isAdmin,
		Active:  true,
	}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateBook inserts an active book with the given genres.
func CreateBook(t testing.TB, db *gorm.DB, title string, addedBy uuid.UUID, genres ...models.Genre) *models.Book {
	t.Helper()

	if len(genres) == 0 {
		genres = []models.Genre{models.GenreFiction}
	}

	book := &models.Book{
		Title:         title,
		Author:        "Author of " + title,
		Description:   "A description long enough for " + title,
		CoverImage:    models.DefaultCoverImage,
		PublishedDate: mustDate("2001-01-01"),
		Language:      "English",
		Active:        true,
		AddedByID:     addedBy,
	}
	book.SetGenres(genres)
	require.NoError(t, db.Create(book).Error)
	return book
}

func mustDate(value string) time.Time {
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return date
}
