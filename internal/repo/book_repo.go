// internal/repo/book_repo.go
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/readsphere/readsphere-api/internal/models"
)

var (
	// ErrBookNotFound is returned when a book does not exist
	ErrBookNotFound = errors.New("book not found")

	// ErrBookAlreadyExists is returned when the title/author pair or ISBN is taken
	ErrBookAlreadyExists = errors.New("book already exists")
)

// BookFilter describes one page of the active catalog.
type BookFilter struct {
	Search    string
	Genre     models.Genre
	SortBy    string
	SortOrder string
	Offset    int
	Limit     int
}

// BookRepository handles catalog persistence
type BookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) *BookRepository {
	return &BookRepository{db: db}
}

// List returns the requested page of active books and the total match count
func (r *BookRepository) List(ctx context.Context, filter BookFilter) ([]models.Book, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	column, ok := models.BookSortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	books := []models.Book{}
	err := r.filtered(ctx, filter).
		Preload("Genres").
		Preload("AddedBy").
		Order(fmt.Sprintf("books.%s %s, books.id ASC", column, direction)).
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&books).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}

	return books, total, nil
}

func (r *BookRepository) filtered(ctx context.Context, filter BookFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Book{}).Where("books.active = ?", true)

	if filter.Genre != "" {
		query = query.Where(
			"EXISTS (SELECT 1 FROM book_genres WHERE book_genres.book_id = books.id AND book_genres.genre = ?)",
			filter.Genre,
		)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		if r.db.Dialector.Name() == "postgres" {
			query = query.Where(
				"(to_tsvector('english', books.title || ' ' || books.author || ' ' || books.description) @@ plainto_tsquery('english', ?)"+
					" OR EXISTS (SELECT 1 FROM unnest(books.tags) AS tag WHERE LOWER(tag) = LOWER(?)))",
				search, search,
			)
		} else {
			pattern := containsPattern(search)
			query = query.Where(
				`(LOWER(books.title) LIKE ? ESCAPE '\' OR LOWER(books.author) LIKE ? ESCAPE '\'`+
					` OR LOWER(books.description) LIKE ? ESCAPE '\' OR LOWER(books.tags) LIKE ? ESCAPE '\')`,
				pattern, pattern, pattern, pattern,
			)
		}
	}

	return query
}

// GetActive retrieves an active book with its genres and owner
func (r *BookRepository) GetActive(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).
		Preload("Genres").
		Preload("AddedBy").
		Where("id = ? AND active = ?", id, true).
		First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	return &book, nil
}

// ExistsByTitleAndAuthor reports whether any book, active or not, already uses the pair
func (r *BookRepository) ExistsByTitleAndAuthor(ctx context.Context, title, author string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("title = ? AND author = ?", title, author).
		Count(&count).Error
	return count > 0, err
}

func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrBookAlreadyExists
		}
		logrus.WithError(err).WithField("title", book.Title).Error("Failed to create book")
		return err
	}
	return nil
}

// Update applies column updates and, when genres is non-nil, replaces the genre set
func (r *BookRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}, genres []models.Genre) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Book{}).Where("id = ? AND active = ?", id, true).Updates(updates)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				return ErrBookAlreadyExists
			}
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBookNotFound
		}

		if genres == nil {
			return nil
		}

		if err := tx.Where("book_id = ?", id).Delete(&models.BookGenre{}).Error; err != nil {
			return err
		}

		book := models.Book{BaseModel: models.BaseModel{ID: id}}
		book.SetGenres(genres)
		if len(book.Genres) == 0 {
			return nil
		}
		return tx.Create(&book.Genres).Error
	})
}

// SoftDelete marks a book inactive
func (r *BookRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// UpdateRatingStats stores recomputed aggregates; it is the only writer of these columns
func (r *BookRepository) UpdateRatingStats(ctx context.Context, id uuid.UUID, averageRating float64, reviewCount int64) error {
	result := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"average_rating": averageRating,
			"review_count":   reviewCount,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (r *BookRepository) UpdateCoverImage(ctx context.Context, id uuid.UUID, url string) error {
	result := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ? AND active = ?", id, true).
		Update("cover_image", url)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}
