// internal/services/book_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/readsphere/readsphere-api/internal/i18n"
	"github.com/readsphere/readsphere-api/internal/models"
	"github.com/readsphere/readsphere-api/internal/repo"
	"github.com/readsphere/readsphere-api/internal/utils"
)

const (
	DefaultBookLimit   = 12
	MaxBookLimit       = 100
	BookDetailReviews  = 10
	DefaultReviewLimit = 10
	MaxReviewLimit     = 50
)

type BookService struct {
	books   *repo.BookRepository
	reviews *repo.ReviewRepository
}

// BookListQuery holds the raw catalog query string; every field is validated before use
type BookListQuery struct {
	Page      string `form:"page" validate:"omitempty,int_range=1:"`
	Limit     string `form:"limit" validate:"omitempty,int_range=1:100"`
	Search    string `form:"search" validate:"omitempty,max=100"`
	Genre     string `form:"genre" validate:"omitempty,genre"`
	SortBy    string `form:"sortBy" validate:"omitempty,sort_field"`
	SortOrder string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

type CreateBookRequest struct {
	Title         string   `json:"title" validate:"required,max=200"`
	Author        string   `json:"author" validate:"required,max=100"`
	Description   string   `json:"description" validate:"required,min=10,max=2000"`
	Genres        []string `json:"genres" validate:"required,min=1,dive,genre"`
	ISBN          string   `json:"isbn" validate:"omitempty,isbn"`
	Publisher     string   `json:"publisher" validate:"omitempty,max=100"`
	PublishedDate string   `json:"publishedDate" validate:"required"`
	PageCount     *int     `json:"pageCount" validate:"omitempty,min=1"`
	Language      string   `json:"language" validate:"omitempty,max=50"`
	CoverImage    string   `json:"coverImage" validate:"omitempty,max=500"`
	Tags          []string `json:"tags" validate:"omitempty,dive,max=50"`
}

type UpdateBookRequest struct {
	Title         *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Author        *string  `json:"author" validate:"omitempty,min=1,max=100"`
	Description   *string  `json:"description" validate:"omitempty,min=10,max=2000"`
	Genres        []string `json:"genres" validate:"omitempty,min=1,dive,genre"`
	ISBN          *string  `json:"isbn" validate:"omitempty,isbn"`
	Publisher     *string  `json:"publisher" validate:"omitempty,max=100"`
	PublishedDate *string  `json:"publishedDate"`
	PageCount     *int     `json:"pageCount" validate:"omitempty,min=1"`
	Language      *string  `json:"language" validate:"omitempty,max=50"`
	CoverImage    *string  `json:"coverImage" validate:"omitempty,max=500"`
	Tags          []string `json:"tags" validate:"omitempty,dive,max=50"`
}

func NewBookService(books *repo.BookRepository, reviews *repo.ReviewRepository) *BookService {
	return &BookService{
		books:   books,
		reviews: reviews,
	}
}

// ListBooks validates every query parameter, then returns one page of the active catalog
func (s *BookService) ListBooks(ctx context.Context, query BookListQuery) ([]models.Book, int64, utils.PaginationParams, error) {
	var details []utils.ValidationError
	if err := utils.ValidateStruct(&query); err != nil {
		details = utils.GetValidationErrors(err)
	}
	if len(details) > 0 {
		return nil, 0, utils.PaginationParams{}, utils.ValidationErr(details)
	}

	params, pageErrs := utils.ParsePageLimit(query.Page, query.Limit, DefaultBookLimit, MaxBookLimit)
	if len(pageErrs) > 0 {
		return nil, 0, params, utils.ValidationErr(pageErrs)
	}

	sortBy := query.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	sortOrder := query.SortOrder
	if sortOrder == "" {
		sortOrder = "desc"
	}

	books, total, err := s.books.List(ctx, repo.BookFilter{
		Search:    query.Search,
		Genre:     models.Genre(query.Genre),
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Offset:    params.Offset(),
		Limit:     params.Limit,
	})
	if err != nil {
		return nil, 0, params, utils.UnexpectedErr(err)
	}

	return books, total, params, nil
}

// GetBook returns an active book with its most recent active reviews
func (s *BookService) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book, err := s.books.GetActive(ctx, id)
	if err != nil {
		return nil, bookError(err)
	}

	reviews, err := s.reviews.FindActiveByBook(ctx, id, BookDetailReviews)
	if err != nil {
		return nil, utils.UnexpectedErr(fmt.Errorf("failed to load reviews: %w", err))
	}
	book.Reviews = reviews

	return book, nil
}

func (s *BookService) CreateBook(ctx context.Context, addedBy uuid.UUID, req *CreateBookRequest) (*models.Book, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	req.Description = strings.TrimSpace(req.Description)

	var details []utils.ValidationError
	if err := utils.ValidateStruct(req); err != nil {
		details = utils.GetValidationErrors(err)
	}
	publishedDate, dateErr := parsePublishedDate(req.PublishedDate)
	if dateErr != nil && req.PublishedDate != "" {
		details = append(details, *dateErr)
	}
	if len(details) > 0 {
		return nil, utils.ValidationErr(details)
	}

	exists, err := s.books.ExistsByTitleAndAuthor(ctx, req.Title, req.Author)
	if err != nil {
		return nil, utils.UnexpectedErr(err)
	}
	if exists {
		return nil, utils.ConflictErr(i18n.KeyBookExists)
	}

	book := &models.Book{
		Title:         req.Title,
		Author:        req.Author,
		Description:   req.Description,
		Publisher:     strings.TrimSpace(req.Publisher),
		PublishedDate: publishedDate,
		PageCount:     req.PageCount,
		Language:      req.Language,
		CoverImage:    req.CoverImage,
		Tags:          trimTags(req.Tags),
		Active:        true,
		AddedByID:     addedBy,
	}
	if req.ISBN != "" {
		isbn := req.ISBN
		book.ISBN = &isbn
	}
	if book.Language == "" {
		book.Language = "English"
	}
	if book.CoverImage == "" {
		book.CoverImage = models.DefaultCoverImage
	}
	book.SetGenres(toGenres(req.Genres))

	if err := s.books.Create(ctx, book); err != nil {
		return nil, bookError(err)
	}

	logrus.WithFields(logrus.Fields{"book_id": book.ID, "title": book.Title}).Info("Book created")
	return s.reload(ctx, book.ID)
}

func (s *BookService) UpdateBook(ctx context.Context, id uuid.UUID, req *UpdateBookRequest) (*models.Book, error) {
	var details []utils.ValidationError
	if err := utils.ValidateStruct(req); err != nil {
		details = utils.GetValidationErrors(err)
	}

	updates := make(map[string]interface{})
	if req.PublishedDate != nil {
		publishedDate, dateErr := parsePublishedDate(*req.PublishedDate)
		if dateErr != nil {
			details = append(details, *dateErr)
		} else {
			updates["published_date"] = publishedDate
		}
	}
	if len(details) > 0 {
		return nil, utils.ValidationErr(details)
	}

	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Author != nil {
		updates["author"] = strings.TrimSpace(*req.Author)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.ISBN != nil {
		updates["isbn"] = *req.ISBN
	}
	if req.Publisher != nil {
		updates["publisher"] = strings.TrimSpace(*req.Publisher)
	}
	if req.PageCount != nil {
		updates["page_count"] = *req.PageCount
	}
	if req.Language != nil {
		updates["language"] = *req.Language
	}
	if req.CoverImage != nil {
		updates["cover_image"] = *req.CoverImage
	}
	if req.Tags != nil {
		updates["tags"] = trimTags(req.Tags)
	}

	var genres []models.Genre
	if req.Genres != nil {
		genres = toGenres(req.Genres)
	}

	if err := s.books.Update(ctx, id, updates, genres); err != nil {
		return nil, bookError(err)
	}

	return s.reload(ctx, id)
}

func (s *BookService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	if err := s.books.SoftDelete(ctx, id); err != nil {
		return bookError(err)
	}
	logrus.WithField("book_id", id).Info("Book deleted")
	return nil
}

// ListBookReviews returns a page of a book's active reviews
func (s *BookService) ListBookReviews(ctx context.Context, id uuid.UUID, params utils.PaginationParams) ([]models.Review, int64, error) {
	if _, err := s.books.GetActive(ctx, id); err != nil {
		return nil, 0, bookError(err)
	}

	reviews, total, err := s.reviews.List(ctx, repo.ReviewFilter{
		BookID: &id,
		Offset: params.Offset(),
		Limit:  params.Limit,
	})
	if err != nil {
		return nil, 0, utils.UnexpectedErr(err)
	}
	return reviews, total, nil
}

// SetCoverImage points the book at an uploaded cover
func (s *BookService) SetCoverImage(ctx context.Context, id uuid.UUID, url string) (*models.Book, error) {
	if err := s.books.UpdateCoverImage(ctx, id, url); err != nil {
		return nil, bookError(err)
	}
	return s.reload(ctx, id)
}

func (s *BookService) reload(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book, err := s.books.GetActive(ctx, id)
	if err != nil {
		return nil, bookError(err)
	}
	return book, nil
}

// ActiveBook reports NotFound unless the book exists and is active
func (s *BookService) ActiveBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	return s.reload(ctx, id)
}

func bookError(err error) error {
	switch {
	case errors.Is(err, repo.ErrBookNotFound):
		return utils.NotFoundErr(i18n.KeyBookNotFound)
	case errors.Is(err, repo.ErrBookAlreadyExists):
		return utils.ConflictErr(i18n.KeyBookExists)
	default:
		return utils.UnexpectedErr(err)
	}
}

func parsePublishedDate(value string) (time.Time, *utils.ValidationError) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &utils.ValidationError{
		Field:   "publishedDate",
		Tag:     "iso8601",
		Message: "Valid published date is required",
	}
}

func toGenres(values []string) []models.Genre {
	genres := make([]models.Genre, 0, len(values))
	for _, v := range values {
		genres = append(genres, models.Genre(v))
	}
	return genres
}

func trimTags(tags []string) models.StringList {
	out := make(models.StringList, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
