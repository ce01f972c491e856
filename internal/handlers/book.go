// internal/handlers/book.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/readsphere/readsphere-api/internal/i18n"
	"github.com/readsphere/readsphere-api/internal/services"
	"github.com/readsphere/readsphere-api/internal/utils"
)

type BookHandler struct {
	bookService    *services.BookService
	storageService *services.StorageService
}

func NewBookHandler(bookService *services.BookService, storageService *services.StorageService) *BookHandler {
	return &BookHandler{
		bookService:    bookService,
		storageService: storageService,
	}
}

// GET /api/books
func (h *BookHandler) ListBooks(c *gin.Context) {
	var query services.BookListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.HandleError(c, utils.BadRequestErr(i18n.KeyValidationBody))
		return
	}

	books, total, params, err := h.bookService.ListBooks(c.Request.Context(), query)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, "books", books, total, params)
}

// GET /api/books/:id
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := paramID(c, "book")
	if !ok {
		return
	}

	book, err := h.bookService.GetBook(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"book": book})
}

// POST /api/books
func (h *BookHandler) CreateBook(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateBookRequest
	if !bindJSON(c, &req) {
		return
	}

	book, err := h.bookService.CreateBook(c.Request.Context(), userID, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.KeyBookCreated, gin.H{"book": book})
}

// PUT /api/books/:id
func (h *BookHandler) UpdateBook(c *gin.Context) {
	id, ok := paramID(c, "book")
	if !ok {
		return
	}

	var req services.UpdateBookRequest
	if !bindJSON(c, &req) {
		return
	}

	book, err := h.bookService.UpdateBook(c.Request.Context(), id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, i18n.KeyBookUpdated, gin.H{"book": book})
}

// DELETE /api/books/:id
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, ok := paramID(c, "book")
	if !ok {
		return
	}

	if err := h.bookService.DeleteBook(c.Request.Context(), id); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, i18n.KeyBookDeleted, nil)
}

// POST /api/books/:id/cover
func (h *BookHandler) UploadCover(c *gin.Context) {
	id, ok := paramID(c, "book")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	current, err := h.bookService.ActiveBook(ctx, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	header, err := c.FormFile("cover")
	if err != nil {
		utils.HandleError(c, utils.BadRequestErr(i18n.KeyFileRequired))
		return
	}

	file, err := header.Open()
	if err != nil {
		utils.HandleError(c, utils.BadRequestErr(i18n.KeyFileUploadFailed))
		return
	}
	defer file.Close()

	result, err := h.storageService.UploadCover(ctx, file, header.Filename, header.Size)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	book, err := h.bookService.SetCoverImage(ctx, id, result.URL)
	if err != nil {
		if delErr := h.storageService.DeleteCover(ctx, result.Key); delErr != nil {
			logrus.WithError(delErr).WithField("key", result.Key).Warn("Failed to remove orphaned cover")
		}
		utils.HandleError(c, err)
		return
	}

	if oldKey, ok := h.storageService.KeyFromURL(current.CoverImage); ok && oldKey != result.Key {
		if err := h.storageService.DeleteCover(ctx, oldKey); err != nil {
			logrus.WithError(err).WithField("key", oldKey).Warn("Failed to remove replaced cover")
		}
	}

	utils.MessageResponse(c, i18n.KeyBookCoverUpdated, gin.H{
		"book":   book,
		"upload": result,
	})
}

// GET /api/books/:id/reviews
func (h *BookHandler) ListBookReviews(c *gin.Context) {
	id, ok := paramID(c, "book")
	if !ok {
		return
	}

	params, err := utils.GetPaginationParams(c, services.DefaultReviewLimit, services.MaxReviewLimit)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	reviews, total, err := h.bookService.ListBookReviews(c.Request.Context(), id, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, "reviews", reviews, total, params)
}
