// internal/utils/pagination.go
package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type PaginationParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePageLimit validates raw page/limit strings; limit is rejected above maxLimit, not clamped
func ParsePageLimit(page, limit string, defaultLimit, maxLimit int) (PaginationParams, []ValidationError) {
	params := PaginationParams{Page: 1, Limit: defaultLimit}
	var errs []ValidationError

	if page != "" {
		if err := validate.Var(page, "int_range=1:"); err != nil {
			errs = append(errs, ValidationError{Field: "page", Tag: "int_range", Message: "Page must be a positive integer"})
		} else {
			params.Page, _ = strconv.Atoi(strings.TrimSpace(page))
		}
	}

	if limit != "" {
		if err := validate.Var(limit, fmt.Sprintf("int_range=1:%d", maxLimit)); err != nil {
			errs = append(errs, ValidationError{Field: "limit", Tag: "int_range", Message: fmt.Sprintf("Limit must be between 1 and %d", maxLimit)})
		} else {
			params.Limit, _ = strconv.Atoi(strings.TrimSpace(limit))
		}
	}

	return params, errs
}

// GetPaginationParams reads page/limit from the query string
func GetPaginationParams(c *gin.Context, defaultLimit, maxLimit int) (PaginationParams, error) {
	params, errs := ParsePageLimit(c.Query("page"), c.Query("limit"), defaultLimit, maxLimit)
	if len(errs) > 0 {
		return params, ValidationErr(errs)
	}
	return params, nil
}

type PaginationResult struct {
	CurrentPage int
	TotalPages  int
	Total       int64
	HasNextPage bool
	HasPrevPage bool
	Limit       int
}

func CreatePaginationResult(total int64, params PaginationParams) PaginationResult {
	totalPages := int(math.Ceil(float64(total) / float64(params.Limit)))

	return PaginationResult{
		CurrentPage: params.Page,
		TotalPages:  totalPages,
		Total:       total,
		HasNextPage: params.Page < totalPages,
		HasPrevPage: params.Page > 1,
		Limit:       params.Limit,
	}
}

// ToMap renders the envelope; the total is reported as total<Items>, e.g. totalBooks
func (r PaginationResult) ToMap(itemsKey string) gin.H {
	pagination := gin.H{
		"currentPage": r.CurrentPage,
		"totalPages":  r.TotalPages,
		"hasNextPage": r.HasNextPage,
		"hasPrevPage": r.HasPrevPage,
		"limit":       r.Limit,
	}
	pagination["total"+capitalize(itemsKey)] = r.Total
	return pagination
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.CurrentPage))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
