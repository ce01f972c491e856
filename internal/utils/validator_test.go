// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogQuery struct {
	Page      string `form:"page" validate:"omitempty,int_range=1:"`
	Limit     string `form:"limit" validate:"omitempty,int_range=1:100"`
	Genre     string `form:"genre" validate:"omitempty,genre"`
	SortBy    string `form:"sortBy" validate:"omitempty,sort_field"`
	SortOrder string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

type bookPayload struct {
	Title  string   `json:"title" validate:"required,max=200"`
	ISBN   string   `json:"isbn" validate:"omitempty,isbn"`
	Genres []string `json:"genres" validate:"required,min=1,dive,genre"`
}

func fieldsOf(details []ValidationError) []string {
	fields := make([]string, 0, len(details))
	for _, d := range details {
		fields = append(fields, d.Field)
	}
	return fields
}

func TestValidateRequestReportsEveryInvalidField(t *testing.T) {
	err := ValidateRequest(&catalogQuery{
		Page:      "0",
		Limit:     "500",
		Genre:     "Poetry",
		SortBy:    "price",
		SortOrder: "sideways",
	})
	require.Error(t, err)

	appErr := GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, CodeValidation, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
	assert.ElementsMatch(t, []string{"page", "limit", "genre", "sortBy", "sortOrder"}, fieldsOf(appErr.Details))
}

func TestValidateRequestAcceptsValidQuery(t *testing.T) {
	err := ValidateRequest(&catalogQuery{
		Page:      "2",
		Limit:     "100",
		Genre:     "Sci-Fi",
		SortBy:    "averageRating",
		SortOrder: "asc",
	})
	assert.NoError(t, err)
}

func TestValidationMessages(t *testing.T) {
	err := ValidateRequest(&catalogQuery{Page: "abc", Limit: "0"})
	require.Error(t, err)

	messages := map[string]string{}
	for _, d := range GetAppError(err).Details {
		messages[d.Field] = d.Message
	}
	assert.Equal(t, "page must be a positive integer", messages["page"])
	assert.Equal(t, "limit must be between 1 and 100", messages["limit"])
}

func TestISBNAndGenreRules(t *testing.T) {
	tests := []struct {
		name    string
		payload bookPayload
		fields  []string
	}{
		{"valid isbn10", bookPayload{Title: "Dune", ISBN: "044100590X", Genres: []string{"Sci-Fi"}}, nil},
		{"valid isbn13", bookPayload{Title: "Dune", ISBN: "9780441172719", Genres: []string{"Sci-Fi"}}, nil},
		{"short isbn", bookPayload{Title: "Dune", ISBN: "12345", Genres: []string{"Sci-Fi"}}, []string{"isbn"}},
		{"unknown genre", bookPayload{Title: "Dune", Genres: []string{"Sci-Fi", "Space Opera"}}, []string{"genres[1]"}},
		{"no genres", bookPayload{Title: "Dune", Genres: []string{}}, []string{"genres"}},
		{"missing title", bookPayload{Genres: []string{"Fiction"}}, []string{"title"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(&tt.payload)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ElementsMatch(t, tt.fields, fieldsOf(GetAppError(err).Details))
		})
	}
}
