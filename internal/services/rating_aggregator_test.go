// internal/services/rating_aggregator_test.go
package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readsphere/readsphere-api/internal/events"
	"github.com/readsphere/readsphere-api/internal/models"
	"github.com/readsphere/readsphere-api/internal/repo"
)

type fakeStats struct {
	average   float64
	count     int64
	userCount int64
	err       error
}

func (f *fakeStats) BookRatingStats(context.Context, uuid.UUID) (float64, int64, error) {
	return f.average, f.count, f.err
}

func (f *fakeStats) CountActiveByUser(context.Context, uuid.UUID) (int64, error) {
	return f.userCount, f.err
}

type fakeBookWriter struct {
	calls   int
	average float64
	count   int64
	err     error
}

func (f *fakeBookWriter) UpdateRatingStats(_ context.Context, _ uuid.UUID, average float64, count int64) error {
	f.calls++
	f.average = average
	f.count = count
	return f.err
}

type fakeUserWriter struct {
	calls int
	count int64
	err   error
}

func (f *fakeUserWriter) UpdateReviewCount(_ context.Context, _ uuid.UUID, count int64) error {
	f.calls++
	f.count = count
	return f.err
}

func newReview() *models.Review {
	return &models.Review{
		BaseModel: models.BaseModel{ID: uuid.New()},
		BookID:    uuid.New(),
		UserID:    uuid.New(),
		Rating:    4,
		Active:    true,
	}
}

func TestAggregatorRoundsAverageAndPublishes(t *testing.T) {
	stats := &fakeStats{average: 11.0 / 3.0, count: 3, userCount: 7}
	books := &fakeBookWriter{}
	users := &fakeUserWriter{}
	recorder := events.NewRecorder()

	review := newReview()
	NewRatingAggregator(stats, books, users, recorder).OnReviewWritten(context.Background(), review)

	assert.Equal(t, 3.7, books.average)
	assert.Equal(t, int64(3), books.count)
	assert.Equal(t, int64(7), users.count)

	published := recorder.OfType(events.EventBookRatingUpdated)
	require.Len(t, published, 1)
	assert.Equal(t, review.BookID.String(), published[0].Payload["book_id"])
	assert.Equal(t, 3.7, published[0].Payload["average_rating"])
}

func TestAggregatorResetsAverageWhenNoReviewsRemain(t *testing.T) {
	stats := &fakeStats{average: 0, count: 0}
	books := &fakeBookWriter{average: -1}
	users := &fakeUserWriter{}

	NewRatingAggregator(stats, books, users, nil).OnReviewWritten(context.Background(), newReview())

	assert.Equal(t, 1, books.calls)
	assert.Zero(t, books.average)
	assert.Zero(t, books.count)
}

func TestAggregatorSkipsMissingTargets(t *testing.T) {
	stats := &fakeStats{average: 4, count: 1, userCount: 1}
	books := &fakeBookWriter{err: repo.ErrBookNotFound}
	users := &fakeUserWriter{err: repo.ErrUserNotFound}
	recorder := events.NewRecorder()

	assert.NotPanics(t, func() {
		NewRatingAggregator(stats, books, users, recorder).OnReviewWritten(context.Background(), newReview())
	})
	assert.Equal(t, 1, books.calls)
	assert.Equal(t, 1, users.calls)
	assert.Empty(t, recorder.Events())
}

func TestAggregatorSurvivesReadFailure(t *testing.T) {
	stats := &fakeStats{err: errors.New("database is locked")}
	books := &fakeBookWriter{}
	users := &fakeUserWriter{}

	NewRatingAggregator(stats, books, users, nil).OnReviewWritten(context.Background(), newReview())

	assert.Zero(t, books.calls)
	assert.Zero(t, users.calls)
}

func TestRoundRating(t *testing.T) {
	assert.Equal(t, 4.5, RoundRating(4.46))
	assert.Equal(t, 3.3, RoundRating(10.0/3.0))
	assert.Equal(t, 5.0, RoundRating(5))
}
