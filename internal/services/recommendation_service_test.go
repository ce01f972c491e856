// internal/services/recommendation_service_test.go
package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readsphere/readsphere-api/internal/config"
)

func TestRecommendationsForUser(t *testing.T) {
	userID := uuid.New()
	var gotPath, gotLimit string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"book_id": 12, "title": "Dune", "author": "Frank Herbert", "genre": "Sci-Fi", "score": 0.92, "explanation": "Because you liked Foundation"},
			{"book_id": 13, "title": "Hyperion", "author": "Dan Simmons", "genre": "Sci-Fi", "score": 0.81, "explanation": "Popular with similar readers"}
		]`))
	}))
	defer server.Close()

	svc := NewRecommendationService(config.RecommenderConfig{BaseURL: server.URL + "/", Timeout: time.Second})
	recs := svc.ForUser(context.Background(), userID, 10)

	assert.Equal(t, "/recommendations/user/"+userID.String(), gotPath)
	assert.Equal(t, "10", gotLimit)
	require.Len(t, recs, 2)
	assert.Equal(t, "Dune", recs[0].Title)
	assert.JSONEq(t, "12", string(recs[0].BookID))
	require.NotNil(t, recs[0].Score)
	assert.InDelta(t, 0.92, *recs[0].Score, 0.0001)
	assert.Nil(t, recs[0].SimilarityScore)
}

func TestSimilarBooksTruncatesToLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"book_id": "a", "title": "One", "similarity_score": 0.9},
			{"book_id": "b", "title": "Two", "similarity_score": 0.8},
			{"book_id": "c", "title": "Three", "similarity_score": 0.7}
		]`))
	}))
	defer server.Close()

	svc := NewRecommendationService(config.RecommenderConfig{BaseURL: server.URL, Timeout: time.Second})
	recs := svc.SimilarBooks(context.Background(), uuid.New(), 2)

	require.Len(t, recs, 2)
	require.NotNil(t, recs[1].SimilarityScore)
	assert.InDelta(t, 0.8, *recs[1].SimilarityScore, 0.0001)
}

func TestRecommendationsDisabled(t *testing.T) {
	svc := NewRecommendationService(config.RecommenderConfig{})

	assert.False(t, svc.Enabled())
	recs := svc.ForUser(context.Background(), uuid.New(), 10)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestRecommendationsDegradeOnUpstreamFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewRecommendationService(config.RecommenderConfig{BaseURL: server.URL, Timeout: time.Second})

	for i := 0; i < 8; i++ {
		recs := svc.ForUser(context.Background(), uuid.New(), 5)
		assert.NotNil(t, recs)
		assert.Empty(t, recs)
	}

	// the breaker opens after five consecutive failures and stops calling upstream
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestRecommendationsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	svc := NewRecommendationService(config.RecommenderConfig{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	recs := svc.SimilarBooks(context.Background(), uuid.New(), 5)

	assert.Empty(t, recs)
}
