// internal/services/recommendation_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/readsphere/readsphere-api/internal/config"
	"github.com/readsphere/readsphere-api/internal/metrics"
)

const (
	DefaultUserRecommendations    = 10
	DefaultSimilarRecommendations = 5
	MaxRecommendations            = 50

	recommenderBreaker = "recommender"
)

// Recommendation is one entry returned by the external recommender.
// Score is set for user recommendations, SimilarityScore for similar books.
type Recommendation struct {
	BookID          json.RawMessage `json:"book_id"`
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	Genre           string          `json:"genre"`
	Score           *float64        `json:"score,omitempty"`
	SimilarityScore *float64        `json:"similarity_score,omitempty"`
	Explanation     string          `json:"explanation"`
}

type RecommendationService struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[[]Recommendation]
}

func NewRecommendationService(cfg config.RecommenderConfig) *RecommendationService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(recommenderBreaker).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]Recommendation](gobreaker.Settings{
		Name:        recommenderBreaker,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})

	return &RecommendationService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		cb:      cb,
	}
}

// Enabled reports whether a recommender URL is configured
func (s *RecommendationService) Enabled() bool {
	return s.baseURL != ""
}

// ForUser returns personalized recommendations, or an empty list when the recommender is unavailable
func (s *RecommendationService) ForUser(ctx context.Context, userID uuid.UUID, limit int) []Recommendation {
	return s.fetch(ctx, "/recommendations/user/"+userID.String(), limit)
}

// SimilarBooks returns books similar to bookID, or an empty list when the recommender is unavailable
func (s *RecommendationService) SimilarBooks(ctx context.Context, bookID uuid.UUID, limit int) []Recommendation {
	return s.fetch(ctx, "/recommendations/similar/"+bookID.String(), limit)
}

func (s *RecommendationService) fetch(ctx context.Context, path string, limit int) []Recommendation {
	if !s.Enabled() {
		metrics.RecommenderRequests.WithLabelValues("disabled").Inc()
		return []Recommendation{}
	}

	recs, err := s.cb.Execute(func() ([]Recommendation, error) {
		return s.get(ctx, path, limit)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecommenderRequests.WithLabelValues("open").Inc()
		} else {
			metrics.RecommenderRequests.WithLabelValues("error").Inc()
			logrus.WithError(err).WithField("path", path).Warn("Recommender request failed")
		}
		return []Recommendation{}
	}

	metrics.RecommenderRequests.WithLabelValues("success").Inc()
	if recs == nil {
		return []Recommendation{}
	}
	return recs
}

func (s *RecommendationService) get(ctx context.Context, path string, limit int) ([]Recommendation, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recommender unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("recommender returned status %d", resp.StatusCode)
	}

	var recs []Recommendation
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		return nil, fmt.Errorf("failed to decode recommendations: %w", err)
	}

	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
