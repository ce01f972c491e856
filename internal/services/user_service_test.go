// internal/services/user_service_test.go
package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/readsphere/readsphere-api/internal/models"
	"github.com/readsphere/readsphere-api/internal/repo"
	"github.com/readsphere/readsphere-api/internal/testutil"
	"github.com/readsphere/readsphere-api/internal/utils"
)

type UserServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	ctx     context.Context
	service *UserService
	reviews *ReviewService
	admin   *models.User
	reader  *models.User
}

func (s *UserServiceTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.ctx = context.Background()

	userRepo := repo.NewUserRepository(s.db)
	reviewRepo := repo.NewReviewRepository(s.db)
	bookRepo := repo.NewBookRepository(s.db)
	s.service = NewUserService(userRepo, reviewRepo)
	s.reviews = NewReviewService(reviewRepo, bookRepo, NewRatingAggregator(reviewRepo, bookRepo, userRepo, nil), nil)

	s.admin = testutil.CreateUser(s.T(), s.db, "Admin", true)
	s.reader = testutil.CreateUser(s.T(), s.db, "Reader", false)
}

func (s *UserServiceTestSuite) review(book *models.Book, rating int) *models.Review {
	review, err := s.reviews.CreateReview(s.ctx, s.reader.ID, &CreateReviewRequest{
		BookID:  book.ID.String(),
		Rating:  intPtr(rating),
		Comment: "Plenty to say about " + book.Title,
	})
	s.Require().NoError(err)
	return review
}

func (s *UserServiceTestSuite) TestStatsForUserWithoutReviews() {
	stats, err := s.service.GetStats(s.ctx, s.reader.ID)
	s.Require().NoError(err)

	s.Zero(stats.TotalReviews)
	s.Zero(stats.AverageRating)
	s.Equal(map[string]int64{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}, stats.RatingsDistribution)
	s.Empty(stats.TopGenres)
}

func (s *UserServiceTestSuite) TestStatsAggregateActiveReviews() {
	dune := testutil.CreateBook(s.T(), s.db, "Dune", s.admin.ID, models.GenreSciFi, models.GenreFiction)
	emma := testutil.CreateBook(s.T(), s.db, "Emma", s.admin.ID, models.GenreRomance, models.GenreFiction)
	solaris := testutil.CreateBook(s.T(), s.db, "Solaris", s.admin.ID, models.GenreSciFi)

	s.review(dune, 5)
	s.review(emma, 4)
	deleted := s.review(solaris, 1)
	s.Require().NoError(s.reviews.DeleteReview(s.ctx, s.reader.ID, deleted.ID))

	stats, err := s.service.GetStats(s.ctx, s.reader.ID)
	s.Require().NoError(err)

	s.Equal(int64(2), stats.TotalReviews)
	s.Equal(4.5, stats.AverageRating)
	s.Equal(int64(1), stats.RatingsDistribution["5"])
	s.Equal(int64(1), stats.RatingsDistribution["4"])
	s.Equal(int64(0), stats.RatingsDistribution["1"])
	s.Require().Len(stats.TopGenres, 3)
	s.Equal("Fiction", stats.TopGenres[0].Name)
	s.Equal(int64(2), stats.TopGenres[0].Count)
}

func (s *UserServiceTestSuite) TestProfileIncludesRecentReviews() {
	for _, title := range []string{"A", "B", "C", "D", "E", "F"} {
		s.review(testutil.CreateBook(s.T(), s.db, title, s.admin.ID), 3)
	}

	user, err := s.service.GetProfile(s.ctx, s.reader.ID)
	s.Require().NoError(err)
	s.Len(user.RecentReviews, ProfileRecentReviews)
	s.Require().NotNil(user.RecentReviews[0].Book)
	s.Equal(6, user.ReviewCount)
}

func (s *UserServiceTestSuite) TestUpdateProfileOnlyForSelf() {
	_, err := s.service.UpdateProfile(s.ctx, s.admin.ID, s.reader.ID, &UpdateProfileRequest{Name: strPtr("Hijacked")})
	s.Require().Error(err)
	s.Equal(http.StatusForbidden, utils.GetAppError(err).Status)

	user, err := s.service.UpdateProfile(s.ctx, s.reader.ID, s.reader.ID, &UpdateProfileRequest{
		Name:           strPtr(" Avid Reader "),
		Bio:            strPtr("Reads on the train"),
		FavoriteGenres: []string{"Mystery", "Fantasy"},
	})
	s.Require().NoError(err)
	s.Equal("Avid Reader", user.Name)
	s.Equal("Reads on the train", user.Bio)
	s.Equal(models.StringList{"Mystery", "Fantasy"}, user.FavoriteGenres)
}

func (s *UserServiceTestSuite) TestUpdateProfileValidation() {
	_, err := s.service.UpdateProfile(s.ctx, s.reader.ID, s.reader.ID, &UpdateProfileRequest{
		Name:           strPtr("X"),
		Avatar:         strPtr("not a url"),
		FavoriteGenres: []string{"Cooking"},
	})
	s.Require().Error(err)
	s.Len(utils.GetAppError(err).Details, 3)
}

func (s *UserServiceTestSuite) TestDeactivate() {
	other := testutil.CreateUser(s.T(), s.db, "Other", false)

	err := s.service.Deactivate(s.ctx, other.ID, false, s.reader.ID)
	s.Require().Error(err)
	s.Equal(http.StatusForbidden, utils.GetAppError(err).Status)

	s.Require().NoError(s.service.Deactivate(s.ctx, s.admin.ID, true, other.ID))
	s.Require().NoError(s.service.Deactivate(s.ctx, s.reader.ID, false, s.reader.ID))

	_, err = s.service.GetProfile(s.ctx, s.reader.ID)
	s.Equal(http.StatusNotFound, utils.GetAppError(err).Status)
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
