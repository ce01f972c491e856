// internal/services/admin_service_test.go
package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/readsphere/readsphere-api/internal/models"
	"github.com/readsphere/readsphere-api/internal/repo"
	"github.com/readsphere/readsphere-api/internal/testutil"
	"github.com/readsphere/readsphere-api/internal/utils"
)

type AdminServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	ctx     context.Context
	service *AdminService
	reviews *ReviewService
	admin   *models.User
	reader  *models.User
}

func (s *AdminServiceTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.ctx = context.Background()

	userRepo := repo.NewUserRepository(s.db)
	reviewRepo := repo.NewReviewRepository(s.db)
	bookRepo := repo.NewBookRepository(s.db)
	s.service = NewAdminService(repo.NewAdminRepository(s.db))
	s.reviews = NewReviewService(reviewRepo, bookRepo, NewRatingAggregator(reviewRepo, bookRepo, userRepo, nil), nil)

	s.admin = testutil.CreateUser(s.T(), s.db, "Admin", true)
	s.reader = testutil.CreateUser(s.T(), s.db, "Reader", false)
}

func (s *AdminServiceTestSuite) TestDashboardStats() {
	dune := testutil.CreateBook(s.T(), s.db, "Dune", s.admin.ID)
	emma := testutil.CreateBook(s.T(), s.db, "Emma", s.admin.ID)

	for _, tc := range []struct {
		book   *models.Book
		rating int
	}{{dune, 5}, {emma, 4}} {
		_, err := s.reviews.CreateReview(s.ctx, s.reader.ID, &CreateReviewRequest{
			BookID:  tc.book.ID.String(),
			Rating:  intPtr(tc.rating),
			Comment: "Worth every page of it.",
		})
		s.Require().NoError(err)
	}
	s.Require().NoError(s.db.Model(&models.User{}).Where("id = ?", s.reader.ID).Update("active", false).Error)

	stats, err := s.service.GetDashboardStats(s.ctx)
	s.Require().NoError(err)

	s.Equal(int64(2), stats.TotalUsers)
	s.Equal(int64(1), stats.ActiveUsers)
	s.Equal(int64(2), stats.NewUsersThisMonth)
	s.Equal(int64(2), stats.TotalBooks)
	s.Equal(int64(2), stats.TotalReviews)
	s.Equal(4.5, stats.AverageRating)
	s.Zero(stats.UserGrowth)
}

func (s *AdminServiceTestSuite) TestDashboardStatsOnEmptyCatalog() {
	s.service.now = func() time.Time { return time.Now().AddDate(1, 0, 0) }

	stats, err := s.service.GetDashboardStats(s.ctx)
	s.Require().NoError(err)
	s.Zero(stats.NewUsersThisMonth)
	s.Zero(stats.TotalReviews)
	s.Zero(stats.AverageRating)
}

func (s *AdminServiceTestSuite) TestListUsersFilters() {
	testutil.CreateUser(s.T(), s.db, "Margaret Atwood Fan", false)
	suspended := testutil.CreateUser(s.T(), s.db, "Suspended", false)
	s.Require().NoError(s.db.Model(&models.User{}).Where("id = ?", suspended.ID).Update("active", false).Error)

	users, total, params, err := s.service.ListUsers(s.ctx, AdminUserQuery{})
	s.Require().NoError(err)
	s.Equal(int64(4), total)
	s.Len(users, 4)
	s.Equal(DefaultAdminLimit, params.Limit)

	users, total, _, err = s.service.ListUsers(s.ctx, AdminUserQuery{Status: "inactive"})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(suspended.ID, users[0].ID)

	users, total, _, err = s.service.ListUsers(s.ctx, AdminUserQuery{Search: "atwood"})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal("Margaret Atwood Fan", users[0].Name)

	_, total, _, err = s.service.ListUsers(s.ctx, AdminUserQuery{IsAdmin: "true"})
	s.Require().NoError(err)
	s.Equal(int64(1), total)

	_, _, _, err = s.service.ListUsers(s.ctx, AdminUserQuery{Status: "banned", Limit: "500"})
	s.Require().Error(err)
	s.Len(utils.GetAppError(err).Details, 2)
}

func (s *AdminServiceTestSuite) TestListUsersSearchIsLiteral() {
	testutil.CreateUser(s.T(), s.db, "snake_case", false)
	testutil.CreateUser(s.T(), s.db, "snakeXcase", false)

	users, total, _, err := s.service.ListUsers(s.ctx, AdminUserQuery{Search: "e_c"})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal("snake_case", users[0].Name)

	_, total, _, err = s.service.ListUsers(s.ctx, AdminUserQuery{Search: "%"})
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *AdminServiceTestSuite) TestUpdateUserStatus() {
	user, err := s.service.UpdateUserStatus(s.ctx, s.admin.ID, s.reader.ID, &UpdateUserStatusRequest{
		Active: boolPtr(false),
		Reason: "spam reviews",
	})
	s.Require().NoError(err)
	s.False(user.Active)

	_, err = repo.NewUserRepository(s.db).GetActive(s.ctx, s.reader.ID)
	s.ErrorIs(err, repo.ErrUserNotFound)

	user, err = s.service.UpdateUserStatus(s.ctx, s.admin.ID, s.reader.ID, &UpdateUserStatusRequest{Active: boolPtr(true)})
	s.Require().NoError(err)
	s.True(user.Active)
}

func (s *AdminServiceTestSuite) TestUpdateUserStatusRules() {
	other := testutil.CreateUser(s.T(), s.db, "Other Admin", true)

	_, err := s.service.UpdateUserStatus(s.ctx, s.admin.ID, s.admin.ID, &UpdateUserStatusRequest{Active: boolPtr(false)})
	s.Equal(http.StatusForbidden, utils.GetAppError(err).Status)

	_, err = s.service.UpdateUserStatus(s.ctx, s.admin.ID, other.ID, &UpdateUserStatusRequest{Active: boolPtr(false)})
	s.Equal(http.StatusForbidden, utils.GetAppError(err).Status)

	_, err = s.service.UpdateUserStatus(s.ctx, s.admin.ID, s.reader.ID, &UpdateUserStatusRequest{})
	s.Equal(http.StatusBadRequest, utils.GetAppError(err).Status)

	_, err = s.service.UpdateUserStatus(s.ctx, s.admin.ID, uuid.New(), &UpdateUserStatusRequest{Active: boolPtr(false)})
	s.Equal(http.StatusNotFound, utils.GetAppError(err).Status)
}

func (s *AdminServiceTestSuite) TestListAuditLogs() {
	book := testutil.CreateBook(s.T(), s.db, "Dune", s.admin.ID)
	entries := []models.AuditLog{
		{UserID: &s.admin.ID, Action: "POST /api/books", ResourceType: "books", ResourceID: &book.ID, StatusCode: 201},
		{UserID: &s.reader.ID, Action: "POST /api/reviews", ResourceType: "reviews", StatusCode: 201},
		{UserID: &s.reader.ID, Action: "PUT /api/users/:id", ResourceType: "users", StatusCode: 200},
	}
	for i := range entries {
		s.Require().NoError(s.db.Create(&entries[i]).Error)
	}

	logs, total, _, err := s.service.ListAuditLogs(s.ctx, AuditLogQuery{})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Len(logs, 3)

	_, total, _, err = s.service.ListAuditLogs(s.ctx, AuditLogQuery{UserID: s.reader.ID.String()})
	s.Require().NoError(err)
	s.Equal(int64(2), total)

	logs, _, _, err = s.service.ListAuditLogs(s.ctx, AuditLogQuery{ResourceType: "books"})
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.Equal(book.ID, *logs[0].ResourceID)

	_, total, _, err = s.service.ListAuditLogs(s.ctx, AuditLogQuery{Since: time.Now().AddDate(0, 0, 2).Format("2006-01-02")})
	s.Require().NoError(err)
	s.Zero(total)

	_, _, _, err = s.service.ListAuditLogs(s.ctx, AuditLogQuery{UserID: "nope", Since: "yesterday"})
	s.Require().Error(err)
	s.Len(utils.GetAppError(err).Details, 2)
}

func TestGrowth(t *testing.T) {
	cases := []struct {
		current, previous int64
		want              float64
	}{
		{10, 0, 0},
		{15, 10, 50},
		{5, 10, -50},
		{4, 3, 33.3},
	}
	for _, tc := range cases {
		if got := growth(tc.current, tc.previous); got != tc.want {
			t.Errorf("growth(%d, %d) = %v, want %v", tc.current, tc.previous, got, tc.want)
		}
	}
}

func boolPtr(v bool) *bool { return &v }

func TestAdminServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AdminServiceTestSuite))
}
