// internal/services/admin_service.go
package services

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/readsphere/readsphere-api/internal/i18n"
	"github.com/readsphere/readsphere-api/internal/models"
	"github.com/readsphere/readsphere-api/internal/repo"
	"github.com/readsphere/readsphere-api/internal/utils"
)

const (
	DefaultAdminLimit = 20
	MaxAdminLimit     = 100
)

type AdminService struct {
	admin *repo.AdminRepository
	now   func() time.Time
}

type AdminDashboardStats struct {
	TotalUsers        int64   `json:"totalUsers"`
	ActiveUsers       int64   `json:"activeUsers"`
	NewUsersThisMonth int64   `json:"newUsersThisMonth"`
	TotalBooks        int64   `json:"totalBooks"`
	TotalReviews      int64   `json:"totalReviews"`
	ReviewsThisMonth  int64   `json:"reviewsThisMonth"`
	AverageRating     float64 `json:"averageRating"`
	UserGrowth        float64 `json:"userGrowth"`
	ReviewGrowth      float64 `json:"reviewGrowth"`
	WritesLast24h     int64   `json:"writesLast24h"`
}

type AdminUserQuery struct {
	Page    string `form:"page" validate:"omitempty,int_range=1:"`
	Limit   string `form:"limit" validate:"omitempty,int_range=1:100"`
	Search  string `form:"search" validate:"omitempty,max=100"`
	Status  string `form:"status" validate:"omitempty,oneof=active inactive"`
	IsAdmin string `form:"isAdmin" validate:"omitempty,oneof=true false"`
}

type AuditLogQuery struct {
	Page         string `form:"page" validate:"omitempty,int_range=1:"`
	Limit        string `form:"limit" validate:"omitempty,int_range=1:100"`
	ResourceType string `form:"resourceType" validate:"omitempty,max=50"`
	UserID       string `form:"userId" validate:"omitempty,uuid"`
	Since        string `form:"since" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateUserStatusRequest struct {
	Active *bool  `json:"isActive" validate:"required"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

func NewAdminService(admin *repo.AdminRepository) *AdminService {
	return &AdminService{
		admin: admin,
		now:   time.Now,
	}
}

// GetDashboardStats summarizes the catalog for the admin dashboard
func (s *AdminService) GetDashboardStats(ctx context.Context) (*AdminDashboardStats, error) {
	counts, err := s.admin.DashboardCounts(ctx, s.now())
	if err != nil {
		return nil, utils.UnexpectedErr(err)
	}

	return &AdminDashboardStats{
		TotalUsers:        counts.TotalUsers,
		ActiveUsers:       counts.ActiveUsers,
		NewUsersThisMonth: counts.NewUsersThisMonth,
		TotalBooks:        counts.TotalBooks,
		TotalReviews:      counts.TotalReviews,
		ReviewsThisMonth:  counts.ReviewsThisMonth,
		AverageRating:     RoundRating(counts.AverageReview),
		UserGrowth:        growth(counts.NewUsersThisMonth, counts.NewUsersLastMonth),
		ReviewGrowth:      growth(counts.ReviewsThisMonth, counts.ReviewsLastMonth),
		WritesLast24h:     counts.AuditEntriesPerDay,
	}, nil
}

func (s *AdminService) ListUsers(ctx context.Context, query AdminUserQuery) ([]models.User, int64, utils.PaginationParams, error) {
	if err := utils.ValidateRequest(&query); err != nil {
		return nil, 0, utils.PaginationParams{}, err
	}

	params, pageErrs := utils.ParsePageLimit(query.Page, query.Limit, DefaultAdminLimit, MaxAdminLimit)
	if len(pageErrs) > 0 {
		return nil, 0, params, utils.ValidationErr(pageErrs)
	}

	filter := repo.UserFilter{
		Search: query.Search,
		Offset: params.Offset(),
		Limit:  params.Limit,
	}
	if query.Status != "" {
		active := query.Status == "active"
		filter.Active = &active
	}
	if query.IsAdmin != "" {
		isAdmin, _ := strconv.ParseBool(query.IsAdmin)
		filter.IsAdmin = &isAdmin
	}

	users, total, err := s.admin.ListUsers(ctx, filter)
	if err != nil {
		return nil, 0, params, utils.UnexpectedErr(err)
	}
	return users, total, params, nil
}

// UpdateUserStatus suspends or reactivates an account.
// Admins cannot change their own status or that of another admin.
func (s *AdminService) UpdateUserStatus(ctx context.Context, adminID, userID uuid.UUID, req *UpdateUserStatusRequest) (*models.User, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}
	if adminID == userID {
		return nil, utils.AuthorizationErr(i18n.KeyAdminSelfStatus)
	}

	user, err := s.admin.GetUser(ctx, userID)
	if err != nil {
		return nil, userError(err)
	}
	if user.IsAdmin {
		return nil, utils.AuthorizationErr(i18n.KeyAdminProtectedUser)
	}

	if user.Active != *req.Active {
		if err := s.admin.SetUserActive(ctx, userID, *req.Active); err != nil {
			return nil, userError(err)
		}
		user.Active = *req.Active

		logrus.WithFields(logrus.Fields{
			"admin_id": adminID,
			"user_id":  userID,
			"active":   user.Active,
			"reason":   req.Reason,
		}).Info("User status changed")
	}

	return user, nil
}

func (s *AdminService) ListAuditLogs(ctx context.Context, query AuditLogQuery) ([]models.AuditLog, int64, utils.PaginationParams, error) {
	if err := utils.ValidateRequest(&query); err != nil {
		return nil, 0, utils.PaginationParams{}, err
	}

	params, pageErrs := utils.ParsePageLimit(query.Page, query.Limit, DefaultAdminLimit, MaxAdminLimit)
	if len(pageErrs) > 0 {
		return nil, 0, params, utils.ValidationErr(pageErrs)
	}

	filter := repo.AuditLogFilter{
		ResourceType: query.ResourceType,
		Offset:       params.Offset(),
		Limit:        params.Limit,
	}
	if query.UserID != "" {
		id := uuid.MustParse(query.UserID)
		filter.UserID = &id
	}
	if query.Since != "" {
		since, _ := time.Parse("2006-01-02", query.Since)
		filter.Since = &since
	}

	logs, total, err := s.admin.ListAuditLogs(ctx, filter)
	if err != nil {
		return nil, 0, params, utils.UnexpectedErr(err)
	}
	return logs, total, params, nil
}

// growth is the percent change from previous to current, 0 without a baseline
func growth(current, previous int64) float64 {
	if previous == 0 {
		return 0
	}
	change := float64(current-previous) / float64(previous) * 100
	return math.Round(change*10) / 10
}
