// internal/repo/admin_repo.go
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/readsphere/readsphere-api/internal/models"
)

// DashboardCounts are the raw counters behind the admin dashboard.
type DashboardCounts struct {
	TotalUsers         int64
	ActiveUsers        int64
	NewUsersThisMonth  int64
	NewUsersLastMonth  int64
	TotalBooks         int64
	TotalReviews       int64
	ReviewsThisMonth   int64
	ReviewsLastMonth   int64
	AverageReview      float64
	AuditEntriesPerDay int64
}

// UserFilter describes one page of the admin user listing.
// Active nil lists both active and deactivated accounts.
type UserFilter struct {
	Search  string
	Active  *bool
	IsAdmin *bool
	Offset  int
	Limit   int
}

// AuditLogFilter describes one page of the audit trail.
type AuditLogFilter struct {
	ResourceType string
	UserID       *uuid.UUID
	Since        *time.Time
	Offset       int
	Limit        int
}

// AdminRepository runs the cross-table queries used by catalog managers
type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// DashboardCounts gathers the counters; month boundaries come from now
func (r *AdminRepository) DashboardCounts(ctx context.Context, now time.Time) (*DashboardCounts, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)
	db := r.db.WithContext(ctx)

	counts := &DashboardCounts{}
	steps := []struct {
		name  string
		query *gorm.DB
		dest  *int64
	}{
		{"users", db.Model(&models.User{}), &counts.TotalUsers},
		{"active users", db.Model(&models.User{}).Where("active = ?", true), &counts.ActiveUsers},
		{"new users", db.Model(&models.User{}).Where("created_at >= ?", monthStart), &counts.NewUsersThisMonth},
		{"last month users", db.Model(&models.User{}).
			Where("created_at >= ? AND created_at < ?", lastMonthStart, monthStart), &counts.NewUsersLastMonth},
		{"books", db.Model(&models.Book{}).Where("active = ?", true), &counts.TotalBooks},
		{"reviews", db.Model(&models.Review{}).Where("active = ?", true), &counts.TotalReviews},
		{"new reviews", db.Model(&models.Review{}).
			Where("active = ? AND created_at >= ?", true, monthStart), &counts.ReviewsThisMonth},
		{"last month reviews", db.Model(&models.Review{}).
			Where("active = ? AND created_at >= ? AND created_at < ?", true, lastMonthStart, monthStart), &counts.ReviewsLastMonth},
		{"audit entries", db.Model(&models.AuditLog{}).
			Where("created_at >= ?", now.Add(-24*time.Hour)), &counts.AuditEntriesPerDay},
	}
	for _, step := range steps {
		if err := step.query.Count(step.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", step.name, err)
		}
	}

	var avg struct{ Average float64 }
	err := db.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average").
		Where("active = ?", true).
		Scan(&avg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to average ratings: %w", err)
	}
	counts.AverageReview = avg.Average

	return counts, nil
}

// ListUsers returns one page of accounts, including deactivated ones
func (r *AdminRepository) ListUsers(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	var total int64
	if err := r.users(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	users := []models.User{}
	err := r.users(ctx, filter).
		Order("created_at DESC, id ASC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

func (r *AdminRepository) users(ctx context.Context, filter UserFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.IsAdmin != nil {
		query = query.Where("is_admin = ?", *filter.IsAdmin)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := containsPattern(search)
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	return query
}

// GetUser loads an account regardless of its active flag
func (r *AdminRepository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *AdminRepository) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListAuditLogs returns the newest audit entries first
func (r *AdminRepository) ListAuditLogs(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	var total int64
	if err := r.auditLogs(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	logs := []models.AuditLog{}
	err := r.auditLogs(ctx, filter).
		Order("created_at DESC, id ASC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	return logs, total, nil
}

func (r *AdminRepository) auditLogs(ctx context.Context, filter AuditLogFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})

	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}

	return query
}
