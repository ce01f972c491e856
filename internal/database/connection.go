// internal/database/connection.go
package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/readsphere/readsphere-api/internal/config"
	"github.com/readsphere/readsphere-api/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(parseLogLevel(cfg.LogLevel)),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	// Connect to database
	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithField("driver", db.Dialector.Name()).Info("Database connection established successfully")
	return db, nil
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed successfully")
	}
}

func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.BookGenre{},
		&models.Review{},
		&models.ReviewVote{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	// One active review per (user, book); a soft-deleted review frees the pair.
	required := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_active_user_book ON reviews(user_id, book_id) WHERE active",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_books_title_author ON books(title, author)",
	}

	for _, index := range required {
		if err := db.Exec(index).Error; err != nil {
			return err
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_books_average_rating ON books(average_rating DESC)",
		"CREATE INDEX IF NOT EXISTS idx_books_created_at ON books(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_book_created ON reviews(book_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_user_created ON reviews(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
	}

	if db.Dialector.Name() == "postgres" {
		indexes = append(indexes,
			// Full-text search indexes
			"CREATE INDEX IF NOT EXISTS idx_books_search ON books USING GIN(to_tsvector('english', title || ' ' || author || ' ' || description))",
			"CREATE INDEX IF NOT EXISTS idx_books_tags ON books USING GIN(tags)",
		)
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Continue with other indexes instead of failing completely
			logrus.WithError(err).Warnf("Failed to create index: %s", index)
		}
	}

	return nil
}

// SeedInitialData creates the catalog manager account when it does not exist yet.
func SeedInitialData(db *gorm.DB, cfg config.AdminConfig) error {
	logrus.Info("Seeding initial data...")

	var existing models.User
	err := db.Where("email = ?", strings.ToLower(cfg.Email)).First(&existing).Error
	if err == nil {
		logrus.Info("Admin user already present, skipping seed")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	admin := &models.User{
		Name:    cfg.Name,
		Email:   strings.ToLower(cfg.Email),
		Avatar:  models.DefaultAvatar,
		Bio:     "Platform administrator and book enthusiast",
		IsAdmin: true,
		Active:  true,
	}

	if err := admin.SetPassword(cfg.Password); err != nil {
		return fmt.Errorf("failed to set admin password: %w", err)
	}

	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logrus.WithField("email", admin.Email).Info("Default admin user created successfully")
	return nil
}
