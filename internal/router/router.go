// internal/router/router.go
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/readsphere/readsphere-api/internal/config"
	"github.com/readsphere/readsphere-api/internal/database"
	"github.com/readsphere/readsphere-api/internal/events"
	"github.com/readsphere/readsphere-api/internal/handlers"
	"github.com/readsphere/readsphere-api/internal/i18n"
	"github.com/readsphere/readsphere-api/internal/middleware"
	"github.com/readsphere/readsphere-api/internal/repo"
	"github.com/readsphere/readsphere-api/internal/services"
	"github.com/readsphere/readsphere-api/internal/utils"
)

const Version = "1.0.0"

func Initialize(db *gorm.DB, cfg *config.Config, publisher events.Publisher) (*gin.Engine, error) {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}

	// Repositories
	userRepo := repo.NewUserRepository(db)
	bookRepo := repo.NewBookRepository(db)
	reviewRepo := repo.NewReviewRepository(db)
	adminRepo := repo.NewAdminRepository(db)

	// Services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	aggregator := services.NewRatingAggregator(reviewRepo, bookRepo, userRepo, publisher)

	authService := services.NewAuthService(userRepo, cfg)
	bookService := services.NewBookService(bookRepo, reviewRepo)
	reviewService := services.NewReviewService(reviewRepo, bookRepo, aggregator, publisher)
	userService := services.NewUserService(userRepo, reviewRepo)
	recommendationService := services.NewRecommendationService(cfg.Recommender)
	adminService := services.NewAdminService(adminRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	bookHandler := handlers.NewBookHandler(bookService, storageService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	userHandler := handlers.NewUserHandler(userService)
	recommendationHandler := handlers.NewRecommendationHandler(recommendationService)
	adminHandler := handlers.NewAdminHandler(adminService)

	utils.SetJWTSecret(cfg.JWT.SecretKey)
	utils.SetJWTIssuer(cfg.JWT.Issuer)

	limits := middleware.NewRateLimits(cfg.RateLimit)
	authRequired := middleware.AuthRequired(authService)
	optionalAuth := middleware.OptionalAuth(authService)
	adminRequired := middleware.AdminRequired()

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.Metrics())

	health := func(c *gin.Context) {
		status := gin.H{
			"status":   "healthy",
			"database": "ok",
			"events":   eventsStatus(publisher),
			"version":  Version,
		}
		if err := database.Ping(db); err != nil {
			logrus.WithError(err).Error("Health check failed")
			status["status"] = "unhealthy"
			status["database"] = "unreachable"
			status["message"] = i18n.T(utils.GetLangFromContext(c), i18n.KeyServiceUnavailable)
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		c.JSON(http.StatusOK, status)
	}
	r.GET("/health", health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if !storageService.UsesS3() {
		r.Static("/uploads", cfg.Storage.LocalDir)
	}

	api := r.Group("/api")
	api.Use(limits.General())
	api.GET("/health", health)
	api.Use(middleware.AuditLogMiddleware(db, cfg.Environment != "test"))
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", limits.Auth(), authHandler.Register)
			auth.POST("/login", limits.Auth(), authHandler.Login)
			auth.GET("/me", authRequired, authHandler.Me)
		}

		books := api.Group("/books")
		{
			books.GET("", bookHandler.ListBooks)
			books.GET("/:id", bookHandler.GetBook)
			books.GET("/:id/reviews", bookHandler.ListBookReviews)

			catalog := books.Group("")
			catalog.Use(authRequired, adminRequired)
			{
				catalog.POST("", bookHandler.CreateBook)
				catalog.PUT("/:id", bookHandler.UpdateBook)
				catalog.DELETE("/:id", bookHandler.DeleteBook)
				catalog.POST("/:id/cover", bookHandler.UploadCover)
			}
		}

		reviews := api.Group("/reviews")
		{
			reviews.GET("", reviewHandler.ListReviews)
			reviews.GET("/:id", reviewHandler.GetReview)

			protected := reviews.Group("")
			protected.Use(authRequired)
			{
				protected.POST("", reviewHandler.CreateReview)
				protected.PUT("/:id", reviewHandler.UpdateReview)
				protected.DELETE("/:id", reviewHandler.DeleteReview)
				protected.POST("/:id/helpful", reviewHandler.MarkHelpful)
			}
		}

		users := api.Group("/users")
		{
			users.GET("/:id", userHandler.GetUser)
			users.GET("/:id/reviews", userHandler.ListUserReviews)
			users.GET("/:id/stats", userHandler.GetUserStats)

			protected := users.Group("")
			protected.Use(authRequired)
			{
				protected.PUT("/:id", userHandler.UpdateUser)
				protected.DELETE("/:id", userHandler.DeleteUser)
			}
		}

		recommendations := api.Group("/recommendations")
		recommendations.Use(optionalAuth)
		{
			recommendations.GET("/user/:id", recommendationHandler.ForUser)
			recommendations.GET("/similar/:id", recommendationHandler.SimilarBooks)
		}

		admin := api.Group("/admin")
		admin.Use(authRequired, adminRequired)
		{
			admin.GET("/stats", adminHandler.GetDashboardStats)
			admin.GET("/users", adminHandler.GetUsers)
			admin.PUT("/users/:id/status", adminHandler.UpdateUserStatus)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
		}
	}

	return r, nil
}

// eventsStatus reports the domain event sink for the health check
func eventsStatus(publisher events.Publisher) string {
	checker, ok := publisher.(interface{ IsHealthy() bool })
	if !ok {
		return "disabled"
	}
	if checker.IsHealthy() {
		return "ok"
	}
	return "down"
}
