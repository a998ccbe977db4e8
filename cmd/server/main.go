package main

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"meetman/internal/auth"
	"meetman/internal/database"
	"meetman/internal/handlers"
	"meetman/internal/logging"
	"meetman/internal/notifier"
	"meetman/internal/services"
)

func main() {
	// Load .env if present; real deployments use the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic(err)
	}

	logger := logging.New()

	// Initialize database
	if err := database.InitDB(); err != nil {
		logger.WithError(err).Fatal("failed to initialize database")
	}

	loc := time.Local
	if tz := os.Getenv("APP_TIMEZONE"); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			logger.WithError(err).Fatal("invalid APP_TIMEZONE")
		}
		loc = parsed
	}

	// Wire the notification engine around the WhatsApp gateway.
	gateway := services.NewWhatsAppService(logger)
	engine := notifier.New(database.GetDB(), gateway, logger, notifier.Options{
		Location:    loc,
		GroupNumber: gateway.GroupNumber(),
	})

	// Attachment storage is optional; the upload endpoints report 503
	// when Cloudinary is not configured.
	attachmentService, err := services.NewAttachmentService()
	if err != nil {
		logger.WithError(err).Warn("attachment storage disabled")
		attachmentService = nil
	}

	handlers.Init(
		logger,
		engine,
		services.NewEmailService(),
		attachmentService,
		services.NewSearchService(database.GetDB()),
	)

	// Start the recurring notification jobs.
	scheduler, err := engine.StartScheduler()
	if err != nil {
		logger.WithError(err).Fatal("failed to start notification scheduler")
	}
	defer scheduler.Stop()

	// Initialize Gin router
	router := gin.Default()

	// Configure trusted proxies
	router.SetTrustedProxies([]string{"127.0.0.1"})

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	// Basic routes
	router.GET("/", handlers.HomeHandler)
	router.GET("/health", handlers.HealthHandler)

	api := router.Group("/api")

	// Auth routes (no auth required)
	api.POST("/auth/login", handlers.Login)
	api.POST("/auth/reset-password", handlers.ResetPassword)

	// Public read-only routes
	api.GET("/dashboard/stats", handlers.DashboardStats)
	api.GET("/dashboard/upcoming-meetings", handlers.UpcomingMeetings)
	api.GET("/meetings", handlers.GetMeetings)
	api.GET("/meetings/search", handlers.SearchMeetings)
	api.GET("/meetings/:id", handlers.GetMeeting)
	api.GET("/participants", handlers.GetParticipants)
	api.GET("/participants/search", handlers.SearchParticipants)

	// Protected routes (auth required)
	protected := api.Group("")
	protected.Use(auth.AuthMiddleware())
	{
		protected.POST("/auth/logout", handlers.Logout)
		protected.GET("/auth/me", handlers.GetCurrentUser)
		protected.PUT("/auth/profile", handlers.UpdateProfile)
		protected.POST("/auth/change-password", handlers.ChangePassword)

		protected.POST("/meetings", handlers.CreateMeeting)
		protected.PUT("/meetings/:id", handlers.UpdateMeeting)
		protected.DELETE("/meetings/:id", handlers.DeleteMeeting)
		protected.POST("/meetings/:id/send-reminder", handlers.SendMeetingReminder)
		protected.POST("/meetings/:id/attachments", handlers.UploadAttachment)
		protected.DELETE("/meetings/:id/attachments/:attachmentId", handlers.DeleteAttachment)

		protected.POST("/participants", handlers.CreateParticipant)
		protected.POST("/participants/import", handlers.ImportParticipants)
		protected.GET("/participants/export", handlers.ExportParticipants)
		protected.GET("/participants/:id", handlers.GetParticipant)
		protected.PUT("/participants/:id", handlers.UpdateParticipant)
		protected.DELETE("/participants/:id", handlers.DeleteParticipant)

		protected.GET("/settings", handlers.GetSettings)
		protected.PUT("/settings", handlers.UpdateSettings)
		protected.POST("/settings/test-whatsapp", handlers.TestWhatsApp)
		protected.GET("/settings/preview-group-message", handlers.PreviewGroupMessage)
		protected.POST("/settings/send-test-group-message", handlers.SendTestGroupMessage)
		protected.POST("/settings/send-test-personal-message", handlers.SendTestPersonalMessage)

		protected.GET("/notifications", handlers.GetNotifications)

		// Admin-only operational surface
		admin := protected.Group("", auth.AdminMiddleware())
		admin.POST("/notifications/send-reminders", handlers.RunReminderSweep)
		admin.POST("/notifications/send-daily", handlers.RunDailyNotifications)
		admin.POST("/notifications/prune", handlers.PruneNotifications)
	}

	// Start the server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Infof("server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
}
