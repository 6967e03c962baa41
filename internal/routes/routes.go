package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medipredict-server/internal/config"
	"medipredict-server/internal/handlers"
	"medipredict-server/internal/middleware"
	"medipredict-server/internal/models"
	"medipredict-server/internal/notify"
	"medipredict-server/internal/prediction"
	"medipredict-server/internal/scheduling"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config,
	schedSvc *scheduling.Service, predSvc *prediction.Service, reminder *notify.Reminder) {

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	doctorHandler := handlers.NewDoctorHandler(db, schedSvc)
	appointmentHandler := handlers.NewAppointmentHandler(db, schedSvc)
	consultationHandler := handlers.NewConsultationHandler(db, schedSvc)
	predictionHandler := handlers.NewPredictionHandler(predSvc)
	historyHandler := handlers.NewMedicalHistoryHandler(db)
	notificationHandler := handlers.NewNotificationHandler(db, reminder)

	perms := middleware.NewPermissionChecker(db)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg)) // Apply JWT authentication middleware
	{
		// Auth related (profile, logout)
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// User management routes (admin-only except the patient roster)
		userRoutes := private.Group("/users")
		{
			// Patient roster for consultation lookups, doctors and admins only
			userRoutes.GET("/patients", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), userHandler.GetPatients)

			adminRoutes := userRoutes.Group("")
			adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin)) // Only Admins
			{
				adminRoutes.POST("", userHandler.CreateUser)
				adminRoutes.GET("", userHandler.GetUsers)
				adminRoutes.GET("/:id", userHandler.GetUserByID)
				adminRoutes.PUT("/:id", userHandler.UpdateUser)
				adminRoutes.DELETE("/:id", userHandler.DeactivateUser)
			}
		}

		// Doctor directory and availability
		doctorRoutes := private.Group("/doctors")
		{
			doctorRoutes.GET("", perms.RequirePermission("ViewDoctors"), doctorHandler.ListDoctors)
			doctorRoutes.GET("/:id", perms.RequirePermission("ViewDoctors"), doctorHandler.GetDoctor)
			doctorRoutes.GET("/:id/available-slots", perms.RequirePermission("ViewDoctors"), doctorHandler.GetAvailableSlots)
			doctorRoutes.PUT("/availability", middleware.RoleAuthMiddleware(models.RoleDoctor), doctorHandler.UpdateAvailability)
			doctorRoutes.POST("/:id/verify", perms.RequirePermission("VerifyDoctor"), doctorHandler.VerifyDoctor)
		}

		// Appointment lifecycle
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", perms.RequirePermission("CreateAppointment"), appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", perms.RequirePermission("ViewOwnAppointments"), appointmentHandler.GetAppointmentsForUser)
			appointmentRoutes.GET("/:id", perms.RequirePermission("ViewOwnAppointments"), appointmentHandler.GetAppointment)
			appointmentRoutes.PUT("/:id/cancel", perms.RequirePermission("CancelAppointment"), appointmentHandler.CancelAppointment)
			appointmentRoutes.PUT("/:id/reschedule", perms.RequirePermission("RescheduleAppointment"), appointmentHandler.RescheduleAppointment)
			appointmentRoutes.PUT("/:id/confirm", perms.RequirePermission("ConfirmAppointment"), appointmentHandler.ConfirmAppointment)
			appointmentRoutes.GET("/:id/consultation", perms.RequirePermission("ViewConsultations"), consultationHandler.GetConsultationByAppointment)
		}

		// Consultation records and reports
		consultationRoutes := private.Group("/consultations")
		{
			consultationRoutes.POST("", perms.RequirePermission("CreateConsultation"), consultationHandler.CreateConsultation)
			consultationRoutes.GET("", perms.RequirePermission("ViewConsultations"), consultationHandler.ListConsultations)
			consultationRoutes.GET("/:id", perms.RequirePermission("ViewConsultations"), consultationHandler.GetConsultation)
			consultationRoutes.GET("/:id/report", perms.RequirePermission("ViewConsultations"), consultationHandler.DownloadReport)
		}

		// Symptom analysis
		private.GET("/symptoms", perms.RequirePermission("ViewSymptoms"), predictionHandler.ListSymptoms)
		predictionRoutes := private.Group("/predictions")
		{
			predictionRoutes.POST("", perms.RequirePermission("CreatePrediction"), predictionHandler.CreatePrediction)
			predictionRoutes.GET("/history", perms.RequirePermission("ViewPredictions"), predictionHandler.GetSymptomHistory)
		}

		// Medical history aggregation
		historyRoutes := private.Group("/medical-history")
		{
			historyRoutes.GET("/:userId", perms.RequirePermission("ViewConsultations"), historyHandler.GetMedicalHistory)
			historyRoutes.PUT("/:userId", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), historyHandler.UpdateMedicalHistory)
		}

		// Notification log (admin)
		notificationRoutes := private.Group("/notifications")
		notificationRoutes.Use(perms.RequirePermission("ManageNotifications"))
		{
			notificationRoutes.GET("", notificationHandler.ListNotifications)
			notificationRoutes.POST("/retry", notificationHandler.RetryFailed)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
