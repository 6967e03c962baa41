package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"medipredict-server/internal/config"
	"medipredict-server/internal/models"
	"medipredict-server/internal/notify"
	"medipredict-server/internal/prediction"
	"medipredict-server/internal/repository"
	"medipredict-server/internal/routes"
	"medipredict-server/internal/scheduling"
	"medipredict-server/internal/seed"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load environment variables; a missing .env is fine in production
	// where the environment is set by the platform.
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error loading config")
	}
	if cfg.Environment == "development" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	// Initialize database connection and migrate the schema
	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to database")
	}

	// Reconcile the permission catalog, roles and the bootstrap admin
	if err := seed.PermissionsAndRoles(db, seed.DefaultAdmin{
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	}, log); err != nil {
		log.Fatal().Err(err).Msg("error seeding permissions")
	}

	// Pick the mail transport: real SMTP when configured, log-only otherwise
	var mailer notify.Mailer
	if cfg.Mailer.Transport != "" {
		mailer = &notify.SMTPMailer{Addr: cfg.Mailer.Transport, From: cfg.Mailer.DefaultFrom}
	} else {
		mailer = &notify.LogMailer{Log: log}
		log.Warn().Msg("MAILER_TRANSPORT not set, emails go to the log only")
	}

	clock := scheduling.SystemClock()
	store := repository.NewAppointmentRepository(db)
	trigger := notify.NewEmailTrigger(db, mailer, log)
	schedSvc := scheduling.NewService(store, trigger, clock, log)
	predSvc := prediction.NewService(db, log)

	// Background reminder sweeper for the 1-day and 3-day emails
	reminder := notify.NewReminder(db, mailer, clock, cfg.ReminderInterval, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reminder.Run(ctx)

	// Initialize Gin router
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Set up routes - passing the wired services to let routes.go create the handlers
	routes.SetupRoutes(router, db, cfg, schedSvc, predSvc, reminder)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := router.Run(serverAddr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
