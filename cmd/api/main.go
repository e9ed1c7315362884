package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/treatwell/treatwell-api/internal/config"
	"github.com/treatwell/treatwell-api/internal/email"
	"github.com/treatwell/treatwell-api/internal/handler"
	appointmentHandler "github.com/treatwell/treatwell-api/internal/handler/appointment"
	healthDataHandler "github.com/treatwell/treatwell-api/internal/handler/healthdata"
	prescriptionHandler "github.com/treatwell/treatwell-api/internal/handler/prescription"
	"github.com/treatwell/treatwell-api/internal/middleware"
	"github.com/treatwell/treatwell-api/internal/repository/postgres"
	"github.com/treatwell/treatwell-api/internal/router"
	appointmentService "github.com/treatwell/treatwell-api/internal/service/appointment"
	eventService "github.com/treatwell/treatwell-api/internal/service/event"
	healthDataService "github.com/treatwell/treatwell-api/internal/service/healthdata"
	prescriptionService "github.com/treatwell/treatwell-api/internal/service/prescription"
	"github.com/treatwell/treatwell-api/pkg/auth"
	"github.com/treatwell/treatwell-api/pkg/metrics"
	"github.com/treatwell/treatwell-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	var encryptor security.Encryptor
	if cfg.Security.EncryptionKey != "" {
		encryptor, err = security.NewAESEncryptor([]byte(cfg.Security.EncryptionKey))
		if err != nil {
			log.Fatal().Err(err).Msg("invalid encryption key")
		}
	}

	// Repositories
	appointmentRepo := postgres.NewAppointmentRepository(db)
	prescriptionRepo := postgres.NewPrescriptionRepository(db)
	healthDataRepo := postgres.NewHealthDataRepository(db, encryptor)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	m := metrics.NewMetrics("treatwell")
	eventSvc := eventService.NewService(outboxRepo)
	emailSvc := email.NewGomailService(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	appointmentSvc := appointmentService.NewService(appointmentRepo, emailSvc, eventSvc, m)
	prescriptionSvc := prescriptionService.NewService(prescriptionRepo, appointmentRepo, eventSvc, m)
	healthDataSvc := healthDataService.NewService(healthDataRepo)

	// Handlers
	authMiddleware := middleware.NewAuthMiddleware(auth.NewJWTService(cfg.JWT.Secret))
	h := handler.NewHandler(db)

	r, err := router.NewRouter(
		authMiddleware,
		appointmentHandler.NewHandler(appointmentSvc),
		prescriptionHandler.NewHandler(prescriptionSvc),
		healthDataHandler.NewHandler(healthDataSvc),
		h,
		router.Config{
			RateLimit:      rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:      cfg.RateLimit.Burst,
			RequestTimeout: cfg.Server.RequestTimeout,
			CORS:           middleware.DefaultCORSConfig(),
			MetricsPrefix:  "treatwell_api",
		},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
