package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/trailpeak/tours-api/internal/http/handlers"
	"github.com/trailpeak/tours-api/internal/mailer"
	"github.com/trailpeak/tours-api/internal/payments"
	"github.com/trailpeak/tours-api/internal/service"
	"github.com/trailpeak/tours-api/internal/store/postgres"
	"github.com/trailpeak/tours-api/pkg/config"
	"github.com/trailpeak/tours-api/pkg/database"
	"github.com/trailpeak/tours-api/pkg/events"
	"github.com/trailpeak/tours-api/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to event bus
	var bus events.Publisher = events.NoopPublisher{}
	if cfg.NATS.Enabled {
		natsBus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		bus = natsBus
	}
	defer bus.Close()

	// Redis backs the per-IP rate limiter
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// Initialize stores
	refs := postgres.NewRefChecker(pool)
	tourStore := postgres.NewTourStore(pool, refs)
	userStore := postgres.NewUserStore(pool)
	reviewStore := postgres.NewReviewStore(pool, refs)
	bookingStore := postgres.NewBookingStore(pool, refs)

	// Initialize services
	mail := newMailer(cfg)
	stripeClient := payments.NewClient(cfg.Stripe)

	authService := service.NewAuthService(userStore, mail, bus, cfg)
	tourService := service.NewTourService(tourStore, reviewStore, userStore, bus)
	userService := service.NewUserService(userStore)
	reviewService := service.NewReviewService(reviewStore, tourStore, bus)
	bookingService := service.NewBookingService(bookingStore, tourStore, userStore, stripeClient, bus, cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, cfg)
	r := handlers.NewRouter(handlers.RouterDeps{
		Tours:    handlers.NewTourHandler(tourService, cfg),
		Users:    handlers.NewUserHandler(userService, authHandler, cfg),
		Reviews:  handlers.NewReviewHandler(reviewService),
		Bookings: handlers.NewBookingHandler(bookingService),
		Resolver: authService,
		Redis:    rdb,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down tours API...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Tours API shutdown error", "error", err)
		}
	}()

	logger.Info("Starting tours API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Tours API server error", "error", err)
		os.Exit(1)
	}
}

func newMailer(cfg *config.Config) mailer.Service {
	switch {
	case cfg.Email.DevMode:
		return mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	default:
		return mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort,
			cfg.Email.SMTPFrom, cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS)
	}
}
