package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/sportbook/sportbook-api/internal/config"
	"github.com/sportbook/sportbook-api/internal/domain/booking"
	"github.com/sportbook/sportbook-api/internal/domain/court"
	"github.com/sportbook/sportbook-api/internal/domain/payment"
	"github.com/sportbook/sportbook-api/internal/middleware"
	"github.com/sportbook/sportbook-api/internal/pkg/database"
	"github.com/sportbook/sportbook-api/internal/pkg/jwt"
	"github.com/sportbook/sportbook-api/internal/pkg/logger"
	"github.com/sportbook/sportbook-api/internal/pkg/mq"
	"github.com/sportbook/sportbook-api/internal/pkg/razorpay"
	pkgresponse "github.com/sportbook/sportbook-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting SportBook API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	events, err := mq.NewPublisher(cfg.AMQPURL, cfg.MQExchange)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
	}
	defer events.Close()

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	provider := razorpay.NewClient(razorpay.Config{
		KeyID:         cfg.RazorpayKeyID,
		KeySecret:     cfg.RazorpayKeySecret,
		WebhookSecret: cfg.RazorpayWebhookSecret,
	})

	// ---------- Repositories ----------
	courtRepo := court.NewRepository(db)
	paymentRepo := payment.NewRepository(db)
	bookingRepo := booking.NewRepository(db, courtRepo)

	// ---------- Services ----------
	courtService := court.NewService(courtRepo)
	bookingService := booking.NewService(bookingRepo, courtRepo, paymentRepo,
		provider, redis, events, cfg.ReserveTimeout)

	// ---------- Handlers ----------
	courtHandler := court.NewHandler(courtService)
	bookingHandler := booking.NewHandler(bookingService)
	paymentHandler := payment.NewHandler(paymentRepo, bookingService,
		cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/courts", courtHandler.Routes(authMiddleware, bookingHandler.Availability))
		r.Mount("/venues", courtHandler.VenueRoutes())
		r.Mount("/bookings", bookingHandler.Routes(authMiddleware))
		r.Mount("/payments", paymentHandler.Routes(authMiddleware))
	})

	r.Mount("/webhooks", paymentHandler.WebhookRoutes())

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
