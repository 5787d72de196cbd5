package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sportbook/sportbook-api/internal/config"
	"github.com/sportbook/sportbook-api/internal/domain/booking"
	"github.com/sportbook/sportbook-api/internal/domain/court"
	"github.com/sportbook/sportbook-api/internal/domain/payment"
	"github.com/sportbook/sportbook-api/internal/pkg/database"
	"github.com/sportbook/sportbook-api/internal/pkg/logger"
	"github.com/sportbook/sportbook-api/internal/pkg/mq"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Dur("interval", cfg.SweepInterval).
		Msg("Starting booking sweeper")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	events, err := mq.NewPublisher(cfg.AMQPURL, cfg.MQExchange)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
	}
	defer events.Close()

	courtRepo := court.NewRepository(db)
	paymentRepo := payment.NewRepository(db)
	bookingRepo := booking.NewRepository(db, courtRepo)

	// The sweeper never reserves, so it needs no payment provider
	bookingService := booking.NewService(bookingRepo, courtRepo, paymentRepo,
		nil, rdb, events, cfg.ReserveTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		cancel()
	}()

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	lastIdleLog := time.Time{}
	idleLogEvery := 30 * time.Minute

	// Run once at startup before settling into the tick cadence
	sweep(ctx, bookingService, &lastIdleLog, idleLogEvery)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("booking sweeper stopped")
			return
		case <-ticker.C:
		}

		sweep(ctx, bookingService, &lastIdleLog, idleLogEvery)
	}
}

func sweep(ctx context.Context, svc *booking.Service, lastIdleLog *time.Time, idleLogEvery time.Duration) {
	start := time.Now()

	count, err := svc.CompleteExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Completion sweep failed")
		return
	}

	if count == 0 {
		now := time.Now()
		if lastIdleLog.IsZero() || now.Sub(*lastIdleLog) >= idleLogEvery {
			log.Info().Msg("Idle: no confirmed bookings past their end time")
			*lastIdleLog = now
		}
		return
	}

	log.Info().
		Int("completed", count).
		Dur("took", time.Since(start)).
		Msg("Completion sweep finished")
}
