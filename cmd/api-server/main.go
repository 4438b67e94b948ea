package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/careslot/careslot/internal/api"
	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/availability"
	"github.com/careslot/careslot/internal/booking"
	"github.com/careslot/careslot/internal/config"
	"github.com/careslot/careslot/internal/db"
	"github.com/careslot/careslot/internal/directory"
	redisclient "github.com/careslot/careslot/internal/redis"
)

const version = "1.0"

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "api-server").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}

	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisPoolSize)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)

	directoryRepo := directory.NewPgRepository(pgPool)
	directorySvc := directory.NewService(directoryRepo, log)

	bookingRepo := booking.NewPgRepository(pgPool)
	availabilityRepo := availability.NewPgRepository(pgPool)
	availabilitySvc := availability.NewService(availabilityRepo, bookingRepo, log)

	bookingSvc := booking.NewService(bookingRepo, directorySvc, availabilitySvc, locker, log)

	router := api.NewRouter(api.RouterConfig{
		Booking:      bookingSvc,
		Availability: availabilitySvc,
		Directory:    directorySvc,
		Tokens:       tokens,
		Logger:       log,
		PgPool:       pgPool,
		Redis:        rdb,
		Env:          cfg.Env,
		Version:      version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}

	log.Info().Msg("api-server stopped")
}
