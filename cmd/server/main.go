// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hanabira-dev/rikka-server/internal/auth"
	"github.com/hanabira-dev/rikka-server/internal/database"
	"github.com/hanabira-dev/rikka-server/internal/handlers"
	"github.com/hanabira-dev/rikka-server/internal/middleware"
	"github.com/hanabira-dev/rikka-server/internal/recorder"
	"github.com/hanabira-dev/rikka-server/internal/session"
)

func main() {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	if err := auth.Init(); err != nil {
		logger.WithError(err).Fatal("failed to initialize session keys")
	}

	ctx := context.Background()

	// Postgres and Redis are optional: without them matches simply go
	// unrecorded and every identity is a guest.
	var pool *pgxpool.Pool
	if os.Getenv("DATABASE_URL") != "" || os.Getenv("PG_HOST") != "" {
		p, err := database.Connect(ctx)
		if err != nil {
			logger.WithError(err).Warn("postgres unavailable, match history disabled")
		} else {
			pool = p
			defer pool.Close()
		}
	}

	var rdb *redis.Client
	if os.Getenv("REDIS_ADDR") != "" {
		r, err := recorder.ConnectRedis(ctx)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, historian queue disabled")
		} else {
			rdb = r
			defer rdb.Close()
		}
	}

	grace := session.DefaultGrace
	if raw := os.Getenv("GRACE_PERIOD"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			grace = d
		} else {
			logger.WithError(err).Warn("invalid GRACE_PERIOD, using default")
		}
	}

	sessions := session.NewManager(grace, logger)
	rec := recorder.New(pool, rdb, logger)
	srv := handlers.NewServer(sessions, rec, pool, logger)

	if raw := os.Getenv("CLAIM_WINDOW"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			srv.Rooms.SetClaimWindow(d)
		} else {
			logger.WithError(err).Warn("invalid CLAIM_WINDOW, using default")
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", srv.HealthHandler())
	mux.Handle("/rooms", middleware.LogMiddleware(logger)(srv.RoomsHandler()))
	mux.Handle("/user/create", middleware.LogMiddleware(logger)(srv.RegisterHandler()))
	mux.Handle("/user/login", middleware.LogMiddleware(logger)(srv.LoginHandler()))
	mux.Handle("/ws", middleware.LogMiddleware(logger)(srv.WSHandler()))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
}
