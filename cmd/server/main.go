// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/memorama/internal/auth"
	"github.com/jason-s-yu/memorama/internal/cache"
	"github.com/jason-s-yu/memorama/internal/config"
	"github.com/jason-s-yu/memorama/internal/database"
	"github.com/jason-s-yu/memorama/internal/handlers"
	"github.com/jason-s-yu/memorama/internal/identity"
	"github.com/jason-s-yu/memorama/internal/lobby"
	"github.com/jason-s-yu/memorama/internal/notify"
	"github.com/jason-s-yu/memorama/internal/results"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
	}

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("database: %v", err)
		}
		defer pool.Close()
		logger.Info("connected to database")
	}

	resolver, err := buildIdentity(cfg, logger, pool, rdb)
	if err != nil {
		logger.Fatalf("identity: %v", err)
	}

	recorder, closeRecorder, err := buildRecorder(cfg, logger, rdb)
	if err != nil {
		logger.Fatalf("results: %v", err)
	}
	defer closeRecorder()

	registry := lobby.NewRegistry(
		lobby.WithLogger(logger),
		lobby.WithNotifier(notify.New(logger, cfg.BroadcastWorkers)),
		lobby.WithIdentity(resolver),
		lobby.WithRecorder(recorder),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handlers.NewMux(logger, registry, cfg.ClientBuffer),
	}

	go func() {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	registry.Close(shutdownCtx)
}

// buildIdentity wires token verification and display-name lookup. Without
// a database only guests can join.
func buildIdentity(cfg *config.Config, logger *logrus.Logger, pool *pgxpool.Pool, rdb *redis.Client) (identity.Resolver, error) {
	var tokens *auth.Tokens
	var err error
	if cfg.TokenPublicKeyPath != "" {
		tokens, err = auth.LoadFromPath(cfg.TokenPrivateKeyPath, cfg.TokenPublicKeyPath, cfg.TokenExpiry)
	} else {
		logger.Warn("TOKEN_PUBLIC_KEY_PATH not set, generating an ephemeral signing key")
		tokens, err = auth.Generate(cfg.TokenExpiry)
	}
	if err != nil {
		return nil, err
	}

	if pool == nil {
		logger.Warn("DATABASE_URL not set, registered users cannot join")
		return identity.New(tokens, nil), nil
	}

	var names identity.NameSource = database.NewUsers(pool)
	if rdb != nil {
		names = cache.NewNameCache(rdb, names, cfg.NameCacheTTL, logger)
	}
	return identity.New(tokens, names), nil
}

// buildRecorder picks the results sink. The returned func releases it.
func buildRecorder(cfg *config.Config, logger *logrus.Logger, rdb *redis.Client) (results.Recorder, func(), error) {
	switch cfg.ResultsSink {
	case config.SinkRedis:
		return results.NewRedisRecorder(rdb, cfg.ResultsQueue), func() {}, nil
	case config.SinkNATS:
		conn, err := results.ConnectNATS(cfg.NATSURL)
		if err != nil {
			return nil, nil, err
		}
		return results.NewNATSRecorder(conn, cfg.NATSSubject), func() { _ = conn.Drain() }, nil
	default:
		return results.NewLogRecorder(logger), func() {}, nil
	}
}
