package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/example/ridewise/internal/accounts"
	"github.com/example/ridewise/internal/booking"
	"github.com/example/ridewise/internal/config"
	"github.com/example/ridewise/internal/dispatch"
	"github.com/example/ridewise/internal/ecostats"
	"github.com/example/ridewise/internal/geocode"
	httpapi "github.com/example/ridewise/internal/http"
	"github.com/example/ridewise/internal/ingest"
	"github.com/example/ridewise/internal/logging"
	"github.com/example/ridewise/internal/payments"
	"github.com/example/ridewise/internal/routing"
	"github.com/example/ridewise/internal/session"
	"github.com/example/ridewise/internal/storage"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("storage unavailable", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("storage close", "error", err)
		}
	}()

	var (
		sessions  session.Store = session.NewMemoryStore(cfg.SessionTTL)
		ecoTotals httpapi.EcoTotals
	)
	if cfg.RedisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			logger.Error("redis unavailable", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		sessions = session.NewRedisStore(rc, cfg.SessionTTL)
		ecoTotals = ecostats.NewRedisTotals(rc, cfg.EcoTotalsKey)
		logger.Info("using redis sessions", "addr", cfg.RedisAddr)
	}

	wsreg := dispatch.NewWSRegistry()
	deps := booking.Deps{
		Geocoder: geocode.NewNominatimClient(cfg.GeocoderURL, cfg.GeocoderAgent, cfg.GeocoderTimeout, cfg.GeocoderRetries),
		Router:   routing.NewOSRMClient(cfg.RouterURL, cfg.RouterTimeout, cfg.RouterRetries),
		Accounts: store,
		Offers:   store,
		Bookings: store,
		Notifier: wsreg,
		Logger:   logger,
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer := ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		deps.Events = producer
		logger.Info("publishing booking events", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}
	if cfg.StripeAPIKey != "" {
		deps.Fares = payments.NewStripeClient(cfg.StripeAPIKey, cfg.StripeCurrency)
		logger.Info("fare holds enabled", "currency", cfg.StripeCurrency)
	}

	srv := httpapi.NewServer(httpapi.Deps{
		Accounts:     accounts.NewService(store, cfg.BcryptCost),
		Engine:       booking.NewEngine(deps),
		Sessions:     sessions,
		Policy:       session.NewPolicy(cfg.AdminEmails),
		WSReg:        wsreg,
		EcoTotals:    ecoTotals,
		Logger:       logger,
		SessionTTL:   cfg.SessionTTL,
		SecureCookie: cfg.CookieSecure,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("ridewise listening", "addr", cfg.HTTPAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server shut down")
}

// openStore picks postgres, then mongo, then the in-memory store.
func openStore(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) (storage.Store, error) {
	switch {
	case cfg.PGDSN != "":
		pg, err := storage.NewPostgresStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		if cfg.RunMigrations {
			if err := pg.Migrate(ctx); err != nil {
				_ = pg.Close(ctx)
				return nil, err
			}
			logger.Info("migrations applied")
		}
		logger.Info("using postgres store")
		return pg, nil
	case cfg.MongoURI != "":
		m, err := storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := m.EnsureIndexes(ctx); err != nil {
			_ = m.Close(ctx)
			return nil, err
		}
		logger.Info("using mongo store", "database", cfg.MongoDatabase)
		return m, nil
	default:
		logger.Warn("no database configured, using in-memory store")
		return storage.NewMemoryStore(), nil
	}
}
