package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"

	"github.com/farstore/checkout-core/internal/adapters/cache"
	"github.com/farstore/checkout-core/internal/adapters/events"
	grpcadapter "github.com/farstore/checkout-core/internal/adapters/grpc"
	httpadapter "github.com/farstore/checkout-core/internal/adapters/http"
	"github.com/farstore/checkout-core/internal/adapters/memory"
	"github.com/farstore/checkout-core/internal/adapters/notify"
	"github.com/farstore/checkout-core/internal/adapters/payment"
	"github.com/farstore/checkout-core/internal/adapters/postgres"
	"github.com/farstore/checkout-core/internal/application"
	"github.com/farstore/checkout-core/internal/domain"
	"github.com/farstore/checkout-core/internal/ports"
)

// Runtime wires configuration, adapters and the application service into a
// runnable process. The API and worker binaries share one wiring path so the
// two deployments cannot drift apart.
type Runtime struct {
	Config  Config
	Logger  *slog.Logger
	Service *application.Service

	router http.Handler
	worker *events.OutboxWorker
	closeF []func() error
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With(slog.String("service", cfg.ServiceID))
	slog.SetDefault(logger)

	rt := &Runtime{Config: cfg, Logger: logger}
	commissionRate := decimal.NewFromFloat(cfg.CommissionRate)

	var (
		orders   ports.OrderRepository
		clicks   ports.AffiliateClickLedger
		patterns ports.StorePatternRepository
		products ports.ProductRepository
		outbox   ports.OutboxRepository
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := postgres.RunMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		repos := postgres.NewRepositories(db, commissionRate)
		orders, clicks, patterns, products, outbox =
			repos.Orders, repos.Clicks, repos.Patterns, repos.Products, repos.Outbox
		rt.closeF = append(rt.closeF, func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
		logger.Info("storage ready", slog.String("module", "bootstrap"), slog.String("backend", "postgres"))
	} else {
		repos := memory.NewRepositories(commissionRate)
		orders, clicks, patterns, products, outbox =
			repos.Orders, repos.Clicks, repos.Patterns, repos.Products, repos.Outbox
		logger.Warn("storage ready", slog.String("module", "bootstrap"), slog.String("backend", "memory"))
	}

	var patternCache ports.PatternCache
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		patternCache = cache.NewRedisPatternCache(client, cfg.PatternCacheTTL)
		rt.closeF = append(rt.closeF, client.Close)
	} else {
		patternCache = memory.NewPatternCache()
	}

	var publisher ports.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, map[string]string{
			domain.EventOrderPaymentConfirmed:     cfg.KafkaTopic,
			domain.EventAffiliateCommissionEarned: cfg.KafkaTopic,
		})
		if err != nil {
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		publisher = kp
		rt.closeF = append(rt.closeF, kp.Close)
	} else {
		publisher = events.NewMemoryPublisher()
		logger.Warn("event publisher running in memory", slog.String("module", "bootstrap"))
	}

	var notifier ports.NotificationSender
	if cfg.EmailAPIKey != "" {
		notifier = notify.NewClient(cfg.EmailBaseURL, cfg.EmailAPIKey, cfg.EmailFrom, cfg.AdminEmail, cfg.EmailTimeout)
	}

	oracle := payment.NewClient(cfg.OracleBaseURL, cfg.OracleTestnetBaseURL, cfg.OracleTimeout)

	rt.Service = application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:     cfg.ServiceID,
			CommissionRate:  commissionRate,
			AssignThreshold: cfg.AssignThreshold,
		},
		Logger:   logger,
		Orders:   orders,
		Clicks:   clicks,
		Patterns: patterns,
		Products: products,
		Cache:    patternCache,
		Outbox:   outbox,
		Oracle:   oracle,
		Notifier: notifier,
	})

	if err := rt.Service.InitializePatterns(ctx); err != nil {
		logger.Warn("pattern cache warmup failed",
			slog.String("module", "bootstrap"),
			slog.String("error", err.Error()))
	}

	rt.router = httpadapter.NewRouter(httpadapter.NewHandler(rt.Service), cfg.AdminJWTSecret)
	rt.worker = events.NewOutboxWorker(
		logger, outbox, publisher,
		cfg.OutboxPollInterval, cfg.OutboxBatchSize, cfg.OutboxClaimTTL, cfg.OutboxMaxRetries,
	)
	return rt, nil
}

// RunAPI serves the HTTP contract plus a gRPC health endpoint until the
// process receives SIGINT or SIGTERM.
func (rt *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", rt.Config.HTTPPort),
		Handler:           rt.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	grpcadapter.Register(grpcServer, grpcadapter.NewHealthServer())
	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", rt.Config.GRPCPort))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		rt.Logger.Info("http server listening",
			slog.String("module", "bootstrap"),
			slog.Int("port", rt.Config.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		rt.Logger.Info("grpc health listening",
			slog.String("module", "bootstrap"),
			slog.Int("port", rt.Config.GRPCPort))
		if err := grpcServer.Serve(grpcListener); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		rt.Close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		rt.Logger.Error("http shutdown", slog.String("error", err.Error()))
	}
	grpcServer.GracefulStop()
	rt.Close()
	rt.Logger.Info("api stopped", slog.String("module", "bootstrap"))
	return nil
}

// RunWorker drives the outbox publish loop until a shutdown signal arrives.
func (rt *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt.Logger.Info("outbox worker starting",
		slog.String("module", "bootstrap"),
		slog.Duration("interval", rt.Config.OutboxPollInterval))
	err := rt.worker.Run(ctx)
	rt.Close()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	rt.Logger.Info("worker stopped", slog.String("module", "bootstrap"))
	return nil
}

// Close releases connections in reverse acquisition order.
func (rt *Runtime) Close() {
	for i := len(rt.closeF) - 1; i >= 0; i-- {
		if err := rt.closeF[i](); err != nil {
			rt.Logger.Warn("close dependency", slog.String("error", err.Error()))
		}
	}
	rt.closeF = nil
}
