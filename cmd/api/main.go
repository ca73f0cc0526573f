package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hosting-storefront/internal/client"
	"hosting-storefront/internal/config"
	"hosting-storefront/internal/guard"
	"hosting-storefront/internal/idempotency"
	"hosting-storefront/internal/identity"
	"hosting-storefront/internal/logger"
	"hosting-storefront/internal/mailer"
	"hosting-storefront/internal/middleware"
	"hosting-storefront/internal/payment"
	"hosting-storefront/internal/repository"
	"hosting-storefront/internal/scheduler"
	"hosting-storefront/internal/server"
	"hosting-storefront/internal/service"
	"hosting-storefront/internal/telemetry"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	db, err := client.NewDB(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	provider, err := payment.New(&cfg.Payment)
	if err != nil {
		return err
	}

	sink := telemetry.New(cfg, log)
	defer func() {
		if err := sink.Close(); err != nil {
			log.Warn("close telemetry", zap.Error(err))
		}
	}()

	orderRepo := repository.NewOrderRepository(db)
	accountRepo := repository.NewHostingAccountRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	emailLogRepo := repository.NewEmailLogRepository(db)
	paymentEventRepo := repository.NewPaymentEventRepository(db)

	events, err := newPaymentEventStore(cfg, paymentEventRepo, log)
	if err != nil {
		return err
	}

	orderGuard := guard.NewOrderGuard(orderRepo)
	m := mailer.NewLogMailer(log)

	services := server.Services{
		Orders:       service.NewOrderService(db, orderRepo, auditRepo, sink, log),
		Provisioning: service.NewProvisioningService(db, orderGuard, accountRepo, auditRepo, sink, log),
		Email:        service.NewEmailService(db, emailLogRepo, auditRepo, m, sink, log),
		Payments:     service.NewPaymentService(db, provider, orderGuard, orderRepo, auditRepo, events, sink, log),
		Accounts:     service.NewAccountService(orderRepo, accountRepo),
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log)
	}

	var metrics prometheus.Gatherer
	if cfg.Telemetry.Metrics {
		metrics = prometheus.DefaultGatherer
	}

	jobs := scheduler.New(log, 5*time.Minute)
	if _, err := jobs.Register("payment-event-purge", "@hourly", scheduler.PurgePaymentEvents(paymentEventRepo, log)); err != nil {
		return err
	}
	if cfg.Renewal.Enabled {
		renewals := service.NewRenewalService(db, accountRepo, emailLogRepo, auditRepo, m, cfg.Renewal.Window, sink, log)
		if _, err := jobs.Register("renewal-reminders", cfg.Renewal.Cron, scheduler.RenewalReminders(renewals)); err != nil {
			return err
		}
	}
	if limiter != nil {
		if _, err := jobs.Register("rate-limiter-cleanup", "@every 10m", func(context.Context) error {
			limiter.Cleanup(30 * time.Minute)
			return nil
		}); err != nil {
			return err
		}
	}
	jobs.Start()

	resolver := identity.NewSupabaseResolver(&cfg.Supabase, log)
	srv := server.NewServer(&cfg.HTTP, services, resolver, limiter, metrics, log)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server",
		zap.String("addr", serverAddr),
		zap.String("environment", cfg.Environment.Name),
		zap.String("payment_provider", provider.Name()),
	)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-sigChan:
		log.Info("signal received, starting graceful shutdown")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown", zap.Error(err))
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Warn("scheduler shutdown", zap.Error(err))
	}
	return nil
}

// newPaymentEventStore dedupes in Redis when REDIS_ADDR is set, otherwise in the database.
func newPaymentEventStore(cfg *config.Config, events repository.PaymentEventRepository, log *zap.Logger) (idempotency.Store, error) {
	if cfg.Redis.Addr == "" {
		return idempotency.NewDBStore(events, cfg.Redis.KeyTTL), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info("payment dedupe backed by redis", zap.String("addr", cfg.Redis.Addr))
	return idempotency.NewRedisStore(rdb, cfg.Redis.KeyTTL), nil
}
