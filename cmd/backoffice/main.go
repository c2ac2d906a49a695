package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/cityprop/backoffice/internal/app"
	"github.com/cityprop/backoffice/internal/auth"
	"github.com/cityprop/backoffice/internal/dashboard"
	"github.com/cityprop/backoffice/internal/invoices"
	"github.com/cityprop/backoffice/internal/ledger"
	"github.com/cityprop/backoffice/internal/observability"
	"github.com/cityprop/backoffice/internal/orders"
	"github.com/cityprop/backoffice/internal/platform/db"
	"github.com/cityprop/backoffice/internal/retention"
	"github.com/cityprop/backoffice/internal/shared"
	"github.com/cityprop/backoffice/internal/view"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("application stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return err
	}
	defer redisClient.Close()

	sessionManager := shared.NewSessionManager(redisClient, "cityprop_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		return err
	}

	validate := validator.New()
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	orderRepo := orders.NewRepository(pool)
	orderService := orders.NewService(pool, orderRepo, validate, logger).WithMetrics(metrics)
	orderHandler := orders.NewHandler(logger, orderService, templates, csrfManager)

	retentionRepo := retention.NewRepository(pool)
	retentionService := retention.NewService(retentionRepo, logger).WithMetrics(metrics)
	retentionHandler := retention.NewHandler(logger, retentionService, templates, csrfManager)

	invoiceRepo := invoices.NewRepository(pool)
	invoiceService := invoices.NewService(pool, invoiceRepo, validate, logger, cfg.SiteCode, cfg.IssuePlace).WithMetrics(metrics)
	invoiceHandler := invoices.NewHandler(logger, invoiceService, orderService, templates, csrfManager, cfg.CompanyName)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(pool, ledgerRepo, logger)
	ledgerHandler := ledger.NewHandler(logger, ledgerService, templates, csrfManager, cfg.CompanyName)

	dashboardRepo := dashboard.NewRepository(pool)
	dashboardService := dashboard.NewService(dashboardRepo, retentionService, logger)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, templates, csrfManager)

	router := app.NewRouter(app.RouterParams{
		Middleware: app.MiddlewareStack(app.MiddlewareConfig{
			Logger:         logger,
			Config:         cfg,
			SessionManager: sessionManager,
			CSRFManager:    csrfManager,
			Metrics:        metrics,
		}),
		Metrics:   metrics,
		Auth:      authHandler,
		Dashboard: dashboardHandler,
		Orders:    orderHandler,
		Retention: retentionHandler,
		Invoices:  invoiceHandler,
		Ledger:    ledgerHandler,
	})

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.AppAddr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
