package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/openbracket/regatta/internal/adapter/checkout"
	"github.com/openbracket/regatta/internal/adapter/fsm"
	"github.com/openbracket/regatta/internal/adapter/otel"
	riveradapter "github.com/openbracket/regatta/internal/adapter/river"
	"github.com/openbracket/regatta/internal/adapter/sqlite"
	"github.com/openbracket/regatta/internal/app"
	"github.com/openbracket/regatta/internal/domain"

	handler "github.com/openbracket/regatta/internal/adapter/http"
)

type config struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	DatabasePath string        `env:"DATABASE_PATH" envDefault:"regatta.db"`
	Currency     string        `env:"CURRENCY" envDefault:"INR"`
	GatewayURL   string        `env:"GATEWAY_URL"`
	GatewayKey   string        `env:"GATEWAY_KEY"`
	GatewayWait  time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"30s"`
	AbandonAfter time.Duration `env:"ABANDON_AFTER" envDefault:"30m"`
	SweepEvery   time.Duration `env:"SWEEP_EVERY" envDefault:"5m"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	// --- Observability ---
	providers, err := otel.Setup(ctx, otel.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}

	// --- Adapters (out) ---
	db, err := otel.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	sqlRepo, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	repo := otel.NewTracingRepository(sqlRepo)

	// River shares the SQLite database. The insert-only client serves the
	// request path; the worker client below owns job processing.
	if err := riveradapter.Migrate(ctx, db); err != nil {
		return fmt.Errorf("river migrations: %w", err)
	}
	insertClient, err := riveradapter.NewInsertClient(db)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	publisher := otel.NewTracingPublisher(riveradapter.NewPublisher(insertClient))

	var gateway domain.PaymentGateway
	if cfg.GatewayURL != "" {
		gateway = checkout.New(cfg.GatewayURL, cfg.GatewayKey)
	} else {
		slog.Warn("GATEWAY_URL not set, using logging gateway stub")
		gateway = &logGateway{}
	}

	// --- Application ---
	svc := app.NewRegistrationService(
		domain.DefaultCatalog(),
		repo,
		gateway,
		publisher,
		fsm.New(),
		handler.NewHeaderIdentity(),
		app.Config{Currency: cfg.Currency, GatewayTimeout: cfg.GatewayWait},
	)

	// --- Workers ---
	workerClient, err := riveradapter.Setup(ctx, db, svc, riveradapter.SweepConfig{
		After: cfg.AbandonAfter,
		Every: cfg.SweepEvery,
	})
	if err != nil {
		return fmt.Errorf("river workers: %w", err)
	}
	if err := workerClient.Start(ctx); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware("regatta", otelchi.WithChiRoutes(router)))
	router.Use(handler.IdentityMiddleware)

	api := humachi.New(router, huma.DefaultConfig("regatta", "0.1.0"))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("regatta listening", "port", cfg.Port)
		slog.Info("API docs", "url", "http://localhost:"+cfg.Port+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	if err := workerClient.Stop(shutdownCtx); err != nil {
		slog.Error("river shutdown", "error", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		slog.Error("otel shutdown", "error", err)
	}

	slog.Info("stopped")
	return nil
}

// logGateway stands in for the payment provider during local development:
// it accepts every checkout and logs it. Outcomes never arrive on their
// own; post them to /api/v1/payments/callback by hand.
type logGateway struct{}

func (g *logGateway) OpenCheckout(_ context.Context, req domain.CheckoutRequest) (string, error) {
	slog.Info("checkout opened",
		"reference", req.Reference,
		"amount", req.Amount,
		"currency", req.Currency,
	)
	return "https://checkout.invalid/" + req.Reference, nil
}
