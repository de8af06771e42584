// Package app wires the POS service together: configuration, database,
// repositories, the checkout service, and the HTTP server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/migios-apps/migios-pos/internal/domain/checkout"
	"github.com/migios-apps/migios-pos/internal/handler"
	"github.com/migios-apps/migios-pos/internal/repository"
	"github.com/migios-apps/migios-pos/pkg/health"
	"github.com/migios-apps/migios-pos/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health probes.
	probes := health.New()
	probes.Add(health.Readiness, "postgres", 5*time.Second, health.PingCheck(pool))
	probes.Add(health.Liveness, "goroutines", time.Second, health.GoroutineCountCheck(10000))
	probes.Start(ctx, 10*time.Second)

	// Repositories.
	catalogRepo := repository.NewCatalogRepository(pool)
	rewardRepo := repository.NewRewardRepository(pool)
	memberRepo := repository.NewMemberRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	apikeyRepo := repository.NewAPIKeyRepository(pool)

	// Domain services.
	checkoutSvc := checkout.NewService(catalogRepo, rewardRepo, memberRepo, settingsRepo, orderRepo)

	// HTTP surface.
	h, err := handler.NewHandler(
		handler.Config{APIKeyPepper: []byte(cfg.APIKeyPepper)},
		checkoutSvc,
		catalogRepo,
		apikeyRepo,
		m.MeterProvider().Meter("migios-pos"),
	)
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.Origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", "X-API-Key", "X-Request-ID"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           86400,
	}))
	router.Get("/livez", probes.Handler(health.Liveness))
	router.Get("/readyz", probes.Handler(health.Readiness))
	router.Mount("/api", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(
			otelhttp.NewHandler(router, "migios-pos",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.Recovery(),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	probes.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		probes.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		probes.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
