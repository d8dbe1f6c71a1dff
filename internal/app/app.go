// Package app wires the storefront gateway together and runs the HTTP server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/groveshop/storefront-gateway/internal/backend"
	"github.com/groveshop/storefront-gateway/internal/domain/account"
	"github.com/groveshop/storefront-gateway/internal/domain/catalog"
	"github.com/groveshop/storefront-gateway/internal/domain/checkout"
	"github.com/groveshop/storefront-gateway/internal/handler"
	"github.com/groveshop/storefront-gateway/internal/session"
	"github.com/groveshop/storefront-gateway/pkg/health"
	"github.com/groveshop/storefront-gateway/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the gateway.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.String("backend", cfg.Backend.URL))

	// Commerce backend client with traced outbound requests.
	client := backend.New(backend.Config{
		BaseURL: cfg.Backend.URL,
		HTTPClient: &http.Client{
			Timeout: cfg.Backend.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
		},
	})

	// Health check service. Readiness follows the commerce backend since the
	// gateway cannot do anything useful without it.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("backend", 5*time.Second,
		health.HTTPCheck(&http.Client{Timeout: 5 * time.Second}, cfg.Backend.URL+"/products"))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Sessions with background eviction.
	sessions := session.NewManager(cfg.Session.TTL)
	sessions.StartCleanup(ctx)

	// Domain services.
	submitter := checkout.NewSubmitter(client)
	accounts := account.NewService(client)
	catalogSvc := catalog.NewService(client, cfg.Catalog.CacheTTL)

	// HTTP routes.
	h := handler.New(
		handler.Config{
			SecureCookies: cfg.SecureCookies,
			LoginPath:     cfg.LoginPath,
		},
		sessions, submitter, accounts, catalogSvc, client,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:        cfg.RateLimit.Max,
				Window:     cfg.RateLimit.Window,
				CookieName: session.CookieName,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
