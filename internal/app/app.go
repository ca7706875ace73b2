// Package app wires the storefront service together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/notify"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/seed"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/storefront"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// service is the assembled application before it starts listening.
type service struct {
	handler http.Handler
	health  *health.Health
	catalog *memory.ProductRepository
}

// newService loads the catalog and builds the HTTP handler stack. Background
// goroutines stop when ctx is done.
func newService(ctx context.Context, lg *zap.Logger, tp trace.TracerProvider, mp metric.MeterProvider, cfg *Config) (*service, error) {
	products, err := seed.Load(cfg.CatalogFile)
	if err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}
	catalog := memory.NewProductRepository(products...)
	lg.Info("Catalog loaded",
		zap.Int("products", catalog.Len()),
		zap.String("source", cfg.CatalogFile),
	)

	authenticator, err := newAuthenticator(cfg.Admin)
	if err != nil {
		return nil, errors.Wrap(err, "create authenticator")
	}

	store, err := storefront.New(catalog,
		storefront.WithAuthenticator(authenticator),
		storefront.WithNotifier(notify.New(cfg.NotificationTTL)),
		storefront.WithTracerProvider(tp),
		storefront.WithMeterProvider(mp),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create store")
	}

	h := health.New()
	h.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	h.AddReadinessCheck("catalog", time.Second, health.NonEmptyCheck("catalog", catalog.Len))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", h.LiveEndpoint)
	mux.HandleFunc("GET /readyz", h.ReadyEndpoint)
	var loginLimit httpmiddleware.Middleware
	if cfg.RateLimit.Max > 0 {
		loginLimit = httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:        cfg.RateLimit.Max,
			Window:     cfg.RateLimit.Window,
			TrustProxy: cfg.RateLimit.TrustProxy,
		})
	}
	handler.NewHandler(handler.HandlerConfig{
		ImageBaseURL: cfg.ImageBaseURL,
		Contacts:     cfg.Contacts(),
		LoginLimit:   loginLimit,
	}, store).Register(mux)

	api := otelhttp.NewHandler(mux, "storefront",
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithMeterProvider(mp),
	)

	return &service{
		handler: httpmiddleware.Wrap(api,
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.LogRequests(),
		),
		health:  h,
		catalog: catalog,
	}, nil
}

func newAuthenticator(cfg AdminConfig) (auth.Authenticator, error) {
	if cfg.PasswordHash == "" {
		return auth.AllowAll{}, nil
	}
	return auth.NewHMACAuthenticator(cfg.PasswordHash, []byte(cfg.Pepper))
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	svc, err := newService(ctx, lg, m.TracerProvider(), m.MeterProvider(), cfg)
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           svc.handler,
	}

	svc.health.Start(ctx, 10*time.Second)
	svc.health.SetReady(true)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		svc.health.SetReady(false)
		defer svc.health.Stop()

		// Skip the drain delay when the server itself failed.
		if ctx.Err() != nil {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	return g.Wait()
}
