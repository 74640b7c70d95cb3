package app

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"haulpulse/internal/config"
	"haulpulse/internal/dataprocessing"
	apierrors "haulpulse/internal/errors"
	"haulpulse/internal/infrastructure"
	customMiddleware "haulpulse/internal/middleware"
	"haulpulse/internal/services"
	handlers "haulpulse/internal/transport/http"
)

var (
	// BuildTime is set at link time with -ldflags "-X haulpulse/internal/app.BuildTime=..."
	BuildTime string
	// BuildID is set at link time, usually to the commit hash
	BuildID string
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	Router        *chi.Mux
	Handler       http.Handler // Router wrapped in tracing
	Server        *http.Server
	OTelProviders *infrastructure.OTelProviders
	Sessions      *services.SessionStore
	Analytics     *services.AnalyticsService
	HealthService *services.HealthService

	errorHandler *apierrors.ErrorHandler
}

// NewApplication loads the configuration, initializes the process logger and
// builds the application from them.
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(ctx, cfg, logger)
}

// New wires telemetry, the pipeline, services, router and server from cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("build_id", BuildID))

	providers, err := infrastructure.InitializeOTel(ctx, cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		errorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	if err := a.initializeServices(); err != nil {
		_ = providers.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()

	return a, nil
}

// initializeServices builds the pipeline and the services on top of it
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}

	inst, err := dataprocessing.NewInstrumentation(a.OTelProviders.Meter, a.OTelProviders.Tracer)
	if err != nil {
		return fmt.Errorf("failed to create pipeline instrumentation: %w", err)
	}

	pipeline, err := dataprocessing.NewPipeline(dataprocessing.ConfigFromSettings(a.Config.Pipeline), a.Logger, inst)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	a.Sessions = services.NewSessionStore(a.Config.Sessions, metrics, a.Logger)
	a.Analytics = services.NewAnalyticsService(pipeline, a.Sessions, metrics, a.Logger)
	a.HealthService = services.NewHealthService(config.AppVersion, BuildTime, BuildID, a.Sessions, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes.
// Order: RequestID → RealIP → trace ID → Logger → Recoverer → security headers → Timeout.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.SpanTraceID)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(apierrors.RecoveryMiddleware(a.errorHandler))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	var upload []func(http.Handler) http.Handler
	if rl := a.Config.Security.RateLimit; rl.Enabled {
		upload = append(upload, customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.errorHandler, a.Logger).Handler)
	}
	upload = append(upload, customMiddleware.ContentTypeValidator(a.errorHandler, "multipart/form-data"))

	analyticsHandler := handlers.NewAnalyticsHandler(
		a.Analytics,
		customMiddleware.NewRequestValidator(),
		a.errorHandler,
		a.Config.Server.MaxUploadBytes,
		a.Config.Sessions.MaxSessions,
		a.Logger,
	)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)

	r.Route("/api", func(r chi.Router) {
		healthHandler.Routes(r)
		r.Mount("/v1/sessions", analyticsHandler.Routes(upload...))
	})

	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.MetricsHandler, a.errorHandler))

	a.Router = r
	a.Handler = customMiddleware.Tracing(a.Config.Telemetry.ServiceName)(r)
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Handler,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelError),
	}
}

// Run listens on the configured port and serves until ctx is done or the
// process receives SIGINT or SIGTERM.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		_ = a.Stop(ctx)
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln and shuts down gracefully once ctx is done or a
// termination signal arrives.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "Server listening",
			slog.String("address", ln.Addr().String()),
			slog.String("level", a.Config.Logging.Level))
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.InfoContext(ctx, "Shutdown requested")
		return a.Stop(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

// Stop drains the server, then releases sessions and telemetry.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if err := a.Sessions.Close(); err != nil {
		errs = append(errs, fmt.Errorf("session store close error: %w", err))
	}

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}
