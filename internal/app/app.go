package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"salespulse/internal/blobstore"
	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	"salespulse/internal/errors"
	"salespulse/internal/exporter"
	"salespulse/internal/files"
	"salespulse/internal/infrastructure"
	customMiddleware "salespulse/internal/middleware"
	"salespulse/internal/operations"
	"salespulse/internal/services"
	handlers "salespulse/internal/transport/http"
	"salespulse/internal/validation"
	"salespulse/pkg/contracts"
)

// AppName is the service name reported in logs and health responses
const AppName = "SalesPulse"

// BuildTime is set at compile time via -ldflags
var BuildTime = "unknown"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	Router        *chi.Mux
	Server        *http.Server
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Services      *ServiceContainer
	Pipeline      *operations.Pipeline

	listener net.Listener
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Files     *files.Manager
	Store     blobstore.ObjectStore
	Validator *validation.DocumentValidator
	Local     *services.LocalDocumentService
	Remote    *services.RemoteDocumentService
	Health    *services.HealthService
}

// Option customises application wiring
type Option func(*options)

type options struct {
	store    blobstore.ObjectStore
	storeSet bool
	now      func() time.Time
}

// WithObjectStore replaces the Azure store built from configuration. A nil
// store disables the remote side.
func WithObjectStore(store blobstore.ObjectStore) Option {
	return func(o *options) {
		o.store = store
		o.storeSet = true
	}
}

// WithClock sets the clock that stamps generated_at
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewApplication loads configuration and the logger, then wires the application
func NewApplication(opts ...Option) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger, opts...)
}

// New wires every component from an already loaded configuration
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	if err := a.initializeServices(o); err != nil {
		return nil, err
	}
	a.initializePipeline(o)
	if err := a.setupRouter(); err != nil {
		return nil, err
	}
	a.createServer()

	return a, nil
}

func (a *Application) initializeServices(o *options) error {
	validator, err := validation.NewDocumentValidator()
	if err != nil {
		return fmt.Errorf("failed to compile document schema: %w", err)
	}

	fm := files.NewManager(a.Paths.BaseDir, a.Logger)

	store := o.store
	if !o.storeSet && a.Config.RemoteEnabled() {
		azure, err := blobstore.NewAzureStore(a.Config.Storage.AccountURL, nil, blobstore.AzureOptions{}, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to create blob store: %w", err)
		}
		store = azure
	}
	if store == nil {
		a.Logger.Warn("Remote blob store disabled",
			slog.String("reason", exporter.SkipReasonNotConfigured))
	}

	local := services.NewLocalDocumentService(fm, a.Paths.OutputFile, a.Logger)
	remote := services.NewRemoteDocumentService(store, a.Config.Storage.Container,
		a.Config.Storage.ObjectKey, validator, a.Logger)

	a.Services = &ServiceContainer{
		Files:     fm,
		Store:     store,
		Validator: validator,
		Local:     local,
		Remote:    remote,
		Health:    services.NewHealthService(contracts.Version, BuildTime, local, remote, a.Logger),
	}
	return nil
}

func (a *Application) initializePipeline(o *options) {
	a.Pipeline = operations.NewPipeline(
		operations.PipelineConfig{InputPath: a.Paths.InputFile},
		operations.PipelineDeps{
			Validator: validation.NewFileValidator(a.Logger),
			Loader: dataprocessing.NewLoader(a.Logger, dataprocessing.LoaderConfig{
				DateLayouts: a.Config.Pipeline.DateLayouts,
				Sheet:       a.Config.Pipeline.Sheet,
			}),
			Aggregator: dataprocessing.NewAggregator(a.Logger, dataprocessing.AggregatorConfig{
				RecentWindowDays: a.Config.Pipeline.RecentWindowDays,
				Now:              o.now,
			}),
			Publisher: exporter.NewPublisher(exporter.PublisherConfig{
				OutputPath: a.Paths.OutputFile,
				Container:  a.Config.Storage.Container,
				ObjectKey:  a.Config.Storage.ObjectKey,
			}, a.Services.Files, a.Services.Store, a.Services.Validator, a.Logger),
			Tracer: operations.NewPipelineTracerWithMetrics(a.Metrics),
		},
		a.Logger,
	)
}

func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	errorHandler := errors.NewErrorHandler(a.Logger, false)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}
	r.Use(otelMiddleware.Handler)

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)
	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			ExposedHeaders: []string{"X-Request-ID"},
			Logger:         a.Logger,
		}))
	}
	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	documents := handlers.NewDocumentHandler(a.Services.Local, a.Services.Remote, a.Metrics, a.Logger)
	health := handlers.NewHealthHandler(a.Services.Health, a.Logger)

	r.Get("/", documents.GetLocal)
	r.Get("/sales_analytics", documents.GetRemote)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/sales_analytics", documents.GetRemote)
		r.Get("/health", health.HealthCheck)
		r.Get("/health/ready", health.ReadinessCheck)
		r.Get("/health/live", health.LivenessCheck)
		r.Get("/version", health.Version)
	})

	r.Method(http.MethodGet, "/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, errorHandler))

	a.Router = r
	return nil
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// RunPipeline executes the write path once
func (a *Application) RunPipeline(ctx context.Context, trigger string) (*operations.RunResult, error) {
	return a.Pipeline.Run(ctx, trigger)
}

// StartScheduler starts cron-driven pipeline runs. An empty spec uses the configured schedule.
func (a *Application) StartScheduler(ctx context.Context, spec string) (*operations.Scheduler, error) {
	if spec == "" {
		spec = a.Config.Pipeline.Schedule
	}
	scheduler, err := operations.NewScheduler(spec, a.Pipeline, a.Logger)
	if err != nil {
		return nil, err
	}
	if err := scheduler.Start(ctx); err != nil {
		return nil, err
	}
	return scheduler, nil
}

// Start binds the listener and serves in the background. A serve failure
// after binding calls cancel so the caller can shut down.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln

	a.Logger.InfoContext(ctx, "Starting HTTP server",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("address", ln.Addr().String()),
		slog.String("output_file", a.Paths.OutputFile),
		slog.Bool("remote_enabled", a.Services.Store != nil))

	go func() {
		if err := a.Server.Serve(ln); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	return nil
}

// Addr returns the bound address once Start has succeeded
func (a *Application) Addr() string {
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.shutdownTelemetry(shutdownCtx)

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Close releases telemetry providers for commands that never started the server
func (a *Application) Close(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()
	a.shutdownTelemetry(shutdownCtx)
}

func (a *Application) shutdownTelemetry(ctx context.Context) {
	if a.OTelProviders == nil {
		return
	}
	if err := a.OTelProviders.Shutdown(ctx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully. With
// withScheduler the pipeline also runs on the configured cron schedule.
func (a *Application) Run(withScheduler bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	if withScheduler {
		scheduler, err := a.StartScheduler(ctx, "")
		if err != nil {
			_ = a.Stop(context.Background())
			return err
		}
		defer scheduler.Stop()
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	return a.Stop(context.Background())
}
