package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/MorMundHS-MA/GDV/internal/config"
	"github.com/MorMundHS-MA/GDV/internal/dataprocessing"
	apierrors "github.com/MorMundHS-MA/GDV/internal/errors"
	"github.com/MorMundHS-MA/GDV/internal/files"
	"github.com/MorMundHS-MA/GDV/internal/infrastructure"
	customMiddleware "github.com/MorMundHS-MA/GDV/internal/middleware"
	"github.com/MorMundHS-MA/GDV/internal/services"
	"github.com/MorMundHS-MA/GDV/internal/storage"
	handlers "github.com/MorMundHS-MA/GDV/internal/transport/http"
	ws "github.com/MorMundHS-MA/GDV/internal/websocket"
	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
)

var (
	// Version is set at build time with -ldflags "-X .../internal/app.Version=..."
	Version = "dev"
	// BuildTime is set at build time
	BuildTime = ""
)

// compressionLevel is the gzip level of API responses
const compressionLevel = 5

// ErrAnimationDisabled rejects feed commands when no animator runs
var ErrAnimationDisabled = errors.New("animation is disabled")

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.Metrics
	DataService   *services.DataService
	HealthService *services.HealthService
	WebSocketHub  *ws.Hub
	Animator      *services.Animator
	Store         *storage.Store

	fetcher files.Fetcher
}

// Option customizes an Application before its services are built
type Option func(*Application)

// WithFetcher replaces the source retriever, e.g. with an in-memory fetcher
func WithFetcher(f files.Fetcher) Option {
	return func(a *Application) { a.fetcher = f }
}

// NewApplication loads configuration and logging from the environment and
// builds the application
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	paths, err := config.GetPaths(cfg.Sources.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	cfg.ApplyPaths(paths)
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	paths.LogPathResolution(logger)

	logger.Info("Application starting",
		slog.String("name", config.AppTitle),
		slog.String("version", Version))

	return New(ctx, cfg, logger)
}

// New wires every component from cfg. Nothing is started until Start.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	a := &Application{
		Config: cfg,
		Logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.fetcher == nil {
		a.fetcher = files.NewRetriever(cfg.Sources, logger)
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry, Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = otelProviders

	metrics, err := infrastructure.CreateMetrics(otelProviders.Meter)
	if err != nil {
		logger.Warn("metrics unavailable, continuing without", slog.String("error", err.Error()))
		metrics = infrastructure.NewNoopMetrics()
	}
	a.Metrics = metrics

	if err := a.initializeServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()

	return a, nil
}

// initializeServices builds the service graph. The hub is created before the
// animator, so feed commands reach the animator through handleCommand.
func (a *Application) initializeServices(ctx context.Context) error {
	cfg := a.Config

	overrides := dataprocessing.DefaultNameOverrides().Merge(dataprocessing.NameOverrides(cfg.Resolver.Overrides))
	loader := services.NewLoader(a.fetcher, cfg.Sources, overrides, a.Logger,
		services.WithLoaderMetrics(a.Metrics),
		services.WithTracer(a.OTelProviders.Tracer))

	a.WebSocketHub = ws.NewHub(Version, a.Logger,
		ws.WithHubMetrics(a.Metrics),
		ws.WithCommandHandler(a.handleCommand))

	serviceOpts := []services.DataServiceOption{
		services.WithBroadcaster(a.WebSocketHub),
		services.WithServiceMetrics(a.Metrics),
	}

	healthOpts := []services.HealthOption{
		services.WithClientCounter(a.WebSocketHub),
		services.WithBuildTime(BuildTime),
	}
	if cfg.Storage.Enabled() {
		store, err := storage.Open(ctx, cfg.Storage, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return err
		}
		a.Store = store
		serviceOpts = append(serviceOpts, services.WithSwapHook(a.persist))
		healthOpts = append(healthOpts, services.WithStore(store))
	}

	a.DataService = services.NewDataService(loader, a.Logger, serviceOpts...)

	if cfg.Animation.Enabled {
		animator, err := services.NewAnimator(a.DataService, a.WebSocketHub, cfg.Animation, a.Metrics, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize animator: %w", err)
		}
		a.Animator = animator
	}

	a.HealthService = services.NewHealthService(Version, a.DataService, a.Logger, healthOpts...)

	return nil
}

// setupRouter builds the route tree. /ws and /metrics sit outside the API
// group so timeouts and compression never wrap them.
func (a *Application) setupRouter() {
	cfg := a.Config
	r := chi.NewRouter()

	errorHandler := apierrors.NewErrorHandler(a.Logger, cfg.Logging.Development)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Handle(config.WebSocketEndpoint, ws.NewHandler(a.WebSocketHub, cfg.WebSocket, cfg.Security.AllowedOrigins))

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
		r.Use(apierrors.NewErrorMiddleware(errorHandler, a.Logger).Handler)
		r.Use(apierrors.RecoveryMiddleware(errorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if cfg.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}
		if cfg.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				cfg.Security.RateLimit.RPS,
				cfg.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}
		r.Use(customMiddleware.Timeout(cfg.Server.RequestTimeout))
		r.Use(customMiddleware.Compress(compressionLevel))

		a.setupAPIRoutes(r, errorHandler)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	validation := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)

	defaultIndicator, err := domain.ParseIndicator(a.Config.Animation.Indicator)
	if err != nil {
		defaultIndicator = domain.IndicatorIneqComb
	}

	dataHandler := handlers.NewDataHandler(a.DataService, validation, a.Logger, errorHandler,
		handlers.WithDefaultIndicator(defaultIndicator),
		handlers.WithReloadGuard(customMiddleware.APIKeyAuth(a.Config.Security.ReloadKey, a.Logger)))
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)

	r.Route(config.APIBasePath, func(r chi.Router) {
		healthHandler.Routes(r)

		r.Group(func(r chi.Router) {
			r.Use(validation.LimitBody)
			r.Use(customMiddleware.ContentTypeValidator("application/json"))
			r.Mount("/data", dataHandler.Routes())
		})
	})
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// handleCommand applies a client command to the frame feed
func (a *Application) handleCommand(ctx context.Context, cmd ws.Command) error {
	switch cmd.Type {
	case ws.CommandSetIndicator:
		if a.Animator == nil {
			return ErrAnimationDisabled
		}
		ind, err := domain.ParseIndicator(cmd.Indicator)
		if err != nil {
			return err
		}
		if err := a.Animator.SetIndicator(ind); err != nil {
			return err
		}
		a.Logger.InfoContext(ctx, "feed indicator changed", slog.String("indicator", ind.String()))
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd.Type)
	}
}

// Start launches the background loops and the HTTP server. The first dataset
// is loaded in the background; readiness reports not_ready until it is in.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppTitle),
		slog.String("version", Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start(ctx)

	go func() {
		if err := a.DataService.Load(infrastructure.EnsureTraceID(ctx)); err != nil {
			a.Logger.ErrorContext(ctx, "initial dataset load failed", slog.String("error", err.Error()))
			return
		}
		a.DataService.RunReloader(ctx, a.Config.Sources.ReloadInterval)
	}()

	if a.Animator != nil {
		go a.Animator.Run(ctx)
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// persist mirrors a freshly swapped dataset into the store
func (a *Application) persist(ctx context.Context, ds *services.DataSource) {
	res, err := a.Store.SaveDataset(ctx, ds)
	if err != nil {
		infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "dataset persistence failed",
			slog.String("fingerprint", ds.Fingerprint()))
		return
	}
	a.Logger.InfoContext(ctx, "dataset persisted",
		slog.String("fingerprint", ds.Fingerprint()),
		slog.String("rows", res.String()))
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.WebSocketHub.Stop()

	if a.Store != nil {
		a.Store.Close()
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	if err := infrastructure.CloseLogFile(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	// background loops stop with ctx; the server gets its own deadline
	cancel()
	return a.Stop(context.Background())
}
