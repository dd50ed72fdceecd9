package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ScoeScoe/POSTANOS/config"
	schedulerrunner "github.com/ScoeScoe/POSTANOS/internal/adapters/scheduler"
	"github.com/ScoeScoe/POSTANOS/internal/data"
	"github.com/ScoeScoe/POSTANOS/internal/lob"
	"github.com/ScoeScoe/POSTANOS/internal/notify"
	"github.com/ScoeScoe/POSTANOS/internal/notify/onesignal"
	"github.com/ScoeScoe/POSTANOS/internal/observability/statsd"
	"github.com/ScoeScoe/POSTANOS/internal/service"
	"github.com/redis/go-redis/v9"
)

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	JobRepo       *data.JobRepo
	CacheRepo     *data.RedisCacheRepo
	Lob           *lob.Client
	Processor     *service.ProcessorService
	Scheduler     *service.SchedulerService
	Dispatcher    *service.DispatcherService
	Reaper        *service.ReaperService
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices wires repositories, provider clients, and services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database connection is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	observability := buildObservability(logger, cfg.Observability)

	jobRepo := data.NewJobRepo(deps.DB, data.RepoConfig{Logger: logger})

	var cacheRepo *data.RedisCacheRepo
	if deps.RedisClient != nil {
		cacheRepo = data.NewRedisCacheRepo(deps.RedisClient)
	}

	lobClient, err := lob.NewClient(lob.Config{
		APIKey:      cfg.Lob.APIKey,
		BaseURL:     cfg.Lob.BaseURL,
		Version:     cfg.Lob.Version,
		SandboxMode: cfg.Lob.SandboxMode,
		Timeout:     cfg.Lob.Timeout,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build lob client: %w", err)
	}

	dispatcher, err := buildDispatcher(dispatcherDeps{
		Config:    cfg,
		JobRepo:   jobRepo,
		CacheRepo: cacheRepo,
		Logger:    logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	processor, err := service.NewProcessorService(service.ProcessorOptions{
		Store:       jobRepo,
		Verifier:    lobClient,
		Fulfillment: lobClient,
		Dispatcher:  dispatcher,
		Sender:      cfg.Sender,
		CallTimeout: cfg.Scheduler.CallTimeout,
		Logger:      logger,
		Metrics:     metricsSinkOrNil(observability),
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build processor service: %w", err)
	}

	schedulerOpts := service.SchedulerServiceOptions{
		Store:     jobRepo,
		Processor: processor,
		Config:    cfg.Scheduler,
		Logger:    logger,
	}
	if cacheRepo != nil {
		schedulerOpts.Cache = cacheRepo
	}
	scheduler, err := service.NewSchedulerService(schedulerOpts)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build scheduler service: %w", err)
	}

	reaper, err := service.NewReaperService(service.ReaperServiceOptions{
		Sweeper: jobRepo,
		Config:  cfg.Reaper,
		Logger:  logger,
		Metrics: metricsSinkOrNil(observability),
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build reaper service: %w", err)
	}

	return ServiceContainer{
		JobRepo:       jobRepo,
		CacheRepo:     cacheRepo,
		Lob:           lobClient,
		Processor:     processor,
		Scheduler:     scheduler,
		Dispatcher:    dispatcher,
		Reaper:        reaper,
		Observability: observability,
	}, nil
}

// buildObservability configures the metrics sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	container := ObservabilityContainer{MetricsConfig: cfg.Metrics}

	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  "postanos",
			Logger:  logger,
		})
		if err != nil {
			logger.Error("failed to initialise statsd client", "error", err)
		} else {
			container.MetricsSink = client
		}
	}

	return container
}

func metricsSinkOrNil(obs ObservabilityContainer) statsd.Sink {
	if obs.MetricsSink == nil {
		return nil
	}
	return obs.MetricsSink
}

type dispatcherDeps struct {
	Config    *config.AppConfig
	JobRepo   *data.JobRepo
	CacheRepo *data.RedisCacheRepo
	Logger    *slog.Logger
}

// buildDispatcher assembles the notification dispatcher with the configured
// sinks. Returns a dispatcher with no sinks when notifications are disabled,
// which silently no-ops at dispatch time.
func buildDispatcher(deps dispatcherDeps) (*service.DispatcherService, error) {
	notifyCfg := deps.Config.Observability.Notifications

	var sinks []notify.Sink
	if notifyCfg.OneSignal.Enabled {
		client, err := onesignal.NewClient(onesignal.Config{
			AppID:      notifyCfg.OneSignal.AppID,
			APIKey:     notifyCfg.OneSignal.APIKey,
			BaseURL:    notifyCfg.OneSignal.BaseURL,
			Timeout:    notifyCfg.Timeout,
			RetryLimit: notifyCfg.RetryLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("build onesignal client: %w", err)
		}
		sinks = append(sinks, client)
	}

	opts := service.DispatcherServiceOptions{
		Store:     deps.JobRepo,
		Sinks:     sinks,
		DedupeTTL: notifyCfg.DedupeTTL,
		Logger:    deps.Logger,
	}
	if deps.CacheRepo != nil {
		opts.Cache = deps.CacheRepo
	}

	dispatcher, err := service.NewDispatcherService(opts)
	if err != nil {
		return nil, fmt.Errorf("build dispatcher service: %w", err)
	}
	return dispatcher, nil
}

// ServiceOrchestrationConfig groups everything needed to run the enabled
// services.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Services    ServiceContainer
	Logger      *slog.Logger
}

// serviceStartupDeps carries shared state for starting services.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		Logger:   deps.logger,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error",
					"service", descriptor.name,
					"error", errMsg,
				)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started",
		"service", descriptor.name,
		"mode", descriptor.mode,
	)

	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newSchedulerBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeScheduler,
		name: "fulfillment scheduler",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil {
				return nil
			}
			var interval time.Duration
			if deps.cfg.Config != nil {
				interval = deps.cfg.Config.Scheduler.Interval
			}
			runner, err := schedulerrunner.NewRunner(schedulerrunner.RunnerOptions{
				Runner:   deps.cfg.Services.Scheduler,
				Interval: interval,
				Logger:   deps.logger,
				Metrics:  metricsSinkOrNil(deps.cfg.Services.Observability),
			})
			if err != nil {
				return err
			}
			return runner.Run(ctx)
		},
	}
}

func newReaperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeReaper,
		name: "reaper",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil {
				return nil
			}
			return deps.cfg.Services.Reaper.Run(ctx)
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newSchedulerBackgroundService(deps),
		newReaperBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	ctx := context.Background()
	serviceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	// Determine which services are enabled
	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	// Start all enabled services
	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	// Wait for shutdown signal or error
	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		metrics:     cfg.Services.Observability.MetricsSink,
		logger:      logger,
		backgrounds: result.Background,
	})
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	if count < 1 {
		return 1
	}
	return count + 1
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	metrics     *statsd.Client
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	// Gracefully stop HTTP server if running
	if cfg.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	// Wait for background services to finish
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	// Flush the metrics socket last so service shutdown metrics still emit
	if cfg.metrics != nil {
		if err := cfg.metrics.Close(); err != nil {
			cfg.logger.Warn("failed to close metrics client", "error", err)
		}
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
