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

	"github.com/okian/gatedirector/internal/adapters/http/api"
	"github.com/okian/gatedirector/internal/adapters/http/swagger"
	"github.com/okian/gatedirector/internal/adapters/menu"
	"github.com/okian/gatedirector/internal/adapters/notify"
	"github.com/okian/gatedirector/internal/adapters/repository"
	"github.com/okian/gatedirector/internal/adapters/simvar"
	"github.com/okian/gatedirector/internal/adapters/tooltip"
	app "github.com/okian/gatedirector/internal/app"
	"github.com/okian/gatedirector/internal/config"
	"github.com/okian/gatedirector/internal/domain/assignment"
	"github.com/okian/gatedirector/internal/domain/gate"
	"github.com/okian/gatedirector/internal/domain/matcher"
	"github.com/okian/gatedirector/internal/domain/walker"
	"github.com/okian/gatedirector/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
	menuReadInterval       = 10 * time.Millisecond
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Reopen with the diagnostic file sink once its path is known.
	if cfg.LogFile != "" {
		if err := logger.Init(logger.WithConsole(os.Stdout), logger.WithFile(cfg.LogFile)); err != nil {
			os.Stderr.WriteString("failed to open log file: " + err.Error() + "\n")
			return
		}
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := build(cfg, log)
	if err != nil {
		log.Error(ctx, "failed to wire director", logger.Error(err))
		return
	}

	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	swagger.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}()

	if err := svc.Run(ctx); err != nil {
		log.Error(ctx, "director stopped with error", logger.Error(err))
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// build wires every component from cfg.
func build(cfg *config.Config, log logger.Logger) (*app.Service, error) {
	store, err := repository.NewFileStore(cfg.DataDir,
		repository.WithCacheSize(cfg.CatalogCacheSize),
		repository.WithCacheTTL(cfg.CatalogCacheTTL),
		repository.WithStaleLockAge(cfg.StaleLockAge),
		repository.WithLogger(log.Named("repository")),
	)
	if err != nil {
		return nil, fmt.Errorf("catalog store: %w", err)
	}

	vars := simvar.NewHTTPClient(cfg.SimBridgeURL,
		simvar.WithTimeout(cfg.SimBridgeTimeout),
		simvar.WithLogger(log.Named("simvar")),
	)
	reader := menu.NewFileReader(cfg.MenuFilePaths,
		menu.WithReadRetries(cfg.MenuReadRetries, menuReadInterval),
		menu.WithReaderLogger(log.Named("menu")),
	)
	nav := menu.NewNavigator(reader, vars,
		menu.WithTiming(cfg.ClickSettle, cfg.MenuPollInterval),
		menu.WithBudgets(cfg.MenuCheckAttempts, cfg.MenuOpenPolls, cfg.NextAttempts, cfg.MaxFindPages),
		menu.WithControlKeywords(cfg.ControlKeywords),
		menu.WithLogger(log.Named("navigator")),
	)
	w := walker.New(nav,
		walker.WithControlKeywords(cfg.ControlKeywords),
		walker.WithSkipKeywords(cfg.SkipKeywords),
		walker.WithMaxPages(cfg.MaxWalkPages),
		walker.WithLogger(log.Named("walker")),
	)

	orch, err := assignment.New(assignment.Deps{
		Store:     store,
		Walker:    w,
		Navigator: nav,
		Confirmer: tooltip.NewConfirmer(cfg.TooltipFilePaths, cfg.TooltipSuccessKeyphrases,
			tooltip.WithLogger(log.Named("tooltip"))),
		Ground: vars,
		Matcher: matcher.New(
			matcher.WithWeights(matcher.Weights{
				Numeric:  cfg.Matching.Numeric,
				Prefix:   cfg.Matching.Prefix,
				Terminal: cfg.Matching.Terminal,
			}),
			matcher.WithConfidence(cfg.ConfidentPrefixScore, cfg.ConfidentNumberScore),
		),
		Notifier: notify.New(cfg.NotifyURL, cfg.NotifyAPIKey, notify.WithLogger(log.Named("notify"))),
	}, assignment.WithConfig(assignment.Config{
		AssignAttempts:          cfg.AssignAttempts,
		RetryDelay:              cfg.RetryDelay,
		GroundInterval:          cfg.GroundCheckInterval,
		ConfirmTimeout:          cfg.ConfirmTimeout,
		ConfirmInterval:         cfg.ConfirmInterval,
		AirlineConfirmTimeout:   cfg.AirlineConfirmTimeout,
		UnchangedConfirmTimeout: cfg.UnchangedConfirmTimeout,
		NotifyTimeout:           cfg.NotifyTimeout,
		ActivateKeywords:        cfg.ActivateKeywords,
		DefaultAirline:          cfg.DefaultAirline,
		MinScore:                cfg.MinMatchScore,
	}), assignment.WithLogger(log.Named("assignment")))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	parser := gate.NewParser(
		gate.WithTerminalKeywords(cfg.TerminalKeywords),
		gate.WithNoiseKeywords(cfg.NoiseKeywords),
	)
	return app.New(orch, store, vars,
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithFlightData(cfg.FlightJSONPath, cfg.FlightPollInterval),
		app.WithAutoPrepare(cfg.AutoPrepare),
		app.WithParser(parser),
		app.WithLogger(log.Named("service")),
	), nil
}

// startServiceMetricsUpdater refreshes queue and runtime gauges that only
// change when stats are read.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}
