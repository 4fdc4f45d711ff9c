package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/neurobridge-curriculum/internal/config"
	apphttp "github.com/yungbote/neurobridge-curriculum/internal/http"
	"github.com/yungbote/neurobridge-curriculum/internal/observability"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      config.Config
	Services Services
	Server   *apphttp.Server
	closers  []closer
}

// New wires every component from cfg. On failure it releases whatever was opened.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	log, err := logger.NewWithOptions(logger.Options{
		Mode:      cfg.Log.Mode,
		Level:     cfg.Log.Level,
		Redaction: cfg.Log.Redaction,
		HashSalt:  cfg.Log.HashSalt,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &App{Log: log, Cfg: cfg}
	if err := a.wire(ctx); err != nil {
		a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	log, cfg := a.Log, a.Cfg
	log.Info("Wiring curriculum service...", "environment", cfg.Environment)

	a.closers = append(a.closers, observability.InitOTel(ctx, log, cfg.Environment, cfg.Otel))

	bucket, err := openMaterialBucket(ctx, log, cfg)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func(context.Context) error { return bucket.Close() })

	repo, closeLedger, err := wireLedger(log, cfg.Ledger)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	if closeLedger != nil {
		a.closers = append(a.closers, closeLedger)
	}

	registry, closeRegistry, err := wireRegistry(ctx, log, cfg.Cache)
	if err != nil {
		return fmt.Errorf("init cache registry: %w", err)
	}
	if closeRegistry != nil {
		a.closers = append(a.closers, closeRegistry)
	}

	remote, gen, err := wireManagedContext(ctx, log, cfg)
	if err != nil {
		return fmt.Errorf("init vertex ai: %w", err)
	}

	a.Services, err = wireServices(log, cfg, bucket, repo, remote, registry, gen)
	if err != nil {
		return err
	}
	a.Server = apphttp.NewServer(wireRouterConfig(log, cfg, a.Services))
	return nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTP.Addr)
	return a.Server.Run(ctx, a.Cfg.HTTP.Addr, a.Cfg.HTTP.ShutdownTimeout.Duration)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.Log != nil {
		a.Log.Sync()
	}
	return errors.Join(errs...)
}
