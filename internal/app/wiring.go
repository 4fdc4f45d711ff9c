package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/neurobridge-curriculum/internal/config"
	"github.com/yungbote/neurobridge-curriculum/internal/data/ledger"
	apphttp "github.com/yungbote/neurobridge-curriculum/internal/http"
	httpH "github.com/yungbote/neurobridge-curriculum/internal/http/handlers"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/contextcache"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/curriculum"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/lessonplan"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/materials"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/gcp"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

type closer func(context.Context) error

type Services struct {
	Ledger     *ledger.Repo
	Sweeper    *materials.Sweeper
	Stager     *materials.Stager
	Cache      *contextcache.ContextCache
	Curriculum *curriculum.Service
	ParseMode  lessonplan.ParseMode
}

func wireLedger(log *logger.Logger, cfg config.LedgerConfig) (*ledger.Repo, closer, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil, nil
	}
	db, err := ledger.Open(log, driver, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("ledger sql handle: %w", err)
	}
	log.Info("Ledger connected", "driver", driver)
	return ledger.NewRepo(db, log), func(context.Context) error { return sqlDB.Close() }, nil
}

// wireManagedContext uses Vertex AI when a project is configured. Without one the
// service runs against an in-process managed context and offers no generation.
func wireManagedContext(ctx context.Context, log *logger.Logger, cfg config.Config) (contextcache.ManagedContext, curriculum.Generator, error) {
	if strings.TrimSpace(cfg.GCP.ProjectID) == "" {
		log.Warn("No GCP project configured; using in-memory managed context and disabling generation")
		return contextcache.NewMemoryManagedContext(nil), nil, nil
	}
	vcfg := gcp.VertexConfig{
		ProjectID:   cfg.GCP.ProjectID,
		Region:      cfg.GCP.Region,
		Credentials: cfg.GCP.Credentials,
	}
	svc, err := gcp.NewVertexService(ctx, vcfg)
	if err != nil {
		return nil, nil, err
	}
	remote, err := gcp.NewCachedContentService(log, svc, vcfg)
	if err != nil {
		return nil, nil, err
	}
	gen, err := gcp.NewGenerator(log, svc, vcfg, cfg.Cache.Model)
	if err != nil {
		return nil, nil, err
	}
	return remote, gen, nil
}

func wireRegistry(ctx context.Context, log *logger.Logger, cfg config.CacheConfig) (contextcache.Registry, closer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Registry)) {
	case "", "none":
		return nil, nil, nil
	case "memory":
		return contextcache.NewMemoryRegistry(), nil, nil
	case "redis":
		rdb, err := contextcache.DialRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Cache registry connected", "backend", "redis", "addr", cfg.RedisAddr)
		return contextcache.NewRedisRegistry(rdb, cfg.RedisKeyPrefix), func(context.Context) error { return rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache registry %q", cfg.Registry)
	}
}

func wireServices(log *logger.Logger, cfg config.Config, store materials.BlobStore, repo *ledger.Repo, remote contextcache.ManagedContext, registry contextcache.Registry, gen curriculum.Generator) (Services, error) {
	parseMode, err := lessonplan.ParseParseMode(cfg.Plan.ResourceTypeParsing)
	if err != nil {
		return Services{}, err
	}

	var stagerOpts []materials.StagerOption
	var cacheOpts []contextcache.Option
	if repo != nil {
		stagerOpts = append(stagerOpts, materials.WithRecorder(repo))
		cacheOpts = append(cacheOpts, contextcache.WithHandleRecorder(repo))
	}
	if registry != nil {
		cacheOpts = append(cacheOpts, contextcache.WithRegistry(registry))
	}

	stager, err := materials.NewStager(log, store, materials.StagerConfig{
		Namespace:     cfg.Storage.Namespace,
		Sink:          materials.SinkContextCache,
		Concurrency:   cfg.Storage.Concurrency,
		UploadTimeout: cfg.Storage.UploadTimeout.Duration,
	}, stagerOpts...)
	if err != nil {
		return Services{}, err
	}
	cache, err := contextcache.New(log, stager, remote, contextcache.Config{
		Model:              cfg.Cache.Model,
		DefaultTTL:         cfg.Cache.DefaultTTL.Duration,
		DefaultInstruction: cfg.Cache.DefaultInstruction,
		DisplayNamePrefix:  cfg.Cache.DisplayNamePrefix,
		Namespace:          cfg.Storage.Namespace,
	}, cacheOpts...)
	if err != nil {
		return Services{}, err
	}

	out := Services{Ledger: repo, Stager: stager, Cache: cache, ParseMode: parseMode}
	if ls, ok := store.(materials.ListingStore); ok && repo != nil {
		if out.Sweeper, err = materials.NewSweeper(log, ls, repo); err != nil {
			return Services{}, err
		}
	}
	if gen != nil {
		out.Curriculum, err = curriculum.NewService(log, cache, gen, curriculum.Config{
			Model:             cfg.Cache.Model,
			CacheTTL:          cfg.Cache.DefaultTTL.Duration,
			ResourceParsing:   parseMode,
			MaxRepairAttempts: cfg.Plan.MaxRepairAttempts,
		})
		if err != nil {
			return Services{}, err
		}
	}
	return out, nil
}

func wireRouterConfig(log *logger.Logger, cfg config.Config, svc Services) apphttp.RouterConfig {
	rc := apphttp.RouterConfig{
		Log:            log,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		HealthHandler: httpH.NewHealthHandler(httpH.Capabilities{
			Generation: svc.Curriculum != nil,
			Ledger:     svc.Ledger != nil,
			Registry:   strings.ToLower(strings.TrimSpace(cfg.Cache.Registry)),
		}),
		MaterialHandler: httpH.NewMaterialHandler(log, svc.Stager, cfg.HTTP.MaxUploadBytes),
		CacheHandler:    httpH.NewCacheHandler(log, svc.Cache, cfg.HTTP.MaxUploadBytes),
	}
	if cfg.Otel.Enabled {
		rc.ServiceName = cfg.Otel.ServiceName
	}

	var planGen httpH.PlanGenerator
	if svc.Curriculum != nil {
		planGen = svc.Curriculum
	}
	rc.LessonPlanHandler = httpH.NewLessonPlanHandler(log, planGen, lessonplan.ValidateOptions{ResourceParsing: svc.ParseMode})

	if svc.Ledger != nil {
		var sweeper httpH.OrphanSweeper
		if svc.Sweeper != nil {
			sweeper = svc.Sweeper
		}
		rc.LedgerHandler = httpH.NewLedgerHandler(log, svc.Ledger, sweeper)
	}
	return rc
}
