package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mindwell-ai/mindwell/app/store"
	"github.com/mindwell-ai/mindwell/app/store/memstore"
	"github.com/mindwell-ai/mindwell/app/store/sqlstore"
	"github.com/mindwell-ai/mindwell/pkg/ai"
	"github.com/mindwell-ai/mindwell/pkg/ai/openai"
	"github.com/mindwell-ai/mindwell/pkg/ai/workflow"
	"github.com/mindwell-ai/mindwell/pkg/types"
)

type Core struct {
	cfg CoreConfig

	stores     store.Provider
	workflow   ai.WorkflowDriver
	cache      types.Cache
	httpEngine *gin.Engine

	metrics *Metrics
	closers []func() error
	Plugins
}

func setupLogger(cfg Log) {
	var writer io.Writer = os.Stdout
	if cfg.Path != "" {
		writer = &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    500, // megabytes
			MaxBackups: 3,
			MaxAge:     28,   //days
			Compress:   true, // disabled by default
		}
	}
	l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(l)
}

func MustSetupCore(cfg CoreConfig) *Core {
	cfg.Normalize()
	setupLogger(cfg.Log)

	var (
		stores  store.Provider
		closers []func() error
	)
	if cfg.Postgres.DSN != "" {
		sqlProvider := setupSqlStore(cfg.Postgres)
		stores = sqlProvider
		closers = append(closers, sqlProvider.Close)
	} else {
		slog.Warn("postgres is not configured, messages are kept in memory only")
		stores = memstore.New()
	}

	var cache types.Cache = NoneCache{}
	if cfg.Redis.Enabled() {
		client, err := setupRedis(cfg.Redis)
		if err != nil {
			panic(err)
		}
		cache = NewRedisCache(client)
		closers = append(closers, client.Close)
	} else {
		slog.Warn("redis is not configured, session ownership cache disabled")
	}

	core := NewCore(cfg, stores, MustSetupWorkflow(cfg.Workflow), cache)
	core.closers = closers
	return core
}

// NewCore wires an already connected set of dependencies, tests use it to inject fakes.
func NewCore(cfg CoreConfig, stores store.Provider, driver ai.WorkflowDriver, cache types.Cache) *Core {
	cfg.Normalize()
	if cache == nil {
		cache = NoneCache{}
	}
	return &Core{
		cfg:        cfg,
		stores:     stores,
		workflow:   driver,
		cache:      cache,
		metrics:    NewMetrics("mindwell", "core"),
		httpEngine: gin.New(),
	}
}

func MustSetupWorkflow(cfg WorkflowConfig) ai.WorkflowDriver {
	switch cfg.Driver {
	case WORKFLOW_DRIVER_OPENAI:
		if cfg.OpenAI.Token == "" {
			panic("workflow.openai.token is required for the openai driver")
		}
		return openai.New(openai.Config{
			Token:   cfg.OpenAI.Token,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Lang:    cfg.OpenAI.Lang,
			Timeout: cfg.Timeout(),

			MaxContextTokens: cfg.OpenAI.MaxContextTokens,
		})
	case WORKFLOW_DRIVER_HTTP, "":
		if cfg.EndpointURL == "" {
			panic("workflow.endpoint_url is required")
		}
		return workflow.New(workflow.Config{
			EndpointURL:   cfg.EndpointURL,
			Timeout:       cfg.Timeout(),
			APICredential: cfg.APICredential,
		})
	default:
		panic(fmt.Sprintf("unknown workflow driver %q", cfg.Driver))
	}
}

func setupSqlStore(cfg PGConfig) *sqlstore.Provider {
	p := sqlstore.MustSetup(cfg)()
	if cfg.AutoMigrate {
		// 执行数据库表初始化
		if err := p.Install(); err != nil {
			panic(err)
		}
		slog.Info("database migrations applied")
	}
	return p
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

func (s *Core) Store() store.Provider {
	return s.stores
}

func (s *Core) Workflow() ai.WorkflowDriver {
	return s.workflow
}

func (s *Core) Cache() types.Cache {
	return s.cache
}

// CacheKey prefixes key with the configured redis namespace.
func (s *Core) CacheKey(key string) string {
	return s.cfg.Redis.KeyPrefix + key
}

// Ping checks the database and, when configured, redis.
func (s *Core) Ping(ctx context.Context) error {
	if err := s.stores.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := s.cache.Ping(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

func (s *Core) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			slog.Error("failed to close resource", slog.String("error", err.Error()))
		}
	}
}
