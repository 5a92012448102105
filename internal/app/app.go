package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"notemate-backend/internal/cache"
	"notemate-backend/internal/config"
	"notemate-backend/internal/handler"
	"notemate-backend/internal/middleware"
	"notemate-backend/internal/pipeline"
	"notemate-backend/internal/repository"
	"notemate-backend/internal/router"
	"notemate-backend/internal/service"
)

type App struct {
	server          *http.Server
	logger          *slog.Logger
	pool            *pgxpool.Pool
	redis           *redis.Client
	memory          *cache.Memory
	shutdownTimeout time.Duration
}

// Deps общие ресурсы процесса, создаются один раз при старте
type Deps struct {
	Config  config.Config
	Logger  *slog.Logger
	Service *service.Service
	// LogOutput куда пишутся строки формата dev
	LogOutput io.Writer
	Health    []handler.HealthCheck
}

// Mount под-приложение таблицы маршрутов
type Mount struct {
	Prefix  string
	Handler http.Handler
}

// Mounts стандартная таблица /api/*
func Mounts(h *handler.Handler) []Mount {
	return []Mount{
		{Prefix: "/api/auth", Handler: h.AuthRoutes()},
		{Prefix: "/api/note", Handler: h.CollectionRoutes("note")},
		{Prefix: "/api/todo", Handler: h.CollectionRoutes("todo")},
		{Prefix: "/api/transcription", Handler: handler.Unavailable("transcription")},
		{Prefix: "/api/formula", Handler: h.CollectionRoutes("formula")},
		{Prefix: "/api/timetable", Handler: h.CollectionRoutes("timetable")},
		{Prefix: "/api/cloud", Handler: handler.Unavailable("cloud storage")},
		{Prefix: "/api/feedback", Handler: h.CollectionRoutes("feedback")},
		{Prefix: "/api/file", Handler: handler.Unavailable("file storage")},
	}
}

// NewLogger slog логгер по LOG_LEVEL и LOG_FORMAT
func NewLogger(cfg config.Config, out io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == middleware.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// NewRouter собирает конвейер: стадии, таблицу маршрутов и обработчик ошибок.
// extra монтируются после стандартных префиксов.
func NewRouter(deps Deps, extra ...Mount) (http.Handler, error) {
	cfg, logger := deps.Config, deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mw := middleware.NewMiddleware(deps.Service, logger, !cfg.IsProduction())
	h := handler.NewHandler(deps.Service, mw, logger, cfg.IsProduction())

	table := router.NewTable()
	if err := table.Get("/", http.HandlerFunc(h.Root)); err != nil {
		return nil, err
	}
	if err := table.Get("/healthz", handler.Health(deps.Health...)); err != nil {
		return nil, err
	}
	for _, m := range append(Mounts(h), extra...) {
		if err := table.Mount(m.Prefix, m.Handler); err != nil {
			return nil, fmt.Errorf("failed to mount %s: %w", m.Prefix, err)
		}
	}
	routes, err := table.Build(middleware.NotFound, middleware.MethodNotAllowed)
	if err != nil {
		return nil, err
	}

	stages := []pipeline.Stage{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.BodyParser(cfg.BodyLimit),
		middleware.CookieParser(),
		mw.Logging(cfg.LogFormat, deps.LogOutput),
		middleware.CORS(cfg.AllowedOrigins(), logger),
		middleware.Timeout(cfg.RequestTimeout),
	}

	p := pipeline.New(routes, mw.HandleError, stages...)
	logger.Debug("Router ready", "stages", p.Stages(), "prefixes", table.Prefixes())
	return p, nil
}

func NewApp(cfg config.Config) (*App, error) {
	// Logger
	logger := NewLogger(cfg, os.Stdout)

	// Database: без базы сервер не стартует
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBConnectTimeout)
	defer cancel()

	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("database is unreachable: %w", err)
	}
	logger.Info("Connected to database")

	// Repositories
	pg := repository.NewPostgres(dbPool)
	if err := pg.EnsureSchema(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to prepare schema: %w", err)
	}

	// Cache
	var (
		cacheRepo   service.Cache
		redisClient *redis.Client
		memory      *cache.Memory
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			dbPool.Close()
			return nil, fmt.Errorf("redis is unreachable: %w", err)
		}
		cacheRepo = cache.NewRedisCache(redisClient, cfg.CacheTTLList, cfg.CacheTTLItem)
	} else {
		logger.Warn("REDIS_ADDR is not set, using in-process cache")
		memory = cache.NewMemory(cfg.CacheTTLList, cfg.CacheTTLItem, cfg.CacheMemoryCap)
		cacheRepo = memory
	}

	// Service
	svc := service.NewService(pg, pg, cacheRepo, cfg.JWTSecret, cfg.TokenTTL, logger)

	// Router
	r, err := NewRouter(Deps{
		Config:    cfg,
		Logger:    logger,
		Service:   svc,
		LogOutput: os.Stdout,
		Health: []handler.HealthCheck{
			{Name: "database", Check: dbPool.Ping},
			{Name: "cache", Check: svc.CachePing},
		},
	})
	if err != nil {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		if memory != nil {
			memory.Close()
		}
		dbPool.Close()
		return nil, err
	}

	// Server
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	return &App{
		server:          srv,
		logger:          logger,
		pool:            dbPool,
		redis:           redisClient,
		memory:          memory,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

func (a *App) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("Failed to close redis client", "error", err)
		}
	}
	if a.memory != nil {
		a.memory.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *App) Run() error {
	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.close()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	a.logger.Info("Server running", "addr", a.server.Addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	a.logger.Info("Shutting down server...")

	timeout := a.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server shutdown failed", "error", err)
		return err
	}
	a.logger.Info("Server exited")
	return nil
}
