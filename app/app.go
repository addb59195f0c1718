package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"tool_inventory/cache"
	"tool_inventory/config"
	"tool_inventory/db"
	"tool_inventory/inventory"
	"tool_inventory/models"
	"tool_inventory/qr"
	"tool_inventory/session"
	"tool_inventory/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Ctx = gin.Context
type H = gin.H

// App holds the wired dependencies.
type App struct {
	Router  *gin.Engine
	DB      *gorm.DB
	RDB     *redis.Client
	Config  config.Config
	Log     *zap.Logger
	Service *inventory.Service
	Users   *session.Directory
	Limiter *session.LoginLimiter

	appSess *session.AppSessionStore
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

func MustNew() *App {
	cfg := config.Load()
	a, err := New(cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	return a
}

// New connects to the configured store and redis, then builds the App.
func New(cfg config.Config) (*App, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	dbConn, err := db.Connect(cfg, logger.Named("gorm"))
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	users, err := session.ParseDirectory(cfg.Users)
	if err != nil {
		return nil, fmt.Errorf("APP_USERS: %w", err)
	}
	return Build(cfg, logger, dbConn, rdb, users)
}

// Build wires already opened connections. Tests call it directly.
func Build(cfg config.Config, logger *zap.Logger, dbConn *gorm.DB, rdb *redis.Client, users *session.Directory) (*App, error) {
	repo := db.NewRepo(dbConn)
	codes, err := storage.NewFS(cfg.QRDir)
	if err != nil {
		return nil, err
	}
	images, err := storage.NewFS(cfg.ImageDir)
	if err != nil {
		return nil, err
	}
	issuer := qr.NewIssuer(repo, codes, logger.Named("codes"))

	opts := inventory.Options{OverdueThreshold: cfg.OverdueThreshold}
	switch cfg.CacheBackend {
	case "redis":
		opts.ToolsCache = cache.NewRedis[[]models.Tool](rdb, cache.Key("tools"), cfg.ToolsCacheTTL)
		opts.StatsCache = cache.NewRedis[models.Stats](rdb, cache.Key("stats"), cfg.StatsCacheTTL)
	case "memory", "":
		opts.ToolsCache = cache.NewMemory[[]models.Tool](cfg.ToolsCacheTTL)
		opts.StatsCache = cache.NewMemory[models.Stats](cfg.StatsCacheTTL)
	default:
		return nil, fmt.Errorf("unknown CACHE_BACKEND %q", cfg.CacheBackend)
	}
	svc := inventory.New(repo, issuer, images, logger.Named("inventory"), opts)

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger.Named("http")))
	useCORS(r, cfg.WebOrigin)

	a := &App{
		Router:  r,
		DB:      dbConn,
		RDB:     rdb,
		Config:  cfg,
		Log:     logger,
		Service: svc,
		Users:   users,
		Limiter: session.NewLoginLimiter(rdb, 5, 15*time.Minute),
		appSess: session.NewAppSessionStore(rdb, cfg.SessionTTL),
	}
	CheckAccounts(logger, users)
	return a, nil
}

func (a *App) Close() {
	_ = a.RDB.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.Log.Sync()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
