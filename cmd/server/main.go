package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/datascope/backend/internal/api"
	"github.com/datascope/backend/internal/compare"
	"github.com/datascope/backend/internal/config"
	"github.com/datascope/backend/internal/export"
	"github.com/datascope/backend/internal/metric"
	"github.com/datascope/backend/internal/models"
	"github.com/datascope/backend/internal/parser"
	"github.com/datascope/backend/internal/prefs"
	"github.com/datascope/backend/internal/session"
	"github.com/datascope/backend/internal/storage"
	"github.com/datascope/backend/internal/watch"
	"github.com/datascope/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	configPath := filepath.Join(exeDir, "datascope.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = "./datascope.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Advanced.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Fatal("failed to create directories", zap.Error(err))
	}

	embeddedMode := web.HasEmbeddedFiles()

	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}

	prefStore, err := prefs.Open(cfg.Storage.PreferencesFile)
	if err != nil {
		logger.Fatal("failed to open preference store", zap.Error(err))
	}
	defer prefStore.Close()

	var metrics *metric.Metrics
	if cfg.Advanced.EnableMetrics {
		metrics = metric.New(prometheus.DefaultRegisterer)
	}

	registry := parser.NewRegistry(cfg.Processing.LenientJSON)
	sessionMgr := session.NewManager(registry, logger.Named("session"), metrics)

	hub := api.NewEventHub(logger.Named("ws"))
	sessionMgr.SetEventHandler(hub.Broadcast)

	// Background session cleanup
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Processing.CleanupIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			sessionMgr.CleanupOldSessions(time.Duration(cfg.Processing.SessionTimeoutMinutes) * time.Minute)
		}
	}()

	// Optional drop-folder ingestion
	if cfg.Watch.Enabled {
		watcher, err := watch.New(fileStore, logger.Named("watch"))
		if err != nil {
			logger.Fatal("failed to initialize watcher", zap.Error(err))
		}
		defer watcher.Close()
		watcher.SetIngestHandler(func(info *models.FileInfo) {
			hub.Broadcast(api.EventFileAdded, info)
		})
		if err := watcher.Watch(context.Background(), cfg.Watch.Directory); err != nil {
			logger.Fatal("failed to watch drop folder",
				zap.String("dir", cfg.Watch.Directory), zap.Error(err))
		}
		logger.Info("watching drop folder", zap.String("dir", cfg.Watch.Directory))
	}

	resolver := compare.NewResolver(sessionMgr, fileStore, registry)
	exporter := export.NewExporter(sessionMgr)
	h := api.NewHandler(fileStore, sessionMgr, resolver, exporter, prefStore, logger.Named("api"))

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/status") ||
				strings.HasSuffix(path, "/keepalive") ||
				path == "/api/health" ||
				path == "/metrics"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.Contains(path, "/upload") ||
				strings.Contains(path, "/records") ||
				strings.Contains(path, "/ws/")
		},
	}))

	if cfg.Processing.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Processing.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				return strings.Contains(c.Request().URL.Path, "/ws/")
			},
		}))
	}

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.EnableCORS {
		origins := []string{
			"http://localhost:5173", "http://127.0.0.1:5173",
			"http://localhost:3000", "http://127.0.0.1:3000",
		}
		if cfg.Server.AllowOrigins != "" {
			origins = origins[:0]
			for _, o := range strings.Split(cfg.Server.AllowOrigins, ",") {
				origins = append(origins, strings.TrimSpace(o))
			}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	api.RegisterRoutes(e, h, hub, cfg.Advanced.EnableMetrics)

	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warn("failed to register static routes", zap.Error(err))
		} else {
			logger.Info("serving embedded frontend from binary")
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	logger.Info("starting DataScope server",
		zap.String("version", Version),
		zap.String("buildTime", BuildTime),
		zap.String("addr", cfg.GetServerAddr()),
		zap.Bool("embedded", embeddedMode))

	if embeddedMode {
		fmt.Printf("Open http://localhost:%d in your browser\n", cfg.Server.Port)
	}

	e.Logger.Fatal(e.StartServer(s))
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	logCfg := zap.NewProductionConfig()
	logCfg.Level = zap.NewAtomicLevelAt(lvl)
	logCfg.Encoding = "console"
	logCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return logCfg.Build()
}
