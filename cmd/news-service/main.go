package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-goodnews/internal/news/analyzer"
	"golang-goodnews/internal/news/config"
	delivery "golang-goodnews/internal/news/delivery/http"
	_ "golang-goodnews/internal/news/docs"
	"golang-goodnews/internal/news/repository"
	"golang-goodnews/internal/news/service"
	"golang-goodnews/internal/news/source"
	"golang-goodnews/pkg/logger"
	"golang-goodnews/pkg/postgres"
	"golang-goodnews/pkg/redis"
	"golang-goodnews/pkg/telegram"
	"golang-goodnews/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the news service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	zap.ReplaceGlobals(appLogger.Logger)

	appLogger.Info("Starting News Service", logger.Field("name", cfg.App.Name), logger.StringField("env", cfg.App.Env))

	articleRepo, runRepo := newRepositories(cfg, appLogger)

	var redisClient *redis.Client
	if cfg.Cache.Driver == repository.CacheDriverRedis {
		redisClient, err = redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
		}
		defer redisClient.Close()
	}

	var cacheRepo repository.CacheRepository
	if redisClient != nil {
		cacheRepo, err = repository.NewCacheRepository(cfg.Cache, redisClient.Client)
	} else {
		cacheRepo, err = repository.NewCacheRepository(cfg.Cache, nil)
	}
	if err != nil {
		appLogger.Fatal("Failed to initialize cache", logger.ErrorField(err))
	}

	newsSource, err := source.NewDefaultRegistry(cfg, appLogger).Get(cfg.News.Adapter)
	if err != nil {
		appLogger.Fatal("Failed to select news source", logger.ErrorField(err), logger.StringField("adapter", cfg.News.Adapter))
	}
	if !newsSource.IsAvailable() {
		appLogger.Warn("Selected news source has no available provider", logger.StringField("adapter", newsSource.Name()))
	}

	analyzers, err := analyzer.NewDefaultRegistry(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize analyzers", logger.ErrorField(err))
	}
	positivityAnalyzer, err := analyzers.Get(cfg.News.Analyzer)
	if err != nil {
		appLogger.Fatal("Failed to select positivity analyzer", logger.ErrorField(err), logger.StringField("analyzer", cfg.News.Analyzer))
	}

	appLogger.Info("News pipeline configured",
		logger.StringField("adapter", newsSource.Name()),
		logger.StringField("analyzer", positivityAnalyzer.Name()),
		logger.IntField("min_positivity", cfg.News.MinPositivityScore),
	)

	newsSvc := service.NewNewsService(cfg, newsSource, positivityAnalyzer, articleRepo, cacheRepo, appLogger)
	refreshSvc := service.NewRefreshService(cfg, newsSvc, articleRepo, runRepo, newNotifier(cfg, appLogger), appLogger)

	utils.GoSafe(func() {
		if err := refreshSvc.Start(ctx); err != nil {
			appLogger.Error("Refresh scheduler failed", logger.ErrorField(err))
			stop()
		}
	})

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(delivery.RequestID())
	e.Use(delivery.AccessLog(appLogger))

	apiV1 := e.Group("/api/v1")
	newsHandler := delivery.NewNewsHandler(newsSvc, appLogger)
	newsHandler.RegisterRoutes(apiV1.Group("/news"))

	runHandler := delivery.NewRefreshRunHandler(refreshSvc, appLogger)
	runHandler.RegisterRoutes(apiV1.Group("/refresh/runs"))

	systemHandler := delivery.NewSystemHandler(newsSvc, appLogger, cfg.App.Name, cfg.App.Version)
	systemHandler.RegisterRoutes(e, apiV1)

	e.GET("/swagger/*", swagger.WrapHandler)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// newRepositories connects to PostgreSQL. The service keeps serving fresh
// articles without persistence when the database is unreachable.
func newRepositories(cfg *config.Config, appLogger *logger.Logger) (repository.ArticleRepository, repository.RefreshRunRepository) {
	db, err := postgres.NewDB(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
		ConnectTimeout:  5 * time.Second,
	})
	if err != nil {
		appLogger.Warn("Database unavailable, running without article storage", logger.ErrorField(err))
		return repository.NewUnavailableArticleRepository(), repository.NewUnavailableRefreshRunRepository()
	}
	return repository.NewArticleRepository(db.DB), repository.NewRefreshRunRepository(db.DB)
}

func newNotifier(cfg *config.Config, appLogger *logger.Logger) telegram.Notifier {
	if cfg.Telegram.BotToken == "" {
		return nil
	}
	notifier, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		appLogger.Warn("Telegram digest disabled", logger.ErrorField(err))
		return nil
	}
	return notifier
}

// @title Good News API
// @version 1.0
// @description Aggregates, scores and serves positive news.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "news-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-news.yaml", "Path to the configuration file")
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing news-service CLI: %s\n", err)
		os.Exit(1)
	}
}
