package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"stock-advisor/internal/app"
	"stock-advisor/internal/bot"
	"stock-advisor/internal/cache"
	"stock-advisor/internal/config"
	"stock-advisor/internal/db"
	"stock-advisor/internal/handler"
	"stock-advisor/internal/job"
	"stock-advisor/internal/repository"
	"stock-advisor/pkg/tracing"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "stock-advisor/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	runMigrationsFunc      = func(ctx context.Context, pool *pgxpool.Pool) error { return repository.RunMigrations(ctx, pool) }
	closePostgresFunc      = func(pool *pgxpool.Pool) { pool.Close() }
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newLLMClientFunc       = app.NewLLMClient
	newServicesFunc        = app.NewServices
	newRefreshPollerFunc   = job.NewRefreshPoller
	startRefreshPollerFunc = func(p *job.RefreshPoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Stock Advisor API
// @version         1.0
// @description     Fuses LLM news sentiment with price trend into Buy/Hold/Sell recommendations.

// @host      localhost:8080
// @BasePath  /
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := initPostgresFunc(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatal("failed to connect to postgres", "err", err)
	}
	var store repository.PgxPool
	if pool != nil {
		defer closePostgresFunc(pool)
		if err := runMigrationsFunc(ctx, pool); err != nil {
			log.Fatal("failed to run migrations", "err", err)
		}
		store = pool
	}

	redisClient, err := initRedisFunc(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, recommendation cache disabled", "err", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatal("failed to initialize tracer", "err", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error("error shutting down tracer provider", "err", err)
		}
	}()

	services := newServicesFunc(cfg, app.Deps{
		Pool:   store,
		Redis:  redisClient,
		Tracer: tracer,
		LLM:    newLLMClientFunc(ctx, cfg),
	})

	// Telegram first so the refresh job can push action changes to subscribers.
	alerts := startTelegramBotFunc(cfg.TelegramBotToken, services.Analysis, services.Recommendations, services.Market)
	var notifier job.ChangeNotifier
	if alerts != nil {
		notifier = alerts
	}
	poller := newRefreshPollerFunc(tracer, services.Recommendations, services.Analysis, notifier,
		time.Duration(cfg.RefreshPollMins)*time.Minute)
	startRefreshPollerFunc(poller, ctx)

	h := newHandlerFunc(tracer, services.Analysis, services.Recommendations, services.Market)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))
	r.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    httpAddr(cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "err", err)
		return
	}

	log.Info("Server exiting")
}

func httpAddr(port int) string {
	if port <= 0 {
		port = 8080
	}
	return fmt.Sprintf(":%d", port)
}

// corsConfig allows every origin when none are configured.
func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodDelete, http.MethodOptions}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
