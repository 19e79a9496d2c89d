package main

import (
	"context"
	"errors"
	"net"
	"os"
	ossignal "os/signal"
	"strconv"
	"syscall"
	"time"

	"stock-advisor/internal/app"
	"stock-advisor/internal/cache"
	"stock-advisor/internal/config"
	"stock-advisor/internal/db"
	"stock-advisor/internal/repository"
	"stock-advisor/internal/tui"
	"stock-advisor/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	initPostgresFunc  = db.InitPostgres
	runMigrationsFunc = func(ctx context.Context, pool *pgxpool.Pool) error { return repository.RunMigrations(ctx, pool) }
	closePostgresFunc = func(pool *pgxpool.Pool) { pool.Close() }
	initRedisFunc     = cache.InitRedis
	initTracerFunc    = tracing.InitTracer
	newLLMClientFunc  = app.NewLLMClient
	newServicesFunc   = app.NewServices
	runProgramFunc    = func(m tea.Model) error {
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	}
	newSSHServerFunc      = newSSHServer
	startSSHServerFunc    = func(srv *ssh.Server) error { return srv.ListenAndServe() }
	shutdownSSHServerFunc = func(srv *ssh.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify     = ossignal.Notify
	waitForSignalFunc     = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !cfg.DashboardSSHEnabled {
		// the terminal belongs to the TUI
		log.SetLevel(log.ErrorLevel)
	}

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
	base := tui.Services{
		Recommendations: services.Recommendations,
		Analyzer:        services.Analysis,
		News:            services.Market,
	}

	if !cfg.DashboardSSHEnabled {
		if err := runProgramFunc(tui.NewAppModel(base)); err != nil {
			log.Fatal("dashboard failed", "err", err)
		}
		return
	}

	if err := runSSHMode(cfg, base); err != nil {
		log.Fatal("ssh dashboard failed", "err", err)
	}
}

func runSSHMode(cfg *config.Config, base tui.Services) error {
	addr := sshAddr(cfg.DashboardSSHHost, cfg.DashboardSSHPort)
	srv, err := newSSHServerFunc(addr, cfg.DashboardSSHHostKey, base)
	if err != nil {
		return err
	}

	go func() {
		log.Info("SSH dashboard listening", "addr", addr)
		if err := startSSHServerFunc(srv); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Error("ssh server failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info("Shutting down SSH dashboard...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return shutdownSSHServerFunc(srv, ctx)
}

func newSSHServer(addr, hostKeyPath string, base tui.Services) (*ssh.Server, error) {
	return wish.NewServer(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithMiddleware(
			bm.Middleware(sessionHandler(base)),
			activeterm.Middleware(),
			logging.Middleware(),
		),
	)
}

func sessionHandler(base tui.Services) bm.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		pty, _, _ := s.Pty()
		return sessionModel(base, s.User(), pty.Window.Width, pty.Window.Height), []tea.ProgramOption{tea.WithAltScreen()}
	}
}

// sessionModel builds a per-connection model tagged with the SSH user.
func sessionModel(base tui.Services, user string, width, height int) tui.AppModel {
	svc := base
	svc.Username = user
	m := tui.NewAppModel(svc)
	if width > 0 && height > 0 {
		m.SetSize(width, height)
	}
	return m
}

func sshAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
