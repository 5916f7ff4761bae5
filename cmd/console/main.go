package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/blaxing-console/internal/apiclient"
	"github.com/xela07ax/blaxing-console/internal/console/server"
	"github.com/xela07ax/blaxing-console/internal/dashboard"
	"github.com/xela07ax/blaxing-console/internal/infra"
	"github.com/xela07ax/blaxing-console/internal/journal"
	"github.com/xela07ax/blaxing-console/internal/repository/postgres"
	"github.com/xela07ax/blaxing-console/internal/resource"
	"github.com/xela07ax/blaxing-console/internal/signal"
	"github.com/xela07ax/blaxing-console/internal/state"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// 1. Конфиг и логгер
	cfg, err := infra.LoadConfigFrom(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Клиент к бэкенду и метрики
	reg := prometheus.NewRegistry()
	headers := cfg.Backend.Headers()
	client := apiclient.New(cfg.Backend.BaseURL, headers, logger,
		apiclient.WithTimeout(cfg.Backend.Timeout),
		apiclient.WithMetrics(apiclient.NewMetrics(reg)))

	// 3. Журнал: Postgres, если задан, иначе в лог
	var (
		storage journal.Storage = journal.NewLogStorage(logger)
		reader  journal.Reader
	)
	if cfg.Database.URL != "" {
		repo, err := openJournalRepo(appCtx, cfg.Database)
		if err != nil {
			logger.Fatal("journal database unreachable", zap.Error(err))
		}
		defer repo.Close()
		storage, reader = repo, repo
	}
	jrnl := journal.New(storage, logger)
	jrnl.Start()
	defer jrnl.Stop()

	opts := []dashboard.Option{
		dashboard.WithPollInterval(cfg.Dashboard.PollInterval),
		dashboard.WithAuditLimit(cfg.Dashboard.AuditLimit),
		dashboard.WithJournal(jrnl),
	}

	// 4. Сигналы между сессиями через Redis, если он настроен
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		pingCtx, pingCancel := context.WithTimeout(appCtx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// Не фатально: листенер сам переподключится
			logger.Warn("redis unreachable, signals will retry", zap.Error(err))
		}
		pingCancel()
	}

	dash := newDashboard(client, cfg, logger, rdb, opts)
	if err := dash.Mount(appCtx); err != nil {
		logger.Warn("initial load incomplete", zap.Error(err))
	}

	// 5. HTTP Server
	console := server.NewConsoleServer(dash, server.Options{
		HideWebhookURLs:  cfg.Dashboard.HideWebhookURLs,
		ActionsPerSecond: cfg.Limits.ActionsPerSecond,
		Burst:            cfg.Limits.Burst,
		Gatherer:         reg,
		Journal:          reader,
	}, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      console,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 6. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	ossignal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("console started",
			zap.String("addr", srv.Addr),
			zap.String("backend", client.BaseURL()),
			zap.String("mode", string(headers.Mode)),
			zap.String("session", dash.SessionID()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("console stopping...")

	dash.Unmount()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	dash.Wait()
	logger.Info("console exited properly")
}

func newDashboard(client *apiclient.Client, cfg *infra.Config, logger *zap.Logger, rdb *redis.Client, opts []dashboard.Option) *dashboard.Dashboard {
	store := state.NewStore(cfg.Backend.Headers(), cfg.Dashboard.ActivityLines)
	if rdb == nil {
		return dashboard.New(client, resource.New(client), store, logger, opts...)
	}

	// Подписка создается под режим, поэтому фабрике нужен id сессии заранее
	var dash *dashboard.Dashboard
	source := func(mode string) dashboard.SignalSource {
		return signal.NewListener(rdb, dash.SessionID(), mode, logger)
	}
	opts = append(opts, dashboard.WithSignals(signal.NewPublisher(rdb, logger), source))
	dash = dashboard.New(client, resource.New(client), store, logger, opts...)
	return dash
}

func openJournalRepo(ctx context.Context, db infra.DatabaseConfig) (*postgres.JournalRepo, error) {
	repo, err := postgres.NewJournalRepo(db.URL, int(db.MaxConns), int(db.MinConns))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := repo.Ping(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}
