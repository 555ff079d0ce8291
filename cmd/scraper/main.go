package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"politics_fetcher/internal/api"
	"politics_fetcher/internal/config"
	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/publisher"
	"politics_fetcher/internal/scheduler"
	"politics_fetcher/internal/service"
	"politics_fetcher/internal/storage/memory"
	"politics_fetcher/internal/storage/postgres"
)

type stores struct {
	posts     service.PostStore
	accounts  service.AccountStore
	articles  service.ArticleStore
	events    service.EventStore
	syncState service.SyncStateStore
	txManager service.TransactionManager
	close     func()
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run every job once and exit")
	accountID := flag.Int64("account", 0, "scrape a single account and exit")
	entityID := flag.Int64("entity", 0, "scrape all accounts of an entity and exit")
	newsOnly := flag.Bool("news", false, "sync news sources once and exit")
	dryRun := flag.Bool("dry-run", false, "keep results in memory instead of postgres")
	accountsFile := flag.String("accounts", "", "JSON file of accounts to use with -dry-run")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = setupLogger(cfg.LogLevel)

	var st *stores
	if *dryRun {
		st, err = memoryStores(*accountsFile)
	} else {
		st, err = postgresStores(cfg.Database, logger)
	}
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer st.close()

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled && !*dryRun {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	client := newFetchClient(cfg.HTTP, logger)
	gateway := service.NewGateway(st.posts, st.accounts, st.txManager, pub, logger)
	orchestrator := service.NewOrchestrator(buildAdapters(cfg, client, logger), st.accounts, gateway, logger, cfg.Scrape)
	newsService := service.NewNewsService(
		buildNewsSources(cfg.News, client, logger),
		st.articles,
		st.events,
		st.syncState,
		cfg.News.SourceDelay,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	jobs := []scheduler.Job{
		{Name: "accounts", Run: orchestrator.RunAll},
		{Name: "news", Run: newsService.Sync},
	}

	switch {
	case *accountID > 0:
		printSummaries(orchestrator.RunOne(ctx, *accountID))
		return
	case *entityID > 0:
		printSummaries(orchestrator.RunForEntity(ctx, *entityID))
		return
	case *newsOnly:
		printSummaries(newsService.Sync(ctx))
		return
	case *once:
		sched := scheduler.NewScheduler(jobs, cfg.Sync.Interval, cfg.Sync.JobTimeout, logger)
		printSummaries(sched.RunOnce(ctx)...)
		return
	}

	srv := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           api.NewHandler(orchestrator, newsService, cfg.Sync.JobTimeout, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("trigger api listening", "addr", cfg.API.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server error", "error", err)
			cancel()
		}
	}()

	logger.Info("starting politics fetcher",
		"interval", cfg.Sync.Interval,
		"news_sources", len(cfg.News.Sources),
		"workers", cfg.Scrape.Workers,
		"dry_run", *dryRun,
	)

	sched := scheduler.NewScheduler(jobs, cfg.Sync.Interval, cfg.Sync.JobTimeout, logger)
	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", "error", err)
	}
}

func postgresStores(cfg config.DatabaseConfig, logger *slog.Logger) (*stores, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("connected to database")

	return &stores{
		posts:     postgres.NewPostStore(db),
		accounts:  postgres.NewAccountStore(db),
		articles:  postgres.NewArticleStore(db),
		events:    postgres.NewEventStore(db),
		syncState: postgres.NewSyncStateStore(db),
		txManager: postgres.NewTransactionManager(db),
		close:     func() { db.Close() },
	}, nil
}

func memoryStores(accountsFile string) (*stores, error) {
	var accounts []domain.SourceAccount
	if accountsFile != "" {
		data, err := os.ReadFile(accountsFile)
		if err != nil {
			return nil, fmt.Errorf("read accounts file: %w", err)
		}
		if err := json.Unmarshal(data, &accounts); err != nil {
			return nil, fmt.Errorf("parse accounts file: %w", err)
		}
	}

	db := memory.NewDB(accounts...)
	return &stores{
		posts:     memory.NewPostStore(db),
		accounts:  memory.NewAccountStore(db),
		articles:  memory.NewArticleStore(db),
		events:    memory.NewEventStore(db),
		syncState: memory.NewSyncStateStore(db),
		txManager: memory.TransactionManager{},
		close:     func() {},
	}, nil
}

func printSummaries(summaries ...domain.Summary) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, s := range summaries {
		_ = enc.Encode(s)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
