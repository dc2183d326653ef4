package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/billbatista/acasinha-finance/cache"
	"github.com/billbatista/acasinha-finance/config"
	"github.com/billbatista/acasinha-finance/database"
	"github.com/billbatista/acasinha-finance/eventlogger"
	"github.com/billbatista/acasinha-finance/handler"
	"github.com/billbatista/acasinha-finance/importer"
	"github.com/billbatista/acasinha-finance/session"
	"github.com/billbatista/acasinha-finance/user"
	"github.com/billbatista/acasinha-finance/workspace"
)

const sweepInterval = 10 * time.Minute

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		printErrorAndExit("invalid configuration", err)
	}
	slog.SetDefault(cfg.Logger())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(cfg.DatabaseDriver, cfg.DatabaseURL); err != nil {
		printErrorAndExit("database migration", err)
	}
	db, err := database.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		printErrorAndExit("database connection", err)
	}
	defer db.Close()

	var store cache.Cache
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedis(ctx, cfg.RedisURL, "finance:")
		if err != nil {
			printErrorAndExit("redis connection", err)
		}
		defer rdb.Close()
		store = rdb
	} else {
		mem := cache.NewMemory(10_000)
		go every(ctx, time.Minute, func() { mem.CleanExpired() })
		store = mem
	}

	var evtlogger eventlogger.EventLogger = eventlogger.NewSqlEventLogger(db)
	if cfg.AMQPURL != "" {
		publisher, err := eventlogger.NewAMQPLogger(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			printErrorAndExit("amqp connection", err)
		}
		defer publisher.Close()
		evtlogger = eventlogger.NewMultiLogger(evtlogger, publisher)
	}
	worker := eventlogger.NewWorker(evtlogger, cfg.EventBufferSize)
	worker.Start()
	defer worker.Shutdown()

	userRepo := user.NewRepository(db)
	sessionRepo := session.NewRepository(db)
	persistent := workspace.NewPersistent(db, worker, store)
	workspaces := workspace.NewManager(persistent, sessionRepo, userRepo, cfg.DemoTTL, cfg.DemoMaxSize)
	go every(ctx, sweepInterval, func() { workspaces.Sweep(ctx) })

	var sheets handler.SheetsReader
	creds, err := cfg.GoogleCredentials()
	if err != nil {
		printErrorAndExit("google credentials", err)
	}
	if creds != nil {
		s, err := importer.NewSheets(ctx, creds)
		if err != nil {
			printErrorAndExit("google sheets client", err)
		}
		sheets = s
	} else {
		slog.Info("google sheets import disabled")
	}

	h := handler.New(userRepo, sessionRepo, workspaces, worker, sheets, cfg.CookieSecure)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "driver", cfg.DatabaseDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			printErrorAndExit("http server", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
}

// every runs fn on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func printErrorAndExit(msg string, e error) {
	slog.Error(msg, "error", e)
	os.Exit(1)
}
