package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"babytrack/backend/internal/config"
	"babytrack/backend/internal/db"
	"babytrack/backend/internal/export"
	"babytrack/backend/internal/logger"
	"babytrack/backend/internal/scheduler"
	"babytrack/backend/internal/server"
	"babytrack/backend/internal/store"
	"babytrack/backend/internal/summary"
)

func main() {
	cfg := config.Load()

	baseLogger := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	if err := cfg.Validate(); err != nil {
		baseLogger.Fatal("invalid config", zap.Error(err))
	}
	loc, err := cfg.Location()
	if err != nil {
		baseLogger.Fatal("invalid reference timezone", zap.Error(err))
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("store init failed", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer st.Close()

	if cfg.Sheets.Enabled() {
		sheets, err := export.NewGoogleSheets(ctx, cfg.Sheets.CredentialsPath, cfg.Sheets.SpreadsheetID, logger.Named(baseLogger, "export.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets client", zap.Error(err))
		}
		sched := scheduler.New(
			cfg.WeeklyExportCron,
			time.Duration(cfg.ExportTimeoutSecs)*time.Second,
			st,
			summary.NewCalculator(st, loc, logger.Named(baseLogger, "summary")),
			export.NewSheetsExporter(sheets, cfg.Sheets.Range),
			logger.Named(baseLogger, "scheduler"),
		)
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start weekly export", zap.Error(err))
		}
		defer sched.Stop()
	} else {
		baseLogger.Warn("sheets credentials missing, weekly export disabled")
	}

	app := server.New(cfg, st, loc, logger.Named(baseLogger, "http"))
	httpServer := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("api listening",
			zap.String("port", cfg.AppPort),
			zap.String("store", cfg.StoreDriver),
			zap.String("timezone", loc.String()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("using in-memory store; records are lost on restart")
		return store.NewMemory(), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	pool, err := db.Connect(connectCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(connectCtx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	} else if err := db.ValidateSchema(connectCtx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return store.NewPostgres(pool), nil
}
