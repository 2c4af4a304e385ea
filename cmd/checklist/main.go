package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitos/trade_checklist/internal/config"
	"github.com/vitos/trade_checklist/internal/infrastructure/logger"
	"github.com/vitos/trade_checklist/internal/infrastructure/storage"
	"github.com/vitos/trade_checklist/internal/infrastructure/telemetry"
	"github.com/vitos/trade_checklist/internal/usecase"
	"github.com/vitos/trade_checklist/internal/web"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	var log *zap.Logger
	if cfg.Logging.File != "" {
		log, err = logger.NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	} else {
		log, err = logger.NewLogger(cfg.Logging.Level)
	}
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage
	store, err := storage.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	// 4. Init Telemetry
	provider := telemetry.NewDemoProvider(cfg.Telemetry.Seed, cfg.Telemetry.BaseEquity)

	// 5. Init Services
	checklist := usecase.NewChecklistService(provider, store, store, store, cfg.Rules, cfg.Evaluation.Workers, log).
		WithMaxRangeDays(cfg.Evaluation.MaxRangeDays)
	journal := usecase.NewJournalService(store, store, provider, log)

	for _, trader := range cfg.Traders {
		seeded, err := checklist.SeedDefaults(context.Background(), trader)
		if err != nil {
			log.Error("Failed to seed rule records", zap.String("trader", trader), zap.Error(err))
			continue
		}
		if seeded {
			log.Info("Seeded rule records", zap.String("trader", trader))
		}
	}

	// 6. Init Web Server
	server := web.NewServer(cfg.Server.Port, checklist, journal, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Web server failed", zap.Error(err))
		}
	}()

	// 7. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}
