package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FlipSentinel/internal/collector"
	"FlipSentinel/internal/config"
	"FlipSentinel/internal/fund"
	"FlipSentinel/internal/notifier"
	"FlipSentinel/internal/recorder"
	"FlipSentinel/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] FlipSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	fetcher := collector.NewWikiFetcher(cfg.DataSource.BaseURL, cfg.DataSource.UserAgent, cfg.Proxy, cfg.DataSource.RateLimit)
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using memory: %v", err)
			rec = recorder.NewMemoryRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewMemoryRecorder()
	}
	defer rec.Close()

	// Init collector
	col := collector.NewCollector(fetcher, rec, cfg.DataSource.HistoryStep, cfg.DataSource.BackfillConcurrency)

	// Init bankroll
	fm, err := fund.NewManager(cfg.Fund.StateFile, cfg.Fund.Budget)
	if err != nil {
		log.Fatalf("[FATAL] init bankroll: %v", err)
	}

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, fm, tn, rec, scheduler.Options{
		Window:   cfg.Analysis.Window,
		Lookback: time.Duration(cfg.Analysis.LookbackHours) * time.Hour,
		TopN:     cfg.Analysis.TopN,
		Filters:  cfg.Analysis.Filters,
	})
	if err := sched.RegisterAll(cfg.Schedule.LatestCron, cfg.Schedule.VolumeCron, cfg.Schedule.ReportCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}

	// A failed bootstrap is retried by the price refresh task.
	if err := sched.Bootstrap(ctx); err != nil {
		log.Printf("[WARN] bootstrap: %v", err)
	}

	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] Telegram polling started")

	log.Println("[INFO] FlipSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] FlipSentinel stopped")
}
