package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"QuantDeck/internal/config"
	"QuantDeck/internal/lockstore"
	"QuantDeck/internal/marketdata"
	"QuantDeck/internal/model"
	"QuantDeck/internal/notifier"
	"QuantDeck/internal/recorder"
	"QuantDeck/internal/scan"
	"QuantDeck/internal/scheduler"
	"QuantDeck/internal/server"
	"QuantDeck/internal/strategy"
	"QuantDeck/pkg/logger"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		println("load config:", err.Error())
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Server.LogLevel,
		Pretty: os.Getenv("LOG_PRETTY") == "true",
	})
	log.Info().Msg("QuantDeck starting")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	downloader := marketdata.NewYahooDownloader(cfg.Market.Lookback, cfg.Market.Interval, log)
	cache := marketdata.NewCache(
		downloader,
		marketdata.MacroSymbols{
			Index: cfg.Market.MacroIndex,
			VIX:   cfg.Market.MacroVIX,
			Yield: cfg.Market.MacroYield,
		},
		cfg.Market.Extra,
		cfg.Market.MinBars,
		time.Duration(cfg.Market.CacheTTLMin)*time.Minute,
		log,
	)

	engine := strategy.NewEngine(cfg.Strategy.ADXThreshold, cfg.Market.MinBars, log)
	locks := lockstore.New(cfg.Locks.Path, log)
	notify := notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, log)

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("sqlite recorder unavailable, scan history disabled")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	defaultPreset, ok := model.ParsePreset(cfg.Strategy.DefaultPreset)
	if !ok {
		log.Fatal().Str("preset", cfg.Strategy.DefaultPreset).Msg("unknown default preset")
	}
	runner := scan.NewRunner(cache, engine, locks, notify, rec, defaultPreset, log)

	if cfg.Portfolio.CSVPath != "" {
		if _, err := runner.LoadPortfolioFile(cfg.Portfolio.CSVPath); err != nil {
			log.Warn().Err(err).Str("path", cfg.Portfolio.CSVPath).Msg("portfolio autoload failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(ctx, runner, log)
	if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
		log.Fatal().Err(err).Msg("register scan schedule")
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" && runner.Portfolio() != nil {
		go sched.RunNow()
	}

	srv := server.New(server.Config{
		Port:   cfg.Server.Port,
		Runner: runner,
		Cache:  cache,
		Locks:  locks,
		Log:    log,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown")
	}
	cancel()
	log.Info().Msg("QuantDeck stopped")
}
