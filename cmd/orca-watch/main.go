package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	orcaclient "github.com/rovshanmuradov/orca-client"
	"github.com/rovshanmuradov/orca-client/config"
	"github.com/rovshanmuradov/orca-client/logger"
	"github.com/rovshanmuradov/orca-client/types"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to config file")
	poolArg := flag.String("pool", "", "pool address to watch")
	threshold := flag.Float64("threshold", 1.0, "price change threshold in percent")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		LogFile:     cfg.LogFile,
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	pool, err := solana.PublicKeyFromBase58(*poolArg)
	if err != nil {
		log.Fatal("invalid pool address", zap.Error(err))
	}

	opts := &orcaclient.Options{
		PollInterval: time.Duration(cfg.PollIntervalMs) * time.Millisecond,
	}
	if cfg.WhirlpoolProgramID != "" {
		opts.WhirlpoolProgram, err = solana.PublicKeyFromBase58(cfg.WhirlpoolProgramID)
		if err != nil {
			log.Fatal("invalid whirlpool program id", zap.Error(err))
		}
	}

	client, err := orcaclient.Connect(cfg.RPCEndpoint, log, opts)
	if err != nil {
		log.Fatal("connect", zap.Error(err))
	}
	defer client.Close()

	log.Info("watching pool",
		zap.String("pool", pool.String()),
		zap.Float64("threshold_percent", *threshold))

	handle := client.MonitorPriceChanges(ctx, pool, *threshold, func(event types.PriceUpdateEvent) {
		log.Info("price moved",
			zap.String("old_price", event.OldPrice.String()),
			zap.String("new_price", event.NewPrice.String()),
			zap.Float64("percent_change", event.PercentChange))
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("shutdown requested")
	case <-handle.Done():
		log.Warn("monitor stopped on its own")
	}

	cancel()
	handle.Shutdown()

	if health, err := client.MonitorPoolHealth(pool); err == nil {
		log.Info("final pool health",
			zap.Uint64("volume_24h", health.Volume24h),
			zap.Float64("health_score", health.HealthScore))
	}
}
