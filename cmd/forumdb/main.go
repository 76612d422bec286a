package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"forumdb/internal/adminview"
	"forumdb/internal/sweeper"
	"forumdb/pkg/config"
	"forumdb/pkg/forum"
	"forumdb/pkg/logger"
	"forumdb/pkg/metrics"
	"forumdb/pkg/sensor"
	"forumdb/pkg/store/db"
	"forumdb/pkg/store/registry"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// load .env file if present
	_ = godotenv.Load(".env")

	flags, err := config.ParseConfigFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		abort("failed to parse flags", err)
	}
	fileCfg, fileExists, err := config.ParseConfigFile(flags)
	if err != nil {
		abort("failed to load config file", err)
	}
	envCfg, envUsed, err := config.ParseConfigEnvs()
	if err != nil {
		abort("invalid environment", err)
	}
	eff := config.LoadEffectiveConfig(flags, fileCfg, fileExists, envCfg, envUsed)
	if err := config.ValidateConfig(&eff); err != nil {
		abort("invalid configuration", err)
	}
	cfg := eff.Config

	logger.Init(cfg.Logging.Level, cfg.Logging.Sink)
	defer logger.Sync()
	logger.Info("forumdb_starting", "version", version, "commit", commit)
	logger.LogConfigSummary("effective config", []string{
		fmt.Sprintf("sources=%v", eff.Sources),
		"db_path=" + eff.DBPath,
		"cache_size=" + cfg.Server.CacheSize.String(),
		fmt.Sprintf("admin=%v addr=%s", !cfg.Server.NoAdmin, eff.Addr),
		fmt.Sprintf("sweeper=%v cron=%q", cfg.Sweeper.Enabled, cfg.Sweeper.Cron),
	})

	if err := run(cfg, eff); err != nil {
		logger.Error("forumdb_failed", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, eff config.EffectiveConfigResult) error {
	store, err := db.Open(db.Options{
		Path:       eff.DBPath,
		DisableWAL: cfg.Server.DisableWAL,
		CacheSize:  cfg.Server.CacheSize.Int64(),
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	// opening the forum registers every namespace in the catalog
	if _, err := forum.New(store); err != nil {
		return err
	}
	if err := metrics.Register(prometheus.DefaultRegisterer, store); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hw := sensor.NewSensor(sensor.MonitorConfig{
		Path:           eff.DBPath,
		PollInterval:   cfg.Sensor.PollInterval.Duration(),
		DiskHighPct:    cfg.Sensor.DiskHighPct,
		DiskLowPct:     cfg.Sensor.DiskLowPct,
		RecoveryWindow: cfg.Sensor.RecoveryWindow.Duration(),
	})
	hw.Start()
	defer hw.Stop()

	var sweep func(context.Context) (int, error)
	if cfg.Sweeper.Enabled {
		names := cfg.Sweeper.Namespaces
		if len(names) == 0 {
			names = forum.ExpiringNamespaces
		}
		sw, err := sweeper.New(store, sweeper.Options{
			Namespaces: names,
			Cron:       cfg.Sweeper.Cron,
			BatchSize:  cfg.Sweeper.BatchSize,
			RatePerSec: cfg.Sweeper.Rate,
		})
		if err != nil {
			return err
		}
		sweep = sw.RunOnce
		done := make(chan struct{})
		go func() {
			defer close(done)
			sw.Run(ctx)
		}()
		defer func() { <-done }()
	} else {
		logger.Info("sweeper_disabled")
	}

	var errCh <-chan error
	var admin *adminview.Server
	if !cfg.Server.NoAdmin {
		reg := registry.New()
		forum.RegisterRenderers(reg)
		admin = adminview.New(adminview.Options{Store: store, Registry: reg, Sweep: sweep})
		errCh = admin.ListenAndServe(eff.Addr)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown_signal_received")
	case serveErr = <-errCh:
	}
	// stops the sweeper before the deferred wait on it
	stop()
	if serveErr != nil {
		return fmt.Errorf("admin server: %w", serveErr)
	}

	if admin != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := admin.Shutdown(shutdownCtx); err != nil {
			logger.Warn("admin_shutdown_failed", "error", err)
		}
	}
	logger.Info("forumdb_stopped")
	return nil
}

func abort(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
