package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"vfestimetable/internal/catalog"
	"vfestimetable/internal/config"
	appLog "vfestimetable/internal/log"
	"vfestimetable/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	catalogSrc string
	debug      bool
}

func main() {
	appLog.Info("vfes-timetable starting", "version", "0.1.0")

	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI flags override config file values if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.catalogSrc != "" {
		conf.Catalog = flags.catalogSrc
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"catalog", conf.Catalog,
		"cache_dir", conf.CacheDir,
		"refresh", conf.RefreshCron,
		"share_base_url", conf.ShareBaseURL,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	// Load the catalog once at startup; the server refuses to start
	// without it since every operation resolves against it.
	fetcher := catalog.NewFetcher(conf.CacheDir)
	store := catalog.NewStore()

	events, err := fetcher.Load(ctx, conf.Catalog)
	if err != nil {
		appLog.Error("failed to load catalog", err, "source", conf.Catalog)
		os.Exit(1)
	}
	store.Replace(events)

	// Periodic catalog refresh, if configured. A failed refresh keeps the
	// previous snapshot.
	var sched *cron.Cron
	if conf.RefreshCron != "" {
		sched = cron.New()
		_, err := sched.AddFunc(conf.RefreshCron, func() {
			fresh, err := fetcher.Load(ctx, conf.Catalog)
			if err != nil {
				appLog.Error("catalog refresh failed", err, "source", conf.Catalog)
				return
			}
			store.Replace(fresh)
			appLog.Info("catalog refreshed", "events", len(fresh))
		})
		if err != nil {
			appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:    conf.Listen,
		Handler: web.NewServer(conf, store).Handler(),
	}

	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP server shutdown failed", err)
	}

	appLog.Info("vfes-timetable exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/vfes-timetable/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.catalogSrc, "catalog", "", "Catalog source path or URL (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
