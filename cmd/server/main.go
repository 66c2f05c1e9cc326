package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/insightcsv/insightcsv/internal/api"
	"github.com/insightcsv/insightcsv/internal/config"
	"github.com/insightcsv/insightcsv/internal/docs"
	"github.com/insightcsv/insightcsv/internal/metrics"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("insightcsv starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"upstream", cfg.Upstream.BaseURL,
		"reports", len(cfg.Reports),
	)

	reg, err := api.NewRegistry(cfg)
	if err != nil {
		slog.Error("failed to build report registry", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()
	reports := api.New(reg, m)
	apidocs := docs.New(cfg)

	// Watch the config file for hot-reload. A reload swaps the whole
	// report registry and regenerates the API docs; a failed reload
	// keeps the previous generation.
	go func() {
		err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			newReg, err := api.NewRegistry(updated)
			if err != nil {
				slog.Error("config reloaded but registry rebuild failed — keeping previous reports", "err", err)
				return
			}
			reports.Reload(newReg)
			apidocs.Reload(updated)
			slog.Info("report registry reloaded", "reports", len(updated.Reports))
		})
		if err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/report", reports)
	mux.Handle("/reports/", reports)
	mux.Handle("/healthz", reports)
	mux.Handle("/apidocs", apidocs)
	mux.Handle("/metrics", m)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: mux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("insightcsv shutting down")
	srv.Shutdown(context.Background()) //nolint:errcheck
}
