package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JonMunkholm/csvmatrix"
	"github.com/JonMunkholm/csvmatrix/internal/config"
	"github.com/JonMunkholm/csvmatrix/internal/logging"
	"github.com/JonMunkholm/csvmatrix/internal/metrics"
	"github.com/JonMunkholm/csvmatrix/internal/store"
	"github.com/JonMunkholm/csvmatrix/internal/web"
)

func main() {
	// Overload lets a local .env win over the shell environment.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"version", csvmatrix.Version().Core(),
		"config", cfg.String(),
	)

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Database.URL, cfg.Database.SQLitePath, cfg.Database.Pool())
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	switch {
	case st == nil:
		slog.Info("no store configured, /api/ingest/store disabled")
	case cfg.Database.URL != "":
		slog.Info("connected to postgres")
	default:
		slog.Info("opened sqlite store", "path", cfg.Database.SQLitePath)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	server := web.NewServer(cfg, web.Deps{
		Store:    st,
		Metrics:  metrics.NewMetrics(reg),
		Gatherer: reg,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("ingests did not complete in time", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done

	if st != nil {
		if err := st.Close(); err != nil {
			slog.Error("close store", "error", err)
		}
	}
	slog.Info("server stopped")
}
