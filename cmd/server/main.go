package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/xlimport/internal/config"
	"github.com/JonMunkholm/xlimport/internal/core"
	_ "github.com/JonMunkholm/xlimport/internal/records" // Register record types
	"github.com/JonMunkholm/xlimport/internal/logging"
	"github.com/JonMunkholm/xlimport/internal/store"
	"github.com/JonMunkholm/xlimport/internal/web"
	"github.com/JonMunkholm/xlimport/internal/workbook"
	"github.com/joho/godotenv"
)

func main() {
	// Overload lets .env win over variables already set in the shell.
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
		"port", cfg.Server.Port,
		"base_dir", cfg.Import.BaseDir,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"database", cfg.Database.Enabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	var opts []core.Option

	ctx := context.Background()
	if cfg.Database.Enabled() {
		pool, err := store.Open(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		slog.Info("connected to database", "name", store.DatabaseName(cfg.Database.URL))

		st := store.New(pool)
		var ddl []string
		for _, rt := range core.DefaultRegistry().All() {
			if rt.CopyDDL() != "" {
				ddl = append(ddl, rt.CopyDDL())
			}
		}
		if err := st.EnsureSchema(ctx, ddl...); err != nil {
			slog.Error("failed to prepare database schema", "error", err)
			os.Exit(1)
		}
		opts = append(opts, core.WithStore(st))
	} else {
		slog.Warn("DATABASE_URL not set, import runs are kept in memory only")
	}

	service := core.NewService(cfg.Import, workbook.OpenWorkbook, opts...)

	slog.Info("record types registered", "count", core.DefaultRegistry().Len())
	for _, rt := range service.RecordTypes() {
		slog.Debug("record type", "key", rt.Key, "columns", len(rt.Columns()), "copy", rt.SupportsCopy())
	}

	server := web.NewServer(service, cfg)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
