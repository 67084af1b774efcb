package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"dataexplorer/app/session"
	"dataexplorer/app/settings"
	"dataexplorer/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML settings file (optional)")
	flag.Parse()

	cfg := settings.Load(*configPath)
	setupLogging(cfg.LogLevel, cfg.LogFormat)

	sessions := session.NewManager(cfg, slog.Default())
	srv := server.New(sessions, cfg)

	slog.Info("starting data explorer", "addr", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// setupLogging configures the global slog logger. Use "json" format in
// production for machine parsing, "text" for human readability.
func setupLogging(level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
