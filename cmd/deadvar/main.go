// # cmd/deadvar/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"deadvar/internal/app"
	"deadvar/internal/config"
	"deadvar/internal/shared/observability"
	"deadvar/internal/shared/version"
)

var (
	configPath  = flag.String("config", "./deadvar.toml", "Path to config file")
	once        = flag.Bool("once", false, "Run single scan and exit")
	ui          = flag.Bool("ui", false, "Enable terminal UI mode")
	trend       = flag.Duration("trend", 0, "Print finding trend for the given window (e.g. 168h) and exit")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	// run owns all cleanup via defers; exiting here keeps them intact.
	os.Exit(run())
}

func run() int {
	if *showVersion {
		fmt.Printf("deadvar v%s\n", version.Version)
		return 0
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stdout
	if *ui {
		// In UI mode, avoid stdout logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
				if err == nil {
					output = f
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath == "./deadvar.toml" {
			cfg, err = config.Load("./deadvar.example.toml")
		}
		if err != nil {
			slog.Error("failed to load config", "error", err)
			return 1
		}
	}

	if flag.NArg() > 0 {
		cfg.Paths = flag.Args()
	}

	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.OTLP)
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer a.Close()

	if err := a.InitialScan(ctx); err != nil {
		slog.Error("initial scan failed", "error", err)
		return 1
	}

	if *trend > 0 {
		return printTrend(a, *trend)
	}

	if *once {
		if a.CurrentUpdate().Findings > 0 {
			return 2
		}
		return 0
	}

	if cfg.Observability.Addr != "" {
		server := app.NewObservabilityServer(cfg.Observability.Addr, a)
		if err := server.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(stopCtx)
		}()
	}

	// Watch mode
	if err := a.StartWatcher(); err != nil {
		slog.Error("failed to start watcher", "error", err)
		return 1
	}

	if *ui {
		if err := runUI(a); err != nil {
			slog.Error("failed to run UI", "error", err)
			return 1
		}
		return 0
	}

	// Block forever
	select {}
}

func printTrend(a *app.App, window time.Duration) int {
	points, err := a.RunTrend(time.Now().Add(-window))
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	if len(points) == 0 {
		fmt.Println("No recorded runs in window.")
		return 0
	}

	fmt.Printf("%-25s %8s %9s %7s\n", "TIMESTAMP", "FILES", "FINDINGS", "DELTA")
	for _, p := range points {
		fmt.Printf("%-25s %8d %9d %+7d\n", p.Timestamp.Format(time.RFC3339), p.FileCount, p.FindingCount, p.DeltaFindings)
	}
	return 0
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "deadvar", "deadvar.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "deadvar", "deadvar.log")
	}

	return "deadvar.log"
}
