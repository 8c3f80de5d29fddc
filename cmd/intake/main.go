// Package main provides the intake binary entry point.
// Intake guides a user from a product idea to a structured requirement
// document through an adaptive question loop.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	// Register LLM providers via init()
	_ "github.com/c360studio/intake/llm/providers"

	"github.com/c360studio/intake/api"
	"github.com/c360studio/intake/config"
	"github.com/c360studio/intake/engine"
	"github.com/c360studio/intake/llm"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "intake"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Adaptive requirement intake engine",
		Long: `Intake turns a rough product idea into a structured requirement
document by asking adaptive questions until the record is complete
enough to generate from.

The server is stateless: clients thread the requirement record and
conversation history through every round request.`,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func serveCmd() *cobra.Command {
	var (
		addr       string
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the intake HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(addr, configPath, logLevel)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	return cmd
}

func serve(addr, configPath, logLevel string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(logLevel),
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	cfg, watchPath, err := loadConfig(configPath, logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	registry := cfg.BuildRegistry()
	client := llm.NewClient(registry,
		llm.WithRetryConfig(cfg.LLMRetryConfig()),
		llm.WithLogger(logger))
	eng := engine.New(client,
		engine.WithCapability(cfg.Engine.Capability),
		engine.WithTemperature(cfg.Engine.Temperature),
		engine.WithLogger(logger))

	mux := http.NewServeMux()
	api.NewHandler(eng, logger).RegisterHandlers(mux)

	srv := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
		// Rounds can sit behind slow model retries, so no write timeout;
		// the LLM client's own HTTP timeout bounds the round.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Hot-reload the model topology on config changes. The registry swap
	// preserves endpoint health so a reload doesn't reset open circuits.
	if watchPath != "" {
		watcher, err := config.NewWatcher(watchPath, func(next *config.Config) {
			registry.Replace(next.BuildRegistry())
			logger.Info("Model registry updated from config", "path", watchPath)
		}, logger)
		if err != nil {
			logger.Warn("Config watcher unavailable", "error", err)
		} else {
			if err := watcher.Start(ctx); err != nil {
				logger.Warn("Config watcher failed to start", "error", err)
			} else {
				defer watcher.Stop()
			}
		}
	}

	go func() {
		logger.Info("Server listening",
			"addr", srv.Addr,
			"version", Version,
			"capabilities", registry.ListCapabilities())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	logger.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// loadConfig loads either the explicit config file or the layered
// user+project configuration. It also returns the path to watch for hot
// reload, empty when there is no file to watch.
func loadConfig(configPath string, logger *slog.Logger) (*config.Config, string, error) {
	if configPath != "" {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, "", err
		}
		if err := cfg.Validate(); err != nil {
			return nil, "", err
		}
		return cfg, configPath, nil
	}

	loader := config.NewLoader(logger)
	cfg, err := loader.Load()
	if err != nil {
		return nil, "", err
	}
	return cfg, loader.FindProjectConfig(), nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
