// Command knutd runs the Knut home-automation gateway.
//
// The gateway serves the configured capabilities (light, task,
// temperature, local) over the enabled transport bindings and
// announces them via mDNS.
//
// Usage:
//
//	knutd [flags]
//
// Flags:
//
//	-config string      Configuration file path (built-in defaults if empty)
//	-log-level string   Override the configured log level
//
// Examples:
//
//	# Start with the built-in defaults (stream binding on :8080)
//	knutd
//
//	# Start from a configuration file with debug logging
//	knutd -config /etc/knut/knut.yaml -log-level debug
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/knut-protocol/knut-go/pkg/config"
	"github.com/knut-protocol/knut-go/pkg/gateway"
	"github.com/knut-protocol/knut-go/pkg/version"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "knutd: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger, err := setupLogging(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "knutd: %v\n", err)
		os.Exit(1)
	}

	g, err := gateway.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("gateway setup failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := g.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("gateway start failed")
	}

	logger.Info().Str("protocol", version.Current).Msg("knutd ready")

	for binding, addr := range g.Addrs() {
		logger.Info().
			Str("binding", binding).
			Str("address", addr.String()).
			Msg("serving")
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	g.Stop()
}

// setupLogging builds the root logger from the log configuration.
func setupLogging(cfg config.LogConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	var logger zerolog.Logger
	switch cfg.Format {
	case "json":
		logger = zerolog.New(os.Stderr)
	default:
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger.Level(level).With().Timestamp().Logger(), nil
}
