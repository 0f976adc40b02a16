package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/janisto/gochat-api/internal/app"
	"github.com/janisto/gochat-api/internal/config"
	applog "github.com/janisto/gochat-api/internal/platform/logging"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

func main() {
	defer func() {
		// Sync on stdout can fail with EINVAL.
		_ = applog.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCommand(serve).Run(ctx, os.Args); err != nil {
		applog.LogFatal(context.Background(), "server failed", err)
	}
}

// serve configures logging, then builds and runs the application until ctx ends.
func serve(ctx context.Context, cfg config.Config) error {
	if err := applog.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	if err := applog.Err(); err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	applog.LogInfo(ctx, "starting",
		zap.String("version", cfg.Version),
		zap.String("addr", cfg.Addr()),
		zap.Stringer("logLevel", applog.Level()),
		zap.Strings("corsOrigins", cfg.CORS.AllowedOrigins),
		zap.Bool("corsCredentials", cfg.CORS.AllowCredentials),
	)
	return app.New(cfg).Run(ctx)
}

func newCommand(run func(context.Context, config.Config) error) *cli.Command {
	defaults := config.Default()
	return &cli.Command{
		Name:    "server",
		Usage:   "Runs the " + config.Title + " HTTP server",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "TCP port to listen on (env PORT)",
				Value: defaults.Port,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error (env LOG_LEVEL)",
				Value: defaults.LogLevel,
			},
			&cli.StringSliceFlag{
				Name:  "cors-allowed-origins",
				Usage: "Origins allowed to make cross-origin requests, * for any (env CORS_ALLOWED_ORIGINS)",
				Value: defaults.CORS.AllowedOrigins,
			},
			&cli.BoolFlag{
				Name:  "cors-allow-credentials",
				Usage: "Allow credentialed cross-origin requests (env CORS_ALLOW_CREDENTIALS)",
				Value: defaults.CORS.AllowCredentials,
			},
			&cli.StringSliceFlag{
				Name:  "cors-allowed-methods",
				Usage: "Methods allowed for cross-origin requests, * for all (env CORS_ALLOWED_METHODS)",
				Value: defaults.CORS.AllowedMethods,
			},
			&cli.StringSliceFlag{
				Name:  "cors-allowed-headers",
				Usage: "Request headers allowed for cross-origin requests, * for any (env CORS_ALLOWED_HEADERS)",
				Value: defaults.CORS.AllowedHeaders,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if _, ok := os.LookupEnv("APP_VERSION"); !ok {
				cfg.Version = Version
			}
			cfg = applyFlags(cfg, cmd)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return run(ctx, cfg)
		},
	}
}

// applyFlags overrides cfg with the flags given explicitly on the command line.
func applyFlags(cfg config.Config, cmd *cli.Command) config.Config {
	if cmd.IsSet("port") {
		cfg.Port = cmd.String("port")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("cors-allowed-origins") {
		cfg.CORS.AllowedOrigins = cmd.StringSlice("cors-allowed-origins")
	}
	if cmd.IsSet("cors-allow-credentials") {
		cfg.CORS.AllowCredentials = cmd.Bool("cors-allow-credentials")
	}
	if cmd.IsSet("cors-allowed-methods") {
		cfg.CORS.AllowedMethods = cmd.StringSlice("cors-allowed-methods")
	}
	if cmd.IsSet("cors-allowed-headers") {
		cfg.CORS.AllowedHeaders = cmd.StringSlice("cors-allowed-headers")
	}
	return cfg
}
