package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
	"github.com/xplshn/tracerr2"

	"github.com/nhdewitt/fileserver-from-tcp/internal/accesslog"
	"github.com/nhdewitt/fileserver-from-tcp/internal/config"
	"github.com/nhdewitt/fileserver-from-tcp/internal/request"
	"github.com/nhdewitt/fileserver-from-tcp/internal/resolve"
	"github.com/nhdewitt/fileserver-from-tcp/internal/server"
)

const shutdownGrace = 5 * time.Second

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	app := &cli.Command{
		Name:  "fileserver",
		Usage: "Serve files over a minimal HTTP/1.0 GET protocol",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: config.DefaultPath, Usage: "Path to config file"},
			&cli.StringFlag{Name: "host", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Usage: "Port to listen on"},
			&cli.IntFlag{Name: "workers", Usage: "Maximum concurrent connections (0 = unbounded)"},
			&cli.StringFlag{Name: "root", Usage: "Confine request paths beneath this directory"},
			&cli.StringFlag{Name: "server-name", Usage: "Server identification sent with 200 responses"},
			&cli.StringFlag{Name: "access-log", Usage: "Access log file, or - for stdout"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "read-timeout", Usage: "Request read deadline, e.g. 30s (empty = none)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"), cmd.IsSet("config"), logger)
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			lvl, _ := cfg.Level()
			level.Set(lvl)

			return run(ctx, cfg, logger)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if e, ok := err.(*tracerr.Error); ok {
			e.Print()
		} else {
			logger.Error("fileserver failed", "error", err)
		}
		os.Exit(1)
	}
}

func applyFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("workers") {
		cfg.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("root") {
		cfg.Root = cmd.String("root")
	}
	if cmd.IsSet("server-name") {
		cfg.ServerName = cmd.String("server-name")
	}
	if cmd.IsSet("access-log") {
		cfg.AccessLog = cmd.String("access-log")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("read-timeout") {
		cfg.ReadTimeout = cmd.String("read-timeout")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	timeout, err := cfg.Timeout()
	if err != nil {
		return err
	}

	var access *accesslog.Logger
	if cfg.AccessLog != "" {
		access, err = accesslog.Open(cfg.AccessLog)
		if err != nil {
			return err
		}
		defer access.Close()
	}

	if cfg.Root == "" {
		logger.Warn("no root configured, request paths are used literally")
	}

	srv, err := server.Serve(server.Config{
		Addr:        cfg.Addr(),
		Workers:     cfg.Workers,
		ReadTimeout: timeout,
		ServerName:  cfg.ServerName,
		Logger:      logger,
		AccessLog:   access,
	}, server.FileHandler(&resolve.Resolver{Root: cfg.Root}))
	if err != nil {
		return err
	}
	logger.Info("server started",
		"addr", srv.Addr().String(),
		"workers", workersLabel(cfg.Workers),
		"max_request", humanize.Bytes(request.BufferSize))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("connections still open at shutdown", "error", err)
	}
	logger.Info("server gracefully stopped")
	return nil
}

func workersLabel(n int) string {
	if n == 0 {
		return "unbounded"
	}
	return fmt.Sprint(n)
}
