package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokerrooms/internal/game"
	"github.com/lox/pokerrooms/internal/server"
	"github.com/lox/pokerrooms/internal/store"
)

// ServeCmd runs the HTTP and websocket server
type ServeCmd struct {
	Config   string `short:"c" default:"pokerrooms.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Server address to bind to, host:port (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
}

// loadConfig reads the file and applies command line overrides.
func (c *ServeCmd) loadConfig() (*server.Config, error) {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return nil, err
	}
	if c.Addr != "" {
		host, port, err := net.SplitHostPort(c.Addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", c.Addr, err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid port in %q", c.Addr)
		}
		cfg.Server.Address, cfg.Server.Port = host, p
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogger writes to stderr and, when configured, to the log file.
func setupLogger(settings server.ServerSettings) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(settings.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	if settings.LogFile != "" {
		f, err := os.OpenFile(settings.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
		closeFn = func() { _ = f.Close() }
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	return logger, closeFn, nil
}

func (c *ServeCmd) Run() error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := setupLogger(cfg.Server)
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := store.Open(cfg.StoreConfig())
	if err != nil {
		return err
	}
	defer st.Close()

	opts := []server.ManagerOption{
		server.WithStore(st),
		server.WithRoomDefaults(cfg.Rooms()),
		server.WithRoomOptions(game.WithTimings(cfg.Timings())),
	}
	if cfg.NATS != nil {
		np, err := server.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger)
		if err != nil {
			return err
		}
		defer np.Close()
		opts = append(opts, server.WithPublisher(np))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gm := server.NewGameManager(logger, opts...)
	defer gm.Close()
	if _, err := gm.RestoreAll(ctx); err != nil {
		logger.Warn("Failed to restore rooms", "error", err)
	}

	srv := server.NewServer(gm, logger,
		server.WithMessageRate(cfg.Server.MaxMessageRate, cfg.Server.MessageBurst))

	logger.Info("Starting pokerrooms",
		"addr", cfg.GetServerAddress(),
		"storage", cfg.Storage.Driver,
		"nats", cfg.NATS != nil,
		"version", version)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, cfg.GetServerAddress())
	})
	g.Go(func() error {
		return gm.RunSweeper(gctx, cfg.SweepInterval(), cfg.IdleRoomTTL())
	})
	return g.Wait()
}
