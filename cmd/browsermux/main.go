// Package main runs the browsermux daemon: a multiplexer that manages
// isolated browser sessions for concurrent clients over one shared browser
// process.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/driftlock/browsermux/pkg/browser"
	"github.com/driftlock/browsermux/pkg/config"
	"github.com/driftlock/browsermux/pkg/env"
	"github.com/driftlock/browsermux/pkg/logging"
	"github.com/driftlock/browsermux/pkg/response"
	"github.com/driftlock/browsermux/pkg/security/artifacts"
	"github.com/driftlock/browsermux/pkg/tools"
)

const version = "0.1.0"

// CLI defines the command line surface. Flags override the config file.
type CLI struct {
	Config      string           `help:"Path to YAML configuration file." type:"path" short:"c"`
	LogLevel    string           `help:"Log level (debug, info, warn, error)." enum:",debug,info,warn,error" default:""`
	Headless    bool             `help:"Force headless browser launch regardless of display detection."`
	OutputDir   string           `help:"Directory for videos, traces, and other artifacts." type:"path"`
	MaxSessions int              `help:"Maximum concurrent sessions, 0 for unlimited." default:"-1"`
	IdleTimeout time.Duration    `help:"Close sessions idle longer than this, 0 disables the sweep." default:"30m"`
	Version     kong.VersionFlag `help:"Show version and exit."`
}

func main() {
	var cli CLI
	parser := kong.Parse(&cli,
		kong.Name("browsermux"),
		kong.Description("Browser session multiplexer: isolated, lazily provisioned browser contexts for concurrent clients."),
		kong.Vars{"version": "browsermux " + version},
	)

	if err := run(&cli); err != nil {
		parser.FatalIfErrorf(err)
	}
}

func run(cli *CLI) error {
	cfg := config.Default()
	if cli.Config != "" {
		loaded, err := config.Load(cli.Config)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	applyFlags(cli, cfg)

	logging.Init(logging.Options{Level: cfg.LogLevel})
	log := logging.For("main")
	log.Info("starting", "version", version)

	guard, err := artifacts.NewGuard(cfg.Browser.OutputDir)
	if err != nil {
		return err
	}

	introspector := env.NewIntrospector()
	log.Info("environment", "summary", introspector.Summary())

	driver, err := browser.NewDriver(cfg.Browser, introspector)
	if err != nil {
		return fmt.Errorf("failed to start browser driver: %w", err)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			log.Error("driver shutdown failed", "error", err)
		}
	}()

	registry := browser.NewRegistry(cfg.MaxSessions)
	deps := browser.SessionDeps{
		Factory:  driver,
		Recorder: driver,
		Config:   cfg.Browser,
		Client:   browser.ClientInfo{Name: "browsermux", Version: version},
	}
	dispatcher := tools.NewDispatcher(registry, deps, response.BuilderOptions{})
	tools.RegisterDefaults(dispatcher, registry, guard)
	log.Info("tools registered", "names", dispatcher.Names())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if cli.IdleTimeout > 0 {
		go sweepIdle(ctx, registry, cli.IdleTimeout)
	}

	log.Info("ready", "max_sessions", cfg.MaxSessions)
	sig := <-sigCh
	log.Info("shutting down", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	registry.DisposeAll(shutdownCtx)
	return nil
}

// applyFlags overlays explicit command line flags onto the loaded config.
func applyFlags(cli *CLI, cfg *config.Config) {
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if cli.MaxSessions >= 0 {
		cfg.MaxSessions = cli.MaxSessions
	}
	if cli.Headless {
		headless := true
		cfg.Browser.Headless = &headless
	}
	if cli.OutputDir != "" {
		cfg.Browser.OutputDir = cli.OutputDir
	}
	if cfg.Browser.OutputDir == "" {
		cfg.Browser.OutputDir = "./output"
	}
}

// sweepIdle periodically closes sessions that have been idle longer than
// the timeout.
func sweepIdle(ctx context.Context, registry *browser.Registry, timeout time.Duration) {
	log := logging.For("sweeper")
	ticker := time.NewTicker(timeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if closed := registry.CloseIdle(ctx, timeout); len(closed) > 0 {
				log.Info("closed idle sessions", "ids", closed)
			}
		}
	}
}
