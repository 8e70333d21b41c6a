package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldpress/pressroom/internal/config"
	"github.com/fieldpress/pressroom/internal/logfields"
	"github.com/fieldpress/pressroom/internal/server"
	"github.com/fieldpress/pressroom/internal/site"
	"github.com/fieldpress/pressroom/internal/trigger"
)

// ServeCmd implements the 'serve' command: build once, serve the rendered
// site over HTTP and rebuild whenever a source file changes.
type ServeCmd struct {
	Addr   string `help:"Listen address (defaults to serve.addr)"`
	Drafts bool   `help:"Include draft posts"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if s.Drafts {
		cfg.Content.IncludeDrafts = true
	}
	addr := s.Addr
	if addr == "" {
		addr = cfg.Serve.Addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	builder := site.NewBuilder(cfg, "")
	status := &server.BuildStatus{}
	trig := trigger.Context{System: trigger.SystemLocal, Event: trigger.EventManual}

	rebuild := func(ctx context.Context) {
		report, err := builder.Build(ctx, trig)
		if err != nil {
			slog.Error("Build failed", logfields.Error(err))
			status.SetError(err)
			return
		}
		status.SetSuccess()
		slog.Info("Site rebuilt", logfields.Count(report.RenderedPages))
	}

	// The initial build may fail on a source file mid-edit; serving starts
	// anyway so the watcher can pick up the fix.
	rebuild(ctx)

	srv := server.New(addr, builder.OutputDir(), status, nil)
	if err := srv.Start(); err != nil {
		return err
	}

	watcher, err := server.NewWatcher(cfg.Content.Dir, cfg.Content.AssetsDir, cfg.Theme.Path)
	if err != nil {
		stopServer(srv)
		return err
	}
	defer func() { _ = watcher.Close() }()

	fmt.Printf("Serving site at http://%s (watching %s)\n", srv.Addr(), cfg.Content.Dir)
	fmt.Println("Press Ctrl+C to stop")

	if err := watcher.Run(ctx, rebuild); err != nil {
		stopServer(srv)
		return err
	}

	slog.Info("Shutting down")
	stopServer(srv)
	return nil
}

func stopServer(srv *server.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		slog.Warn("Server shutdown failed", logfields.Error(err))
	}
}
