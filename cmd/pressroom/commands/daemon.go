package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fieldpress/pressroom/internal/config"
	"github.com/fieldpress/pressroom/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	DataDir string `short:"d" help:"Data directory for daemon state (defaults to daemon.data_dir)"`
}

func (dc *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dc.DataDir != "" {
		cfg.Daemon.DataDir = dc.DataDir
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(cfg)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	return d.Run(ctx)
}
