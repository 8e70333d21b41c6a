package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fieldpress/pressroom/internal/config"
)

// BuildCmd implements the 'build' command: render the site, then publish on
// a push to the primary branch or package a preview artifact otherwise.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory for the rendered site (defaults to output.dir)"`
	Drafts bool   `help:"Include draft posts in the build"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if b.Drafts {
		cfg.Content.IncludeDrafts = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return RunPipeline(ctx, cfg, b.Output, ModeAuto, "")
}
