package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fieldpress/pressroom/internal/config"
)

// PackageCmd implements the 'package' command: render the site and zip it as
// a preview artifact, regardless of the trigger context.
type PackageCmd struct {
	Output string `short:"o" help:"Output directory for the rendered site (defaults to output.dir)"`
	Label  string `help:"Artifact label (defaults to preview.label, then the trigger label)"`
	Drafts bool   `help:"Include draft posts in the preview"`
}

func (p *PackageCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if p.Drafts {
		cfg.Content.IncludeDrafts = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return RunPipeline(ctx, cfg, p.Output, ModePackage, p.Label)
}
