package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fieldpress/pressroom/internal/config"
)

// PublishCmd implements the 'publish' command: a full build that deploys to
// the configured destinations no matter what triggered it. Drafts stay
// excluded; a publish never ships unfinished posts.
type PublishCmd struct {
	Output string `short:"o" help:"Output directory for the rendered site (defaults to output.dir)"`
}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return RunPipeline(ctx, cfg, p.Output, ModePublish, "")
}
