package commands

import (
	"fmt"
	"os"

	"github.com/fieldpress/pressroom/internal/config"
	"github.com/fieldpress/pressroom/internal/linkcheck"
)

// VerifyCmd implements the 'verify' command: check that every internal link
// in the rendered site resolves to a rendered file.
type VerifyCmd struct {
	Output string `short:"o" help:"Rendered site directory to verify (defaults to output.dir)"`
}

func (v *VerifyCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	dir := v.Output
	if dir == "" {
		dir = cfg.Output.Dir
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("no rendered site at %s, run 'pressroom build' first", dir)
	}

	result, err := linkcheck.VerifySite(dir, cfg.Site.BaseURL)
	if err != nil {
		return err
	}

	fmt.Printf("Checked %d pages, %d internal links (%d external skipped)\n",
		result.Pages, result.Links, result.External)
	if result.OK() {
		fmt.Println("No broken links")
		return nil
	}

	for _, b := range result.Broken {
		fmt.Printf("  %s: %s (%s)\n", b.Page, b.URL, b.Tag)
	}
	return fmt.Errorf("%d broken links", len(result.Broken))
}
