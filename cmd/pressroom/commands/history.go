package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fieldpress/pressroom/internal/config"
	"github.com/fieldpress/pressroom/internal/history"
)

// HistoryCmd implements the 'history' command: list recorded runs, newest
// first.
type HistoryCmd struct {
	Limit   int    `short:"n" default:"20" help:"Number of runs to show"`
	BuildID string `name:"build" help:"Show the records of one build ID"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	path := cfg.History.Path
	if path == "" {
		path = filepath.Join(cfg.Daemon.DataDir, "history.db")
	}
	// A read-only command; do not create an empty database just to list it.
	if _, err := os.Stat(path); err != nil {
		fmt.Printf("No run history at %s\n", path)
		return nil
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	var runs []history.Run
	if h.BuildID != "" {
		runs, err = store.ByBuildID(ctx, h.BuildID)
	} else {
		runs, err = store.Recent(ctx, h.Limit)
	}
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs")
		return nil
	}

	fmt.Printf("%-19s  %-8s  %-12s  %-20s  %5s  %5s  %s\n",
		"STARTED", "OUTCOME", "EVENT", "BRANCH", "POSTS", "PAGES", "RESULT")
	for _, run := range runs {
		fmt.Printf("%-19s  %-8s  %-12s  %-20s  %5d  %5d  %s\n",
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Outcome,
			run.Event,
			run.Branch,
			run.Posts,
			run.Pages,
			runResult(run))
	}
	return nil
}

// runResult summarizes where a run ended up: its deploy targets, its preview
// artifact, or nothing.
func runResult(run history.Run) string {
	if len(run.Published) > 0 {
		targets := make([]string, len(run.Published))
		for i, d := range run.Published {
			targets[i] = d.Target
		}
		return "published " + strings.Join(targets, ",")
	}
	if run.Artifact != "" {
		return filepath.Base(run.Artifact)
	}
	return "-"
}
