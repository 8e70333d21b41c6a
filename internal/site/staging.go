package site

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fieldpress/pressroom/internal/logfields"
)

// The build never writes into the live output directory. All pages land in
// a sibling staging directory which is promoted with a rename once the
// build succeeds, so readers of the output dir never observe a half-built
// site and a failed build leaves the previous site untouched.

// beginStaging creates the staging directory for the current build.
func (b *Builder) beginStaging() error {
	stage := b.outputDir + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return fmt.Errorf("clear stale staging dir: %w", err)
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	b.stageDir = stage
	slog.Debug("Initialized staging directory",
		slog.String("staging", stage),
		slog.String("final", b.outputDir))
	return nil
}

// finalizeStaging promotes the staging directory to the final output
// location: the existing output moves aside to <output>.prev, staging is
// renamed into place, and the backup is removed in the background.
func (b *Builder) finalizeStaging() error {
	if b.stageDir == "" {
		return fmt.Errorf("no staging directory initialized")
	}
	if _, err := os.Stat(b.stageDir); err != nil {
		return fmt.Errorf("staging directory missing: %w", err)
	}

	prev := b.outputDir + ".prev"
	if _, err := os.Stat(prev); err == nil {
		if err := os.RemoveAll(prev); err != nil {
			return fmt.Errorf("remove stale backup %s: %w", prev, err)
		}
	}
	if _, err := os.Stat(b.outputDir); err == nil {
		if err := os.Rename(b.outputDir, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
	}
	if err := os.Rename(b.stageDir, b.outputDir); err != nil {
		return fmt.Errorf("promote staging: %w", err)
	}
	b.stageDir = ""

	// Backup removal is non-critical.
	go func(p string) {
		if err := os.RemoveAll(p); err != nil {
			slog.Warn("Failed to remove previous output backup", logfields.Path(p), logfields.Error(err))
		}
	}(prev)

	slog.Info("Promoted staging directory", logfields.Path(b.outputDir))
	return nil
}

// abortStaging removes the staging directory after a failed build so no
// orphaned temp dirs accumulate.
func (b *Builder) abortStaging() {
	if b.stageDir == "" {
		return
	}
	dir := b.stageDir
	b.stageDir = ""
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory after abort",
			slog.String("staging", dir), logfields.Error(err))
	}
}
