// Package renames applies the configured source rename table to the
// content directory before discovery runs.
//
// Every entry is idempotent so a rerun of the same configuration never
// fails: a rename whose source is gone and whose destination exists is
// treated as already applied.
package renames

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fieldpress/pressroom/internal/config"
	"github.com/fieldpress/pressroom/internal/logfields"
)

var (
	// ErrCollision indicates both the source and destination of a rename exist.
	ErrCollision = errors.New("rename collision: source and destination both exist")

	// ErrNothingToRename indicates neither the source nor the destination exists.
	ErrNothingToRename = errors.New("rename source and destination both missing")
)

// Action describes what applying one rename entry did.
type Action string

const (
	ActionRenamed        Action = "renamed"
	ActionAlreadyApplied Action = "already_applied"
)

// Result records the outcome of a single rename entry.
type Result struct {
	From   string
	To     string
	Action Action
}

// Summary aggregates the outcome of the whole table.
type Summary struct {
	Results []Result
	Renamed int
	Skipped int
}

// Apply executes the rename table against contentDir, in order.
//
// Per entry: source present and destination absent performs the rename,
// source absent and destination present is a no-op, both present is a
// collision error, neither present is an error since the entry references
// a file the corpus never had.
func Apply(contentDir string, entries []config.Rename) (*Summary, error) {
	summary := &Summary{}

	for _, entry := range entries {
		fromPath := filepath.Join(contentDir, filepath.FromSlash(entry.From))
		toPath := filepath.Join(contentDir, filepath.FromSlash(entry.To))

		fromExists, err := exists(fromPath)
		if err != nil {
			return nil, err
		}
		toExists, err := exists(toPath)
		if err != nil {
			return nil, err
		}

		switch {
		case fromExists && toExists:
			return nil, fmt.Errorf("%w: %s -> %s", ErrCollision, entry.From, entry.To)

		case !fromExists && !toExists:
			return nil, fmt.Errorf("%w: %s -> %s", ErrNothingToRename, entry.From, entry.To)

		case !fromExists:
			summary.Results = append(summary.Results, Result{From: entry.From, To: entry.To, Action: ActionAlreadyApplied})
			summary.Skipped++
			slog.Debug("Rename already applied", logfields.Path(entry.To))

		default:
			if err := os.MkdirAll(filepath.Dir(toPath), 0o755); err != nil {
				return nil, fmt.Errorf("prepare rename destination %s: %w", entry.To, err)
			}
			if err := os.Rename(fromPath, toPath); err != nil {
				return nil, fmt.Errorf("rename %s -> %s: %w", entry.From, entry.To, err)
			}
			summary.Results = append(summary.Results, Result{From: entry.From, To: entry.To, Action: ActionRenamed})
			summary.Renamed++
			slog.Info("Renamed source file",
				slog.String("from", entry.From),
				slog.String("to", entry.To))
		}
	}

	return summary, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}
