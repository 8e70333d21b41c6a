package renames

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldpress/pressroom/internal/config"
)

func touch(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("content of "+rel), 0o644))
}

func TestApply_RenamesSource(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "old-name.md")

	summary, err := Apply(root, []config.Rename{{From: "old-name.md", To: "new-name.md"}})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Renamed)
	require.Equal(t, 0, summary.Skipped)

	require.NoFileExists(t, filepath.Join(root, "old-name.md"))
	data, err := os.ReadFile(filepath.Join(root, "new-name.md"))
	require.NoError(t, err)
	require.Equal(t, "content of old-name.md", string(data))
}

func TestApply_CreatesDestinationDirs(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "flat.md")

	_, err := Apply(root, []config.Rename{{From: "flat.md", To: "archive/2023/flat.md"}})
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(root, "archive", "2023", "flat.md"))
}

func TestApply_SecondRunIsNoop(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.md")
	entries := []config.Rename{{From: "a.md", To: "b.md"}}

	_, err := Apply(root, entries)
	require.NoError(t, err)

	summary, err := Apply(root, entries)
	require.NoError(t, err)
	require.Equal(t, 0, summary.Renamed)
	require.Equal(t, 1, summary.Skipped)
	require.Equal(t, ActionAlreadyApplied, summary.Results[0].Action)
}

func TestApply_CollisionFails(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.md")
	touch(t, root, "b.md")

	_, err := Apply(root, []config.Rename{{From: "a.md", To: "b.md"}})
	require.True(t, errors.Is(err, ErrCollision))

	// Neither file may be touched when the entry fails.
	require.FileExists(t, filepath.Join(root, "a.md"))
	require.FileExists(t, filepath.Join(root, "b.md"))
}

func TestApply_BothMissingFails(t *testing.T) {
	root := t.TempDir()

	_, err := Apply(root, []config.Rename{{From: "ghost.md", To: "phantom.md"}})
	require.True(t, errors.Is(err, ErrNothingToRename))
}

func TestApply_EntriesRunInOrder(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.md")

	// a -> b then b -> c only works if entries apply sequentially.
	summary, err := Apply(root, []config.Rename{
		{From: "a.md", To: "b.md"},
		{From: "b.md", To: "c.md"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Renamed)
	require.FileExists(t, filepath.Join(root, "c.md"))
}
