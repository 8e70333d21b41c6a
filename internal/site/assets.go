package site

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fieldpress/pressroom/internal/logfields"
)

// stageAssets copies theme static files and content assets into the staged
// site. Theme files land first so a content asset with the same relative
// path deliberately overrides its theme counterpart.
func stageAssets(ctx context.Context, bs *BuildState) error {
	b := bs.Builder

	themeFiles, err := bs.Theme.StaticFiles()
	if err != nil {
		return newFatalStageError(StageAssets, err)
	}
	for _, tf := range themeFiles {
		dest := filepath.Join(b.stageDir, filepath.FromSlash(tf.RelativePath))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return newFatalStageError(StageAssets, fmt.Errorf("create asset directory: %w", err))
		}
		if err := os.WriteFile(dest, tf.Data, 0o644); err != nil {
			return newFatalStageError(StageAssets, fmt.Errorf("write theme asset %s: %w", tf.RelativePath, err))
		}
		bs.Report.AssetsCopied++
	}

	for _, asset := range bs.Assets {
		select {
		case <-ctx.Done():
			return newCanceledStageError(StageAssets, ctx.Err())
		default:
		}

		dest := filepath.Join(b.stageDir, "assets", filepath.FromSlash(asset.RelativePath))
		if err := copyFile(asset.SourcePath, dest); err != nil {
			return newFatalStageError(StageAssets, fmt.Errorf("copy asset %s: %w", asset.RelativePath, err))
		}
		bs.Report.AssetsCopied++
		slog.Debug("Copied asset", logfields.Path(asset.RelativePath))
	}

	slog.Info("Copied static assets", logfields.Count(bs.Report.AssetsCopied))
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, info.Mode())
}
