package site

import (
	"context"
	"log/slog"

	"github.com/fieldpress/pressroom/internal/content"
)

// stageDiscover walks the content tree and parses every publishable post
// plus the static assets to carry through. Zero posts is not an error; the
// site still gets its index page.
func stageDiscover(_ context.Context, bs *BuildState) error {
	d := content.NewDiscovery(bs.Builder.cfg.Content)

	posts, err := d.Discover()
	if err != nil {
		return newFatalStageError(StageDiscover, err)
	}
	bs.Posts = posts
	bs.Report.Posts = len(posts)
	if len(posts) == 0 {
		slog.Warn("No posts discovered", slog.String("dir", bs.Builder.cfg.Content.Dir))
	}

	assets, err := d.DiscoverAssets()
	if err != nil {
		return newFatalStageError(StageDiscover, err)
	}
	bs.Assets = assets
	return nil
}
