package content

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fieldpress/pressroom/internal/config"
	"github.com/fieldpress/pressroom/internal/logfields"
)

var (
	// ErrContentDirMissing indicates the configured content directory does not exist.
	ErrContentDirMissing = errors.New("content directory not found")

	// ErrSlugCollision indicates two posts resolved to the same slug.
	ErrSlugCollision = errors.New("slug collision")
)

// Discovery finds the posts and assets of a site according to the content
// configuration.
type Discovery struct {
	cfg config.ContentConfig
}

func NewDiscovery(cfg config.ContentConfig) *Discovery {
	return &Discovery{cfg: cfg}
}

// Discover walks the content directory and returns all publishable posts,
// newest first. Drafts are skipped unless the configuration opts in. Slug
// collisions are an error: two posts must never fight over one output page.
func (d *Discovery) Discover() ([]*Post, error) {
	root := d.cfg.Dir
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrContentDirMissing, root)
		}
		return nil, fmt.Errorf("stat content dir: %w", err)
	}

	var posts []*Post
	draftsSkipped := 0
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		match, err := d.selected(rel)
		if err != nil {
			return err
		}
		if !match {
			return nil
		}

		post, err := ParseFile(path, rel)
		if err != nil {
			return err
		}
		if post.Draft && !d.cfg.IncludeDrafts {
			draftsSkipped++
			slog.Debug("Skipping draft", logfields.Post(rel))
			return nil
		}

		posts = append(posts, post)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := checkSlugCollisions(posts); err != nil {
		return nil, err
	}
	sortPosts(posts)

	slog.Info("Content discovered",
		logfields.Count(len(posts)),
		slog.Int("drafts_skipped", draftsSkipped))
	return posts, nil
}

// selected applies the include globs first, then the exclude globs.
// Patterns are matched against slash-separated paths relative to the
// content directory.
func (d *Discovery) selected(rel string) (bool, error) {
	included := false
	for _, pattern := range d.cfg.Include {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, fmt.Errorf("include pattern %q: %w", pattern, err)
		}
		if ok {
			included = true
			break
		}
	}
	if !included {
		return false, nil
	}
	for _, pattern := range d.cfg.Exclude {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		if ok {
			return false, nil
		}
	}
	return true, nil
}

func checkSlugCollisions(posts []*Post) error {
	seen := make(map[string]string, len(posts))
	for _, p := range posts {
		if other, dup := seen[p.Slug]; dup {
			return fmt.Errorf("%w: %q claimed by both %s and %s", ErrSlugCollision, p.Slug, other, p.RelativePath)
		}
		seen[p.Slug] = p.RelativePath
	}
	return nil
}

// sortPosts orders newest first. Equal dates fall back to the slug so the
// ordering stays stable across runs.
func sortPosts(posts []*Post) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].Date.Equal(posts[j].Date) {
			return posts[i].Date.After(posts[j].Date)
		}
		return posts[i].Slug < posts[j].Slug
	})
}

// Asset is a static file copied into the rendered site unchanged.
type Asset struct {
	SourcePath   string
	RelativePath string
}

// DiscoverAssets walks the configured assets directory. A missing or
// unconfigured directory yields no assets rather than an error.
func (d *Discovery) DiscoverAssets() ([]Asset, error) {
	root := d.cfg.AssetsDir
	if root == "" {
		return nil, nil
	}
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat assets dir: %w", err)
	}

	var assets []Asset
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		assets = append(assets, Asset{SourcePath: path, RelativePath: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(assets, func(i, j int) bool { return assets[i].RelativePath < assets[j].RelativePath })
	return assets, nil
}
