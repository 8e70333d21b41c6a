package site

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fieldpress/pressroom/internal/config"
	"github.com/fieldpress/pressroom/internal/git"
	"github.com/fieldpress/pressroom/internal/logfields"
)

//go:embed templates_defaults/*.tmpl templates_defaults/static/*
var embeddedTheme embed.FS

// Theme resolves page templates and static files. Every lookup falls back
// per file to the embedded defaults, so a theme only has to override what
// it wants to change.
type Theme struct {
	dir string // empty means embedded defaults only
}

// provisionTheme resolves the configured theme: a remote repository is
// cloned into the work directory, a local path is used as-is, and no
// configuration yields the embedded defaults.
func provisionTheme(ctx context.Context, cfg config.ThemeConfig, workDir string) (*Theme, error) {
	switch {
	case cfg.Repo != "":
		dest := filepath.Join(workDir, "theme")
		if _, err := git.Clone(ctx, dest, git.CloneOptions{
			URL:    cfg.Repo,
			Branch: cfg.Branch,
			Depth:  1,
		}); err != nil {
			return nil, fmt.Errorf("provision theme: %w", err)
		}
		slog.Info("Theme cloned", logfields.URL(cfg.Repo), logfields.Branch(cfg.Branch))
		return &Theme{dir: dest}, nil

	case cfg.Path != "":
		info, err := os.Stat(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("theme path: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("theme path %s is not a directory", cfg.Path)
		}
		return &Theme{dir: cfg.Path}, nil

	default:
		return &Theme{}, nil
	}
}

// Template returns the raw template body for a kind (base, index, post,
// category): the theme file when present, the embedded default otherwise.
// Panics only when an embedded default is missing, which is a programmer
// error.
func (t *Theme) Template(kind string) string {
	if t.dir != "" {
		path := filepath.Join(t.dir, kind+".html.tmpl")
		if b, err := os.ReadFile(path); err == nil {
			return string(b)
		}
	}
	b, err := embeddedTheme.ReadFile("templates_defaults/" + kind + ".html.tmpl")
	if err != nil {
		panic(fmt.Sprintf("embedded default template missing for kind %s: %v", kind, err))
	}
	return string(b)
}

// ThemeFile is one static file a theme ships alongside its templates.
type ThemeFile struct {
	RelativePath string
	Data         []byte
}

// StaticFiles returns the static files of the theme, sorted by path. Theme
// directory files under static/ override embedded defaults with the same
// relative path.
func (t *Theme) StaticFiles() ([]ThemeFile, error) {
	byPath := make(map[string][]byte)

	err := fs.WalkDir(embeddedTheme, "templates_defaults/static", func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		data, err := embeddedTheme.ReadFile(path)
		if err != nil {
			return err
		}
		byPath[strings.TrimPrefix(path, "templates_defaults/static/")] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read embedded static files: %w", err)
	}

	if t.dir != "" {
		staticDir := filepath.Join(t.dir, "static")
		if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
			err := filepath.WalkDir(staticDir, func(path string, entry fs.DirEntry, err error) error {
				if err != nil || entry.IsDir() {
					return err
				}
				rel, err := filepath.Rel(staticDir, path)
				if err != nil {
					return err
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				byPath[filepath.ToSlash(rel)] = data
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("read theme static files: %w", err)
			}
		}
	}

	files := make([]ThemeFile, 0, len(byPath))
	for rel, data := range byPath {
		files = append(files, ThemeFile{RelativePath: rel, Data: data})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].RelativePath < files[j].RelativePath })
	return files, nil
}
