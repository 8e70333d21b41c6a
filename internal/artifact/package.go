package artifact

import (
	"archive/zip"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fieldpress/pressroom/internal/logfields"
)

// Artifact describes a packaged preview on disk.
type Artifact struct {
	Path     string // the zip file
	Prefix   string // directory the site unpacks under
	Manifest *Manifest
}

// Package zips the rendered site re-rooted under preview/<label>/ with a
// manifest.json at the archive root. The zip lands in outDir as
// site-<label>.zip, written under a temporary name first so an interrupted
// run never leaves a half-written artifact behind.
func Package(siteDir, outDir, label string) (*Artifact, error) {
	manifest, err := NewManifest(siteDir, label)
	if err != nil {
		return nil, fmt.Errorf("build manifest: %w", err)
	}

	safe := sanitizeLabel(label)
	prefix := "preview/" + safe

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	zipPath := filepath.Join(outDir, "site-"+safe+".zip")
	tmp := zipPath + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("create artifact: %w", err)
	}
	defer os.Remove(tmp)

	zw := zip.NewWriter(f)
	if err := writeManifestEntry(zw, manifest); err != nil {
		zw.Close()
		f.Close()
		return nil, err
	}
	if err := addTree(zw, siteDir, prefix); err != nil {
		zw.Close()
		f.Close()
		return nil, fmt.Errorf("package site: %w", err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return nil, fmt.Errorf("finalize artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, zipPath); err != nil {
		return nil, fmt.Errorf("promote artifact: %w", err)
	}

	slog.Info("Preview artifact packaged",
		logfields.Path(zipPath),
		logfields.Count(len(manifest.Files)),
		slog.String("label", label))
	return &Artifact{Path: zipPath, Prefix: prefix, Manifest: manifest}, nil
}

func writeManifestEntry(zw *zip.Writer, m *Manifest) error {
	data, err := m.ToJSON()
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	w, err := zw.Create("manifest.json")
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// sanitizeLabel makes a trigger label usable in file and directory names;
// branch labels may contain slashes (feature/foo).
func sanitizeLabel(label string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '.' || r == '_':
			return r
		default:
			return '-'
		}
	}, label)
	mapped = strings.Trim(mapped, "-.")
	if mapped == "" {
		return "preview"
	}
	return mapped
}
