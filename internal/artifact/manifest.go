// Package artifact packages a rendered site into a downloadable preview
// archive: the site tree re-rooted under a labeled prefix plus a manifest
// listing every file with its content hash.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Manifest lists every file of a packaged site. Entries are sorted by path
// and folded into one combined hash, so two artifacts with identical content
// carry identical hashes regardless of walk order.
type Manifest struct {
	Label       string      `json:"label"`
	GeneratedAt time.Time   `json:"generated_at"`
	Hash        string      `json:"hash"`
	Files       []FileEntry `json:"files"`
}

// FileEntry is one file of the packaged site.
type FileEntry struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// NewManifest walks root and hashes every regular file.
func NewManifest(root, label string) (*Manifest, error) {
	var entries []FileEntry
	err := filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		sum, size, err := hashFile(p)
		if err != nil {
			return err
		}
		entries = append(entries, FileEntry{Path: filepath.ToSlash(rel), Size: size, SHA256: sum})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk site: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	return &Manifest{
		Label:       label,
		GeneratedAt: time.Now().UTC(),
		Hash:        combinedHash(entries),
		Files:       entries,
	}, nil
}

func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// combinedHash folds the sorted entries into a single fingerprint. An empty
// site has a fixed, known hash.
func combinedHash(entries []FileEntry) string {
	if len(entries) == 0 {
		sum := sha256.Sum256([]byte("empty-site"))
		return hex.EncodeToString(sum[:])
	}
	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s|%d|%s\n", e.Path, e.Size, e.SHA256)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ToJSON serializes the manifest for embedding into the archive.
func (m *Manifest) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
