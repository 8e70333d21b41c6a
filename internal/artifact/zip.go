package artifact

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// WriteZip writes every regular file under root into w as a zip archive.
// Entry names are slash paths relative to root; a non-empty prefix re-roots
// all entries under that directory inside the archive.
func WriteZip(w io.Writer, root, prefix string) error {
	zw := zip.NewWriter(w)
	if err := addTree(zw, root, prefix); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func addTree(zw *zip.Writer, root, prefix string) error {
	prefix = strings.Trim(prefix, "/")
	return filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if prefix != "" {
			name = prefix + "/" + name
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = name
		hdr.Method = zip.Deflate

		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		if _, err := io.Copy(fw, f); err != nil {
			f.Close()
			return fmt.Errorf("zip %s: %w", name, err)
		}
		return f.Close()
	})
}
