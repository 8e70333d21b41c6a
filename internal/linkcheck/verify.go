package linkcheck

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fieldpress/pressroom/internal/logfields"
)

// BrokenLink is one internal reference whose target the render did not
// produce.
type BrokenLink struct {
	Page string // site-relative page the link appears on
	URL  string // raw link target
	Tag  string
}

// Result summarizes one verification pass.
type Result struct {
	Pages    int
	Links    int // internal links checked
	External int // external links seen, not fetched
	Broken   []BrokenLink
}

// OK reports whether every checked link resolved.
func (r *Result) OK() bool { return len(r.Broken) == 0 }

// VerifySite walks the rendered site at root, extracts the links of every
// HTML page and resolves the internal ones against the rendered file set.
// baseURL supplies the host (for internal/external classification) and the
// path prefix the site is served under.
func VerifySite(root, baseURL string) (*Result, error) {
	files, pages, err := collectSiteFiles(root)
	if err != nil {
		return nil, err
	}

	basePath := ""
	if baseURL != "" {
		if u, err := url.Parse(baseURL); err == nil {
			basePath = strings.TrimSuffix(u.Path, "/")
		}
	}

	result := &Result{Pages: len(pages)}
	for _, page := range pages {
		links, err := ExtractLinks(filepath.Join(root, filepath.FromSlash(page)), baseURL)
		if err != nil {
			return nil, err
		}
		for _, l := range links {
			if !checkable(l) {
				continue
			}
			if !l.IsInternal {
				result.External++
				continue
			}
			result.Links++
			if !targetExists(files, page, l.URL, basePath) {
				result.Broken = append(result.Broken, BrokenLink{Page: page, URL: l.URL, Tag: l.Tag})
			}
		}
	}

	sort.Slice(result.Broken, func(i, j int) bool {
		if result.Broken[i].Page != result.Broken[j].Page {
			return result.Broken[i].Page < result.Broken[j].Page
		}
		return result.Broken[i].URL < result.Broken[j].URL
	})

	slog.Info("Link verification finished",
		logfields.Path(root),
		slog.Int("pages", result.Pages),
		slog.Int("links", result.Links),
		slog.Int("broken", len(result.Broken)))
	return result, nil
}

// collectSiteFiles returns the set of all site-relative file paths plus the
// subset of HTML pages to scan.
func collectSiteFiles(root string) (map[string]bool, []string, error) {
	files := make(map[string]bool)
	var pages []string

	err := filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		slashRel := filepath.ToSlash(rel)
		files[slashRel] = true
		if strings.HasSuffix(slashRel, ".html") {
			pages = append(pages, slashRel)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk site: %w", err)
	}
	sort.Strings(pages)
	return files, pages, nil
}

// targetExists resolves one internal link against the rendered file set.
// Directory-style URLs resolve to their index.html.
func targetExists(files map[string]bool, page, link, basePath string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	p := u.Path
	if p == "" {
		// Fragment- or query-only link points at the page itself.
		return true
	}

	dirStyle := strings.HasSuffix(p, "/")
	if basePath != "" && (p == basePath || strings.HasPrefix(p, basePath+"/")) {
		p = strings.TrimPrefix(p, basePath)
		if p == "" {
			// The link was exactly the base path, i.e. the site root.
			p = "/"
		}
	}

	var rel string
	if strings.HasPrefix(p, "/") {
		rel = strings.TrimPrefix(p, "/")
	} else {
		rel = path.Join(path.Dir(page), p)
	}
	rel = strings.TrimSuffix(rel, "/")

	if rel == "" {
		return files["index.html"]
	}
	if dirStyle {
		return files[rel+"/index.html"]
	}
	return files[rel] || files[rel+"/index.html"]
}
