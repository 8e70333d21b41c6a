// Package content discovers and parses the markdown sources of a site:
// posts with YAML front matter under the content directory, plus static
// assets copied through unchanged.
package content

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/fieldpress/pressroom/internal/frontmatter"
	"github.com/fieldpress/pressroom/internal/logfields"
)

// Post is one markdown source file parsed into renderable form.
type Post struct {
	SourcePath   string // absolute or workspace-relative path to the file
	RelativePath string // path relative to the content directory, slash-separated
	Slug         string
	Title        string
	Date         time.Time
	Author       string
	Categories   []string
	Tags         []string
	Summary      string
	Draft        bool
	Body         []byte // markdown body with front matter stripped
}

// postMeta is the front matter schema. Categories and tags accept both a
// single scalar and a list.
type postMeta struct {
	Title      string     `yaml:"title"`
	Date       string     `yaml:"date"`
	Author     string     `yaml:"author"`
	Slug       string     `yaml:"slug"`
	Categories stringList `yaml:"categories"`
	Tags       stringList `yaml:"tags"`
	Summary    string     `yaml:"summary"`
	Draft      bool       `yaml:"draft"`
}

type stringList []string

func (s *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value == "" {
			*s = nil
			return nil
		}
		*s = stringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*s = stringList(items)
		return nil
	default:
		return fmt.Errorf("expected string or list of strings, got yaml kind %d", value.Kind)
	}
}

var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

var titleCaser = cases.Title(language.English)
var stemCleaner = strings.NewReplacer("-", " ", "_", " ")

// splitDatePrefix recognizes the conventional YYYY-MM-DD- filename prefix
// (2024-03-01-release-notes.md). The date and the remaining stem come back
// separately so slugs and titles never carry the date twice.
func splitDatePrefix(stem string) (time.Time, string, bool) {
	if len(stem) < 12 || stem[10] != '-' {
		return time.Time{}, stem, false
	}
	t, err := time.Parse("2006-01-02", stem[:10])
	if err != nil {
		return time.Time{}, stem, false
	}
	return t, stem[11:], true
}

// ParseFile reads one markdown source and decodes its front matter. relPath
// is the file's path relative to the content root, slash-separated.
//
// Missing metadata degrades gracefully: the title falls back to the file
// name, the slug derives from the title, and the date falls back to the
// file's modification time. An unparseable date is an error so that a typo
// never silently reorders the site.
func ParseFile(path, relPath string) (*Post, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read post: %w", err)
	}

	meta, body, had, _, err := frontmatter.Split(raw)
	if err != nil {
		return nil, fmt.Errorf("front matter in %s: %w", relPath, err)
	}

	var fm postMeta
	if had {
		if err := frontmatter.Decode(meta, &fm); err != nil {
			return nil, fmt.Errorf("front matter in %s: %w", relPath, err)
		}
	}

	post := &Post{
		SourcePath:   path,
		RelativePath: relPath,
		Title:        fm.Title,
		Author:       fm.Author,
		Categories:   fm.Categories,
		Tags:         fm.Tags,
		Summary:      fm.Summary,
		Draft:        fm.Draft,
		Body:         body,
	}

	stem := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	prefixDate, stem, hasPrefixDate := splitDatePrefix(stem)
	if post.Title == "" {
		post.Title = titleCaser.String(stemCleaner.Replace(stem))
	}

	switch {
	case fm.Slug != "":
		post.Slug = Slugify(fm.Slug)
	case fm.Title != "":
		post.Slug = Slugify(fm.Title)
	default:
		post.Slug = Slugify(stem)
	}
	if post.Slug == "" {
		return nil, fmt.Errorf("post %s has no usable slug", relPath)
	}

	switch {
	case fm.Date != "":
		t, err := parseDate(fm.Date)
		if err != nil {
			return nil, fmt.Errorf("post %s: %w", relPath, err)
		}
		post.Date = t
	case hasPrefixDate:
		post.Date = prefixDate
	default:
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat post: %w", err)
		}
		post.Date = info.ModTime()
		slog.Warn("Post has no date, using file modification time", logfields.Post(relPath))
	}

	return post, nil
}
