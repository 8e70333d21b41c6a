package site

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fieldpress/pressroom/internal/config"
	"github.com/fieldpress/pressroom/internal/trigger"
)

func testTrigger() trigger.Context {
	return trigger.Context{System: trigger.SystemLocal, Event: trigger.EventManual, Branch: "main"}
}

func testConfig(t *testing.T, posts map[string]string) *config.Config {
	t.Helper()
	root := t.TempDir()
	contentDir := filepath.Join(root, "posts")
	require.NoError(t, os.MkdirAll(contentDir, 0o755))
	for name, body := range posts {
		path := filepath.Join(contentDir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}

	cfg := &config.Config{
		Site:    config.SiteConfig{Title: "Test Blog"},
		Content: config.ContentConfig{Dir: contentDir, Include: []string{"**/*.md"}},
		Output:  config.OutputConfig{Dir: filepath.Join(root, "public")},
	}
	return cfg
}

func postSource(title, date string) string {
	return "---\ntitle: " + title + "\ndate: " + date + "\n---\n\nSome **markdown** body.\n"
}

func TestBuild_RendersAllPostsPlusIndex(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"one.md":   postSource("Post One", "2024-01-01"),
		"two.md":   postSource("Post Two", "2024-02-01"),
		"three.md": postSource("Post Three", "2024-03-01"),
	})

	report, err := NewBuilder(cfg, "").Build(context.Background(), testTrigger())
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, report.Outcome)
	require.Equal(t, 3, report.Posts)
	// N posts render exactly N+1 pages: the posts plus the front index.
	require.Equal(t, 4, report.RenderedPages)

	out := cfg.Output.Dir
	require.FileExists(t, filepath.Join(out, "index.html"))
	require.FileExists(t, filepath.Join(out, "posts", "post-one", "index.html"))
	require.FileExists(t, filepath.Join(out, "posts", "post-two", "index.html"))
	require.FileExists(t, filepath.Join(out, "posts", "post-three", "index.html"))
	require.FileExists(t, filepath.Join(out, "style.css"))
	require.FileExists(t, filepath.Join(out, "build-report.json"))

	// Markdown converted to HTML inside the page layout.
	page, err := os.ReadFile(filepath.Join(out, "posts", "post-one", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(page), "<strong>markdown</strong>")
	require.Contains(t, string(page), "Test Blog")

	// Index links every post, newest first.
	index, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	three := strings.Index(string(index), "post-three")
	one := strings.Index(string(index), "post-one")
	require.Greater(t, one, three, "newest post should appear first on the index")
}

func TestBuild_SecondRunLeavesNoResiduals(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"keep.md": postSource("Keep", "2024-01-01"),
		"drop.md": postSource("Drop", "2024-01-02"),
	})

	_, err := NewBuilder(cfg, "").Build(context.Background(), testTrigger())
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(cfg.Output.Dir, "posts", "drop", "index.html"))

	// Remove one source; the rebuilt site must not carry its page.
	require.NoError(t, os.Remove(filepath.Join(cfg.Content.Dir, "drop.md")))

	report, err := NewBuilder(cfg, "").Build(context.Background(), testTrigger())
	require.NoError(t, err)
	require.Equal(t, 2, report.RenderedPages)
	require.FileExists(t, filepath.Join(cfg.Output.Dir, "posts", "keep", "index.html"))
	require.NoDirExists(t, filepath.Join(cfg.Output.Dir, "posts", "drop"))
}

func TestBuild_FailedBuildKeepsPreviousOutput(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"stable.md": postSource("Stable", "2024-01-01"),
	})

	_, err := NewBuilder(cfg, "").Build(context.Background(), testTrigger())
	require.NoError(t, err)

	// Point discovery at a directory that does not exist; the build fails in
	// the discover stage and must leave the promoted output untouched.
	good := cfg.Content.Dir
	cfg.Content.Dir = filepath.Join(good, "absent")

	report, err := NewBuilder(cfg, "").Build(context.Background(), testTrigger())
	require.Error(t, err)
	require.Equal(t, OutcomeFailed, report.Outcome)
	require.FileExists(t, filepath.Join(cfg.Output.Dir, "posts", "stable", "index.html"))

	// No staging directory survives the abort.
	require.NoDirExists(t, cfg.Output.Dir+"_stage")
}

func TestBuild_CanceledBeforeStart(t *testing.T) {
	cfg := testConfig(t, map[string]string{"a.md": postSource("A", "2024-01-01")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewBuilder(cfg, "").Build(ctx, testTrigger())
	require.Error(t, err)
	require.Equal(t, OutcomeCanceled, report.Outcome)
	require.NoDirExists(t, cfg.Output.Dir)
}

func TestBuild_AppliesRenamesBeforeDiscovery(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"2024-01-01-intro.md": postSource("Intro", "2024-01-01"),
	})
	cfg.Renames = []config.Rename{{From: "2024-01-01-intro.md", To: "2024-01-01-intro-v2.md"}}

	report, err := NewBuilder(cfg, "").Build(context.Background(), testTrigger())
	require.NoError(t, err)
	require.Equal(t, 1, report.Renamed)
	require.FileExists(t, filepath.Join(cfg.Content.Dir, "2024-01-01-intro-v2.md"))

	// A second run sees the rename already applied and must not fail.
	report, err = NewBuilder(cfg, "").Build(context.Background(), testTrigger())
	require.NoError(t, err)
	require.Equal(t, 0, report.Renamed)
}

func TestBuild_CategoryPagesAndFeed(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"a.md": "---\ntitle: A\ndate: 2024-01-01\ncategories: [Go]\n---\nbody\n",
		"b.md": "---\ntitle: B\ndate: 2024-02-01\ncategories: [Go, Tools]\n---\nbody\n",
	})
	cfg.Site.BaseURL = "https://example.org/blog"
	cfg.Output.Feed = true
	cfg.Output.CategoryPages = true

	report, err := NewBuilder(cfg, "").Build(context.Background(), testTrigger())
	require.NoError(t, err)
	require.Equal(t, 2, report.CategoryPages)
	require.True(t, report.FeedWritten)

	require.FileExists(t, filepath.Join(cfg.Output.Dir, "categories", "go", "index.html"))
	require.FileExists(t, filepath.Join(cfg.Output.Dir, "categories", "tools", "index.html"))

	feed, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "feed.xml"))
	require.NoError(t, err)
	require.Contains(t, string(feed), "https://example.org/blog/posts/b/")

	// Page links carry the base URL path prefix.
	index, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(index), `href="/blog/posts/a/"`)
}

func TestBuild_DraftsExcludedByDefault(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"live.md":  postSource("Live", "2024-01-01"),
		"draft.md": "---\ntitle: Draft\ndate: 2024-01-02\ndraft: true\n---\nwip\n",
	})

	report, err := NewBuilder(cfg, "").Build(context.Background(), testTrigger())
	require.NoError(t, err)
	require.Equal(t, 1, report.Posts)
	require.NoDirExists(t, filepath.Join(cfg.Output.Dir, "posts", "draft"))

	cfg.Content.IncludeDrafts = true
	report, err = NewBuilder(cfg, "").Build(context.Background(), testTrigger())
	require.NoError(t, err)
	require.Equal(t, 2, report.Posts)
	require.FileExists(t, filepath.Join(cfg.Output.Dir, "posts", "draft", "index.html"))
}

func TestBuild_CopiesContentAssets(t *testing.T) {
	cfg := testConfig(t, map[string]string{"a.md": postSource("A", "2024-01-01")})
	assetsDir := filepath.Join(filepath.Dir(cfg.Content.Dir), "static")
	require.NoError(t, os.MkdirAll(filepath.Join(assetsDir, "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(assetsDir, "img", "logo.png"), []byte("png"), 0o644))
	cfg.Content.AssetsDir = assetsDir

	report, err := NewBuilder(cfg, "").Build(context.Background(), testTrigger())
	require.NoError(t, err)
	// style.css from the embedded theme plus the content asset.
	require.GreaterOrEqual(t, report.AssetsCopied, 2)
	require.FileExists(t, filepath.Join(cfg.Output.Dir, "assets", "img", "logo.png"))
}

func TestBuild_PersistsReport(t *testing.T) {
	cfg := testConfig(t, map[string]string{"a.md": postSource("A", "2024-01-01")})

	start := time.Now()
	report, err := NewBuilder(cfg, "").Build(context.Background(), testTrigger())
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "build-report.json"))
	require.NoError(t, err)

	var persisted BuildReportSerializable
	require.NoError(t, json.Unmarshal(raw, &persisted))
	require.Equal(t, report.BuildID, persisted.BuildID)
	require.Equal(t, "success", persisted.Outcome)
	require.Equal(t, 2, persisted.RenderedPages)
	require.False(t, persisted.Start.Before(start.Add(-time.Minute)))
	require.Contains(t, persisted.StageDurations, string(StageRender))
}

func TestUrlPath(t *testing.T) {
	tests := []struct {
		base string
		in   string
		want string
	}{
		{"", "/posts/x/", "/posts/x/"},
		{"https://example.org", "/posts/x/", "/posts/x/"},
		{"https://example.org/blog", "/posts/x/", "/blog/posts/x/"},
		{"https://example.org/blog/", "/", "/blog/"},
		{"https://example.org/blog", "/style.css", "/blog/style.css"},
	}
	for _, test := range tests {
		b := NewBuilder(&config.Config{Site: config.SiteConfig{BaseURL: test.base}}, "out")
		require.Equal(t, test.want, b.urlPath(test.in), "base=%q in=%q", test.base, test.in)
	}
}
