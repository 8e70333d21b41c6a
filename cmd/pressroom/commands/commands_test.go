package commands

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldpress/pressroom/internal/history"
	"github.com/fieldpress/pressroom/internal/publish"
)

// pinLocalTrigger clears CI environment markers so the pipeline always sees
// a local manual run, no matter where the tests execute.
func pinLocalTrigger(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_ACTIONS", "")
	t.Setenv("GITLAB_CI", "")
	t.Setenv("PRESSROOM_BRANCH", "")
}

// newTestProject lays out a minimal blog project in a temp dir and returns
// the project root and the config file path.
func newTestProject(t *testing.T, extraConfig string, posts map[string]string) (string, string) {
	t.Helper()
	root := t.TempDir()

	contentDir := filepath.Join(root, "posts")
	require.NoError(t, os.MkdirAll(contentDir, 0o755))
	for name, body := range posts {
		require.NoError(t, os.WriteFile(filepath.Join(contentDir, name), []byte(body), 0o644))
	}

	cfgYAML := `site:
  title: Commands Test Blog
content:
  dir: ` + contentDir + `
output:
  dir: ` + filepath.Join(root, "public") + `
  feed: true
  category_pages: true
preview:
  dir: ` + filepath.Join(root, "preview") + `
` + extraConfig

	cfgPath := filepath.Join(root, "pressroom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))
	return root, cfgPath
}

func samplePost(title, date string) string {
	return "---\ntitle: " + title + "\ndate: " + date + "\ncategories: [notes]\n---\n\nBody of **" + title + "**.\n"
}

func TestInitCmd_WritesConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "pressroom.yaml")

	cmd := &InitCmd{}
	require.NoError(t, cmd.Run(&Global{}, &CLI{Config: cfgPath}))
	require.FileExists(t, cfgPath)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "title: My Blog")

	// A second init without --force must not clobber the file.
	err = cmd.Run(&Global{}, &CLI{Config: cfgPath})
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")

	forced := &InitCmd{Force: true}
	require.NoError(t, forced.Run(&Global{}, &CLI{Config: cfgPath}))
}

func TestBuildCmd_LocalRunPackagesPreview(t *testing.T) {
	pinLocalTrigger(t)
	root, cfgPath := newTestProject(t, `history:
  path: `+filepath.Join(t.TempDir(), "history.db")+`
`, map[string]string{
		"hello.md":  samplePost("Hello World", "2024-03-01"),
		"second.md": samplePost("Second Post", "2024-03-02"),
		"wip.md":    "---\ntitle: WIP\ndate: 2024-03-03\ndraft: true\n---\n\nNot ready.\n",
	})

	cmd := &BuildCmd{}
	require.NoError(t, cmd.Run(&Global{}, &CLI{Config: cfgPath}))

	out := filepath.Join(root, "public")
	require.FileExists(t, filepath.Join(out, "index.html"))
	require.FileExists(t, filepath.Join(out, "posts", "hello-world", "index.html"))
	require.NoDirExists(t, filepath.Join(out, "posts", "wip"))

	// A local manual run never publishes; it packages a preview artifact.
	require.FileExists(t, filepath.Join(root, "preview", "site-local.zip"))

	// The persisted report carries the artifact path.
	data, err := os.ReadFile(filepath.Join(out, "build-report.json"))
	require.NoError(t, err)
	var report struct {
		Outcome      string `json:"outcome"`
		Posts        int    `json:"posts"`
		ArtifactPath string `json:"artifact_path"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	require.Equal(t, "success", report.Outcome)
	require.Equal(t, 2, report.Posts)
	require.Contains(t, report.ArtifactPath, "site-local.zip")
}

func TestBuildCmd_RecordsHistoryWhenConfigured(t *testing.T) {
	pinLocalTrigger(t)
	historyPath := filepath.Join(t.TempDir(), "state", "history.db")
	_, cfgPath := newTestProject(t, `history:
  path: `+historyPath+`
`, map[string]string{
		"solo.md": samplePost("Solo", "2024-04-01"),
	})

	cmd := &BuildCmd{}
	require.NoError(t, cmd.Run(&Global{}, &CLI{Config: cfgPath}))

	store, err := history.Open(historyPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	runs, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "success", runs[0].Outcome)
	require.Equal(t, "local", runs[0].System)
	require.Equal(t, 1, runs[0].Posts)
	require.Equal(t, 2, runs[0].Pages)
	require.Contains(t, runs[0].Artifact, "site-local.zip")
}

func TestPublishCmd_FailsWithoutTargets(t *testing.T) {
	pinLocalTrigger(t)
	root, cfgPath := newTestProject(t, "", map[string]string{
		"only.md": samplePost("Only", "2024-05-01"),
	})

	cmd := &PublishCmd{}
	err := cmd.Run(&Global{}, &CLI{Config: cfgPath})
	require.ErrorIs(t, err, publish.ErrNoTargets)

	// The rendered site is in place; the report records the failed run.
	data, err := os.ReadFile(filepath.Join(root, "public", "build-report.json"))
	require.NoError(t, err)
	var report struct {
		Outcome string `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	require.Equal(t, "failed", report.Outcome)
}

func TestPackageCmd_LabelAndDrafts(t *testing.T) {
	pinLocalTrigger(t)
	root, cfgPath := newTestProject(t, "", map[string]string{
		"done.md": samplePost("Done", "2024-06-01"),
		"wip.md":  "---\ntitle: WIP\ndate: 2024-06-02\ndraft: true\n---\n\nDraft body.\n",
	})

	cmd := &PackageCmd{Label: "rc-1", Drafts: true}
	require.NoError(t, cmd.Run(&Global{}, &CLI{Config: cfgPath}))

	require.FileExists(t, filepath.Join(root, "preview", "site-rc-1.zip"))
	// Drafts were opted in, so the preview includes the unfinished post.
	require.FileExists(t, filepath.Join(root, "public", "posts", "wip", "index.html"))
}

func TestVerifyCmd_RequiresRenderedSite(t *testing.T) {
	_, cfgPath := newTestProject(t, "", nil)

	cmd := &VerifyCmd{}
	err := cmd.Run(&Global{}, &CLI{Config: cfgPath})
	require.Error(t, err)
	require.Contains(t, err.Error(), "run 'pressroom build' first")
}

func TestVerifyCmd_PassesOnFreshBuild(t *testing.T) {
	pinLocalTrigger(t)
	_, cfgPath := newTestProject(t, "", map[string]string{
		"a.md": samplePost("Post A", "2024-07-01"),
		"b.md": samplePost("Post B", "2024-07-02"),
	})

	build := &BuildCmd{}
	require.NoError(t, build.Run(&Global{}, &CLI{Config: cfgPath}))

	verify := &VerifyCmd{}
	require.NoError(t, verify.Run(&Global{}, &CLI{Config: cfgPath}))
}

func TestHistoryCmd_NoDatabaseIsNotAnError(t *testing.T) {
	_, cfgPath := newTestProject(t, "", nil)

	cmd := &HistoryCmd{Limit: 10}
	require.NoError(t, cmd.Run(&Global{}, &CLI{Config: cfgPath}))
}

func TestRunResult(t *testing.T) {
	require.Equal(t, "-", runResult(history.Run{}))
	require.Equal(t, "site-pr-7.zip", runResult(history.Run{Artifact: "/tmp/preview/site-pr-7.zip"}))
	require.Equal(t, "published pages,host", runResult(history.Run{
		Published: []history.Destination{{Target: "pages"}, {Target: "host"}},
	}))
}
