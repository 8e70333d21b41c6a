package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// testContext mirrors testing.T.Context (Go 1.24): a context canceled when
// the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func testRun(buildID, outcome string) Run {
	return Run{
		BuildID:   buildID,
		StartedAt: time.Now(),
		Duration:  1500 * time.Millisecond,
		Outcome:   outcome,
		System:    "github",
		Event:     "push",
		Branch:    "main",
		Commit:    "abc1234",
		Posts:     3,
		Pages:     4,
	}
}

func TestRecordAndRecent(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := testContext(t)

	run := testRun("build-1", "success")
	run.Published = []Destination{
		{Target: "pages", Detail: "repo@gh-pages", Commit: "def5678"},
		{Target: "host", Detail: "site-123", DeployID: "dep-1"},
	}
	if err := store.Record(ctx, run); err != nil {
		t.Fatalf("failed to record run: %v", err)
	}

	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}

	got := runs[0]
	if got.BuildID != "build-1" {
		t.Errorf("expected build-1, got %s", got.BuildID)
	}
	if got.Outcome != "success" {
		t.Errorf("expected success, got %s", got.Outcome)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("expected 1.5s duration, got %s", got.Duration)
	}
	if got.Posts != 3 || got.Pages != 4 {
		t.Errorf("expected 3 posts / 4 pages, got %d / %d", got.Posts, got.Pages)
	}
	if len(got.Published) != 2 {
		t.Fatalf("expected 2 published destinations, got %d", len(got.Published))
	}
	if got.Published[0].Target != "pages" || got.Published[0].Commit != "def5678" {
		t.Errorf("unexpected pages destination: %+v", got.Published[0])
	}
	if got.Published[1].DeployID != "dep-1" {
		t.Errorf("unexpected host destination: %+v", got.Published[1])
	}
}

func TestRecentOrderAndLimit(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := testContext(t)
	for _, id := range []string{"build-1", "build-2", "build-3"} {
		if err := store.Record(ctx, testRun(id, "success")); err != nil {
			t.Fatalf("failed to record %s: %v", id, err)
		}
	}

	runs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].BuildID != "build-3" || runs[1].BuildID != "build-2" {
		t.Errorf("expected newest first, got %s then %s", runs[0].BuildID, runs[1].BuildID)
	}
}

func TestByBuildID(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := testContext(t)
	_ = store.Record(ctx, testRun("build-1", "success"))
	_ = store.Record(ctx, testRun("build-2", "failed"))
	_ = store.Record(ctx, testRun("build-1", "warning"))

	runs, err := store.ByBuildID(ctx, "build-1")
	if err != nil {
		t.Fatalf("failed to query build: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs for build-1, got %d", len(runs))
	}
	if runs[0].Outcome != "success" || runs[1].Outcome != "warning" {
		t.Errorf("expected oldest first, got %s then %s", runs[0].Outcome, runs[1].Outcome)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	run := testRun("build-1", "success")
	run.Artifact = "/tmp/site-pr-1.zip"
	if err := store.Record(testContext(t), run); err != nil {
		t.Fatalf("failed to record run: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	runs, err := reopened.Recent(testContext(t), 5)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run after reopen, got %d", len(runs))
	}
	if runs[0].Artifact != "/tmp/site-pr-1.zip" {
		t.Errorf("expected artifact path to survive reopen, got %q", runs[0].Artifact)
	}
}
