package publish

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fieldpress/pressroom/internal/config"
	"github.com/fieldpress/pressroom/internal/metrics"
)

// captureRecorder records publish metric calls for assertions.
type captureRecorder struct {
	metrics.NoopRecorder
	mu      sync.Mutex
	results map[string][]bool
}

func (c *captureRecorder) IncPublishResult(target string, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = make(map[string][]bool)
	}
	c.results[target] = append(c.results[target], success)
}

func TestPublish_NoTargets(t *testing.T) {
	_, err := New(config.PublishConfig{}).Publish(context.Background(), t.TempDir())
	require.ErrorIs(t, err, ErrNoTargets)
}

func TestPublish_FailFastSkipsLaterTargets(t *testing.T) {
	hostCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hostCalls++
	}))
	defer srv.Close()

	rec := &captureRecorder{}
	pub := New(config.PublishConfig{
		Pages: &config.PagesTarget{
			Repo:        filepath.Join(t.TempDir(), "missing.git"),
			Branch:      "gh-pages",
			AuthorName:  "tester",
			AuthorEmail: "t@example.com",
			Timeout:     "10s",
		},
		Host: &config.HostTarget{APIURL: srv.URL, SiteID: "s", Timeout: "10s"},
	}).SetRecorder(rec)

	siteDir := writeSiteDir(t, map[string]string{"index.html": "x"})

	dests, err := pub.Publish(context.Background(), siteDir)
	require.Error(t, err)
	require.Empty(t, dests)
	require.Zero(t, hostCalls, "host deploy must not run after a pages failure")

	require.Equal(t, []bool{false}, rec.results["pages"])
	require.Empty(t, rec.results["host"])
}

func TestPublish_BothTargetsInOrder(t *testing.T) {
	bare := initBareRemote(t)

	var order []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "host")
		_, _ = w.Write([]byte(`{"id":"dep-9"}`))
	}))
	defer srv.Close()

	rec := &captureRecorder{}
	pub := New(config.PublishConfig{
		Pages: &config.PagesTarget{
			Repo:        bare,
			Branch:      "gh-pages",
			AuthorName:  "tester",
			AuthorEmail: "t@example.com",
			Timeout:     "1m",
		},
		Host: &config.HostTarget{APIURL: srv.URL, SiteID: "s1", Token: "tok", Timeout: "30s"},
	}).SetRecorder(rec)

	siteDir := writeSiteDir(t, map[string]string{"index.html": "<html>x</html>"})

	dests, err := pub.Publish(context.Background(), siteDir)
	require.NoError(t, err)
	require.Len(t, dests, 2)
	require.Equal(t, "pages", dests[0].Target)
	require.Equal(t, "host", dests[1].Target)
	require.Equal(t, "dep-9", dests[1].DeployID)
	require.Greater(t, dests[0].Duration, time.Duration(0))

	require.Equal(t, []bool{true}, rec.results["pages"])
	require.Equal(t, []bool{true}, rec.results["host"])
}
