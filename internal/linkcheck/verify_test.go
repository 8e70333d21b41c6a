package linkcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeRendered(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

func TestVerifySite_AllLinksResolve(t *testing.T) {
	root := writeRendered(t, map[string]string{
		"index.html": `<html><body>
			<a href="/posts/a/">A</a>
			<a href="posts/b/">B relative</a>
			<link rel="stylesheet" href="/assets/style.css">
		</body></html>`,
		"posts/a/index.html": `<html><body><a href="/">home</a><img src="../../assets/cover.png"></body></html>`,
		"posts/b/index.html": `<html><body><a href="#top">top</a></body></html>`,
		"assets/style.css":   "body{}",
		"assets/cover.png":   "png",
	})

	result, err := VerifySite(root, "https://example.org")
	require.NoError(t, err)
	require.True(t, result.OK(), "unexpected broken links: %+v", result.Broken)
	require.Equal(t, 3, result.Pages)
	require.Equal(t, 5, result.Links)
}

func TestVerifySite_ReportsBrokenLinks(t *testing.T) {
	root := writeRendered(t, map[string]string{
		"index.html": `<html><body>
			<a href="/posts/missing/">gone</a>
			<a href="/posts/a/">fine</a>
			<img src="/assets/nope.png">
		</body></html>`,
		"posts/a/index.html": "<html></html>",
	})

	result, err := VerifySite(root, "https://example.org")
	require.NoError(t, err)
	require.False(t, result.OK())
	require.Len(t, result.Broken, 2)

	require.Equal(t, "/assets/nope.png", result.Broken[0].URL)
	require.Equal(t, "img", result.Broken[0].Tag)
	require.Equal(t, "/posts/missing/", result.Broken[1].URL)
	require.Equal(t, "index.html", result.Broken[1].Page)
}

func TestVerifySite_ExternalLinksNotFetched(t *testing.T) {
	root := writeRendered(t, map[string]string{
		"index.html": `<html><body><a href="https://other.example/x">ext</a></body></html>`,
	})

	result, err := VerifySite(root, "https://example.org")
	require.NoError(t, err)
	require.True(t, result.OK())
	require.Equal(t, 0, result.Links)
	require.Equal(t, 1, result.External)
}

func TestVerifySite_BasePathPrefix(t *testing.T) {
	root := writeRendered(t, map[string]string{
		"index.html":         `<html><body><a href="/blog/posts/a/">a</a><a href="/blog/">home</a></body></html>`,
		"posts/a/index.html": "<html></html>",
	})

	result, err := VerifySite(root, "https://example.org/blog")
	require.NoError(t, err)
	require.True(t, result.OK(), "broken: %+v", result.Broken)
	require.Equal(t, 2, result.Links)
}

func TestTargetExists(t *testing.T) {
	files := map[string]bool{
		"index.html":         true,
		"posts/a/index.html": true,
		"assets/style.css":   true,
		"feed.xml":           true,
	}
	cases := []struct {
		page, link, basePath string
		want                 bool
	}{
		{"index.html", "/posts/a/", "", true},
		{"index.html", "/posts/a", "", true}, // bare dir URL falls through to index.html
		{"index.html", "/posts/b/", "", false},
		{"posts/a/index.html", "../../assets/style.css", "", true},
		{"posts/a/index.html", "/", "", true},
		{"index.html", "/blog/feed.xml", "/blog", true},
		{"index.html", "/blog", "/blog", true},
		{"index.html", "?page=2", "", true},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, targetExists(files, tc.page, tc.link, tc.basePath),
			"page %s link %s", tc.page, tc.link)
	}
}
