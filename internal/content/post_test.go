package content

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writePost(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParseFile_FullFrontMatter(t *testing.T) {
	path := writePost(t, "first.md", `---
title: "My First Post"
date: 2024-03-01
author: alice
categories:
  - go
  - tooling
tags: release
summary: A short intro.
---

Body text here.
`)

	post, err := ParseFile(path, "first.md")
	require.NoError(t, err)

	require.Equal(t, "My First Post", post.Title)
	require.Equal(t, "my-first-post", post.Slug)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), post.Date)
	require.Equal(t, "alice", post.Author)
	require.Equal(t, []string{"go", "tooling"}, post.Categories)
	// A scalar tag decodes as a one-element list.
	require.Equal(t, []string{"release"}, post.Tags)
	require.False(t, post.Draft)
	require.Equal(t, "\nBody text here.\n", string(post.Body))
}

func TestParseFile_ExplicitSlugWins(t *testing.T) {
	path := writePost(t, "post.md", `---
title: Some Title
slug: Custom Slug Here
date: 2024-01-01
---
x
`)

	post, err := ParseFile(path, "post.md")
	require.NoError(t, err)
	require.Equal(t, "custom-slug-here", post.Slug)
}

func TestParseFile_NoFrontMatter(t *testing.T) {
	path := writePost(t, "release-notes_2024.md", "Just markdown, no metadata.\n")

	post, err := ParseFile(path, "release-notes_2024.md")
	require.NoError(t, err)

	require.Equal(t, "Release Notes 2024", post.Title)
	require.Equal(t, "release-notes-2024", post.Slug)

	// No date in front matter means the file mtime is used.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.True(t, post.Date.Equal(info.ModTime()))
}

func TestParseFile_FilenameDatePrefix(t *testing.T) {
	path := writePost(t, "2024-03-01-release-notes.md", "Notes body.\n")

	post, err := ParseFile(path, "2024-03-01-release-notes.md")
	require.NoError(t, err)

	// The date prefix supplies the date and stays out of title and slug.
	require.Equal(t, "release-notes", post.Slug)
	require.Equal(t, "Release Notes", post.Title)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), post.Date)
}

func TestParseFile_FrontMatterDateBeatsPrefix(t *testing.T) {
	path := writePost(t, "2024-03-01-post.md", `---
date: 2024-06-15
---
x
`)

	post, err := ParseFile(path, "2024-03-01-post.md")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), post.Date)
	require.Equal(t, "post", post.Slug)
}

func TestSplitDatePrefix(t *testing.T) {
	tests := []struct {
		stem     string
		wantRest string
		wantOK   bool
	}{
		{"2024-03-01-hello", "hello", true},
		{"2024-03-01-", "2024-03-01-", false}, // nothing after the date
		{"2024-13-01-bad-month", "2024-13-01-bad-month", false},
		{"hello-world", "hello-world", false},
		{"2024-03-01", "2024-03-01", false},
	}
	for _, test := range tests {
		_, rest, ok := splitDatePrefix(test.stem)
		require.Equal(t, test.wantOK, ok, "stem %q", test.stem)
		require.Equal(t, test.wantRest, rest, "stem %q", test.stem)
	}
}

func TestParseFile_BadDate(t *testing.T) {
	path := writePost(t, "bad.md", `---
title: Bad
date: next tuesday
---
x
`)

	_, err := ParseFile(path, "bad.md")
	require.Error(t, err)
	require.Contains(t, err.Error(), "next tuesday")
}

func TestParseFile_DateFormats(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2024-05-06", time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)},
		{"2024-05-06 07:30", time.Date(2024, 5, 6, 7, 30, 0, 0, time.UTC)},
		{"2024-05-06T07:30:00", time.Date(2024, 5, 6, 7, 30, 0, 0, time.UTC)},
		{"2024-05-06T07:30:00Z", time.Date(2024, 5, 6, 7, 30, 0, 0, time.UTC)},
	}

	for _, test := range tests {
		got, err := parseDate(test.raw)
		require.NoError(t, err, "parseDate(%q)", test.raw)
		require.True(t, got.Equal(test.want), "parseDate(%q) = %v, want %v", test.raw, got, test.want)
	}
}

func TestParseFile_Draft(t *testing.T) {
	path := writePost(t, "wip.md", `---
title: WIP
date: 2024-01-01
draft: true
---
x
`)

	post, err := ParseFile(path, "wip.md")
	require.NoError(t, err)
	require.True(t, post.Draft)
}

func TestParseFile_BrokenFrontMatter(t *testing.T) {
	path := writePost(t, "broken.md", "---\ntitle: Unclosed\n\nbody\n")

	_, err := ParseFile(path, "broken.md")
	require.Error(t, err)
}
