package site

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// feedEntryLimit caps the number of posts carried in the feed; readers only
// poll for recent entries.
const feedEntryLimit = 20

// Atom feed document (RFC 4287). Only the elements feed readers actually
// consume are emitted.
type atomFeed struct {
	XMLName  xml.Name    `xml:"feed"`
	XMLNS    string      `xml:"xmlns,attr"`
	ID       string      `xml:"id"`
	Title    string      `xml:"title"`
	Subtitle string      `xml:"subtitle,omitempty"`
	Updated  string      `xml:"updated"`
	Author   *atomAuthor `xml:"author,omitempty"`
	Links    []atomLink  `xml:"link"`
	Entries  []atomEntry `xml:"entry"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
	Type string `xml:"type,attr,omitempty"`
}

type atomEntry struct {
	ID      string      `xml:"id"`
	Title   string      `xml:"title"`
	Updated string      `xml:"updated"`
	Link    atomLink    `xml:"link"`
	Author  *atomAuthor `xml:"author,omitempty"`
	Summary string      `xml:"summary,omitempty"`
}

// stageFeed writes feed.xml from the rendered post views. Runs after render
// so entry ordering matches the site (newest first).
func stageFeed(_ context.Context, bs *BuildState) error {
	b := bs.Builder

	feed := atomFeed{
		XMLNS:    "http://www.w3.org/2005/Atom",
		ID:       feedID(b.cfg.Site.BaseURL),
		Title:    b.cfg.Site.Title,
		Subtitle: b.cfg.Site.Description,
		Updated:  time.Now().UTC().Format(time.RFC3339),
		Links: []atomLink{
			{Href: b.cfg.Site.BaseURL + "/", Rel: "alternate", Type: "text/html"},
			{Href: feedID(b.cfg.Site.BaseURL) + "/feed.xml", Rel: "self", Type: "application/atom+xml"},
		},
	}
	if b.cfg.Site.Author != "" {
		feed.Author = &atomAuthor{Name: b.cfg.Site.Author}
	}

	views := bs.Views
	if len(views) > feedEntryLimit {
		views = views[:feedEntryLimit]
	}
	if len(views) > 0 {
		feed.Updated = views[0].Date.UTC().Format(time.RFC3339)
	}
	for _, v := range views {
		entryURL := feedID(b.cfg.Site.BaseURL) + "/posts/" + v.Slug + "/"
		entry := atomEntry{
			ID:      entryURL,
			Title:   v.Title,
			Updated: v.Date.UTC().Format(time.RFC3339),
			Link:    atomLink{Href: entryURL, Rel: "alternate", Type: "text/html"},
			Summary: v.Summary,
		}
		if v.Author != "" {
			entry.Author = &atomAuthor{Name: v.Author}
		}
		feed.Entries = append(feed.Entries, entry)
	}

	data, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return newFatalStageError(StageFeed, fmt.Errorf("marshal feed: %w", err))
	}
	data = append([]byte(xml.Header), data...)

	if err := os.WriteFile(filepath.Join(b.stageDir, "feed.xml"), data, 0o644); err != nil {
		return newFatalStageError(StageFeed, fmt.Errorf("write feed: %w", err))
	}
	bs.Report.FeedWritten = true

	slog.Debug("Wrote feed", slog.Int("entries", len(feed.Entries)))
	return nil
}

// feedID normalizes the base URL for use as the feed/entry identifier.
// Feeds need a stable non-empty ID even when no base URL is configured.
func feedID(baseURL string) string {
	if baseURL == "" {
		return "urn:pressroom:site"
	}
	return strings.TrimSuffix(baseURL, "/")
}
