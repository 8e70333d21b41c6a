// Package site renders a directory of markdown posts into a static site:
// theme provisioning, source renames, discovery, markdown rendering,
// category pages, feed and asset copying run as an ordered stage pipeline
// writing into a staging directory that atomically replaces the output.
package site

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldpress/pressroom/internal/config"
	"github.com/fieldpress/pressroom/internal/logfields"
	"github.com/fieldpress/pressroom/internal/metrics"
	"github.com/fieldpress/pressroom/internal/trigger"
	"github.com/fieldpress/pressroom/internal/workspace"
)

// Builder renders the configured site.
type Builder struct {
	cfg       *config.Config
	outputDir string // final output dir
	stageDir  string // ephemeral staging dir for current build
	basePath  string // path component of site.base_url, links are rooted here
	workspace *workspace.Manager
	recorder  metrics.Recorder
}

// NewBuilder creates a builder for cfg writing into outputDir. An empty
// outputDir falls back to the configured output directory.
func NewBuilder(cfg *config.Config, outputDir string) *Builder {
	if outputDir == "" {
		outputDir = cfg.Output.Dir
	}
	return &Builder{
		cfg:       cfg,
		outputDir: outputDir,
		basePath:  basePathFromURL(cfg.Site.BaseURL),
		recorder:  metrics.NoopRecorder{},
	}
}

// SetRecorder injects a metrics recorder. Returns the builder for chaining.
func (b *Builder) SetRecorder(r metrics.Recorder) *Builder {
	if r == nil {
		b.recorder = metrics.NoopRecorder{}
		return b
	}
	b.recorder = r
	return b
}

// SetWorkspace injects the workspace manager builds run in. The default is
// a fresh temporary directory per build; the daemon injects a persistent
// manager rooted in its data directory.
func (b *Builder) SetWorkspace(m *workspace.Manager) *Builder {
	if m != nil {
		b.workspace = m
	}
	return b
}

// OutputDir returns the final output directory the builder promotes into.
func (b *Builder) OutputDir() string { return b.outputDir }

// basePathFromURL extracts the path component of the site base URL so links
// keep working when the site is hosted under a prefix (pages-style hosting).
func basePathFromURL(baseURL string) string {
	if baseURL == "" {
		return ""
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(u.Path, "/")
}

// urlPath roots a site-absolute path under the base URL path prefix.
func (b *Builder) urlPath(p string) string {
	if b.basePath == "" {
		return p
	}
	joined := path.Join(b.basePath, p)
	// path.Join eats the trailing slash that directory-style links rely on.
	if strings.HasSuffix(p, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return joined
}

// Build runs the full render pipeline and returns the build report. The
// report is also returned on failure so callers can persist what happened.
func (b *Builder) Build(ctx context.Context, trig trigger.Context) (*BuildReport, error) {
	buildID := uuid.NewString()
	report := newBuildReport(buildID, trig)

	slog.Info("Starting site build",
		logfields.BuildID(buildID),
		slog.String("output", b.outputDir),
		logfields.Branch(trig.Branch),
		logfields.Event(string(trig.Event)))

	if b.workspace == nil {
		b.workspace = workspace.NewManager("")
	}
	if err := b.workspace.Create(); err != nil {
		report.Errors = append(report.Errors, err)
		report.finish()
		report.deriveOutcome()
		return report, err
	}
	defer func() {
		if err := b.workspace.Cleanup(); err != nil {
			slog.Warn("Failed to clean up build workspace", logfields.Error(err))
		}
	}()

	bs := newBuildState(b, report)

	stages := NewPipeline().
		Add(StageProvisionTheme, stageProvisionTheme).
		Add(StagePrepareOutput, stagePrepareOutput).
		AddIf(len(b.cfg.Renames) > 0, StageApplyRenames, stageApplyRenames).
		Add(StageDiscover, stageDiscover).
		Add(StageRender, stageRender).
		AddIf(b.cfg.Output.CategoryPages, StageCategories, stageCategories).
		AddIf(b.cfg.Output.Feed, StageFeed, stageFeed).
		Add(StageAssets, stageAssets).
		Build()

	if err := runStages(ctx, bs, stages); err != nil {
		b.abortStaging()
		report.finish()
		report.deriveOutcome()
		b.recordBuildMetrics(report)
		return report, err
	}

	report.finish()
	report.deriveOutcome()

	if err := b.finalizeStaging(); err != nil {
		report.Errors = append(report.Errors, err)
		report.Outcome = OutcomeFailed
		b.recordBuildMetrics(report)
		return report, fmt.Errorf("finalize staging: %w", err)
	}

	// Best effort; the site itself is already in place.
	if err := report.Persist(b.outputDir); err != nil {
		slog.Warn("Failed to persist build report", logfields.Error(err))
	}

	b.recordBuildMetrics(report)
	slog.Info("Site build completed",
		logfields.BuildID(buildID),
		logfields.Count(report.RenderedPages),
		logfields.Outcome(string(report.Outcome)))
	return report, nil
}

func (b *Builder) recordBuildMetrics(report *BuildReport) {
	b.recorder.ObserveBuildDuration(report.Duration())
	b.recorder.IncBuildOutcome(metrics.OutcomeLabel(report.Outcome))
	b.recorder.SetPagesRendered(report.RenderedPages)
}
