package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fieldpress/pressroom/internal/artifact"
	"github.com/fieldpress/pressroom/internal/config"
	"github.com/fieldpress/pressroom/internal/events"
	"github.com/fieldpress/pressroom/internal/history"
	"github.com/fieldpress/pressroom/internal/logfields"
	"github.com/fieldpress/pressroom/internal/publish"
	"github.com/fieldpress/pressroom/internal/site"
	"github.com/fieldpress/pressroom/internal/trigger"
)

// Mode selects what happens with the rendered site after a successful build.
type Mode int

const (
	// ModeAuto publishes on a push to the primary branch and packages a
	// preview artifact for everything else.
	ModeAuto Mode = iota
	// ModePublish deploys regardless of the trigger context.
	ModePublish
	// ModePackage packages a preview artifact regardless of the trigger.
	ModePackage
)

// RunPipeline executes one complete run: render the site, then publish or
// package it, recording history and announcing lifecycle events around both
// steps. outputDir overrides the configured output directory when set; label
// overrides the preview artifact label.
func RunPipeline(ctx context.Context, cfg *config.Config, outputDir string, mode Mode, label string) error {
	trig := trigger.Detect()

	announcer, err := events.Connect(cfg.Events)
	if err != nil {
		return err
	}
	defer announcer.Close()

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	builder := site.NewBuilder(cfg, outputDir)
	report, err := builder.Build(ctx, trig)
	announcer.Announce(events.Event{
		Type:    events.TypeBuildStarted,
		BuildID: report.BuildID,
		System:  string(trig.System),
		Branch:  trig.Branch,
		Commit:  trig.Commit,
	})
	if err != nil {
		recordRun(ctx, store, report, nil)
		announceFinished(announcer, report, err)
		return err
	}
	fmt.Println("Build completed:", report.Summary())

	published, err := completeRun(ctx, cfg, builder, report, trig, mode, label, announcer)

	// Re-persist so the on-disk report carries the publish/package result.
	if perr := report.Persist(builder.OutputDir()); perr != nil {
		slog.Warn("Failed to persist build report", logfields.Error(perr))
	}

	recordRun(ctx, store, report, published)
	announceFinished(announcer, report, err)
	return err
}

// completeRun performs the post-render half of the pipeline: deploy to the
// configured destinations or package a preview artifact. The report is
// updated in place; a failure here fails the whole run.
func completeRun(ctx context.Context, cfg *config.Config, builder *site.Builder, report *site.BuildReport, trig trigger.Context, mode Mode, label string, announcer *events.Announcer) ([]publish.Destination, error) {
	wantPublish := mode == ModePublish ||
		(mode == ModeAuto && trig.ShouldPublish(cfg.Publish.PrimaryBranch))

	if wantPublish {
		published, err := publish.New(cfg.Publish).Publish(ctx, builder.OutputDir())
		for _, dest := range published {
			report.Published = append(report.Published, dest.Target+" "+dest.Detail)
		}
		if err != nil {
			report.Errors = append(report.Errors, err)
			report.Outcome = site.OutcomeFailed
			return published, err
		}
		announceDeployed(announcer, report, published)
		for _, dest := range published {
			fmt.Printf("Published to %s (%s)\n", dest.Target, dest.Detail)
		}
		return published, nil
	}

	if label == "" {
		label = cfg.Preview.Label
	}
	if label == "" {
		label = trig.Label()
	}
	art, err := artifact.Package(builder.OutputDir(), cfg.Preview.Dir, label)
	if err != nil {
		report.Errors = append(report.Errors, err)
		report.Outcome = site.OutcomeFailed
		return nil, err
	}
	report.ArtifactPath = art.Path
	fmt.Println("Preview artifact:", art.Path)
	return nil, nil
}

// openHistory opens the run-history store when one is configured. One-shot
// runs record history only with an explicit history.path; the daemon always
// records into its data directory.
func openHistory(cfg *config.Config) (*history.Store, error) {
	if cfg.History.Path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(cfg.History.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	return history.Open(cfg.History.Path)
}

func recordRun(ctx context.Context, store *history.Store, report *site.BuildReport, published []publish.Destination) {
	if store == nil {
		return
	}
	run := history.Run{
		BuildID:   report.BuildID,
		StartedAt: report.Start,
		Duration:  report.Duration(),
		Outcome:   string(report.Outcome),
		System:    report.Trigger.System,
		Event:     report.Trigger.Event,
		Branch:    report.Trigger.Branch,
		Commit:    report.Trigger.Commit,
		Posts:     report.Posts,
		Pages:     report.RenderedPages,
		Artifact:  report.ArtifactPath,
	}
	for _, dest := range published {
		run.Published = append(run.Published, history.Destination{
			Target:   dest.Target,
			Detail:   dest.Detail,
			Commit:   dest.Commit,
			DeployID: dest.DeployID,
		})
	}
	if err := store.Record(ctx, run); err != nil {
		slog.Warn("Failed to record run", logfields.Error(err))
	}
}

func announceFinished(announcer *events.Announcer, report *site.BuildReport, err error) {
	ev := events.Event{
		Type:     events.TypeBuildFinished,
		BuildID:  report.BuildID,
		System:   report.Trigger.System,
		Branch:   report.Trigger.Branch,
		Outcome:  string(report.Outcome),
		Posts:    report.Posts,
		Pages:    report.RenderedPages,
		Artifact: report.ArtifactPath,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	announcer.Announce(ev)
}

func announceDeployed(announcer *events.Announcer, report *site.BuildReport, published []publish.Destination) {
	ev := events.Event{
		Type:    events.TypeDeployFinished,
		BuildID: report.BuildID,
		System:  report.Trigger.System,
		Branch:  report.Trigger.Branch,
		Outcome: string(site.OutcomeSuccess),
	}
	for _, dest := range published {
		ev.Targets = append(ev.Targets, dest.Target)
	}
	announcer.Announce(ev)
}
