// Package daemon runs pressroom as a long-lived service: gocron-scheduled
// rebuilds, an HTTP server for the rendered site with health and metrics
// endpoints, optional publishing after every successful scheduled build,
// and run history in the daemon's data directory.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/fieldpress/pressroom/internal/config"
	"github.com/fieldpress/pressroom/internal/events"
	"github.com/fieldpress/pressroom/internal/history"
	"github.com/fieldpress/pressroom/internal/logfields"
	"github.com/fieldpress/pressroom/internal/metrics"
	"github.com/fieldpress/pressroom/internal/publish"
	"github.com/fieldpress/pressroom/internal/server"
	"github.com/fieldpress/pressroom/internal/site"
	"github.com/fieldpress/pressroom/internal/trigger"
	"github.com/fieldpress/pressroom/internal/workspace"
)

// shutdownGrace bounds the HTTP drain during shutdown.
const shutdownGrace = 5 * time.Second

// Daemon owns the scheduler, the HTTP server and the stores of a long
// running pressroom instance.
type Daemon struct {
	cfg       *config.Config
	builder   *site.Builder
	publisher *publish.Publisher
	store     *history.Store
	announcer *events.Announcer
	recorder  *metrics.PrometheusRecorder
	status    *server.BuildStatus
	httpSrv   *server.Server
	scheduler gocron.Scheduler
}

// New assembles a daemon from the configuration. The history store lives in
// the daemon data directory unless the config points elsewhere.
func New(cfg *config.Config) (*Daemon, error) {
	if err := os.MkdirAll(cfg.Daemon.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create daemon data dir: %w", err)
	}

	recorder := metrics.NewPrometheusRecorder(nil)
	builder := site.NewBuilder(cfg, "").
		SetRecorder(recorder).
		SetWorkspace(workspace.NewPersistentManager(cfg.Daemon.DataDir, "working"))

	var publisher *publish.Publisher
	if cfg.Daemon.Publish && cfg.Publish.HasTargets() {
		publisher = publish.New(cfg.Publish).SetRecorder(recorder)
	}

	historyPath := cfg.History.Path
	if historyPath == "" {
		historyPath = filepath.Join(cfg.Daemon.DataDir, "history.db")
	}
	store, err := history.Open(historyPath)
	if err != nil {
		return nil, err
	}

	announcer, err := events.Connect(cfg.Events)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	status := &server.BuildStatus{}
	return &Daemon{
		cfg:       cfg,
		builder:   builder,
		publisher: publisher,
		store:     store,
		announcer: announcer,
		recorder:  recorder,
		status:    status,
		httpSrv:   server.New(cfg.Daemon.Addr, builder.OutputDir(), status, recorder.HTTPHandler()),
	}, nil
}

// Run builds once, starts the HTTP server and the rebuild schedule, then
// blocks until ctx is canceled and everything has shut down.
func (d *Daemon) Run(ctx context.Context) error {
	// The initial build may fail (sources broken mid-edit); the daemon
	// still starts and reports degraded health until a rebuild succeeds.
	d.runOnce(ctx)

	if err := d.httpSrv.Start(); err != nil {
		d.close()
		return err
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		d.stopHTTP()
		d.close()
		return fmt.Errorf("create scheduler: %w", err)
	}
	d.scheduler = scheduler

	interval := d.cfg.Daemon.IntervalDuration()
	if _, err := scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(d.runOnce, ctx),
		gocron.WithName("scheduled-build"),
	); err != nil {
		d.stopHTTP()
		d.close()
		return fmt.Errorf("schedule rebuild job: %w", err)
	}
	scheduler.Start()

	slog.Info("Daemon running",
		slog.String("addr", d.httpSrv.Addr()),
		slog.Duration("interval", interval),
		slog.Bool("publish", d.publisher != nil))

	<-ctx.Done()
	slog.Info("Shutting down daemon")

	if err := scheduler.Shutdown(); err != nil {
		slog.Warn("Scheduler shutdown failed", logfields.Error(err))
	}
	d.stopHTTP()
	d.close()
	return nil
}

func (d *Daemon) stopHTTP() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := d.httpSrv.Stop(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown failed", logfields.Error(err))
	}
}

func (d *Daemon) close() {
	d.announcer.Close()
	if err := d.store.Close(); err != nil {
		slog.Warn("History store close failed", logfields.Error(err))
	}
}

// runOnce executes one scheduled cycle: build, optionally publish, record.
func (d *Daemon) runOnce(ctx context.Context) {
	trig := trigger.Context{
		System: trigger.SystemLocal,
		Event:  trigger.EventSchedule,
		Branch: d.cfg.Publish.PrimaryBranch,
	}

	report, err := d.builder.Build(ctx, trig)
	d.announcer.Announce(events.Event{
		Type:    events.TypeBuildStarted,
		BuildID: report.BuildID,
		System:  string(trig.System),
		Branch:  trig.Branch,
	})
	if err != nil {
		slog.Error("Scheduled build failed", logfields.Error(err))
		d.status.SetError(err)
		d.record(ctx, report, nil)
		d.announceFinished(report, err)
		return
	}
	d.status.SetSuccess()

	var published []publish.Destination
	if d.publisher != nil {
		published, err = d.publisher.Publish(ctx, d.builder.OutputDir())
		for _, dest := range published {
			report.Published = append(report.Published, dest.Target+" "+dest.Detail)
		}
		if err != nil {
			slog.Error("Scheduled publish failed", logfields.Error(err))
			report.Errors = append(report.Errors, err)
			report.Outcome = site.OutcomeFailed
		} else {
			d.announceDeployed(report, published)
		}
		if perr := report.Persist(d.builder.OutputDir()); perr != nil {
			slog.Warn("Failed to persist build report", logfields.Error(perr))
		}
	}

	d.record(ctx, report, published)
	d.announceFinished(report, err)
}

func (d *Daemon) record(ctx context.Context, report *site.BuildReport, published []publish.Destination) {
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
	}
	for _, dest := range published {
		run.Published = append(run.Published, history.Destination{
			Target:   dest.Target,
			Detail:   dest.Detail,
			Commit:   dest.Commit,
			DeployID: dest.DeployID,
		})
	}
	if err := d.store.Record(ctx, run); err != nil {
		slog.Warn("Failed to record run", logfields.Error(err))
	}
}

func (d *Daemon) announceDeployed(report *site.BuildReport, published []publish.Destination) {
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
	d.announcer.Announce(ev)
}

func (d *Daemon) announceFinished(report *site.BuildReport, err error) {
	ev := events.Event{
		Type:    events.TypeBuildFinished,
		BuildID: report.BuildID,
		System:  report.Trigger.System,
		Branch:  report.Trigger.Branch,
		Outcome: string(report.Outcome),
		Posts:   report.Posts,
		Pages:   report.RenderedPages,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	d.announcer.Announce(ev)
}
