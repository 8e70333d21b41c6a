// Package publish pushes a rendered site to its deploy destinations: a
// pages-style git branch and a static-hosting HTTP API. Destinations run
// sequentially and fail fast. There is no cross-destination rollback: a
// pages push that lands before a host failure stays live.
package publish

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fieldpress/pressroom/internal/config"
	"github.com/fieldpress/pressroom/internal/logfields"
	"github.com/fieldpress/pressroom/internal/metrics"
)

// ErrNoTargets is returned when a publish is requested but no destination
// is configured.
var ErrNoTargets = errors.New("no publish destinations configured")

// Destination records one completed deploy for reports and history.
type Destination struct {
	Target   string        `json:"target"` // "pages" or "host"
	Detail   string        `json:"detail"` // repo@branch or site ID
	Duration time.Duration `json:"duration"`
	Commit   string        `json:"commit,omitempty"`    // pages: pushed commit
	DeployID string        `json:"deploy_id,omitempty"` // host: deploy ID from the API
}

// Publisher deploys a rendered site according to its publish configuration.
type Publisher struct {
	cfg      config.PublishConfig
	recorder metrics.Recorder
	client   *http.Client
}

// New creates a Publisher for the given configuration.
func New(cfg config.PublishConfig) *Publisher {
	return &Publisher{
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		client:   &http.Client{},
	}
}

// SetRecorder swaps the metrics recorder. Returns the publisher for chaining.
func (p *Publisher) SetRecorder(r metrics.Recorder) *Publisher {
	if r != nil {
		p.recorder = r
	}
	return p
}

// Publish deploys siteDir to every configured destination in order: the
// pages branch first, the hosting API second. The first failure aborts the
// rest; destinations already published are reported alongside the error.
func (p *Publisher) Publish(ctx context.Context, siteDir string) ([]Destination, error) {
	if !p.cfg.HasTargets() {
		return nil, ErrNoTargets
	}

	var done []Destination
	if p.cfg.Pages != nil {
		dest, err := p.run(ctx, "pages", siteDir, p.publishPages)
		if err != nil {
			return done, err
		}
		done = append(done, dest)
	}
	if p.cfg.Host != nil {
		dest, err := p.run(ctx, "host", siteDir, p.publishHost)
		if err != nil {
			return done, err
		}
		done = append(done, dest)
	}
	return done, nil
}

func (p *Publisher) run(ctx context.Context, target, siteDir string, step func(context.Context, string) (Destination, error)) (Destination, error) {
	start := time.Now()
	dest, err := step(ctx, siteDir)
	dest.Target = target
	dest.Duration = time.Since(start)

	p.recorder.ObservePublishDuration(target, dest.Duration, err == nil)
	p.recorder.IncPublishResult(target, err == nil)

	if err != nil {
		slog.Error("Publish failed",
			logfields.Target(target),
			logfields.DurationMS(float64(dest.Duration.Milliseconds())),
			logfields.Error(err))
		return dest, err
	}
	slog.Info("Publish succeeded",
		logfields.Target(target),
		slog.String("detail", dest.Detail),
		logfields.DurationMS(float64(dest.Duration.Milliseconds())))
	return dest, nil
}
