// Package events announces build and deploy lifecycle transitions on a NATS
// subject so downstream systems (chat notifiers, dashboards) can react
// without polling. Announcements are fire-and-forget: a run never fails
// because its event could not be delivered.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fieldpress/pressroom/internal/config"
	"github.com/fieldpress/pressroom/internal/logfields"
)

// Type names a lifecycle transition.
type Type string

const (
	TypeBuildStarted   Type = "build.started"
	TypeBuildFinished  Type = "build.finished"
	TypeDeployFinished Type = "deploy.finished"
)

// Event is the JSON payload published for every lifecycle transition.
// Fields beyond Type and BuildID are filled where they apply.
type Event struct {
	Type      Type      `json:"type"`
	BuildID   string    `json:"build_id"`
	Timestamp time.Time `json:"timestamp"`
	System    string    `json:"system,omitempty"`
	Branch    string    `json:"branch,omitempty"`
	Commit    string    `json:"commit,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Posts     int       `json:"posts,omitempty"`
	Pages     int       `json:"pages,omitempty"`
	Targets   []string  `json:"targets,omitempty"`
	Artifact  string    `json:"artifact,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Announcer publishes lifecycle events to one subject. A nil Announcer and
// an Announcer without a connection are both valid, disabled announcers, so
// callers never branch on configuration.
type Announcer struct {
	conn    *nats.Conn
	subject string
}

// Connect dials the configured NATS server. A configuration without a URL
// yields a disabled announcer and makes no connection attempt.
func Connect(cfg config.EventsConfig) (*Announcer, error) {
	if !cfg.Enabled() {
		return &Announcer{}, nil
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("pressroom"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	slog.Info("Event announcements enabled",
		logfields.URL(cfg.URL),
		slog.String("subject", cfg.Subject))
	return &Announcer{conn: conn, subject: cfg.Subject}, nil
}

// Enabled reports whether events actually leave the process.
func (a *Announcer) Enabled() bool { return a != nil && a.conn != nil }

// Announce publishes one event. Failures are logged, never returned.
func (a *Announcer) Announce(ev Event) {
	if !a.Enabled() {
		return
	}
	ev.Timestamp = time.Now().UTC()

	data, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("Event encoding failed", logfields.Error(err))
		return
	}
	if err := a.conn.Publish(a.subject, data); err != nil {
		slog.Warn("Event publish failed",
			logfields.Event(string(ev.Type)),
			logfields.Error(err))
		return
	}
	slog.Debug("Event published",
		logfields.Event(string(ev.Type)),
		logfields.BuildID(ev.BuildID))
}

// Close flushes pending events and drops the connection.
func (a *Announcer) Close() {
	if !a.Enabled() {
		return
	}
	_ = a.conn.FlushTimeout(2 * time.Second)
	a.conn.Close()
}
