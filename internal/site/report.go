package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldpress/pressroom/internal/trigger"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// StageCount aggregates outcome counts for a stage.
type StageCount struct {
	Success  int
	Warning  int
	Fatal    int
	Canceled int
}

// TriggerInfo is the trigger context snapshot embedded in a report.
type TriggerInfo struct {
	System string `json:"system"`
	Event  string `json:"event"`
	Branch string `json:"branch,omitempty"`
	Commit string `json:"commit,omitempty"`
}

// BuildReport captures the metrics and outcome of one site build.
type BuildReport struct {
	SchemaVersion   int
	BuildID         string
	Trigger         TriggerInfo
	Posts           int // discovered publishable posts
	RenderedPages   int // post pages plus the front index
	CategoryPages   int
	AssetsCopied    int
	Renamed         int
	FeedWritten     bool
	Start           time.Time
	End             time.Time
	Errors          []error // fatal errors causing build abortion
	Warnings        []error // non-fatal issues recorded along the way
	StageDurations  map[StageName]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	StageCounts     map[StageName]StageCount
	Outcome         BuildOutcome
	// Published and ArtifactPath are filled in after the build by the
	// publish and package flows respectively.
	Published    []string
	ArtifactPath string
}

func newBuildReport(buildID string, trig trigger.Context) *BuildReport {
	return &BuildReport{
		SchemaVersion: 1,
		BuildID:       buildID,
		Trigger: TriggerInfo{
			System: string(trig.System),
			Event:  string(trig.Event),
			Branch: trig.Branch,
			Commit: trig.Commit,
		},
		Start:           time.Now(),
		StageDurations:  make(map[StageName]time.Duration),
		StageErrorKinds: make(map[StageName]StageErrorKind),
		StageCounts:     make(map[StageName]StageCount),
	}
}

func (r *BuildReport) finish() { r.End = time.Now() }

// Duration returns the wall-clock duration of the build.
func (r *BuildReport) Duration() time.Duration { return r.End.Sub(r.Start) }

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("posts=%d pages=%d categories=%d assets=%d duration=%s errors=%d warnings=%d outcome=%s",
		r.Posts, r.RenderedPages, r.CategoryPages, r.AssetsCopied,
		r.Duration().Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), r.Outcome)
}

// deriveOutcome sets Outcome from the recorded errors and warnings.
func (r *BuildReport) deriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			if se, ok := e.(*StageError); ok && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Persist writes the report atomically into the given root directory:
// build-report.json for machines and build-report.txt for humans. Best
// effort; callers log the returned error but do not fail the build over it.
func (r *BuildReport) Persist(root string) error {
	if r.End.IsZero() {
		r.finish()
		r.deriveOutcome()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}

	jb, err := json.MarshalIndent(r.serializable(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	jsonPath := filepath.Join(root, "build-report.json")
	tmpJSON := jsonPath + ".tmp"
	if err := os.WriteFile(tmpJSON, jb, 0o644); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmpJSON, jsonPath); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}

	summaryPath := filepath.Join(root, "build-report.txt")
	tmpTxt := summaryPath + ".tmp"
	if err := os.WriteFile(tmpTxt, []byte(r.Summary()+"\n"), 0o644); err != nil {
		return fmt.Errorf("write temp report summary: %w", err)
	}
	if err := os.Rename(tmpTxt, summaryPath); err != nil {
		return fmt.Errorf("atomic rename summary: %w", err)
	}
	return nil
}

// serializable converts error values to strings and typed map keys to plain
// strings for stable JSON output.
func (r *BuildReport) serializable() *BuildReportSerializable {
	durations := make(map[string]time.Duration, len(r.StageDurations))
	for k, v := range r.StageDurations {
		durations[string(k)] = v
	}
	kinds := make(map[string]string, len(r.StageErrorKinds))
	for k, v := range r.StageErrorKinds {
		kinds[string(k)] = string(v)
	}
	counts := make(map[string]StageCount, len(r.StageCounts))
	for k, v := range r.StageCounts {
		counts[string(k)] = v
	}

	s := &BuildReportSerializable{
		SchemaVersion:   r.SchemaVersion,
		BuildID:         r.BuildID,
		Trigger:         r.Trigger,
		Posts:           r.Posts,
		RenderedPages:   r.RenderedPages,
		CategoryPages:   r.CategoryPages,
		AssetsCopied:    r.AssetsCopied,
		Renamed:         r.Renamed,
		FeedWritten:     r.FeedWritten,
		Start:           r.Start,
		End:             r.End,
		Errors:          make([]string, len(r.Errors)),
		Warnings:        make([]string, len(r.Warnings)),
		StageDurations:  durations,
		StageErrorKinds: kinds,
		StageCounts:     counts,
		Outcome:         string(r.Outcome),
		Published:       r.Published,
		ArtifactPath:    r.ArtifactPath,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

// BuildReportSerializable mirrors BuildReport with JSON-friendly fields.
type BuildReportSerializable struct {
	SchemaVersion   int                      `json:"schema_version"`
	BuildID         string                   `json:"build_id"`
	Trigger         TriggerInfo              `json:"trigger"`
	Posts           int                      `json:"posts"`
	RenderedPages   int                      `json:"rendered_pages"`
	CategoryPages   int                      `json:"category_pages"`
	AssetsCopied    int                      `json:"assets_copied"`
	Renamed         int                      `json:"renamed"`
	FeedWritten     bool                     `json:"feed_written"`
	Start           time.Time                `json:"start"`
	End             time.Time                `json:"end"`
	Errors          []string                 `json:"errors"`
	Warnings        []string                 `json:"warnings"`
	StageDurations  map[string]time.Duration `json:"stage_durations"`
	StageErrorKinds map[string]string        `json:"stage_error_kinds"`
	StageCounts     map[string]StageCount    `json:"stage_counts"`
	Outcome         string                   `json:"outcome"`
	Published       []string                 `json:"published,omitempty"`
	ArtifactPath    string                   `json:"artifact_path,omitempty"`
}
