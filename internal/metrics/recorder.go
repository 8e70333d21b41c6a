// Package metrics provides observability hooks for build and publish
// operations.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics stay zero-overhead until a real implementation
// (PrometheusRecorder) is swapped in, typically by the daemon.
package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// OutcomeLabel is the final outcome of a whole build: success, warning,
// failed or canceled.
type OutcomeLabel string

// Recorder defines the observability hooks for build and publish metrics.
// Implementations must tolerate concurrent use.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome OutcomeLabel)
	ObservePublishDuration(target string, d time.Duration, success bool)
	IncPublishResult(target string, success bool)
	SetPagesRendered(n int)
}

// NoopRecorder is the default Recorder; it does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)          {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)                  {}
func (NoopRecorder) IncStageResult(string, ResultLabel)                  {}
func (NoopRecorder) IncBuildOutcome(OutcomeLabel)                        {}
func (NoopRecorder) ObservePublishDuration(string, time.Duration, bool)  {}
func (NoopRecorder) IncPublishResult(string, bool)                       {}
func (NoopRecorder) SetPagesRendered(int)                                {}
