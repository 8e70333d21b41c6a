package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID  = "build_id"
	KeyStage    = "stage"
	KeyPost     = "post"
	KeySlug     = "slug"
	KeyPath     = "path"
	KeyURL      = "url"
	KeyBranch   = "branch"
	KeyEvent    = "event"
	KeyTarget   = "target"
	KeyOutcome  = "outcome"
	KeyDuration = "duration_ms"
	KeyCount    = "count"
	KeyError    = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Post(name string) slog.Attr      { return slog.String(KeyPost, name) }
func Slug(s string) slog.Attr         { return slog.String(KeySlug, s) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Event(e string) slog.Attr        { return slog.String(KeyEvent, e) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDuration, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
