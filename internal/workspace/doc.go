// Package workspace manages scratch directories for builds, supporting both
// ephemeral (timestamped) and persistent (fixed-path) modes.
//
// Ephemeral mode creates timestamped directories (e.g. pressroom-20240301-122336)
// suitable for one-shot builds, removed completely after use.
//
// Persistent mode uses a fixed directory path (e.g. ./pressroom-data/working)
// that survives across builds, keeping daemon scratch state under its data
// directory.
package workspace
