package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"pressroom.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Render the site and publish or package it based on the trigger context"`
	Publish PublishCmd `cmd:"" help:"Render the site and publish it regardless of the trigger context"`
	Package PackageCmd `cmd:"" help:"Render the site and package it as a preview artifact"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Serve   ServeCmd   `cmd:"" help:"Serve the site locally and rebuild on source changes"`
	Daemon  DaemonCmd  `cmd:"" help:"Run as a long-lived service with scheduled rebuilds"`
	Verify  VerifyCmd  `cmd:"" help:"Check internal links of the rendered site"`
	History HistoryCmd `cmd:"" help:"List recorded build and deploy runs"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}
