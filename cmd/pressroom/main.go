package main

import (
	"github.com/alecthomas/kong"

	"github.com/fieldpress/pressroom/cmd/pressroom/commands"
	"github.com/fieldpress/pressroom/internal/version"
)

func main() {
	cli := commands.CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("pressroom"),
		kong.Description("Render a directory of markdown posts into a static site and publish it."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)
	err := ctx.Run(&commands.Global{}, &cli)
	ctx.FatalIfErrorf(err)
}
