package main

import (
	"github.com/alecthomas/kong"
)

// version is stamped via ldflags at build time.
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Server   ServerCmd        `cmd:"" help:"Run the game server"`
	Simulate SimulateCmd      `cmd:"" help:"Play out all-bot games locally"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("tycoon"),
		kong.Description("Hotel-chain acquisition game server for humans and bots"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": version},
	)
	ctx.FatalIfErrorf(ctx.Run())
}
