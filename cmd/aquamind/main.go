package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/JoeyEinTX/aquamind/cmd/aquamind/commands"
	"github.com/JoeyEinTX/aquamind/internal/errors"
	"github.com/JoeyEinTX/aquamind/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("aquamind"),
		kong.Description("Irrigation zone and schedule control engine"),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("aquamind %s (%s)", version.Version, version.GitCommit)},
	)

	global := &commands.Global{Logger: slog.Default()}
	if err := ctx.Run(global, &cli); err != nil {
		adapter := errors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		fmt.Fprintln(os.Stderr, adapter.FormatError(err))
		os.Exit(adapter.ExitCodeFor(err))
	}
}
