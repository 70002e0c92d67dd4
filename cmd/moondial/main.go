package main

import (
	"os"

	_ "time/tzdata"

	"git.home.luguber.info/inful/moondial/cmd/moondial/commands"
	derrors "git.home.luguber.info/inful/moondial/internal/foundation/errors"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{Out: os.Stdout, Err: os.Stderr}

	parser, err := commands.NewParser(&cli, global)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := kctx.Run(&cli); err != nil {
		// AfterApply has installed the logger as the slog default by now.
		derrors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
	}
}
