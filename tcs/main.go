package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/tradechain/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cmd.Register(commander)

	// Shell completion, a no-op outside of a completion request.
	sub := make(map[string]*complete.Command)
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		sub[c.Name()] = &complete.Command{}
	})
	(&complete.Command{
		Sub: sub,
		Flags: map[string]complete.Predictor{
			"D": predict.Dirs("*"),
			"c": predict.Files("*.jsonl"),
			"v": predict.Nothing,
		},
	}).Complete("tcs")

	flag.Parse()

	// Unknown subcommands are dispatched to tcs-<name> executables on PATH.
	if args := flag.Args(); len(args) > 0 && !known(commander, args[0]) {
		if found, code := cmd.RunExtension(args[0], args[1:]); found {
			os.Exit(code)
		}
	}

	os.Exit(int(commander.Execute(context.Background())))
}

func known(commander *subcommands.Commander, name string) bool {
	found := false
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		if c.Name() == name {
			found = true
		}
	})
	return found
}
