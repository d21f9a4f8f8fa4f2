package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradechain/renderer"
	"github.com/google/subcommands"
)

type statsCmd struct{}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "display chain statistics per underlying" }
func (*statsCmd) Usage() string {
	return `tcs stats

  Displays win rate, realized result and friction costs, overall and per
  underlying.
`
}

func (*statsCmd) SetFlags(f *flag.FlagSet) {}

func (c *statsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	res, err := Consolidated()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.StatsMarkdown(res.Chains))
	return subcommands.ExitSuccess
}
