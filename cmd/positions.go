package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradechain/renderer"
	"github.com/google/subcommands"
)

type positionsCmd struct{}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "display the broker position snapshots" }
func (*positionsCmd) Usage() string {
	return `tcs positions

  Displays the latest position snapshot of each account with the net
  liquidation value at the reported marks.
`
}

func (*positionsCmd) SetFlags(f *flag.FlagSet) {}

func (c *positionsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	res, err := Consolidated()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.PositionsMarkdown(res.Positions))
	return subcommands.ExitSuccess
}
