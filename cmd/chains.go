package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/etnz/tradechain"
	"github.com/etnz/tradechain/renderer"
	"github.com/google/subcommands"
)

// chainsCmd holds the flags for the 'chains' subcommand.
type chainsCmd struct {
	open       bool
	underlying string
}

func (*chainsCmd) Name() string     { return "chains" }
func (*chainsCmd) Synopsis() string { return "display the trade chains reconciled from the activity" }
func (*chainsCmd) Usage() string {
	return `tcs chains [-open] [-u <underlying>] [<chain-id> ...]

  Reconciles the broker activity files with the chain config and displays
  the resulting chains with their realized and unrealized results. With
  chain ids as arguments, displays each chain in full instead.
`
}

func (c *chainsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.open, "open", false, "Only chains still holding inventory.")
	f.StringVar(&c.underlying, "u", "", "Only chains trading that underlying.")
}

func (c *chainsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	res, err := Consolidated()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	if f.NArg() > 0 {
		for _, id := range f.Args() {
			chain := res.Chains.Get(id)
			if chain == nil {
				fmt.Fprintf(os.Stderr, "Error: unknown chain %q\n", id)
				return subcommands.ExitFailure
			}
			printMarkdown(renderer.ChainMarkdown(chain, res.Positions))
		}
		return subcommands.ExitSuccess
	}

	var chains tradechain.Chains
	for _, chain := range res.Chains {
		if c.open && chain.Status != tradechain.ChainOpen {
			continue
		}
		if c.underlying != "" && !slices.Contains(strings.Split(chain.Underlying, ","), c.underlying) {
			continue
		}
		chains = append(chains, chain)
	}

	printMarkdown(renderer.ChainsMarkdown(chains, res.Positions))
	return subcommands.ExitSuccess
}
