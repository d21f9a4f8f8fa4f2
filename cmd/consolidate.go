package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/etnz/tradechain"
	"github.com/google/subcommands"
)

// consolidateCmd holds the flags for the 'consolidate' subcommand.
type consolidateCmd struct {
	write        bool
	residualFile string
}

func (*consolidateCmd) Name() string { return "consolidate" }
func (*consolidateCmd) Synopsis() string {
	return "reconcile the activity and rewrite the chain config"
}
func (*consolidateCmd) Usage() string {
	return `tcs consolidate [-w] [-residual <file>]

  Reconciles the broker activity with the chain config and splits the
  config into a clean part, carrying only entries the current activity
  supports plus a stub per discovered chain, and a residual part with the
  entries referencing transactions or chains that no longer exist.

  By default the clean config is printed on stdout. With -w it replaces
  the config file, and the residual entries, if any, are saved next to it
  for review.
`
}

func (c *consolidateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.write, "w", false, "Write the clean config back to the config file.")
	f.StringVar(&c.residualFile, "residual", "", "File for the residual entries (default <dir>/residual.jsonl).")
}

func (c *consolidateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	res, err := Consolidated()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	residual := c.residualFile
	if residual == "" {
		residual = filepath.Join(*activityDir, "residual.jsonl")
	}

	if !c.write {
		if err := tradechain.EncodeConfig(os.Stdout, res.Clean); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		if n := configEntries(res.Residual); n > 0 {
			fmt.Fprintf(os.Stderr, "%d residual entries, run with -w to save them to %s\n", n, residual)
		}
		return subcommands.ExitSuccess
	}

	if err := tradechain.SaveConfig(ConfigPath(), res.Clean); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config %q: %v\n", ConfigPath(), err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "Wrote %s: %d chains, %d entries.\n", ConfigPath(), len(res.Chains), configEntries(res.Clean))

	if n := configEntries(res.Residual); n > 0 {
		if err := tradechain.SaveConfig(residual, res.Residual); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing residual %q: %v\n", residual, err)
			return subcommands.ExitFailure
		}
		fmt.Fprintf(os.Stderr, "Wrote %s: %d entries to review.\n", residual, n)
	}
	return subcommands.ExitSuccess
}
