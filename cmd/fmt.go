package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradechain"
	"github.com/google/subcommands"
)

type fmtCmd struct{}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and formats the chain config into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `tcs fmt

  Validates and formats the chain config file. Entries are rewritten in
  the canonical JSONL form, sorted by kind and id. Validation issues are
  reported but the entries are kept, fixing them is up to you.

Usage Examples:
# Rewrites the default config file in place.
$ tcs fmt

`
}

func (*fmtCmd) SetFlags(f *flag.FlagSet) {}

func (c *fmtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load config %q: %v\n", ConfigPath(), err)
		return subcommands.ExitFailure
	}

	_, issues := cfg.Validate()
	for _, issue := range issues {
		fmt.Fprintln(os.Stderr, "warning:", issue)
	}

	if err := tradechain.SaveConfig(ConfigPath(), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config %q: %v\n", ConfigPath(), err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(os.Stderr, "✅ Formatted %s.\n", ConfigPath())
	return subcommands.ExitSuccess
}
