package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradechain"
	"github.com/etnz/tradechain/renderer"
	"github.com/google/subcommands"
)

// txCmd holds the flags for the 'tx' subcommand.
type txCmd struct {
	chain   string
	symbol  string
	account string
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "display the transactions with their assigned chain" }
func (*txCmd) Usage() string {
	return `tcs tx [-chain <id>] [-s <symbol>] [-a <account>]

  Displays the transaction table after reconciliation: account renames
  applied, synthetic openings inserted, and every transaction assigned to
  its chain.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.chain, "chain", "", "Only transactions of that chain.")
	f.StringVar(&c.symbol, "s", "", "Only transactions on that symbol.")
	f.StringVar(&c.account, "a", "", "Only transactions of that account.")
}

func (c *txCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	res, err := Consolidated()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	var txns tradechain.Transactions
	for _, tx := range res.Transactions {
		if c.chain != "" && tx.ChainID != c.chain {
			continue
		}
		if c.symbol != "" && tx.Symbol() != c.symbol {
			continue
		}
		if c.account != "" && tx.Account != c.account {
			continue
		}
		txns = append(txns, tx)
	}

	printMarkdown(renderer.TransactionsMarkdown(txns))
	return subcommands.ExitSuccess
}
