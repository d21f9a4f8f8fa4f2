package renderer

import (
	"fmt"
	"io"
	"sort"

	"github.com/etnz/tradechain"
)

// ChainsMarkdown renders the chains table, followed by the remaining
// inventory of the chains still open.
func ChainsMarkdown(chains tradechain.Chains, positions tradechain.Positions) string {
	r := newBuilder()
	r.Printf("# Chains\n\n*As of %s*\n\n", Now().Format("2006-01-02 15:04:05"))
	r.Printf("| Chain | Status | Type | Days | Net | Fees | Realized | Unrealized | P&L |\n")
	r.Printf("|:---|:---|:---|---:|---:|---:|---:|---:|---:|\n")
	for _, c := range chains {
		r.Printf("| %s | %s | %s | %d | %s | %s | %s | %s | %s |\n",
			c.ID, c.Status, c.TradeType, c.Days(),
			c.Net().SignedString(),
			c.Commissions().Add(c.Fees()).SignedString(),
			c.Realized().SignedString(),
			c.Unrealized(positions).SignedString(),
			c.PL(positions).SignedString(),
		)
	}

	ConditionalBlock(r, func(w io.Writer) bool {
		fmt.Fprintf(w, "\n## Open Inventory\n\n")
		fmt.Fprintf(w, "| Chain | Symbol | Qty |\n")
		fmt.Fprintf(w, "|:---|:---|---:|\n")
		open := false
		for _, c := range chains.All(tradechain.OpenChains) {
			inventory := c.Inventory()
			symbols := make([]string, 0, len(inventory))
			for symbol := range inventory {
				symbols = append(symbols, symbol)
			}
			sort.Strings(symbols)
			for _, symbol := range symbols {
				fmt.Fprintf(w, "| %s | %s | %s |\n", c.ID, symbol, inventory[symbol])
				open = true
			}
		}
		return open
	})

	return r.String()
}

// ChainMarkdown renders one chain in full: its annotations, its figures and
// its fills.
func ChainMarkdown(c *tradechain.Chain, positions tradechain.Positions) string {
	r := newBuilder()
	r.Printf("# Chain %s\n\n", c.ID)
	if c.Comment != "" {
		r.Printf("> %s\n\n", c.Comment)
	}
	r.Printf("| | |\n")
	r.Printf("|---:|:---|\n")
	r.Printf("| Account | %s |\n", c.Account)
	r.Printf("| Underlying | %s |\n", c.Underlying)
	r.Printf("| Status | %s |\n", c.Status)
	if c.TradeType != "" {
		r.Printf("| Type | %s |\n", c.TradeType)
	}
	r.Printf("| Opened | %s |\n", c.Opened)
	if !c.Closed.IsZero() {
		r.Printf("| Closed | %s |\n", c.Closed)
	}
	r.Printf("| Days | %d |\n", c.Days())
	r.Printf("| Realized | %s |\n", c.Realized().SignedString())
	r.Printf("| Unrealized | %s |\n", c.Unrealized(positions).SignedString())
	r.Printf("| P&L | %s |\n", c.PL(positions).SignedString())

	r.Printf("\n## Fills\n\n")
	for _, tx := range c.Txns {
		r.Printf("* %s: %s\n", tx.Time.Format("2006-01-02 15:04:05"), Transaction(tx))
	}
	return r.String()
}
