package renderer

import (
	"github.com/etnz/tradechain"
)

// PositionsMarkdown renders the position snapshots with their liquidation
// value.
func PositionsMarkdown(positions tradechain.Positions) string {
	r := newBuilder()
	r.Printf("# Positions\n\n")
	r.Printf("| Account | Symbol | Qty | Mark | Net Liq | As Of |\n")
	r.Printf("|:---|:---|---:|---:|---:|:---|\n")

	var total tradechain.Money
	for _, p := range positions.Sorted().All() {
		netLiq := p.NetLiq()
		total = total.Add(netLiq)
		r.Printf("| %s | %s | %s | %s | %s | %s |\n",
			p.Account, p.Symbol(), p.Quantity, p.Mark.Decimal(), netLiq, p.AsOf)
	}
	r.Printf("| **Total** | | | | **%s** | |\n", total)

	return r.String()
}
