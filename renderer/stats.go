package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/tradechain"
	md "github.com/nao1215/markdown"
)

// StatsMarkdown renders the chain statistics: one row per underlying and
// the overall tally.
func StatsMarkdown(chains tradechain.Chains) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	total := tradechain.NewStats(chains)
	doc.H1(fmt.Sprintf("Chain Statistics on %s", Now().Format("2006-01-02")))
	doc.PlainText(total.String())

	doc.H2("Per Underlying")

	row := func(name string, s tradechain.Stats) []string {
		return []string{
			name,
			fmt.Sprintf("%d", s.Chains),
			fmt.Sprintf("%d", s.Open),
			fmt.Sprintf("%d", s.Closed),
			s.WinRate().String(),
			s.Realized.SignedString(),
			s.Fees.SignedString(),
		}
	}

	var rows [][]string
	for _, us := range tradechain.StatsByUnderlying(chains) {
		rows = append(rows, row(us.Underlying, us.Stats))
	}
	rows = append(rows, row("Overall", total))

	doc.Table(md.TableSet{
		Header: []string{"Underlying", "Chains", "Open", "Closed", "Win Rate", "Realized", "Fees"},
		Rows:   rows,
	})

	return doc.String()
}
