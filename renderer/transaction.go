package renderer

import (
	"fmt"

	"github.com/etnz/tradechain"
)

// Transaction renders a transaction to a one line string.
func Transaction(tx tradechain.Transaction) string {
	verb := "Bought"
	if tx.Instruction == tradechain.Sell {
		verb = "Sold"
	}
	switch tx.RowType {
	case tradechain.RowExpire:
		return fmt.Sprintf("Expired %s %s", tx.Quantity.Abs(), tx.Symbol())
	case tradechain.RowAssign:
		return fmt.Sprintf("Assigned %s %s", tx.Quantity.Abs(), tx.Symbol())
	case tradechain.RowExercise:
		return fmt.Sprintf("Exercised %s %s", tx.Quantity.Abs(), tx.Symbol())
	case tradechain.RowTransfer:
		return fmt.Sprintf("Transferred %s %s", tx.Quantity, tx.Symbol())
	case tradechain.RowOpen:
		return fmt.Sprintf("Opening of %s %s @ %s", tx.Quantity, tx.Symbol(), tx.Price.Decimal())
	default:
		return fmt.Sprintf("%s %s %s @ %s", verb, tx.Quantity.Abs(), tx.Symbol(), tx.Price.Decimal())
	}
}

// TransactionsMarkdown renders the transactions table.
func TransactionsMarkdown(txns tradechain.Transactions) string {
	r := newBuilder()
	r.Printf("# Transactions\n\n")
	r.Printf("| Id | Time | Symbol | Side | Effect | Qty | Price | Cost | Chain |\n")
	r.Printf("|:---|:---|:---|:---|:---|---:|---:|---:|:---|\n")
	for _, tx := range txns {
		r.Printf("| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			tx.ID,
			tx.Time.Format("2006-01-02 15:04:05"),
			tx.Symbol(),
			tx.Instruction,
			tx.Effect,
			tx.Quantity,
			tx.Price.Decimal(),
			tx.Cost.SignedString(),
			tx.ChainID,
		)
	}
	return r.String()
}
