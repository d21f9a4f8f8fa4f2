package tradechain

import (
	"fmt"
	"iter"
	"sort"
	"strings"
	"time"
)

// RowType classifies the brokerage event behind a transaction.
type RowType string

const (
	RowTrade    RowType = "Trade"    // a regular fill
	RowExpire   RowType = "Expire"   // an option expiration
	RowAssign   RowType = "Assign"   // an option assignment
	RowExercise RowType = "Exercise" // an option exercise
	RowTransfer RowType = "Transfer" // a position transferred in or out
	RowOpen     RowType = "Open"     // synthesized opening for a position predating the window
)

// Effect tags how a transaction moved the position of its instrument:
// growing it, shrinking it, or neither. It is recomputed during matching;
// values found in input files are not trusted.
type Effect string

const (
	EffectOpening Effect = "OPENING"
	EffectClosing Effect = "CLOSING"
	EffectOther   Effect = "OTHER"
)

// Instruction is the trade direction as reported by the broker.
type Instruction string

const (
	Buy  Instruction = "BUY"
	Sell Instruction = "SELL"
)

// Transaction is the immutable record of one fill or event.
//
// The id is globally unique. The order id groups the simultaneous legs of a
// single order. Quantity is signed and its sign matches the instruction.
// Cost is the signed cash flow of the event: negative for purchases,
// positive for sales. ChainID is empty until matching assigns it.
type Transaction struct {
	ID          string
	OrderID     string
	Account     string
	Time        time.Time
	Instrument  Instrument
	RowType     RowType
	Instruction Instruction
	Effect      Effect
	Quantity    Quantity
	Price       Money
	Cost        Money
	Commissions Money
	Fees        Money
	Description string
	ChainID     string
}

// Symbol returns the compact form of the transaction's instrument.
func (t Transaction) Symbol() string { return t.Instrument.Symbol() }

// Underlying returns the grouping symbol of the transaction's instrument.
func (t Transaction) Underlying() string { return t.Instrument.Underlying() }

// Validate checks the record invariants.
func (t Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("transaction has no id")
	}
	if t.Account == "" {
		return fmt.Errorf("transaction %s has no account", t.ID)
	}
	if t.Time.IsZero() {
		return fmt.Errorf("transaction %s has no event time", t.ID)
	}
	if t.Quantity.IsZero() {
		return fmt.Errorf("transaction %s has zero quantity", t.ID)
	}
	if t.Quantity.IsPositive() && t.Instruction == Sell {
		return fmt.Errorf("transaction %s sells a positive quantity %s", t.ID, t.Quantity)
	}
	if t.Quantity.IsNegative() && t.Instruction == Buy {
		return fmt.Errorf("transaction %s buys a negative quantity %s", t.ID, t.Quantity)
	}
	return nil
}

// Transactions is an immutable table of transactions. Transforming methods
// return fresh slices and never modify their receiver.
type Transactions []Transaction

// Sorted returns a copy in canonical processing order: by event time, then
// order id, then transaction id. Matching depends on this order for
// tie-breaking, so it never consumes an unsorted table.
func (txs Transactions) Sorted() Transactions {
	out := make(Transactions, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Time.Equal(b.Time) {
			return a.Time.Before(b.Time)
		}
		if a.OrderID != b.OrderID {
			return a.OrderID < b.OrderID
		}
		return a.ID < b.ID
	})
	return out
}

// All returns an iterator that yields each transaction in table order. With
// filters, a transaction is yielded when any filter accepts it.
func (txs Transactions) All(filters ...func(Transaction) bool) iter.Seq2[int, Transaction] {
	return func(yield func(int, Transaction) bool) {
		for i, tx := range txs {
			accept := len(filters) == 0
			for _, filter := range filters {
				if filter(tx) {
					accept = true
					break
				}
			}
			if !accept {
				continue
			}
			if !yield(i, tx) {
				return
			}
		}
	}
}

// Select returns a new table with the transactions any filter accepts.
func (txs Transactions) Select(filters ...func(Transaction) bool) Transactions {
	var out Transactions
	for _, tx := range txs.All(filters...) {
		out = append(out, tx)
	}
	return out
}

// ByChain groups the table by chain id, preserving table order within each
// group. Unassigned transactions group under the empty id.
func (txs Transactions) ByChain() map[string]Transactions {
	out := make(map[string]Transactions)
	for _, tx := range txs {
		out[tx.ChainID] = append(out[tx.ChainID], tx)
	}
	return out
}

// Accounts returns the sorted set of account identifiers present in the table.
func (txs Transactions) Accounts() []string {
	visited := make(map[string]struct{})
	var out []string
	for _, tx := range txs {
		if _, ok := visited[tx.Account]; ok {
			continue
		}
		visited[tx.Account] = struct{}{}
		out = append(out, tx.Account)
	}
	sort.Strings(out)
	return out
}

// ForAccount returns a filter accepting transactions of the given account.
func ForAccount(account string) func(Transaction) bool {
	return func(t Transaction) bool { return t.Account == account }
}

// ForUnderlying returns a filter accepting transactions on the given
// underlying.
func ForUnderlying(underlying string) func(Transaction) bool {
	return func(t Transaction) bool { return t.Underlying() == underlying }
}

// chainNameFormat is the timestamp layout embedded in chain ids.
const chainNameFormat = "060102_150405"

// ChainName derives the chain id from its earliest transaction:
// account, opening timestamp and underlying, joined by full stops. The
// leading solidus of future underlyings is dropped so the id stays
// path-friendly.
func ChainName(first Transaction) string {
	return strings.Join([]string{
		first.Account,
		first.Time.Format(chainNameFormat),
		strings.TrimPrefix(first.Underlying(), "/"),
	}, ".")
}
