package tradechain

import (
	"fmt"
	"iter"
	"sort"
)

// Position is a snapshot of one holding at a point in time. It is the ground
// truth that the transaction history must explain: a position with no
// in-window history gets a synthesized opening.
type Position struct {
	Account    string
	Instrument Instrument
	Quantity   Quantity // signed
	CostBasis  Money
	Mark       Money // mark price per unit
	AsOf       Date
}

// Symbol returns the compact form of the position's instrument.
func (p Position) Symbol() string { return p.Instrument.Symbol() }

// NetLiq returns the liquidation value of the position at its mark.
func (p Position) NetLiq() Money {
	return p.Mark.Mul(p.Quantity).Mul(Q(p.Instrument.Multiplier()))
}

// Validate checks the record invariants.
func (p Position) Validate() error {
	if p.Account == "" {
		return fmt.Errorf("position %s has no account", p.Symbol())
	}
	if p.Quantity.IsZero() {
		return fmt.Errorf("position %s in %s has zero quantity", p.Symbol(), p.Account)
	}
	if p.AsOf.IsZero() {
		return fmt.Errorf("position %s in %s has no as-of date", p.Symbol(), p.Account)
	}
	return nil
}

// Positions is an immutable table of position snapshots.
type Positions []Position

// Sorted returns a copy in canonical order: by account, then symbol.
func (ps Positions) Sorted() Positions {
	out := make(Positions, len(ps))
	copy(out, ps)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Account != b.Account {
			return a.Account < b.Account
		}
		return a.Symbol() < b.Symbol()
	})
	return out
}

// All returns an iterator that yields each position in table order.
func (ps Positions) All() iter.Seq2[int, Position] {
	return func(yield func(int, Position) bool) {
		for i, p := range ps {
			if !yield(i, p) {
				return
			}
		}
	}
}

// bySymbol indexes the table by (account, symbol). Duplicate entries keep
// the last one.
func (ps Positions) bySymbol() map[string]Position {
	out := make(map[string]Position, len(ps))
	for _, p := range ps {
		out[p.Account+"/"+p.Symbol()] = p
	}
	return out
}
