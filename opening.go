package tradechain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceSource provides a fallback price for a symbol on a day when the
// config price table has none. Implementations may reach the network; the
// core never does.
type PriceSource interface {
	Price(symbol string, on Date) (decimal.Decimal, error)
}

// MissingPriceError reports a position that needs a synthesized opening but
// has no price at the window start. The run never fabricates a zero-cost
// basis instead.
type MissingPriceError struct {
	Symbol string
	Date   Date
}

func (e *MissingPriceError) Error() string {
	return fmt.Sprintf("no price for %s on %s to synthesize its opening", e.Symbol, e.Date)
}

// MissingPrices extracts every MissingPriceError joined or wrapped in err.
// It returns nil when err is nil or reports something else.
func MissingPrices(err error) []*MissingPriceError {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var all []*MissingPriceError
		for _, e := range joined.Unwrap() {
			all = append(all, MissingPrices(e)...)
		}
		return all
	}
	var mp *MissingPriceError
	if errors.As(err, &mp) {
		return []*MissingPriceError{mp}
	}
	return nil
}

// SynthesizeOpenings inserts one synthetic opening transaction for every
// position the in-window history does not explain, so every holding has an
// originating fill. A position is explained when the net in-window quantity
// for its account and instrument, accumulated strictly before the snapshot
// day, equals the held quantity; otherwise an opening for the difference is
// inserted at the window start, priced from the price table, then from the
// fallback source if any.
//
// The returned table is a new sorted table; the input is not modified.
// When prices are missing the error joins one MissingPriceError per
// unpriced symbol.
func SynthesizeOpenings(txns Transactions, positions Positions, window Range, prices PriceTable, fallback PriceSource) (Transactions, error) {
	out := make(Transactions, len(txns))
	copy(out, txns)

	// Net in-window quantity per (account, symbol), before each position's
	// snapshot day.
	net := func(p Position) Quantity {
		snapshot := p.AsOf.Time()
		total := Q(0)
		for _, tx := range txns {
			if tx.Account != p.Account || tx.Symbol() != p.Symbol() {
				continue
			}
			if !tx.Time.Before(snapshot) {
				continue
			}
			total = total.Add(tx.Quantity)
		}
		return total
	}

	var missing []error
	seq := 0
	for _, p := range positions.Sorted() {
		unexplained := p.Quantity.Sub(net(p))
		if unexplained.IsZero() {
			continue
		}

		price, ok := prices.Price(p.Symbol(), window.From)
		if !ok && fallback != nil {
			if fetched, err := fallback.Price(p.Symbol(), window.From); err == nil {
				price, ok = fetched, true
			}
		}
		if !ok {
			missing = append(missing, &MissingPriceError{Symbol: p.Symbol(), Date: window.From})
			continue
		}

		seq++
		id := fmt.Sprintf("^open%06d", seq)
		instruction := Buy
		if unexplained.IsNegative() {
			instruction = Sell
		}
		unit := M(price, "USD")
		out = append(out, Transaction{
			ID:          id,
			OrderID:     id,
			Account:     p.Account,
			Time:        window.From.Time(),
			Instrument:  p.Instrument,
			RowType:     RowOpen,
			Instruction: instruction,
			Effect:      EffectOpening,
			Quantity:    unexplained,
			Price:       unit,
			Cost:        unit.Mul(unexplained).Mul(Q(p.Instrument.Multiplier())).Neg(),
			Description: fmt.Sprintf("Synthetic opening for position held on %s", p.AsOf),
		})
	}

	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}
	return out.Sorted(), nil
}
