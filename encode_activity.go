package tradechain

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// This file handles the normalized activity format: one CSV table for
// transactions and one for positions, as produced by the per-broker
// importers. The layout is header driven, so column order is free and
// unknown columns are ignored.

// transactionColumns is the canonical column order for encoding.
var transactionColumns = []string{
	"id", "order_id", "account", "datetime", "symbol", "rowtype",
	"instruction", "effect", "quantity", "price", "cost", "commissions",
	"fees", "description", "chain_id",
}

// positionColumns is the canonical column order for encoding.
var positionColumns = []string{
	"account", "symbol", "quantity", "cost_basis", "mark_price", "as_of_date",
}

// header indexes a CSV header line by column name.
type header map[string]int

func newHeader(record []string) header {
	h := make(header, len(record))
	for i, name := range record {
		h[strings.TrimSpace(name)] = i
	}
	return h
}

// get returns the named cell of a record, empty when the column is absent.
func (h header) get(record []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (h header) require(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, ok := h[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// DecodeTransactions reads a normalized transactions table. Records that
// cannot be decoded (malformed symbol, bad number, broken invariant) are
// skipped and returned as issues, one per rejected row; a missing header or
// unreadable stream is a structural error.
func DecodeTransactions(r io.Reader) (Transactions, []error, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read transactions header: %w", err)
	}
	h := newHeader(head)
	if err := h.require("id", "account", "datetime", "symbol", "instruction", "quantity", "price"); err != nil {
		return nil, nil, fmt.Errorf("invalid transactions header: %w", err)
	}

	var txns Transactions
	var issues []error
	for row := 2; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("cannot read transactions row %d: %w", row, err)
		}
		tx, err := decodeTransaction(h, record)
		if err != nil {
			issues = append(issues, fmt.Errorf("transactions row %d: %w", row, err))
			continue
		}
		txns = append(txns, tx)
	}
	return txns, issues, nil
}

func decodeTransaction(h header, record []string) (Transaction, error) {
	var tx Transaction
	var err error

	tx.ID = h.get(record, "id")
	tx.OrderID = h.get(record, "order_id")
	tx.Account = h.get(record, "account")
	tx.Description = h.get(record, "description")
	tx.ChainID = h.get(record, "chain_id")

	if tx.Time, err = ParseTime(h.get(record, "datetime")); err != nil {
		return tx, err
	}
	if tx.Instrument, err = ParseSymbol(h.get(record, "symbol")); err != nil {
		return tx, err
	}

	tx.RowType = RowType(h.get(record, "rowtype"))
	if tx.RowType == "" {
		tx.RowType = RowTrade
	}
	switch tx.RowType {
	case RowTrade, RowExpire, RowAssign, RowExercise, RowTransfer, RowOpen:
	default:
		return tx, fmt.Errorf("unknown rowtype %q", tx.RowType)
	}

	tx.Instruction = Instruction(h.get(record, "instruction"))
	switch tx.Instruction {
	case Buy, Sell:
	default:
		return tx, fmt.Errorf("unknown instruction %q", tx.Instruction)
	}

	// Effects in input files are informative only, matching recomputes them.
	tx.Effect = Effect(h.get(record, "effect"))
	switch tx.Effect {
	case "", EffectOpening, EffectClosing, EffectOther:
	default:
		return tx, fmt.Errorf("unknown effect %q", tx.Effect)
	}

	if tx.Quantity, err = ParseQuantity(h.get(record, "quantity")); err != nil {
		return tx, fmt.Errorf("invalid quantity: %w", err)
	}
	if tx.Price, err = ParseMoney(h.get(record, "price")); err != nil {
		return tx, fmt.Errorf("invalid price: %w", err)
	}
	tx.Cost, tx.Commissions, tx.Fees = Money{}, Money{}, Money{}
	for _, col := range []struct {
		name string
		dst  *Money
	}{
		{"cost", &tx.Cost},
		{"commissions", &tx.Commissions},
		{"fees", &tx.Fees},
	} {
		if cell := h.get(record, col.name); cell != "" {
			if *col.dst, err = ParseMoney(cell); err != nil {
				return tx, fmt.Errorf("invalid %s: %w", col.name, err)
			}
		}
	}
	if tx.Cost.IsZero() {
		// Brokers do not always carry the signed cash flow; derive it.
		tx.Cost = tx.Price.Mul(tx.Quantity).Mul(Q(tx.Instrument.Multiplier())).Neg()
	}

	return tx, tx.Validate()
}

// EncodeTransactions writes the table in the canonical column order.
func EncodeTransactions(w io.Writer, txns Transactions) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(transactionColumns); err != nil {
		return fmt.Errorf("cannot write transactions header: %w", err)
	}
	for _, tx := range txns {
		record := []string{
			tx.ID,
			tx.OrderID,
			tx.Account,
			tx.Time.Format(TimeFormat),
			tx.Symbol(),
			string(tx.RowType),
			string(tx.Instruction),
			string(tx.Effect),
			tx.Quantity.String(),
			tx.Price.Decimal().String(),
			tx.Cost.Decimal().String(),
			tx.Commissions.Decimal().String(),
			tx.Fees.Decimal().String(),
			tx.Description,
			tx.ChainID,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("cannot write transaction %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodePositions reads a normalized positions table, with the same error
// contract as DecodeTransactions.
func DecodePositions(r io.Reader) (Positions, []error, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read positions header: %w", err)
	}
	h := newHeader(head)
	if err := h.require("account", "symbol", "quantity", "as_of_date"); err != nil {
		return nil, nil, fmt.Errorf("invalid positions header: %w", err)
	}

	var positions Positions
	var issues []error
	for row := 2; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("cannot read positions row %d: %w", row, err)
		}
		p, err := decodePosition(h, record)
		if err != nil {
			issues = append(issues, fmt.Errorf("positions row %d: %w", row, err))
			continue
		}
		positions = append(positions, p)
	}
	return positions, issues, nil
}

func decodePosition(h header, record []string) (Position, error) {
	var p Position
	var err error

	p.Account = h.get(record, "account")
	if p.Instrument, err = ParseSymbol(h.get(record, "symbol")); err != nil {
		return p, err
	}
	if p.Quantity, err = ParseQuantity(h.get(record, "quantity")); err != nil {
		return p, fmt.Errorf("invalid quantity: %w", err)
	}
	if cell := h.get(record, "cost_basis"); cell != "" {
		if p.CostBasis, err = ParseMoney(cell); err != nil {
			return p, fmt.Errorf("invalid cost_basis: %w", err)
		}
	}
	if cell := h.get(record, "mark_price"); cell != "" {
		if p.Mark, err = ParseMoney(cell); err != nil {
			return p, fmt.Errorf("invalid mark_price: %w", err)
		}
	}
	if p.AsOf, err = ParseDate(h.get(record, "as_of_date")); err != nil {
		return p, err
	}

	return p, p.Validate()
}

// EncodePositions writes the table in the canonical column order.
func EncodePositions(w io.Writer, positions Positions) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(positionColumns); err != nil {
		return fmt.Errorf("cannot write positions header: %w", err)
	}
	for _, p := range positions {
		record := []string{
			p.Account,
			p.Symbol(),
			p.Quantity.String(),
			p.CostBasis.Decimal().String(),
			p.Mark.Decimal().String(),
			p.AsOf.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("cannot write position %s: %w", p.Symbol(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}
