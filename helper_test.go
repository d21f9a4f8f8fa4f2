package tradechain

// trade builds a valid transaction for tests: the quantity sign decides the
// instruction, the cost is derived from price, quantity and multiplier.
func trade(id, order, account, at, symbol string, qty, price float64) Transaction {
	ts, err := ParseTime(at)
	if err != nil {
		panic(err)
	}
	instrument, err := ParseSymbol(symbol)
	if err != nil {
		panic(err)
	}
	instruction := Buy
	if qty < 0 {
		instruction = Sell
	}
	quantity := Q(qty)
	unit := USD(price)
	return Transaction{
		ID:          id,
		OrderID:     order,
		Account:     account,
		Time:        ts,
		Instrument:  instrument,
		RowType:     RowTrade,
		Instruction: instruction,
		Quantity:    quantity,
		Price:       unit,
		Cost:        unit.Mul(quantity).Mul(Q(instrument.Multiplier())).Neg(),
	}
}

// held builds a position snapshot for tests.
func held(account, symbol string, qty, mark float64, asOf string) Position {
	instrument, err := ParseSymbol(symbol)
	if err != nil {
		panic(err)
	}
	return Position{
		Account:    account,
		Instrument: instrument,
		Quantity:   Q(qty),
		Mark:       USD(mark),
		AsOf:       MustParse(asOf),
	}
}
