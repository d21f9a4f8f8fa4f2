package tradechain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// equityRegex checks for an equity root: letters and digits, optionally a
// class suffix after a full stop (e.g. "BRK.B").
var equityRegex = regexp.MustCompile(`^[A-Z][A-Z0-9]*(?:\.[A-Z])?$`)

// futureRegex checks for a future contract: slash, 1-3 letter root, a month
// code letter, and a two-digit year.
var futureRegex = regexp.MustCompile(`^/([A-Z0-9]{1,3})([FGHJKMNQUVXZ])(\d{2})$`)

// equityOptionRegex checks for the format: root, expiration day, side and strike.
var equityOptionRegex = regexp.MustCompile(`^([A-Z][A-Z0-9]*(?:\.[A-Z])?)_(\d{6})_([CP])(\d+(?:\.\d+)?)$`)

// futureOptionRegex checks for the format: future, option contract code,
// expiration day, side and strike.
var futureOptionRegex = regexp.MustCompile(`^(/[A-Z0-9]{1,3}[FGHJKMNQUVXZ]\d{2})_([A-Z0-9]{1,4}[FGHJKMNQUVXZ]\d{2})_(\d{6})_([CP])(\d+(?:\.\d+)?)$`)

// expirationFormat is the day layout embedded in option symbols.
const expirationFormat = "060102"

// Kind classifies an instrument.
type Kind string

const (
	Equity       Kind = "Equity"
	EquityOption Kind = "EquityOption"
	Future       Kind = "Future"
	FutureOption Kind = "FutureOption"
)

// PutCall is the side of an option contract.
type PutCall string

const (
	Call PutCall = "C"
	Put  PutCall = "P"
)

// Instrument is the structured form of an instrument symbol. The symbol is
// the compact form used for storage and display; the structured form is used
// for grouping and matching. The two are a lossless pair: for every
// well-formed symbol s, ParseSymbol(s).Symbol() == s.
//
// Four grammars are recognized.
//
// Equity.
//
// An equity is its bare root: letters and digits, optionally a share-class
// suffix after a full stop.
//
//	Formal Definition: Symbol = Root
//	Example: "AAPL", "BRK.B"
//
// Equity option.
//
// An equity option concatenates the root, the expiration day, and the side
// and strike, separated by LOW LINE characters ('_').
//
//	Formal Definition: Symbol = Root "_" YYMMDD "_" ("C"|"P") Strike
//	Example: "SPY_230317_P385", "AAPL_211119_C150"
//
// Future.
//
// A future is a SOLIDUS ('/'), the contract root, a delivery month code
// (F, G, H, J, K, M, N, Q, U, V, X, Z for January through December), and a
// two-digit year.
//
//	Formal Definition: Symbol = "/" Root MonthCode YY
//	Example: "/GEZ21", "/CLM21"
//
// Future option.
//
// A future option concatenates the underlying future, the option contract
// code with its own delivery month and year, the expiration day, and the
// side and strike.
//
//	Formal Definition: Symbol = Future "_" OptCode MonthCode YY "_" YYMMDD "_" ("C"|"P") Strike
//	Example: "/GEZ21_GE4Z21_211210_C99.75", "/CLM21_LOM21_210514_P52.5"
//
// Strikes are written in canonical decimal form: no leading zeros, no
// trailing fractional zeros ("385", "99.75", "52.5"). A symbol whose strike
// is not canonical does not round-trip and is rejected with a DecodeError.
type Instrument struct {
	kind       Kind
	underlying string  // equity root, or the future symbol including '/'
	optcode    string  // future option contract code, e.g. "GE4Z21"
	expiration Date    // option expiration day
	putcall    PutCall // option side
	strike     decimal.Decimal
}

// DecodeError reports an instrument symbol that matches no known grammar.
type DecodeError struct {
	Symbol string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode symbol %q: %s", e.Symbol, e.Reason)
}

// ParseSymbol expands a compact symbol into its structured form. It fails
// with a *DecodeError if the symbol matches no known grammar.
func ParseSymbol(symbol string) (Instrument, error) {
	if equityRegex.MatchString(symbol) {
		return Instrument{kind: Equity, underlying: symbol}, nil
	}
	if futureRegex.MatchString(symbol) {
		return Instrument{kind: Future, underlying: symbol}, nil
	}
	if m := equityOptionRegex.FindStringSubmatch(symbol); m != nil {
		expiration, err := parseExpiration(m[2])
		if err != nil {
			return Instrument{}, &DecodeError{Symbol: symbol, Reason: err.Error()}
		}
		strike, err := parseStrike(m[4])
		if err != nil {
			return Instrument{}, &DecodeError{Symbol: symbol, Reason: err.Error()}
		}
		return Instrument{
			kind:       EquityOption,
			underlying: m[1],
			expiration: expiration,
			putcall:    PutCall(m[3]),
			strike:     strike,
		}, nil
	}
	if m := futureOptionRegex.FindStringSubmatch(symbol); m != nil {
		expiration, err := parseExpiration(m[3])
		if err != nil {
			return Instrument{}, &DecodeError{Symbol: symbol, Reason: err.Error()}
		}
		strike, err := parseStrike(m[5])
		if err != nil {
			return Instrument{}, &DecodeError{Symbol: symbol, Reason: err.Error()}
		}
		return Instrument{
			kind:       FutureOption,
			underlying: m[1],
			optcode:    m[2],
			expiration: expiration,
			putcall:    PutCall(m[4]),
			strike:     strike,
		}, nil
	}
	return Instrument{}, &DecodeError{Symbol: symbol, Reason: "matches no known grammar"}
}

// parseExpiration reads the YYMMDD day embedded in option symbols.
func parseExpiration(s string) (Date, error) {
	t, err := time.Parse(expirationFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid expiration %q: want YYMMDD", s)
	}
	return NewDate(t.Date()), nil
}

// parseStrike reads a strike and verifies it is written canonically, so that
// the symbol round-trips.
func parseStrike(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid strike %q: %v", s, err)
	}
	if d.String() != s {
		return decimal.Decimal{}, fmt.Errorf("non-canonical strike %q: want %q", s, d.String())
	}
	return d, nil
}

// NewEquity creates an equity instrument from its root.
func NewEquity(root string) (Instrument, error) {
	if !equityRegex.MatchString(root) {
		return Instrument{}, fmt.Errorf("invalid equity root %q", root)
	}
	return Instrument{kind: Equity, underlying: root}, nil
}

// NewEquityOption creates an equity option from its parts.
func NewEquityOption(root string, expiration Date, side PutCall, strike decimal.Decimal) (Instrument, error) {
	if !equityRegex.MatchString(root) {
		return Instrument{}, fmt.Errorf("invalid equity root %q", root)
	}
	if side != Call && side != Put {
		return Instrument{}, fmt.Errorf("invalid option side %q", side)
	}
	return Instrument{kind: EquityOption, underlying: root, expiration: expiration, putcall: side, strike: strike}, nil
}

// NewFuture creates a future from its full contract symbol (e.g. "/GEZ21").
func NewFuture(symbol string) (Instrument, error) {
	if !futureRegex.MatchString(symbol) {
		return Instrument{}, fmt.Errorf("invalid future symbol %q", symbol)
	}
	return Instrument{kind: Future, underlying: symbol}, nil
}

// NewFutureOption creates a future option from its parts. future is the
// underlying contract symbol, optcode the option contract code (e.g. "LOM21").
func NewFutureOption(future, optcode string, expiration Date, side PutCall, strike decimal.Decimal) (Instrument, error) {
	if !futureRegex.MatchString(future) {
		return Instrument{}, fmt.Errorf("invalid future symbol %q", future)
	}
	if side != Call && side != Put {
		return Instrument{}, fmt.Errorf("invalid option side %q", side)
	}
	return Instrument{kind: FutureOption, underlying: future, optcode: optcode, expiration: expiration, putcall: side, strike: strike}, nil
}

// Symbol shrinks the instrument back to its compact form.
func (i Instrument) Symbol() string {
	switch i.kind {
	case Equity, Future:
		return i.underlying
	case EquityOption:
		return fmt.Sprintf("%s_%s_%s%s", i.underlying, i.expiration.Format(expirationFormat), i.putcall, i.strike.String())
	case FutureOption:
		return fmt.Sprintf("%s_%s_%s_%s%s", i.underlying, i.optcode, i.expiration.Format(expirationFormat), i.putcall, i.strike.String())
	default:
		return ""
	}
}

// String implements the fmt.Stringer interface.
func (i Instrument) String() string { return i.Symbol() }

// Kind returns the instrument's classification.
func (i Instrument) Kind() Kind { return i.kind }

// Underlying returns the grouping symbol: the equity root for equities and
// their options, the full contract symbol for futures and their options.
func (i Instrument) Underlying() string { return i.underlying }

// Root returns the contract root without delivery month for futures (e.g.
// "/GE" for "/GEZ21"), and the underlying for everything else.
func (i Instrument) Root() string {
	if m := futureRegex.FindStringSubmatch(i.underlying); m != nil {
		return "/" + m[1]
	}
	return i.underlying
}

// IsOption reports whether the instrument is an option contract.
func (i Instrument) IsOption() bool { return i.kind == EquityOption || i.kind == FutureOption }

// Expiration returns the option expiration day, zero for non-options.
func (i Instrument) Expiration() Date { return i.expiration }

// Side returns the option side, empty for non-options.
func (i Instrument) Side() PutCall { return i.putcall }

// Strike returns the option strike, zero for non-options.
func (i Instrument) Strike() decimal.Decimal { return i.strike }

// OptCode returns the option contract code of a future option, empty
// otherwise.
func (i Instrument) OptCode() string { return i.optcode }

// Equal reports whether two instruments denote the same contract.
func (i Instrument) Equal(j Instrument) bool { return i.Symbol() == j.Symbol() }

// contractMultipliers maps a future root to its contract multiplier.
// Unlisted roots fall back to 1.
var contractMultipliers = map[string]int{
	"/ES":  50,
	"/MES": 5,
	"/NQ":  20,
	"/MNQ": 2,
	"/RTY": 50,
	"/M2K": 5,
	"/YM":  5,
	"/CL":  1000,
	"/MCL": 100,
	"/NG":  10000,
	"/GC":  100,
	"/MGC": 10,
	"/SI":  5000,
	"/HG":  25000,
	"/GE":  2500,
	"/ZT":  2000,
	"/ZF":  1000,
	"/ZN":  1000,
	"/ZB":  1000,
	"/ZC":  50,
	"/ZS":  50,
	"/ZW":  50,
	"/6E":  125000,
	"/6J":  12500000,
	"/6B":  62500,
	"/6A":  100000,
	"/6C":  100000,
	"/VX":  1000,
	"/VXM": 100,
	"/BTC": 5,
	"/MBT": 1,
}

// Multiplier returns the contract multiplier: 1 for equities, 100 for equity
// options, and the per-root contract size for futures and their options.
func (i Instrument) Multiplier() int {
	switch i.kind {
	case EquityOption:
		return 100
	case Future, FutureOption:
		if m, ok := contractMultipliers[i.Root()]; ok {
			return m
		}
		return 1
	default:
		return 1
	}
}
