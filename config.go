package tradechain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Config is the persisted, user-editable override surface. It is loaded once
// per run and read-only during matching; the Consolidator never modifies a
// loaded Config, it builds fresh clean and residual values instead.
type Config struct {
	Accounts         []Account
	Chains           []ChainConfig
	TransactionLinks []Link
	OrderLinks       []Link
	Prices           PriceTable
}

// Account maps a broker account number to the nickname used in chain ids and
// reports.
type Account struct {
	Number   string
	Nickname string
}

// ChainConfig is one user annotation of a chain. Transactions and Orders,
// when present, declare the chain's members explicitly; explicit members
// always win over automatic grouping.
type ChainConfig struct {
	ID           string
	TradeType    string
	Comment      string
	Transactions []string // explicit transaction ids
	Orders       []string // explicit order ids
}

// Link declares that transactions (or whole orders) belong to the same
// chain, overriding the per-underlying grouping.
type Link struct {
	Comment string
	IDs     []string
}

// PriceEntry prices a symbol on a day, for synthesizing openings.
type PriceEntry struct {
	Symbol string
	Date   Date
	Price  decimal.Decimal
}

// PriceTable is a list of price entries consulted by the Opening Synthesizer.
type PriceTable []PriceEntry

// Price returns the most recent price for symbol on or before date.
func (t PriceTable) Price(symbol string, date Date) (decimal.Decimal, bool) {
	var best PriceEntry
	var found bool
	for _, e := range t {
		if e.Symbol != symbol || e.Date.After(date) {
			continue
		}
		if !found || e.Date.After(best.Date) {
			best, found = e, true
		}
	}
	return best.Price, found
}

// ConfigValidationError reports one config entry that cannot be honored. The
// entry is ignored and the run continues.
type ConfigValidationError struct {
	Entry  string // "account", "chain", "txnlink", "ordlink", "price"
	ID     string
	Reason string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("invalid config %s %q: %s", e.Entry, e.ID, e.Reason)
}

// Validate checks the config's internal consistency and returns a sanitized
// copy with the offending entries removed, plus one error per removed entry.
// Cross-references to transaction and order ids are checked later, during
// consolidation, when the activity is known.
func (c *Config) Validate() (*Config, []error) {
	var issues []error
	out := &Config{}

	numbers := make(map[string]bool)
	nicknames := make(map[string]bool)
	for _, a := range c.Accounts {
		switch {
		case a.Number == "" || a.Nickname == "":
			issues = append(issues, &ConfigValidationError{Entry: "account", ID: a.Number, Reason: "number and nickname are both required"})
		case numbers[a.Number]:
			issues = append(issues, &ConfigValidationError{Entry: "account", ID: a.Number, Reason: "duplicate account number"})
		case nicknames[a.Nickname]:
			issues = append(issues, &ConfigValidationError{Entry: "account", ID: a.Number, Reason: fmt.Sprintf("duplicate nickname %q", a.Nickname)})
		default:
			numbers[a.Number] = true
			nicknames[a.Nickname] = true
			out.Accounts = append(out.Accounts, a)
		}
	}

	chains := make(map[string]bool)
	for _, ch := range c.Chains {
		switch {
		case ch.ID == "":
			issues = append(issues, &ConfigValidationError{Entry: "chain", Reason: "chain has no id"})
		case chains[ch.ID]:
			issues = append(issues, &ConfigValidationError{Entry: "chain", ID: ch.ID, Reason: "duplicate chain id"})
		default:
			chains[ch.ID] = true
			out.Chains = append(out.Chains, ch)
		}
	}

	for _, l := range c.TransactionLinks {
		if len(l.IDs) < 2 {
			issues = append(issues, &ConfigValidationError{Entry: "txnlink", ID: l.Comment, Reason: "a link needs at least two ids"})
			continue
		}
		out.TransactionLinks = append(out.TransactionLinks, l)
	}
	for _, l := range c.OrderLinks {
		if len(l.IDs) < 2 {
			issues = append(issues, &ConfigValidationError{Entry: "ordlink", ID: l.Comment, Reason: "a link needs at least two ids"})
			continue
		}
		out.OrderLinks = append(out.OrderLinks, l)
	}

	priced := make(map[string]bool)
	for _, p := range c.Prices {
		key := p.Symbol + "@" + p.Date.String()
		switch {
		case p.Date.IsZero():
			issues = append(issues, &ConfigValidationError{Entry: "price", ID: p.Symbol, Reason: "price has no date"})
		case priced[key]:
			issues = append(issues, &ConfigValidationError{Entry: "price", ID: key, Reason: "duplicate price entry"})
		default:
			if _, err := ParseSymbol(p.Symbol); err != nil {
				issues = append(issues, &ConfigValidationError{Entry: "price", ID: p.Symbol, Reason: err.Error()})
				continue
			}
			priced[key] = true
			out.Prices = append(out.Prices, p)
		}
	}

	return out, issues
}

// Nickname returns the nickname declared for an account number, or the
// number itself when undeclared.
func (c *Config) Nickname(number string) string {
	for _, a := range c.Accounts {
		if a.Number == number {
			return a.Nickname
		}
	}
	return number
}

// ExplicitChains returns the transaction-id and order-id maps to their
// declared chain id, honoring the explicit members of config chains.
func (c *Config) ExplicitChains() (byTransaction, byOrder map[string]string) {
	byTransaction = make(map[string]string)
	byOrder = make(map[string]string)
	for _, ch := range c.Chains {
		for _, id := range ch.Transactions {
			byTransaction[id] = ch.ID
		}
		for _, id := range ch.Orders {
			byOrder[id] = ch.ID
		}
	}
	return byTransaction, byOrder
}

// Chain returns the annotation for a chain id, if any.
func (c *Config) Chain(id string) (ChainConfig, bool) {
	for _, ch := range c.Chains {
		if ch.ID == id {
			return ch, true
		}
	}
	return ChainConfig{}, false
}

// sorted returns a canonically ordered copy: accounts by number, chains by
// id, links by comment then first id, prices by symbol then date. Encoding a
// sorted config is the config's canonical form.
func (c *Config) sorted() *Config {
	out := &Config{
		Accounts:         append([]Account(nil), c.Accounts...),
		Chains:           append([]ChainConfig(nil), c.Chains...),
		TransactionLinks: append([]Link(nil), c.TransactionLinks...),
		OrderLinks:       append([]Link(nil), c.OrderLinks...),
		Prices:           append(PriceTable(nil), c.Prices...),
	}
	sort.SliceStable(out.Accounts, func(i, j int) bool { return out.Accounts[i].Number < out.Accounts[j].Number })
	sort.SliceStable(out.Chains, func(i, j int) bool { return out.Chains[i].ID < out.Chains[j].ID })
	sortLinks(out.TransactionLinks)
	sortLinks(out.OrderLinks)
	sort.SliceStable(out.Prices, func(i, j int) bool {
		a, b := out.Prices[i], out.Prices[j]
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.Date.Before(b.Date)
	})
	return out
}

func sortLinks(links []Link) {
	sort.SliceStable(links, func(i, j int) bool {
		a, b := links[i], links[j]
		if a.Comment != b.Comment {
			return a.Comment < b.Comment
		}
		if len(a.IDs) == 0 || len(b.IDs) == 0 {
			return len(a.IDs) < len(b.IDs)
		}
		return a.IDs[0] < b.IDs[0]
	})
}
