package tradechain

import (
	"fmt"
	"iter"
	"sort"
	"strings"
)

// ChainStatus tells whether a chain still holds inventory.
type ChainStatus string

const (
	ChainOpen   ChainStatus = "OPEN"
	ChainClosed ChainStatus = "CLOSED"
)

// Chain is a completed grouping of transactions under one chain id, with
// the config annotations that apply to it.
type Chain struct {
	ID         string
	Account    string
	Underlying string // comma-joined when a merged chain spans several
	Status     ChainStatus
	TradeType  string
	Comment    string
	Opened     Date
	Closed     Date // zero while the chain is open
	Txns       Transactions
}

// Days is the chain's age in calendar days, first to last transaction
// inclusive, or to today for an open chain.
func (c *Chain) Days() int {
	end := Today()
	if c.Status == ChainClosed {
		end = c.Closed
	}
	return int(end.Time().Sub(c.Opened.Time()).Hours()/24) + 1
}

// Net is the sum of transaction costs, credits positive.
func (c *Chain) Net() Money {
	var n Money
	for _, tx := range c.Txns {
		n = n.Add(tx.Cost)
	}
	return n
}

// Commissions is the sum of commissions, a negative amount.
func (c *Chain) Commissions() Money {
	var n Money
	for _, tx := range c.Txns {
		n = n.Add(tx.Commissions)
	}
	return n
}

// Fees is the sum of exchange and clearing fees, a negative amount.
func (c *Chain) Fees() Money {
	var n Money
	for _, tx := range c.Txns {
		n = n.Add(tx.Fees)
	}
	return n
}

// Realized is the chain's cash result so far: net costs plus commissions
// and fees. For a closed chain this is the chain's P&L.
func (c *Chain) Realized() Money {
	return c.Net().Add(c.Commissions()).Add(c.Fees())
}

// Inventory returns the remaining net quantity per symbol. Closed chains
// return an empty map.
func (c *Chain) Inventory() map[string]Quantity {
	inv := make(map[string]Quantity)
	for _, tx := range c.Txns {
		q := inv[tx.Symbol()].Add(tx.Quantity)
		if q.IsZero() {
			delete(inv, tx.Symbol())
		} else {
			inv[tx.Symbol()] = q
		}
	}
	return inv
}

// Unrealized values the remaining inventory at the marks found in
// positions. Symbols without a mark contribute nothing.
func (c *Chain) Unrealized(positions Positions) Money {
	marks := positions.bySymbol()
	var n Money
	for symbol, qty := range c.Inventory() {
		p, ok := marks[c.Account+"/"+symbol]
		if !ok || p.Mark.IsZero() {
			continue
		}
		instrument, err := ParseSymbol(symbol)
		if err != nil {
			continue
		}
		n = n.Add(p.Mark.Mul(qty).Mul(Q(instrument.Multiplier())))
	}
	return n
}

// PL is realized plus unrealized result.
func (c *Chain) PL(positions Positions) Money {
	return c.Realized().Add(c.Unrealized(positions))
}

// Chains is a list of chains in no particular order.
type Chains []*Chain

// Get returns the chain with that id, or nil.
func (cs Chains) Get(id string) *Chain {
	for _, c := range cs {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Sorted returns a copy ordered by opening date then id.
func (cs Chains) Sorted() Chains {
	sorted := make(Chains, len(cs))
	copy(sorted, cs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Opened != sorted[j].Opened {
			return sorted[i].Opened.Before(sorted[j].Opened)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// All iterates over chains accepted by any of the filters, all of them
// when no filter is given.
func (cs Chains) All(filters ...func(*Chain) bool) iter.Seq2[int, *Chain] {
	return func(yield func(int, *Chain) bool) {
		for i, c := range cs {
			accept := len(filters) == 0
			for _, f := range filters {
				if f(c) {
					accept = true
					break
				}
			}
			if accept && !yield(i, c) {
				return
			}
		}
	}
}

// OpenChains accepts chains still holding inventory.
func OpenChains(c *Chain) bool { return c.Status == ChainOpen }

// ForChainUnderlying accepts chains on that underlying.
func ForChainUnderlying(underlying string) func(*Chain) bool {
	return func(c *Chain) bool {
		for u := range strings.SplitSeq(c.Underlying, ",") {
			if u == underlying {
				return true
			}
		}
		return false
	}
}

// BuildChains aggregates matched transactions into chains, folding in the
// config annotations. Every transaction must carry a chain id; a
// transaction without one is reported as an UnresolvedChainError.
func BuildChains(txns Transactions, cfg *Config) (Chains, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	byChain := txns.ByChain()
	if list, ok := byChain[""]; ok {
		return nil, &UnresolvedChainError{TransactionID: list[0].ID}
	}

	chains := make(Chains, 0, len(byChain))
	for id, list := range byChain {
		list = list.Sorted()
		first, last := list[0], list[len(list)-1]

		underlyings := make(map[string]bool)
		for _, tx := range list {
			underlyings[tx.Underlying()] = true
		}
		names := make([]string, 0, len(underlyings))
		for u := range underlyings {
			names = append(names, u)
		}
		sort.Strings(names)

		c := &Chain{
			ID:         id,
			Account:    first.Account,
			Underlying: strings.Join(names, ","),
			Status:     ChainClosed,
			Opened:     DateOf(first.Time),
			Closed:     DateOf(last.Time),
			Txns:       list,
		}
		if len(c.Inventory()) > 0 {
			c.Status = ChainOpen
			c.Closed = Date{}
		}
		if cc, ok := cfg.Chain(id); ok {
			c.TradeType = cc.TradeType
			c.Comment = cc.Comment
		}
		chains = append(chains, c)
	}
	return chains.Sorted(), nil
}

// Stats summarizes a chain table.
type Stats struct {
	Chains   int
	Open     int
	Closed   int
	Wins     int
	Losses   int
	Realized Money
	Fees     Money // commissions and fees combined
}

// WinRate is the share of closed chains with a positive realized result.
func (s Stats) WinRate() Percent {
	if s.Closed == 0 {
		return 0
	}
	return Percent(100 * float64(s.Wins) / float64(s.Closed))
}

func (s Stats) String() string {
	return fmt.Sprintf("%d chains (%d open, %d closed), win rate %s, realized %s",
		s.Chains, s.Open, s.Closed, s.WinRate(), s.Realized)
}

// UnderlyingStats pairs an underlying set with the statistics of its chains.
type UnderlyingStats struct {
	Underlying string
	Stats      Stats
}

// StatsByUnderlying tallies chains grouped by underlying, sorted. A merged
// chain spanning several underlyings counts once, under its joint set.
func StatsByUnderlying(chains Chains) []UnderlyingStats {
	groups := make(map[string]Chains)
	for _, c := range chains {
		groups[c.Underlying] = append(groups[c.Underlying], c)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]UnderlyingStats, 0, len(keys))
	for _, k := range keys {
		out = append(out, UnderlyingStats{Underlying: k, Stats: NewStats(groups[k])})
	}
	return out
}

// NewStats tallies the chains. Win and loss counts cover closed chains
// only, realized and fees cover all of them.
func NewStats(chains Chains) Stats {
	var s Stats
	for _, c := range chains {
		s.Chains++
		realized := c.Realized()
		s.Realized = s.Realized.Add(realized)
		s.Fees = s.Fees.Add(c.Commissions()).Add(c.Fees())
		if c.Status == ChainOpen {
			s.Open++
			continue
		}
		s.Closed++
		if realized.IsPositive() {
			s.Wins++
		} else {
			s.Losses++
		}
	}
	return s
}
