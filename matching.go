package tradechain

import (
	"fmt"
	"sort"
	"strings"
)

// UnresolvedChainError reports a transaction left without a chain after all
// matching passes. The state machine covers every transaction by
// construction, so this surfacing always indicates a bug.
type UnresolvedChainError struct {
	TransactionID string
}

func (e *UnresolvedChainError) Error() string {
	return fmt.Sprintf("transaction %s resolved to no chain", e.TransactionID)
}

// Match partitions transactions into chains. It returns a new table, in
// canonical order, with every transaction's ChainID assigned and its Effect
// recomputed from the quantity trajectory. The input table and config are
// not modified.
//
// Matching proceeds in passes:
//
//  1. Transactions claimed by a config chain's explicit transaction or order
//     ids are placed under the declared chain id. User intent always wins;
//     these chains never merge with anything else.
//  2. The remainder runs through a per-(account, underlying) state machine:
//     a key's first transaction opens a chain, later transactions attach to
//     it, and when every instrument of the key is back to zero quantity the
//     chain closes. A later transaction under the same key opens a new
//     chain, never reuses the closed one.
//  3. Chains sharing an order id, or connected by a transaction or order
//     link, merge into one chain. The merged chain keeps the id of the
//     earliest-opened constituent, ties broken by the lexicographically
//     smallest id.
//  4. Chain ids are account.yymmdd_HHMMSS.underlying from the chain's first
//     transaction; colliding ids get a "-2", "-3", ... suffix in processing
//     order.
//
// The returned issues list the config references to unknown transaction or
// order ids, one ConfigValidationError per entry; the unknown ids are
// skipped and the rest of the entry still applies.
func Match(txns Transactions, cfg *Config) (Transactions, []error, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	// Matching depends on processing order, so it never consumes the input
	// as-is.
	out := txns.Sorted()

	knownTxn := make(map[string]bool, len(out))
	knownOrder := make(map[string]bool)
	for _, tx := range out {
		knownTxn[tx.ID] = true
		if tx.OrderID != "" {
			knownOrder[tx.OrderID] = true
		}
	}
	issues := checkReferences(cfg, knownTxn, knownOrder)

	// Pass 1: extract explicit chains.
	byTxn, byOrder := cfg.ExplicitChains()
	explicit := make(map[int]string)
	for i, tx := range out {
		if id, ok := byTxn[tx.ID]; ok {
			explicit[i] = id
		} else if id, ok := byOrder[tx.OrderID]; tx.OrderID != "" && ok {
			explicit[i] = id
		}
	}

	// Pass 2: per-key state machine over the remainder.
	type keyState struct {
		current *group
		qty     map[string]Quantity // net signed quantity per symbol
	}
	states := make(map[string]*keyState)
	var groups []*group
	for i, tx := range out {
		if _, ok := explicit[i]; ok {
			continue
		}
		key := tx.Account + "/" + tx.Underlying()
		st := states[key]
		if st == nil {
			st = &keyState{qty: make(map[string]Quantity)}
			states[key] = st
		}
		if st.current == nil {
			st.current = &group{name: ChainName(tx)}
			groups = append(groups, st.current)
		}
		st.current.txns = append(st.current.txns, i)

		q := st.qty[tx.Symbol()].Add(tx.Quantity)
		if q.IsZero() {
			delete(st.qty, tx.Symbol())
		} else {
			st.qty[tx.Symbol()] = q
		}
		if len(st.qty) == 0 {
			// Back to flat: the chain is closed, a reopening starts anew.
			st.current = nil
		}
	}

	// Pass 3: merge groups sharing an order id or connected by a link.
	uf := newUnionFind(len(groups))
	txnGroup := make(map[string]int)
	orderGroups := make(map[string][]int)
	for gi, g := range groups {
		for _, i := range g.txns {
			tx := out[i]
			txnGroup[tx.ID] = gi
			if tx.OrderID != "" {
				ids := orderGroups[tx.OrderID]
				if len(ids) == 0 || ids[len(ids)-1] != gi {
					orderGroups[tx.OrderID] = append(ids, gi)
				}
			}
		}
	}
	for _, gis := range orderGroups {
		for _, gi := range gis[1:] {
			uf.union(gis[0], gi)
		}
	}
	mergeLink := func(l Link, groupOf func(string) (int, bool)) {
		first := -1
		for _, id := range l.IDs {
			gi, ok := groupOf(id)
			if !ok {
				// Unknown ids were reported above; ids owned by an
				// explicit chain are not linkable.
				continue
			}
			if first < 0 {
				first = gi
				continue
			}
			uf.union(first, gi)
		}
	}
	for _, l := range cfg.TransactionLinks {
		mergeLink(l, func(id string) (int, bool) { gi, ok := txnGroup[id]; return gi, ok })
	}
	for _, l := range cfg.OrderLinks {
		mergeLink(l, func(id string) (int, bool) {
			gis, ok := orderGroups[id]
			if !ok {
				return 0, false
			}
			return gis[0], ok
		})
	}

	// Pass 4: name the merged chains, disambiguating collisions.
	merged := make(map[int][]int)
	for gi := range groups {
		root := uf.find(gi)
		merged[root] = append(merged[root], gi)
	}
	roots := make([]int, 0, len(merged))
	for root := range merged {
		roots = append(roots, root)
	}
	// Constituent ordinals ascend with processing order, so the first
	// constituent's first transaction orders the chains deterministically.
	sort.Slice(roots, func(i, j int) bool {
		return groups[merged[roots[i]][0]].txns[0] < groups[merged[roots[j]][0]].txns[0]
	})

	taken := make(map[string]int)
	for _, ch := range cfg.Chains {
		if len(ch.Transactions)+len(ch.Orders) > 0 {
			taken[ch.ID]++
		}
	}
	for i := range out {
		out[i].ChainID = ""
	}
	for i, id := range explicit {
		out[i].ChainID = id
	}
	for _, root := range roots {
		constituents := merged[root]
		best := groups[constituents[0]]
		for _, gi := range constituents[1:] {
			g := groups[gi]
			bestOpen, open := out[best.txns[0]].Time, out[g.txns[0]].Time
			if open.Before(bestOpen) || (open.Equal(bestOpen) && g.name < best.name) {
				best = g
			}
		}
		name := best.name
		if taken[name] > 0 {
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s-%d", best.name, n)
				if taken[candidate] == 0 {
					name = candidate
					break
				}
			}
		}
		taken[name]++
		for _, gi := range constituents {
			for _, i := range groups[gi].txns {
				out[i].ChainID = name
			}
		}
	}

	// Pass 5: recompute effects from the |position| delta per instrument.
	running := make(map[string]Quantity)
	for i := range out {
		tx := &out[i]
		key := tx.Account + "/" + tx.Symbol()
		before := running[key]
		after := before.Add(tx.Quantity)
		running[key] = after
		delta := after.Abs().Sub(before.Abs())
		switch {
		case delta.IsPositive():
			tx.Effect = EffectOpening
		case delta.IsNegative():
			tx.Effect = EffectClosing
		default:
			tx.Effect = EffectOther
		}
	}

	for _, tx := range out {
		if tx.ChainID == "" {
			return nil, issues, &UnresolvedChainError{TransactionID: tx.ID}
		}
	}
	return out, issues, nil
}

// group is one automatic chain before merging: transaction indices in
// processing order, and the id derived from its first transaction.
type group struct {
	name string
	txns []int
}

// checkReferences reports config entries naming transaction or order ids
// absent from the table.
func checkReferences(cfg *Config, knownTxn, knownOrder map[string]bool) []error {
	var issues []error
	report := func(entry, id, kind string, unknown []string) {
		if len(unknown) == 0 {
			return
		}
		issues = append(issues, &ConfigValidationError{
			Entry:  entry,
			ID:     id,
			Reason: fmt.Sprintf("unknown %s ids: %s", kind, strings.Join(unknown, ", ")),
		})
	}
	for _, ch := range cfg.Chains {
		report("chain", ch.ID, "transaction", missingIDs(ch.Transactions, knownTxn))
		report("chain", ch.ID, "order", missingIDs(ch.Orders, knownOrder))
	}
	for _, l := range cfg.TransactionLinks {
		report("txnlink", l.Comment, "transaction", missingIDs(l.IDs, knownTxn))
	}
	for _, l := range cfg.OrderLinks {
		report("ordlink", l.Comment, "order", missingIDs(l.IDs, knownOrder))
	}
	return issues
}

func missingIDs(ids []string, known map[string]bool) []string {
	var missing []string
	for _, id := range ids {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

// unionFind is a plain disjoint-set over group ordinals.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]] // path halving
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	// Keep the smaller ordinal as root so merged sets stay in processing order.
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
