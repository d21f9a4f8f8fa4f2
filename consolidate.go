package tradechain

// Consolidation is the result of a full reconciliation run: the final
// tables, the chains built from them, and the config split into the part
// aligned with computed reality and the part that no longer applies.
type Consolidation struct {
	Transactions Transactions
	Positions    Positions
	Chains       Chains

	// Clean holds the entries to keep: accounts and prices, annotations
	// of chains that still reconstruct, stubs for new chains, and links
	// still naming at least one known id.
	Clean *Config
	// Residual holds the entries referencing chains or ids that vanished
	// from the data. They are preserved for the user, never deleted.
	Residual *Config

	// Issues are the per-record problems found along the way, mostly
	// ConfigValidationError values. They did not stop the run.
	Issues []error
}

// Consolidate runs the whole pipeline over one batch: validate the config,
// rename accounts to their nicknames, synthesize openings for positions
// older than the transaction window, match chains, and diff the config
// against the computed chain set. The fallback price source may be nil.
//
// The inputs are never modified. Structural problems (a missing required
// price, a transaction left without a chain) abort with an error;
// per-record problems are collected in Issues.
func Consolidate(txns Transactions, positions Positions, cfg *Config, fallback PriceSource) (*Consolidation, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg, issues := cfg.Validate()

	// Nicknames apply before anything else so that chain ids embed them.
	txns = renameAccounts(txns, cfg)
	positions = renamePositionAccounts(positions, cfg)

	window := RangeOf(txns)
	if window.IsZero() {
		window = positionWindow(positions)
	}
	txns, err := SynthesizeOpenings(txns, positions, window, cfg.Prices, fallback)
	if err != nil {
		return nil, err
	}

	txns, matchIssues, err := Match(txns, cfg)
	if err != nil {
		return nil, err
	}
	issues = append(issues, matchIssues...)

	chains, err := BuildChains(txns, cfg)
	if err != nil {
		return nil, err
	}

	clean, residual := splitConfig(cfg, chains, txns)
	return &Consolidation{
		Transactions: txns,
		Positions:    positions.Sorted(),
		Chains:       chains,
		Clean:        clean,
		Residual:     residual,
		Issues:       issues,
	}, nil
}

// splitConfig diffs the config against the computed chains: accounts and
// prices always stay, chain entries follow their chain, links stay as long
// as one of their ids is still in the table, and every computed chain
// without an entry gets a stub so the user can annotate it.
func splitConfig(cfg *Config, chains Chains, txns Transactions) (clean, residual *Config) {
	clean = &Config{
		Accounts: append([]Account(nil), cfg.Accounts...),
		Prices:   append(PriceTable(nil), cfg.Prices...),
	}
	residual = &Config{}

	computed := make(map[string]bool, len(chains))
	for _, c := range chains {
		computed[c.ID] = true
	}
	annotated := make(map[string]bool, len(cfg.Chains))
	for _, ch := range cfg.Chains {
		annotated[ch.ID] = true
		if computed[ch.ID] {
			clean.Chains = append(clean.Chains, ch)
		} else {
			residual.Chains = append(residual.Chains, ch)
		}
	}
	for _, c := range chains {
		if !annotated[c.ID] {
			clean.Chains = append(clean.Chains, ChainConfig{ID: c.ID})
		}
	}

	knownTxn := make(map[string]bool, len(txns))
	knownOrder := make(map[string]bool)
	for _, tx := range txns {
		knownTxn[tx.ID] = true
		if tx.OrderID != "" {
			knownOrder[tx.OrderID] = true
		}
	}
	anyKnown := func(ids []string, known map[string]bool) bool {
		for _, id := range ids {
			if known[id] {
				return true
			}
		}
		return false
	}
	for _, l := range cfg.TransactionLinks {
		if anyKnown(l.IDs, knownTxn) {
			clean.TransactionLinks = append(clean.TransactionLinks, l)
		} else {
			residual.TransactionLinks = append(residual.TransactionLinks, l)
		}
	}
	for _, l := range cfg.OrderLinks {
		if anyKnown(l.IDs, knownOrder) {
			clean.OrderLinks = append(clean.OrderLinks, l)
		} else {
			residual.OrderLinks = append(residual.OrderLinks, l)
		}
	}
	return clean.sorted(), residual.sorted()
}

func renameAccounts(txns Transactions, cfg *Config) Transactions {
	renamed := make(Transactions, len(txns))
	copy(renamed, txns)
	for i := range renamed {
		renamed[i].Account = cfg.Nickname(renamed[i].Account)
	}
	return renamed
}

func renamePositionAccounts(positions Positions, cfg *Config) Positions {
	renamed := make(Positions, len(positions))
	copy(renamed, positions)
	for i := range renamed {
		renamed[i].Account = cfg.Nickname(renamed[i].Account)
	}
	return renamed
}

// positionWindow derives a window from position snapshot dates when there
// are no transactions to derive one from.
func positionWindow(positions Positions) Range {
	var r Range
	for _, p := range positions {
		if r.IsZero() {
			r = Range{From: p.AsOf, To: p.AsOf}
			continue
		}
		if p.AsOf.Before(r.From) {
			r.From = p.AsOf
		}
		if r.To.Before(p.AsOf) {
			r.To = p.AsOf
		}
	}
	return r
}
