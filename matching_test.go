package tradechain

import (
	"errors"
	"reflect"
	"testing"
)

// chainsOf indexes the matched table by transaction id.
func chainsOf(t *testing.T, txns Transactions) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, tx := range txns {
		if tx.ChainID == "" {
			t.Fatalf("transaction %s has no chain", tx.ID)
		}
		out[tx.ID] = tx.ChainID
	}
	return out
}

func effectsOf(txns Transactions) map[string]Effect {
	out := make(map[string]Effect)
	for _, tx := range txns {
		out[tx.ID] = tx.Effect
	}
	return out
}

func TestMatch_OpenCloseRoundTrip(t *testing.T) {
	// Buy then sell one week later on the same order: one chain, closed,
	// effects rewritten.
	table := Transactions{
		trade("t1", "o1", "200", "2021-11-01T09:30:00", "XYZ", 1, 100),
		trade("t2", "o1", "200", "2021-11-08T09:30:00", "XYZ", -1, 105),
	}

	matched, issues, err := Match(table, nil)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}

	chains := chainsOf(t, matched)
	if chains["t1"] != chains["t2"] {
		t.Errorf("t1 and t2 in different chains: %q vs %q", chains["t1"], chains["t2"])
	}
	if want := "200.211101_093000.XYZ"; chains["t1"] != want {
		t.Errorf("chain id = %q, want %q", chains["t1"], want)
	}

	effects := effectsOf(matched)
	if effects["t1"] != EffectOpening || effects["t2"] != EffectClosing {
		t.Errorf("effects = %v, want t1 OPENING and t2 CLOSING", effects)
	}

	built, err := BuildChains(matched, nil)
	if err != nil {
		t.Fatalf("BuildChains failed: %v", err)
	}
	if len(built) != 1 {
		t.Fatalf("got %d chains, want 1", len(built))
	}
	if built[0].Status != ChainClosed {
		t.Errorf("chain status = %s, want %s", built[0].Status, ChainClosed)
	}
}

func TestMatch_Reopening(t *testing.T) {
	// Closing the position ends the chain; trading again starts a fresh one.
	table := Transactions{
		trade("t1", "o1", "200", "2021-11-01T09:30:00", "XYZ", 1, 100),
		trade("t2", "o2", "200", "2021-11-02T09:30:00", "XYZ", -1, 105),
		trade("t3", "o3", "200", "2021-11-05T09:30:00", "XYZ", 1, 103),
	}

	matched, _, err := Match(table, nil)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	chains := chainsOf(t, matched)
	if chains["t1"] != chains["t2"] {
		t.Errorf("t1 and t2 should share a chain")
	}
	if chains["t3"] == chains["t1"] {
		t.Errorf("t3 reuses the closed chain %q", chains["t1"])
	}
	if want := "200.211105_093000.XYZ"; chains["t3"] != want {
		t.Errorf("reopened chain id = %q, want %q", chains["t3"], want)
	}
}

func TestMatch_MultiInstrumentKey(t *testing.T) {
	// A chain on one underlying closes only when every instrument is flat.
	table := Transactions{
		trade("t1", "o1", "200", "2021-11-01T09:30:00", "SPY_230317_P385", 1, 12),
		trade("t2", "o1", "200", "2021-11-01T09:30:00", "SPY_230317_P380", -1, 10),
		trade("t3", "o2", "200", "2021-11-05T09:30:00", "SPY_230317_P385", -1, 14),
		trade("t4", "o3", "200", "2021-11-09T09:30:00", "SPY_230317_P380", 1, 8),
		// Position flat again: the next trade opens a new chain.
		trade("t5", "o4", "200", "2021-11-15T09:30:00", "SPY_230317_P385", 1, 11),
	}

	matched, _, err := Match(table, nil)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	chains := chainsOf(t, matched)
	for _, id := range []string{"t2", "t3", "t4"} {
		if chains[id] != chains["t1"] {
			t.Errorf("%s in chain %q, want %q", id, chains[id], chains["t1"])
		}
	}
	if chains["t5"] == chains["t1"] {
		t.Errorf("t5 reuses the closed chain %q", chains["t1"])
	}

	built, err := BuildChains(matched, nil)
	if err != nil {
		t.Fatalf("BuildChains failed: %v", err)
	}
	first := built.Get(chains["t1"])
	if first == nil {
		t.Fatalf("chain %q not built", chains["t1"])
	}
	if first.Status != ChainClosed {
		t.Errorf("chain status = %s, want %s", first.Status, ChainClosed)
	}
	if len(first.Inventory()) != 0 {
		t.Errorf("closed chain has inventory %v", first.Inventory())
	}
}

func TestMatch_SharedOrderMergesKeys(t *testing.T) {
	// Two legs of one order on different contracts merge into one chain.
	table := Transactions{
		trade("t1", "o1", "200", "2021-11-01T09:30:00", "/GEZ21", 1, 99.5),
		trade("t2", "o1", "200", "2021-11-01T09:30:00", "/GEH22", -1, 99.2),
		trade("t3", "o2", "200", "2021-11-20T09:30:00", "/GEZ21", -1, 99.6),
		trade("t4", "o2", "200", "2021-11-20T09:30:00", "/GEH22", 1, 99.1),
	}

	matched, _, err := Match(table, nil)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	chains := chainsOf(t, matched)
	want := chains["t1"]
	for _, id := range []string{"t2", "t3", "t4"} {
		if chains[id] != want {
			t.Errorf("%s in chain %q, want %q", id, chains[id], want)
		}
	}
	// Same opening time on both legs: the lexicographically smallest of the
	// constituent ids wins.
	if want != "200.211101_093000.GEH22" {
		t.Errorf("merged chain id = %q, want %q", want, "200.211101_093000.GEH22")
	}
}

func TestMatch_OrderLinks(t *testing.T) {
	// A calendar spread: each leg trades a different contract under its own
	// order, so automatic matching builds two chains. The order link joins
	// them.
	table := Transactions{
		trade("t1", "o1", "200", "2021-11-01T09:30:00", "/CLM21_LOM21_210514_P52.5", 1, 1.2),
		trade("t2", "o2", "200", "2021-11-02T09:30:00", "/CLN21_LON21_210617_P52.5", -1, 0.8),
		trade("t3", "o3", "200", "2021-11-20T09:30:00", "/CLM21_LOM21_210514_P52.5", -1, 1.6),
		trade("t4", "o4", "200", "2021-11-20T09:30:00", "/CLN21_LON21_210617_P52.5", 1, 0.5),
	}
	cfg := &Config{
		OrderLinks: []Link{{Comment: "calendar spread", IDs: []string{"o1", "o2"}}},
	}

	matched, issues, err := Match(table, cfg)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	chains := chainsOf(t, matched)
	want := chains["t1"]
	for _, id := range []string{"t2", "t3", "t4"} {
		if chains[id] != want {
			t.Errorf("%s in chain %q, want %q", id, chains[id], want)
		}
	}
	// The merged chain keeps the id of the earliest-opened constituent.
	if want != "200.211101_093000.CLM21" {
		t.Errorf("merged chain id = %q, want %q", want, "200.211101_093000.CLM21")
	}
}

func TestMatch_TransactionLinks(t *testing.T) {
	table := Transactions{
		trade("t1", "o1", "200", "2021-11-01T09:30:00", "AAPL", 10, 150),
		trade("t2", "o2", "200", "2021-11-03T09:30:00", "AAPL", -10, 155),
		trade("t3", "o3", "200", "2021-11-02T09:30:00", "MSFT", 5, 330),
		trade("t4", "o4", "200", "2021-11-04T09:30:00", "MSFT", -5, 335),
	}
	cfg := &Config{
		TransactionLinks: []Link{{Comment: "paired trade", IDs: []string{"t1", "t3"}}},
	}

	matched, _, err := Match(table, cfg)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	chains := chainsOf(t, matched)
	want := chains["t1"]
	for _, id := range []string{"t2", "t3", "t4"} {
		if chains[id] != want {
			t.Errorf("%s in chain %q, want %q", id, chains[id], want)
		}
	}
}

func TestMatch_ExplicitOverride(t *testing.T) {
	// The config chain claims t1 and t2; automatic matching would have
	// paired t1 with t3.
	table := Transactions{
		trade("t1", "o1", "200", "2021-11-01T09:30:00", "XYZ", 1, 100),
		trade("t2", "o2", "200", "2021-11-02T09:30:00", "ABC", 1, 50),
		trade("t3", "o3", "200", "2021-11-05T09:30:00", "XYZ", -1, 104),
	}
	cfg := &Config{
		Chains: []ChainConfig{{ID: "C1", Transactions: []string{"t1", "t2"}}},
	}

	matched, issues, err := Match(table, cfg)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	chains := chainsOf(t, matched)
	if chains["t1"] != "C1" || chains["t2"] != "C1" {
		t.Errorf("explicit members in %q and %q, want C1", chains["t1"], chains["t2"])
	}
	if chains["t3"] == "C1" {
		t.Errorf("t3 joined C1, want a separate chain")
	}
}

func TestMatch_ExplicitOrderOverride(t *testing.T) {
	table := Transactions{
		trade("t1", "o1", "200", "2021-11-01T09:30:00", "XYZ", 1, 100),
		trade("t2", "o1", "200", "2021-11-01T09:30:01", "XYZ", 1, 100.5),
		trade("t3", "o2", "200", "2021-11-05T09:30:00", "XYZ", -2, 104),
	}
	cfg := &Config{
		Chains: []ChainConfig{{ID: "pinned", Orders: []string{"o1"}}},
	}

	matched, _, err := Match(table, cfg)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	chains := chainsOf(t, matched)
	if chains["t1"] != "pinned" || chains["t2"] != "pinned" {
		t.Errorf("order members in %q and %q, want pinned", chains["t1"], chains["t2"])
	}
	if chains["t3"] == "pinned" {
		t.Errorf("t3 joined the pinned chain")
	}
}

func TestMatch_EffectRewrite(t *testing.T) {
	// Input effects are noise; matching recomputes them from the position
	// trajectory. A flip through zero moves |position| by nothing and is
	// tagged OTHER.
	table := Transactions{
		trade("t1", "o1", "200", "2021-11-01T09:30:00", "XYZ", 1, 100),
		trade("t2", "o2", "200", "2021-11-02T09:30:00", "XYZ", -2, 101),
		trade("t3", "o3", "200", "2021-11-03T09:30:00", "XYZ", 1, 102),
	}
	for i := range table {
		table[i].Effect = EffectClosing // deliberately wrong
	}

	matched, _, err := Match(table, nil)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	effects := effectsOf(matched)
	want := map[string]Effect{"t1": EffectOpening, "t2": EffectOther, "t3": EffectClosing}
	if !reflect.DeepEqual(effects, want) {
		t.Errorf("effects = %v, want %v", effects, want)
	}
}

func TestMatch_CollisionSuffix(t *testing.T) {
	// Three chains opening on the same second under the same key collide on
	// the derived id and get deterministic suffixes.
	table := Transactions{
		trade("t1", "o1", "200", "2021-11-01T09:30:00", "XYZ", 1, 100),
		trade("t2", "o2", "200", "2021-11-01T09:30:00", "XYZ", -1, 100),
		trade("t3", "o3", "200", "2021-11-01T09:30:00", "XYZ", 1, 100),
		trade("t4", "o4", "200", "2021-11-01T09:30:00", "XYZ", -1, 100),
		trade("t5", "o5", "200", "2021-11-01T09:30:00", "XYZ", 1, 100),
	}

	matched, _, err := Match(table, nil)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	chains := chainsOf(t, matched)
	base := "200.211101_093000.XYZ"
	if chains["t1"] != base || chains["t2"] != base {
		t.Errorf("first chain = %q/%q, want %q", chains["t1"], chains["t2"], base)
	}
	if want := base + "-2"; chains["t3"] != want || chains["t4"] != want {
		t.Errorf("second chain = %q/%q, want %q", chains["t3"], chains["t4"], want)
	}
	if want := base + "-3"; chains["t5"] != want {
		t.Errorf("third chain = %q, want %q", chains["t5"], want)
	}
}

func TestMatch_Deterministic(t *testing.T) {
	table := Transactions{
		trade("t1", "o1", "200", "2021-11-01T09:30:00", "XYZ", 1, 100),
		trade("t2", "o1", "200", "2021-11-01T09:30:00", "ABC", -2, 50),
		trade("t3", "o2", "200", "2021-11-02T11:00:00", "XYZ", -1, 101),
		trade("t4", "o3", "300", "2021-11-02T11:00:00", "XYZ", 3, 101),
		trade("t5", "o4", "200", "2021-11-03T09:30:00", "ABC", 2, 49),
		trade("t6", "o5", "300", "2021-11-04T09:30:00", "XYZ", -3, 103),
	}
	cfg := &Config{
		OrderLinks: []Link{{Comment: "pair", IDs: []string{"o2", "o3"}}},
	}

	first, _, err := Match(table, cfg)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	// Same input, reversed: the canonical sort must make the runs identical.
	reversed := make(Transactions, 0, len(table))
	for i := len(table) - 1; i >= 0; i-- {
		reversed = append(reversed, table[i])
	}
	second, _, err := Match(reversed, cfg)
	if err != nil {
		t.Fatalf("Match failed on reversed input: %v", err)
	}

	if !reflect.DeepEqual(chainsOf(t, first), chainsOf(t, second)) {
		t.Errorf("chain assignment differs between runs:\n%v\n%v", chainsOf(t, first), chainsOf(t, second))
	}
	if !reflect.DeepEqual(effectsOf(first), effectsOf(second)) {
		t.Errorf("effects differ between runs")
	}
}

func TestMatch_UnknownConfigRefs(t *testing.T) {
	table := Transactions{
		trade("t1", "o1", "200", "2021-11-01T09:30:00", "XYZ", 1, 100),
		trade("t2", "o2", "200", "2021-11-02T09:30:00", "XYZ", -1, 101),
	}
	cfg := &Config{
		Chains: []ChainConfig{{ID: "C1", Transactions: []string{"t1", "t9"}}},
		TransactionLinks: []Link{
			{Comment: "dead link", IDs: []string{"t8", "t9"}},
		},
	}

	matched, issues, err := Match(table, cfg)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2: %v", len(issues), issues)
	}
	for _, issue := range issues {
		var vErr *ConfigValidationError
		if !errors.As(issue, &vErr) {
			t.Errorf("issue is %T, want *ConfigValidationError", issue)
		}
	}
	// The known member is still claimed by the config chain.
	chains := chainsOf(t, matched)
	if chains["t1"] != "C1" {
		t.Errorf("t1 in chain %q, want C1", chains["t1"])
	}
}

func TestMatch_AccountsNeverMix(t *testing.T) {
	table := Transactions{
		trade("t1", "o1", "200", "2021-11-01T09:30:00", "XYZ", 1, 100),
		trade("t2", "o2", "300", "2021-11-01T09:30:00", "XYZ", 1, 100),
	}
	matched, _, err := Match(table, nil)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	chains := chainsOf(t, matched)
	if chains["t1"] == chains["t2"] {
		t.Errorf("accounts share chain %q", chains["t1"])
	}
}
