package tradechain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{
		Accounts: []Account{
			{Number: "x1887", Nickname: "200"},
			{Number: "x1887", Nickname: "201"},  // duplicate number
			{Number: "x2663", Nickname: "200"},  // duplicate nickname
			{Number: "x9999", Nickname: ""},     // missing nickname
			{Number: "x3000", Nickname: "300"},
		},
		Chains: []ChainConfig{
			{ID: "C1", TradeType: "swing"},
			{ID: ""},   // no id
			{ID: "C1"}, // duplicate
		},
		TransactionLinks: []Link{
			{IDs: []string{"t1", "t2"}},
			{Comment: "lonely", IDs: []string{"t3"}},
		},
		OrderLinks: []Link{
			{IDs: []string{"o9"}},
		},
		Prices: PriceTable{
			{Symbol: "XYZ", Date: NewDate(2021, 11, 1), Price: decimal.NewFromInt(99)},
			{Symbol: "XYZ", Date: NewDate(2021, 11, 1), Price: decimal.NewFromInt(100)}, // duplicate day
			{Symbol: "XYZ", Price: decimal.NewFromInt(100)},                             // no date
			{Symbol: "bogus!", Date: NewDate(2021, 11, 1), Price: decimal.NewFromInt(1)},
		},
	}

	out, issues := cfg.Validate()

	if len(issues) != 10 {
		t.Fatalf("issues = %d, want 10:\n%v", len(issues), errors.Join(issues...))
	}
	for _, err := range issues {
		var cve *ConfigValidationError
		if !errors.As(err, &cve) {
			t.Errorf("issue %v is not a ConfigValidationError", err)
		}
	}

	if len(out.Accounts) != 2 || out.Accounts[0].Number != "x1887" || out.Accounts[1].Number != "x3000" {
		t.Errorf("sanitized accounts = %v", out.Accounts)
	}
	if len(out.Chains) != 1 || out.Chains[0].TradeType != "swing" {
		t.Errorf("sanitized chains = %v", out.Chains)
	}
	if len(out.TransactionLinks) != 1 || len(out.OrderLinks) != 0 {
		t.Errorf("sanitized links = %v / %v", out.TransactionLinks, out.OrderLinks)
	}
	if len(out.Prices) != 1 || out.Prices[0].Price.String() != "99" {
		t.Errorf("sanitized prices = %v", out.Prices)
	}

	// The original is left untouched.
	if len(cfg.Accounts) != 5 {
		t.Errorf("Validate mutated its receiver")
	}
}

func TestConfig_Nickname(t *testing.T) {
	cfg := &Config{Accounts: []Account{{Number: "x1887", Nickname: "200"}}}
	if got := cfg.Nickname("x1887"); got != "200" {
		t.Errorf("Nickname(x1887) = %q, want 200", got)
	}
	if got := cfg.Nickname("x0000"); got != "x0000" {
		t.Errorf("Nickname(x0000) = %q, want the number back", got)
	}
}

func TestConfig_ExplicitChains(t *testing.T) {
	cfg := &Config{Chains: []ChainConfig{
		{ID: "C1", Transactions: []string{"t1", "t2"}},
		{ID: "C2", Orders: []string{"o1"}},
		{ID: "C3", TradeType: "swing"}, // annotation only
	}}
	byTxn, byOrder := cfg.ExplicitChains()
	if byTxn["t1"] != "C1" || byTxn["t2"] != "C1" || len(byTxn) != 2 {
		t.Errorf("byTransaction = %v", byTxn)
	}
	if byOrder["o1"] != "C2" || len(byOrder) != 1 {
		t.Errorf("byOrder = %v", byOrder)
	}
}

func TestPriceTable_Price(t *testing.T) {
	table := PriceTable{
		{Symbol: "XYZ", Date: NewDate(2021, 11, 1), Price: decimal.NewFromInt(99)},
		{Symbol: "XYZ", Date: NewDate(2021, 11, 5), Price: decimal.NewFromInt(101)},
		{Symbol: "ABC", Date: NewDate(2021, 11, 3), Price: decimal.RequireFromString("4.5")},
	}

	tests := []struct {
		symbol string
		date   Date
		want   string
		found  bool
	}{
		{"XYZ", NewDate(2021, 11, 1), "99", true},   // exact day
		{"XYZ", NewDate(2021, 11, 3), "99", true},   // most recent before
		{"XYZ", NewDate(2021, 11, 5), "101", true},  // newer entry wins
		{"XYZ", NewDate(2021, 12, 1), "101", true},  // after all entries
		{"XYZ", NewDate(2021, 10, 31), "", false},   // before all entries
		{"ABC", NewDate(2021, 11, 3), "4.5", true},
		{"DEF", NewDate(2021, 11, 3), "", false}, // unknown symbol
	}
	for _, tt := range tests {
		got, found := table.Price(tt.symbol, tt.date)
		if found != tt.found {
			t.Errorf("Price(%s, %s) found = %v, want %v", tt.symbol, tt.date, found, tt.found)
			continue
		}
		if found && got.String() != tt.want {
			t.Errorf("Price(%s, %s) = %s, want %s", tt.symbol, tt.date, got, tt.want)
		}
	}
}
