package tradechain

import (
	"testing"
	"time"
)

func TestRangeOf(t *testing.T) {
	tx := func(at string) Transaction {
		ts, err := ParseTime(at)
		if err != nil {
			t.Fatalf("bad fixture time %q: %v", at, err)
		}
		return Transaction{Time: ts}
	}

	tests := []struct {
		name     string
		txns     Transactions
		expected Range
	}{
		{
			name:     "Empty table",
			txns:     nil,
			expected: Range{},
		},
		{
			name:     "Single transaction",
			txns:     Transactions{tx("2021-11-01T09:30:00")},
			expected: NewRange(NewDate(2021, 11, 1), NewDate(2021, 11, 1)),
		},
		{
			name: "Unordered transactions",
			txns: Transactions{
				tx("2021-11-08T10:00:00"),
				tx("2021-11-01T09:30:00"),
				tx("2021-11-03T15:45:00"),
			},
			expected: NewRange(NewDate(2021, 11, 1), NewDate(2021, 11, 8)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RangeOf(tt.txns); got != tt.expected {
				t.Errorf("RangeOf() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRange_Contains(t *testing.T) {
	r := NewRange(NewDate(2021, 11, 1), NewDate(2021, 11, 30))

	tests := []struct {
		date     Date
		expected bool
	}{
		{NewDate(2021, 10, 31), false},
		{NewDate(2021, 11, 1), true}, // boundaries included
		{NewDate(2021, 11, 15), true},
		{NewDate(2021, 11, 30), true},
		{NewDate(2021, 12, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.date.String(), func(t *testing.T) {
			if got := r.Contains(tt.date); got != tt.expected {
				t.Errorf("Contains(%s) = %v, want %v", tt.date, got, tt.expected)
			}
		})
	}

	at := time.Date(2021, 11, 15, 14, 30, 0, 0, time.UTC)
	if !r.ContainsTime(at) {
		t.Errorf("ContainsTime(%v) = false, want true", at)
	}
}
