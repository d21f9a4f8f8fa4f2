package tradechain

import (
	"fmt"
	"time"
)

// Range is the observed window: the span of dates whose activity is being
// reconciled. Positions predating From are explained by synthetic openings.
type Range struct{ From, To Date }

// NewRange creates a new date range. If 'from' is after 'to', they are swapped.
func NewRange(from, to Date) Range {
	if from.After(to) {
		from, to = to, from
	}
	return Range{From: from, To: to}
}

// RangeOf returns the smallest range covering every transaction event time.
func RangeOf(txns Transactions) Range {
	var r Range
	for i, t := range txns {
		d := DateOf(t.Time)
		if i == 0 {
			r = Range{From: d, To: d}
			continue
		}
		if d.Before(r.From) {
			r.From = d
		}
		if d.After(r.To) {
			r.To = d
		}
	}
	return r
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return (!date.Before(r.From) && !date.After(r.To)) }

// ContainsTime reports whether the instant falls on a day within the range.
func (r Range) ContainsTime(t time.Time) bool { return r.Contains(DateOf(t)) }

// IsZero returns true if both boundaries are unset.
func (r Range) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }

func (r Range) String() string { return fmt.Sprintf("%s..%s", r.From, r.To) }
