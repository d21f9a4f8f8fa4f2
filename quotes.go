package tradechain

import (
	"bufio"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// This file is the fallback PriceSource: daily closes from the public Yahoo
// chart API. The config price table always wins; this source only fills the
// holes when synthesizing openings or running `tcs fetch`.

const quoteSessionFile = "tcs-quote-session"

// LoadQuoteHeaders reads the cached session headers for the quote API. The
// session is loaded explicitly, never picked up ambiently, so a run without
// one fails with a clear instruction.
func LoadQuoteHeaders() (http.Header, error) {
	sessionPath := filepath.Join(os.TempDir(), quoteSessionFile)
	headerData, err := os.ReadFile(sessionPath)
	if err != nil {
		return nil, fmt.Errorf("quote session not found. Please run 'tcs fetch -login' first: %w", err)
	}

	headers := make(http.Header)
	scanner := bufio.NewScanner(strings.NewReader(string(headerData)))
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), ":", 2)
		if len(parts) == 2 {
			headers.Add(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
		}
	}
	return headers, nil
}

// SaveQuoteHeaders caches raw "Name: value" header lines, as copied from a
// browser session, for LoadQuoteHeaders to find.
func SaveQuoteHeaders(raw string) error {
	sessionPath := filepath.Join(os.TempDir(), quoteSessionFile)
	if err := os.WriteFile(sessionPath, []byte(raw), 0600); err != nil {
		return fmt.Errorf("cannot save quote session: %w", err)
	}
	return nil
}

// QuoteService serves daily closes from the chart API, with the day-expiring
// disk cache, implementing PriceSource.
type QuoteService struct {
	client *http.Client
	header http.Header
	base   string
}

// NewQuoteService returns a service using the given session headers, which
// may be nil for the endpoints that do not need one.
func NewQuoteService(header http.Header) *QuoteService {
	return &QuoteService{client: daily(), header: header, base: "https://query1.finance.yahoo.com"}
}

// QuoteTicker maps an instrument symbol to a chart API ticker: equities keep
// their root, futures map to the root's continuous contract. Options have no
// public quote; they must be priced in the config table.
func QuoteTicker(symbol string) (string, error) {
	instrument, err := ParseSymbol(symbol)
	if err != nil {
		return "", err
	}
	switch instrument.Kind() {
	case Equity:
		return symbol, nil
	case Future:
		return strings.TrimPrefix(instrument.Root(), "/") + "=F", nil
	}
	return "", fmt.Errorf("no public quote for option %s", symbol)
}

// Price returns the most recent close on or before the day. The chart query
// looks back a week so that weekends and holidays still resolve.
func (s *QuoteService) Price(symbol string, on Date) (decimal.Decimal, error) {
	ticker, err := QuoteTicker(symbol)
	if err != nil {
		return decimal.Decimal{}, err
	}

	period1 := on.Time().AddDate(0, 0, -6).Unix()
	period2 := on.Add(1).Time().Unix()
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		s.base, url.PathEscape(ticker), period1, period2)

	var payload any
	if err := jwget(s.client, addr, s.header, &payload); err != nil {
		return decimal.Decimal{}, fmt.Errorf("cannot quote %q: %w", symbol, err)
	}

	close, err := lastClose(payload)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("cannot quote %q: %w", symbol, err)
	}
	return decimal.NewFromFloat(close), nil
}

// lastClose extracts the latest non-null close of a chart response.
func lastClose(payload any) (float64, error) {
	path := "$.chart.result[0].indicators.quote[0].close"
	jval, err := jsonpath.Get(path, payload)
	if err != nil {
		return 0, fmt.Errorf("unexpected chart response: %q %w", path, err)
	}
	closes, ok := jval.([]any)
	if !ok {
		return 0, fmt.Errorf("unexpected chart response: %q is not a list", path)
	}
	// Market holidays leave null closes, walk back to the last real one.
	for i := len(closes) - 1; i >= 0; i-- {
		if v, ok := closes[i].(float64); ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("chart response has no close")
}
