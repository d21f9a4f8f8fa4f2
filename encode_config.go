package tradechain

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// entryType discriminates the config JSONL lines.
type entryType string

const (
	entryAccount entryType = "account"
	entryChain   entryType = "chain"
	entryTxnLink entryType = "txnlink"
	entryOrdLink entryType = "ordlink"
	entryPrice   entryType = "price"
)

// MarshalJSON encodes the account entry with stable key order.
func (a Account) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("entry", entryAccount)
	w.Append("number", a.Number)
	w.Append("nickname", a.Nickname)
	return w.MarshalJSON()
}

// MarshalJSON encodes the chain entry with stable key order.
func (c ChainConfig) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("entry", entryChain)
	w.Append("id", c.ID)
	w.Optional("type", c.TradeType)
	w.Optional("comment", c.Comment)
	w.Optional("transactions", c.Transactions)
	w.Optional("orders", c.Orders)
	return w.MarshalJSON()
}

// MarshalJSON encodes the price entry with stable key order. The price is
// written as a decimal string so no precision is lost.
func (p PriceEntry) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("entry", entryPrice)
	w.Append("symbol", p.Symbol)
	w.Append("date", p.Date)
	w.Append("price", p.Price.String())
	return w.MarshalJSON()
}

// marshalLink encodes a link entry under the given discriminator.
func marshalLink(entry entryType, l Link) ([]byte, error) {
	var w jsonObjectWriter
	w.Append("entry", entry)
	w.Optional("comment", l.Comment)
	w.Append("ids", l.IDs)
	return w.MarshalJSON()
}

// DecodeConfig decodes a config from a stream of JSONL data. Lines are
// dispatched on their "entry" key. A malformed line or an unknown entry is a
// structural error and aborts the decode; semantic problems (duplicates,
// dangling references) are left to Config.Validate.
func DecodeConfig(r io.Reader) (*Config, error) {
	cfg := &Config{}
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}

		var identifier struct {
			Entry entryType `json:"entry"`
		}
		if err := json.Unmarshal(lineBytes, &identifier); err != nil {
			return nil, fmt.Errorf("could not identify entry in line %q: %w", string(lineBytes), err)
		}

		switch identifier.Entry {
		case entryAccount:
			var temp struct {
				Number   string `json:"number"`
				Nickname string `json:"nickname"`
			}
			if err := json.Unmarshal(lineBytes, &temp); err != nil {
				return nil, err
			}
			cfg.Accounts = append(cfg.Accounts, Account{Number: temp.Number, Nickname: temp.Nickname})
		case entryChain:
			var temp struct {
				ID           string   `json:"id"`
				TradeType    string   `json:"type,omitempty"`
				Comment      string   `json:"comment,omitempty"`
				Transactions []string `json:"transactions,omitempty"`
				Orders       []string `json:"orders,omitempty"`
			}
			if err := json.Unmarshal(lineBytes, &temp); err != nil {
				return nil, err
			}
			cfg.Chains = append(cfg.Chains, ChainConfig{
				ID:           temp.ID,
				TradeType:    temp.TradeType,
				Comment:      temp.Comment,
				Transactions: temp.Transactions,
				Orders:       temp.Orders,
			})
		case entryTxnLink, entryOrdLink:
			var temp struct {
				Comment string   `json:"comment,omitempty"`
				IDs     []string `json:"ids"`
			}
			if err := json.Unmarshal(lineBytes, &temp); err != nil {
				return nil, err
			}
			link := Link{Comment: temp.Comment, IDs: temp.IDs}
			if identifier.Entry == entryTxnLink {
				cfg.TransactionLinks = append(cfg.TransactionLinks, link)
			} else {
				cfg.OrderLinks = append(cfg.OrderLinks, link)
			}
		case entryPrice:
			var temp struct {
				Symbol string `json:"symbol"`
				Date   Date   `json:"date"`
				Price  string `json:"price"`
			}
			if err := json.Unmarshal(lineBytes, &temp); err != nil {
				return nil, err
			}
			price, err := decimal.NewFromString(temp.Price)
			if err != nil {
				return nil, fmt.Errorf("invalid price %q for %s: %w", temp.Price, temp.Symbol, err)
			}
			cfg.Prices = append(cfg.Prices, PriceEntry{Symbol: temp.Symbol, Date: temp.Date, Price: price})
		default:
			return nil, fmt.Errorf("unknown config entry: %q", identifier.Entry)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}

	return cfg, nil
}

// EncodeConfig persists a config to an io.Writer in canonical JSONL form:
// entries sorted by kind then key, one JSON object per line, stable key
// order within each object. Encoding then decoding yields an equal config.
func EncodeConfig(w io.Writer, cfg *Config) error {
	sorted := cfg.sorted()

	writeLine := func(data []byte, err error) error {
		if err != nil {
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write config entry: %w", err)
		}
		return nil
	}

	for _, a := range sorted.Accounts {
		if err := writeLine(json.Marshal(a)); err != nil {
			return err
		}
	}
	for _, c := range sorted.Chains {
		if err := writeLine(json.Marshal(c)); err != nil {
			return err
		}
	}
	for _, l := range sorted.TransactionLinks {
		if err := writeLine(marshalLink(entryTxnLink, l)); err != nil {
			return err
		}
	}
	for _, l := range sorted.OrderLinks {
		if err := writeLine(marshalLink(entryOrdLink, l)); err != nil {
			return err
		}
	}
	for _, p := range sorted.Prices {
		if err := writeLine(json.Marshal(p)); err != nil {
			return err
		}
	}
	return nil
}
