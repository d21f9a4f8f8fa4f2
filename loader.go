package tradechain

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// This file discovers and loads the activity directory: the normalized
// broker exports and the user config. The layout is flat and name driven:
//
//	<account>.transactions.csv          transactions for one account
//	<account>.<stamp>.transactions.csv  a dated export of the same
//	<account>.positions.csv             position snapshot, same naming
//	config.jsonl                        the user annotations
//
// When an account has several exports only the newest is loaded: the one
// with the greatest stamp, a stampless file counting as oldest.

const (
	transactionsSuffix = ".transactions.csv"
	positionsSuffix    = ".positions.csv"

	// DefaultConfigName is the config file loaded from the activity
	// directory when no explicit path is given.
	DefaultConfigName = "config.jsonl"
)

// LoadActivity loads the newest transactions and positions export of every
// account found under dir. Per-record problems come back as issues prefixed
// with the file they came from; an unreadable file or table is an error.
func LoadActivity(dir string) (Transactions, Positions, []error, error) {
	txnPaths, posPaths, err := findActivityPaths(dir)
	if err != nil {
		return nil, nil, nil, err
	}

	var txns Transactions
	var positions Positions
	var issues []error

	for _, p := range txnPaths {
		f, err := os.Open(p)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("cannot open %q: %w", p, err)
		}
		t, fileIssues, err := DecodeTransactions(f)
		f.Close()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("cannot load %q: %w", p, err)
		}
		for _, issue := range fileIssues {
			issues = append(issues, fmt.Errorf("%s: %w", filepath.Base(p), issue))
		}
		txns = append(txns, t...)
	}

	for _, p := range posPaths {
		f, err := os.Open(p)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("cannot open %q: %w", p, err)
		}
		ps, fileIssues, err := DecodePositions(f)
		f.Close()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("cannot load %q: %w", p, err)
		}
		for _, issue := range fileIssues {
			issues = append(issues, fmt.Errorf("%s: %w", filepath.Base(p), issue))
		}
		positions = append(positions, ps...)
	}

	return txns.Sorted(), positions.Sorted(), issues, nil
}

// LoadConfig reads a config file. A missing file is an empty config, so a
// fresh activity directory works without setup.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open config %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("cannot load config %q: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes the config to path in canonical form, creating the
// directory when needed.
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create directory for %q: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot write config %q: %w", path, err)
	}
	defer f.Close()

	if err := EncodeConfig(f, cfg); err != nil {
		return fmt.Errorf("cannot write config %q: %w", path, err)
	}
	return f.Close()
}

// findActivityPaths scans dir and returns the newest transactions and
// positions file of every account, in stable order.
func findActivityPaths(dir string) (txns, positions []string, err error) {
	newestTxn := make(map[string]string)
	newestPos := make(map[string]string)

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch name := filepath.Base(p); {
		case strings.HasSuffix(name, transactionsSuffix):
			keepNewest(newestTxn, transactionsSuffix, p)
		case strings.HasSuffix(name, positionsSuffix):
			keepNewest(newestPos, positionsSuffix, p)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("cannot scan activity directory %q: %w", dir, err)
	}

	return sortedValues(newestTxn), sortedValues(newestPos), nil
}

// accountOf extracts the account segment of an export file name: everything
// up to the first dot.
func accountOf(name, suffix string) string {
	base := strings.TrimSuffix(name, suffix)
	if i := strings.Index(base, "."); i >= 0 {
		return base[:i]
	}
	return base
}

// stampOf extracts the stamp segment, empty for a stampless export.
func stampOf(name, suffix string) string {
	base := strings.TrimSuffix(name, suffix)
	if i := strings.Index(base, "."); i >= 0 {
		return base[i+1:]
	}
	return ""
}

func keepNewest(newest map[string]string, suffix, path string) {
	account := accountOf(filepath.Base(path), suffix)
	prev, ok := newest[account]
	if ok && stampOf(filepath.Base(path), suffix) <= stampOf(filepath.Base(prev), suffix) {
		return
	}
	newest[account] = path
}

func sortedValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
