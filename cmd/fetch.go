package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/tradechain"
	"github.com/google/subcommands"
)

// headerFlags collects repeated -H flags.
type headerFlags []string

func (h *headerFlags) String() string {
	return strings.Join(*h, ", ")
}

func (h *headerFlags) Set(value string) error {
	*h = append(*h, value)
	return nil
}

// fetchCmd holds the flags for the 'fetch' subcommand.
type fetchCmd struct {
	login   bool
	headers headerFlags
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "fetch the quotes missing to synthesize openings" }
func (*fetchCmd) Usage() string {
	return `tcs fetch
tcs fetch -login -H <header1> -H <header2> ...

  Finds the positions whose synthetic opening has no price in the config,
  fetches a close for each from the quote provider, and appends the
  fetched prices to the config file. Option contracts are never fetched,
  add their prices to the config by hand.

  With -login, stores the quote session headers for later fetches. The
  flags are designed so a browser 'copy as curl' can be pasted mostly
  as-is.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.login, "login", false, "Store the quote session headers instead of fetching.")
	f.Var(&c.headers, "H", "Header for the quote session (can be specified multiple times).")
}

func (c *fetchCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.login {
		if len(c.headers) == 0 {
			fmt.Fprintln(os.Stderr, "Error: at least one -H flag is required with -login.")
			return subcommands.ExitUsageError
		}
		if err := tradechain.SaveQuoteHeaders(strings.Join(c.headers, "\n")); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to save quote session: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println("✅ Quote session successfully stored.")
		return subcommands.ExitSuccess
	}

	header, err := tradechain.LoadQuoteHeaders()
	if err != nil {
		// The chart endpoint usually answers anonymous requests too.
		fmt.Fprintf(os.Stderr, "warning: fetching anonymously: %v\n", err)
		header = nil
	}

	txns, positions, _, err := tradechain.LoadActivity(*activityDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load activity from %q: %v\n", *activityDir, err)
		return subcommands.ExitFailure
	}
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load config %q: %v\n", ConfigPath(), err)
		return subcommands.ExitFailure
	}

	_, err = tradechain.Consolidate(txns, positions, cfg, nil)
	missing := tradechain.MissingPrices(err)
	if err != nil && len(missing) == 0 {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if len(missing) == 0 {
		fmt.Println("No missing prices.")
		return subcommands.ExitSuccess
	}

	quotes := tradechain.NewQuoteService(header)
	fetched, failed := 0, 0
	for _, mp := range missing {
		price, err := quotes.Price(mp.Symbol, mp.Date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not fetch %s on %s: %v\n", mp.Symbol, mp.Date, err)
			failed++
			continue
		}
		cfg.Prices = append(cfg.Prices, tradechain.PriceEntry{Symbol: mp.Symbol, Date: mp.Date, Price: price})
		fmt.Fprintf(os.Stderr, "Fetched %s on %s: %s\n", mp.Symbol, mp.Date, price)
		fetched++
	}

	if fetched > 0 {
		if err := tradechain.SaveConfig(ConfigPath(), cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config %q: %v\n", ConfigPath(), err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Added %d prices to %s.\n", fetched, ConfigPath())
	}
	if failed > 0 {
		fmt.Printf("%d prices could not be fetched, add them to %s by hand.\n", failed, ConfigPath())
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
