// Package cmd implements the tcs command line application.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/etnz/tradechain"
	"github.com/google/subcommands"
)

// Register registers all tcs subcommands on the commander.
// A main package calls Register() and then Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&chainsCmd{}, "reports")
	c.Register(&txCmd{}, "reports")
	c.Register(&positionsCmd{}, "reports")
	c.Register(&statsCmd{}, "reports")

	c.Register(&consolidateCmd{}, "config")
	c.Register(&fmtCmd{}, "config")
	c.Register(&fetchCmd{}, "config")

	c.Register(&serveCmd{}, "")
	c.Register(&assistCmd{}, "")
	c.Register(&topicCmd{}, "")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var activityDir = flag.String("D", ".", "Directory scanned for broker activity files")
var configFile = flag.String("c", "", "Path to the chain config file (default <dir>/config.jsonl)")
var Verbose = flag.Bool("v", false, "Log progress details")

// ConfigPath resolves the chain config file from the global flags.
func ConfigPath() string {
	if *configFile != "" {
		return *configFile
	}
	return filepath.Join(*activityDir, tradechain.DefaultConfigName)
}

// LoadConfig loads the app config file, empty if it does not exist yet.
func LoadConfig() (*tradechain.Config, error) {
	return tradechain.LoadConfig(ConfigPath())
}

// Consolidated loads the activity and the config from the app flags and
// reconciles them. Per-row import issues and dead config references are
// reported on stderr as warnings, they never stop the run.
func Consolidated() (*tradechain.Consolidation, error) {
	txns, positions, issues, err := tradechain.LoadActivity(*activityDir)
	if err != nil {
		return nil, fmt.Errorf("could not load activity from %q: %w", *activityDir, err)
	}
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("could not load config %q: %w", ConfigPath(), err)
	}
	res, err := tradechain.Consolidate(txns, positions, cfg, nil)
	if err != nil {
		return nil, err
	}
	for _, issue := range append(issues, res.Issues...) {
		fmt.Fprintln(os.Stderr, "warning:", issue)
	}
	return res, nil
}

// configEntries counts the entries a config holds.
func configEntries(cfg *tradechain.Config) int {
	return len(cfg.Accounts) + len(cfg.Chains) + len(cfg.TransactionLinks) + len(cfg.OrderLinks) + len(cfg.Prices)
}
