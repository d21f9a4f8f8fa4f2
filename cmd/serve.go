package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/etnz/tradechain/web"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// serveCmd holds the flags for the 'serve' subcommand.
type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the chain reports over HTTP" }
func (*serveCmd) Usage() string {
	return `tcs serve [-addr <addr>]

  Serves the chains, transactions, positions and stats reports as web
  pages. The activity files and the config are reloaded on every request,
  edit them and refresh.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "localhost:7333", "Address to listen on.")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	level := zerolog.InfoLevel
	if *Verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()

	srv := web.New(web.Config{
		Addr:       c.addr,
		Dir:        *activityDir,
		ConfigPath: ConfigPath(),
		Log:        log,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	fmt.Fprintf(os.Stderr, "Serving on http://%s\n", c.addr)

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
