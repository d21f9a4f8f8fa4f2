// Package renderer formats the reconciliation output as markdown: the
// chains, transactions, positions and statistics reports used by the CLI
// and the web dashboard. Rendering is presentation only, every figure
// comes from the tradechain package.
package renderer

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Now is the current time used in reports.
// it has to be overridable so that tests can pin it.
func Now() time.Time {
	if os.Getenv("TCS_TESTING_NOW") != "" {
		t, err := time.Parse("2006-01-02 15:04:05", os.Getenv("TCS_TESTING_NOW"))
		if err != nil {
			panic(err)
		}
		return t
	}
	return time.Now()
}

// mdBuilder accumulates a markdown document.
type mdBuilder struct {
	*strings.Builder
}

func newBuilder() *mdBuilder { return &mdBuilder{Builder: &strings.Builder{}} }

// Printf formats according to a format specifier and writes to the builder.
func (r *mdBuilder) Printf(format string, args ...any) {
	fmt.Fprintf(r, format, args...)
}
