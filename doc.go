// Package tradechain reconciles a brokerage account's raw activity (fills,
// assignments, expirations, transfers) and point-in-time holdings into
// chains: logical round-trip trades, possibly spanning many fills and several
// instruments, from open to flat. It is designed to be local-first,
// auditable, and deterministic, so the same inputs always reconstruct the
// same chains.
//
// The core functionalities include:
//   - Instrument Codec: converting between compact instrument symbols
//     (equities, options, futures, future options) and their structured form,
//     losslessly in both directions.
//   - Opening Synthesis: inserting synthetic opening transactions for
//     positions that predate the observed transaction window, priced from a
//     user-maintained price table or a quote source.
//   - Chain Matching: partitioning transactions into chains by tracking the
//     net-quantity trajectory per account and underlying, merging multi-leg
//     orders and honoring explicit user overrides.
//   - Consolidation: reconciling the automatically matched chains with a
//     persisted, user-editable configuration of annotations, preserving every
//     user edit across re-runs over growing history.
//   - Data Persistence: encoding and decoding activity and configuration to
//     and from human-readable, version-controllable formats (CSV, JSONL).
//
// This package serves as the foundational logic for the `tcs` command-line
// tool and its dashboard, ensuring that all surfaces render the same
// reconciliation of the same inputs.
package tradechain
