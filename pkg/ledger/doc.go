// Package ledger records metadata queries and download outcomes in an
// optional SQLite database.
//
// The ledger activates only when the configured database file exists and
// carries the expected queries and downloads tables; anything else yields
// a disabled ledger whose methods no-op. Write failures are logged at
// debug and never surface, so ledger problems cannot fail a download.
package ledger
