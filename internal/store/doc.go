// Package store provides the SQLite-backed run journal.
//
// The journal is an append-only record of transformations applied by the
// batch runner:
//   - Documents: transform documents, keyed by content hash
//   - Runs: one row per transformed record (input, wire result, derived state)
//
// The transform engine itself never touches the store. Journaling is a
// concern of the runner and the CLI.
//
// # Ordering
//
//   - Runs are ordered by seq (logical clock), NEVER timestamps
//   - All list queries use ORDER BY seq ASC, id ASC COLLATE BINARY
//
// # Identity
//
//   - Run IDs and document hashes come from internal/ir/hash.go (RFC 8785
//     canonical JSON and SHA-256 with domain separation)
//   - Writes use ON CONFLICT DO NOTHING, so re-journaling is idempotent
//
// # Schema
//
// schema.sql is applied on every Open and PRAGMA user_version carries its
// version. Opening a journal stamped by a newer release fails instead of
// writing rows it might not understand. Connections run in WAL mode with
// foreign keys on, so a run cannot reference a document that was never
// journaled.
package store
