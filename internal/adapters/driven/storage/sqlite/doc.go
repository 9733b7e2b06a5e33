// Package sqlite provides the SQLite-backed DocumentStore.
//
// The store runs in WAL mode with foreign keys enabled; every upsert
// relies on the schema's uniqueness constraints rather than
// read-then-write checks, so concurrent workers never produce duplicate
// rows. Migrations are embedded and applied on open.
package sqlite
