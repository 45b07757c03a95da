// Package store is the durable SQLite substrate for the ledger.
//
// It holds two tables:
//   - records: one row per entity, keyed by its derived address, with the
//     entity kind and its deterministic CBOR body
//   - journal: the append-only log of operation attempts, ordered by seq
//
// Every Apply runs in one IMMEDIATE write transaction on a single
// connection, so operations are serialized and a failing closure rolls
// back every write it made. Scope declarations are enforced the same way
// the in-memory substrate enforces them, so an operation that passes its
// tests against one substrate cannot silently touch undeclared state on
// the other.
//
// # Database Configuration
//
//   - WAL mode: readers do not block the writer
//   - synchronous=NORMAL
//   - busy_timeout=5000 for cross-process lock contention
//   - _txlock=immediate: the write lock is taken at BEGIN, not at first write
package store
