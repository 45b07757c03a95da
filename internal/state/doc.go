// Package state defines the atomic substrate the ledger runs on.
//
// A Store applies one closure per operation against a declared scope of
// addresses. Every read and write inside the closure must stay within
// that scope; the substrate guarantees the closure runs serializably
// with respect to every other Apply whose scope overlaps, and that its
// writes become visible all together or not at all.
//
// Two substrates implement Store: Memory in this package, with one lock
// per address so disjoint scopes run in parallel, and the SQLite store
// in internal/store, which serializes all writers.
package state
