// Package ir holds the journal's intermediate representation: a small
// sealed value model, RFC 8785 canonical JSON, and content-addressed
// journal entries.
//
// Constraints:
//   - No floats. Amounts are integers in the currency's smallest unit.
//   - No null. Absent optional fields are omitted from objects.
//   - Entry IDs are computed from canonical bytes only, never from Go's
//     map iteration order or wall-clock time.
package ir
