package state

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/codec"
	"github.com/roach88/turnstile/internal/ir"
)

var (
	// ErrNotFound is returned when no record lives at an address.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned by Insert when the address is taken.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrOutOfScope is returned when a closure touches an address it did
	// not declare. It indicates a bug in the operation, not bad input.
	ErrOutOfScope = errors.New("address outside declared scope")

	// ErrKindMismatch is returned when a record exists at an address but
	// holds a different kind of entity than the caller expects.
	ErrKindMismatch = errors.New("record kind mismatch")
)

// Record is one stored entity: its address, its kind, and its CBOR body.
type Record struct {
	Address address.Address `cbor:"address" json:"address"`
	Kind    address.Kind    `cbor:"kind" json:"kind"`
	Body    []byte          `cbor:"body" json:"body"`
}

// Tx is the view of the substrate inside one Apply or View closure.
type Tx interface {
	Get(addr address.Address) (Record, error)
	Insert(rec Record) error
	Put(rec Record) error
	Delete(addr address.Address) error
}

// Store runs closures atomically over a declared scope.
type Store interface {
	// Apply runs fn with write access. Writes are committed only when fn
	// returns nil; any error discards them.
	Apply(ctx context.Context, scope []address.Address, fn func(Tx) error) error

	// View runs fn read-only. Writes inside fn fail.
	View(ctx context.Context, scope []address.Address, fn func(Tx) error) error
}

// Dumper exports and restores every record, for snapshots.
type Dumper interface {
	Records(ctx context.Context) ([]Record, error)
	Restore(ctx context.Context, records []Record) error
}

// Journal is an append-only log of operation attempts.
type Journal interface {
	// Append assigns the next sequence number, seals the entry's ID, and
	// stores it. The stored entry is returned.
	Append(ctx context.Context, e ir.Entry) (ir.Entry, error)

	// Entries returns the journal in sequence order.
	Entries(ctx context.Context) ([]ir.Entry, error)
}

// Load decodes the record at addr into v, checking its kind.
func Load(tx Tx, addr address.Address, kind address.Kind, v any) error {
	rec, err := tx.Get(addr)
	if err != nil {
		return err
	}
	if rec.Kind != kind {
		return fmt.Errorf("%w: %s holds %s, want %s", ErrKindMismatch, addr.Short(), rec.Kind, kind)
	}
	if err := codec.Unmarshal(rec.Body, v); err != nil {
		return fmt.Errorf("decode %s %s: %w", kind, addr.Short(), err)
	}
	return nil
}

// Exists reports whether any record lives at addr.
func Exists(tx Tx, addr address.Address) (bool, error) {
	_, err := tx.Get(addr)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create encodes v and inserts it at addr. Fails with ErrAlreadyExists
// if any record, of any kind, already lives there.
func Create(tx Tx, addr address.Address, kind address.Kind, v any) error {
	rec, err := encode(addr, kind, v)
	if err != nil {
		return err
	}
	return tx.Insert(rec)
}

// Save encodes v and overwrites the record at addr.
func Save(tx Tx, addr address.Address, kind address.Kind, v any) error {
	rec, err := encode(addr, kind, v)
	if err != nil {
		return err
	}
	return tx.Put(rec)
}

func encode(addr address.Address, kind address.Kind, v any) (Record, error) {
	body, err := codec.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s %s: %w", kind, addr.Short(), err)
	}
	return Record{Address: addr, Kind: kind, Body: body}, nil
}

// Normalize sorts scope and removes duplicates. Substrates lock in this
// order so overlapping scopes never deadlock.
func Normalize(scope []address.Address) []address.Address {
	out := make([]address.Address, len(scope))
	copy(out, scope)
	slices.SortFunc(out, address.Compare)
	return slices.Compact(out)
}
