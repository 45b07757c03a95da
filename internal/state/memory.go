package state

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/ir"
)

// Memory is an in-process Store with one lock per address.
//
// Apply locks every address in its scope in sorted order, so two
// operations contend only when their scopes overlap. Writes are buffered
// in the transaction and copied into the cells only after the closure
// returns nil.
type Memory struct {
	mu    sync.Mutex
	cells map[address.Address]*cell
}

type cell struct {
	mu  sync.RWMutex
	rec *Record
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{cells: make(map[address.Address]*cell)}
}

func (m *Memory) cellsFor(scope []address.Address) []*cell {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*cell, len(scope))
	for i, addr := range scope {
		c, ok := m.cells[addr]
		if !ok {
			c = &cell{}
			m.cells[addr] = c
		}
		out[i] = c
	}
	return out
}

// Apply implements Store.
func (m *Memory) Apply(ctx context.Context, scope []address.Address, fn func(Tx) error) error {
	return m.run(ctx, scope, true, fn)
}

// View implements Store.
func (m *Memory) View(ctx context.Context, scope []address.Address, fn func(Tx) error) error {
	return m.run(ctx, scope, false, fn)
}

func (m *Memory) run(ctx context.Context, scope []address.Address, writable bool, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	scope = Normalize(scope)
	cells := m.cellsFor(scope)

	for _, c := range cells {
		if writable {
			c.mu.Lock()
		} else {
			c.mu.RLock()
		}
	}
	defer func() {
		for _, c := range slices.Backward(cells) {
			if writable {
				c.mu.Unlock()
			} else {
				c.mu.RUnlock()
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{
		scope:    make(map[address.Address]*cell, len(scope)),
		writes:   make(map[address.Address]*Record),
		writable: writable,
	}
	for i, addr := range scope {
		tx.scope[addr] = cells[i]
	}

	if err := fn(tx); err != nil {
		return err
	}
	for addr, rec := range tx.writes {
		tx.scope[addr].rec = rec
	}
	return nil
}

type memTx struct {
	scope    map[address.Address]*cell
	writes   map[address.Address]*Record
	writable bool
}

func (tx *memTx) current(addr address.Address) (*Record, error) {
	c, ok := tx.scope[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutOfScope, addr.Short())
	}
	if rec, written := tx.writes[addr]; written {
		return rec, nil
	}
	return c.rec, nil
}

func (tx *memTx) Get(addr address.Address) (Record, error) {
	rec, err := tx.current(addr)
	if err != nil {
		return Record{}, err
	}
	if rec == nil {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, addr.Short())
	}
	return cloneRecord(*rec), nil
}

func (tx *memTx) Insert(rec Record) error {
	existing, err := tx.current(rec.Address)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, rec.Address.Short())
	}
	return tx.Put(rec)
}

func (tx *memTx) Put(rec Record) error {
	if !tx.writable {
		return fmt.Errorf("write to %s in read-only view", rec.Address.Short())
	}
	if _, err := tx.current(rec.Address); err != nil {
		return err
	}
	stored := cloneRecord(rec)
	tx.writes[rec.Address] = &stored
	return nil
}

func (tx *memTx) Delete(addr address.Address) error {
	if !tx.writable {
		return fmt.Errorf("delete of %s in read-only view", addr.Short())
	}
	existing, err := tx.current(addr)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, addr.Short())
	}
	tx.writes[addr] = nil
	return nil
}

func cloneRecord(rec Record) Record {
	rec.Body = slices.Clone(rec.Body)
	return rec
}

// Records implements Dumper. Records are returned in address order.
func (m *Memory) Records(ctx context.Context) ([]Record, error) {
	m.mu.Lock()
	scope := make([]address.Address, 0, len(m.cells))
	for addr := range m.cells {
		scope = append(scope, addr)
	}
	m.mu.Unlock()

	var out []Record
	err := m.View(ctx, scope, func(tx Tx) error {
		for _, addr := range Normalize(scope) {
			rec, err := tx.Get(addr)
			if err != nil {
				continue
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// Restore implements Dumper. Existing records at the same addresses are
// overwritten.
func (m *Memory) Restore(ctx context.Context, records []Record) error {
	scope := make([]address.Address, len(records))
	for i, rec := range records {
		scope[i] = rec.Address
	}
	return m.Apply(ctx, scope, func(tx Tx) error {
		for _, rec := range records {
			if err := tx.Put(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// MemoryJournal is an in-process Journal.
type MemoryJournal struct {
	mu      sync.Mutex
	entries []ir.Entry
}

// NewMemoryJournal returns an empty journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// Append implements Journal.
func (j *MemoryJournal) Append(_ context.Context, e ir.Entry) (ir.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	e.Seq = int64(len(j.entries)) + 1
	if err := e.Seal(); err != nil {
		return ir.Entry{}, fmt.Errorf("append journal entry: %w", err)
	}
	j.entries = append(j.entries, e)
	return e, nil
}

// Entries implements Journal.
func (j *MemoryJournal) Entries(_ context.Context) ([]ir.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.entries), nil
}
