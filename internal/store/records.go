package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/state"
)

var (
	_ state.Store   = (*Store)(nil)
	_ state.Dumper  = (*Store)(nil)
	_ state.Journal = (*Store)(nil)
)

// Apply implements state.Store. fn runs inside one write transaction;
// a non-nil return rolls it back.
func (s *Store) Apply(ctx context.Context, scope []address.Address, fn func(state.Tx) error) error {
	return s.run(ctx, scope, true, fn)
}

// View implements state.Store.
func (s *Store) View(ctx context.Context, scope []address.Address, fn func(state.Tx) error) error {
	return s.run(ctx, scope, false, fn)
}

func (s *Store) run(ctx context.Context, scope []address.Address, writable bool, fn func(state.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	stx := &sqlTx{
		ctx:      ctx,
		tx:       tx,
		scope:    make(map[address.Address]struct{}, len(scope)),
		writable: writable,
	}
	for _, addr := range scope {
		stx.scope[addr] = struct{}{}
	}

	if err := fn(stx); err != nil {
		return err
	}
	if !writable {
		return nil
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type sqlTx struct {
	ctx      context.Context
	tx       *sql.Tx
	scope    map[address.Address]struct{}
	writable bool
}

func (t *sqlTx) check(addr address.Address) error {
	if _, ok := t.scope[addr]; !ok {
		return fmt.Errorf("%w: %s", state.ErrOutOfScope, addr.Short())
	}
	return nil
}

func (t *sqlTx) checkWrite(addr address.Address) error {
	if !t.writable {
		return fmt.Errorf("write to %s in read-only view", addr.Short())
	}
	return t.check(addr)
}

func (t *sqlTx) Get(addr address.Address) (state.Record, error) {
	if err := t.check(addr); err != nil {
		return state.Record{}, err
	}

	rec := state.Record{Address: addr}
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT kind, body FROM records WHERE address = ?
	`, addr.String()).Scan(&rec.Kind, &rec.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return state.Record{}, fmt.Errorf("%w: %s", state.ErrNotFound, addr.Short())
	}
	if err != nil {
		return state.Record{}, fmt.Errorf("read record %s: %w", addr.Short(), err)
	}
	return rec, nil
}

func (t *sqlTx) Insert(rec state.Record) error {
	if err := t.checkWrite(rec.Address); err != nil {
		return err
	}

	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO records (address, kind, body) VALUES (?, ?, ?)
		ON CONFLICT(address) DO NOTHING
	`, rec.Address.String(), rec.Kind, rec.Body)
	if err != nil {
		return fmt.Errorf("insert record %s: %w", rec.Address.Short(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert record %s: %w", rec.Address.Short(), err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", state.ErrAlreadyExists, rec.Address.Short())
	}
	return nil
}

func (t *sqlTx) Put(rec state.Record) error {
	if err := t.checkWrite(rec.Address); err != nil {
		return err
	}

	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO records (address, kind, body) VALUES (?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET kind = excluded.kind, body = excluded.body
	`, rec.Address.String(), rec.Kind, rec.Body)
	if err != nil {
		return fmt.Errorf("write record %s: %w", rec.Address.Short(), err)
	}
	return nil
}

func (t *sqlTx) Delete(addr address.Address) error {
	if err := t.checkWrite(addr); err != nil {
		return err
	}

	res, err := t.tx.ExecContext(t.ctx, `DELETE FROM records WHERE address = ?`, addr.String())
	if err != nil {
		return fmt.Errorf("delete record %s: %w", addr.Short(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record %s: %w", addr.Short(), err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", state.ErrNotFound, addr.Short())
	}
	return nil
}

// Records implements state.Dumper. Rows are returned in address order.
func (s *Store) Records(ctx context.Context) ([]state.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT address, kind, body FROM records ORDER BY address COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []state.Record
	for rows.Next() {
		var (
			hex string
			rec state.Record
		)
		if err := rows.Scan(&hex, &rec.Kind, &rec.Body); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if rec.Address, err = address.Parse(hex); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// Restore implements state.Dumper.
func (s *Store) Restore(ctx context.Context, records []state.Record) error {
	scope := make([]address.Address, len(records))
	for i, rec := range records {
		scope[i] = rec.Address
	}
	return s.Apply(ctx, scope, func(tx state.Tx) error {
		for _, rec := range records {
			if err := tx.Put(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
