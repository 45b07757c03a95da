package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/turnstile/internal/ir"
)

// Append implements state.Journal. The sequence number continues from
// the last stored entry, so it survives restarts.
func (s *Store) Append(ctx context.Context, e ir.Entry) (ir.Entry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.Entry{}, fmt.Errorf("append journal entry: begin tx: %w", err)
	}
	defer tx.Rollback()

	var last int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM journal`).Scan(&last); err != nil {
		return ir.Entry{}, fmt.Errorf("append journal entry: read seq: %w", err)
	}
	e.Seq = last + 1
	if err := e.Seal(); err != nil {
		return ir.Entry{}, fmt.Errorf("append journal entry: %w", err)
	}

	args, err := marshalObject(e.Args)
	if err != nil {
		return ir.Entry{}, fmt.Errorf("append journal entry: args: %w", err)
	}
	result, err := marshalObject(e.Result)
	if err != nil {
		return ir.Entry{}, fmt.Errorf("append journal entry: result: %w", err)
	}
	signers, err := json.Marshal(nonNil(e.Signers))
	if err != nil {
		return ir.Entry{}, fmt.Errorf("append journal entry: signers: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO journal (seq, id, op, args, signers, outcome, message, result, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Seq, e.ID, e.Op, args, string(signers), e.Outcome, e.Message, result, e.Time.UnixNano())
	if err != nil {
		return ir.Entry{}, fmt.Errorf("append journal entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ir.Entry{}, fmt.Errorf("append journal entry: commit: %w", err)
	}
	return e, nil
}

// Entries implements state.Journal.
func (s *Store) Entries(ctx context.Context) ([]ir.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, op, args, signers, outcome, message, result, recorded_at
		FROM journal
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []ir.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (ir.Entry, error) {
	var (
		e                     ir.Entry
		args, signers, result string
		recordedAt            int64
	)
	if err := rows.Scan(&e.Seq, &e.ID, &e.Op, &args, &signers, &e.Outcome, &e.Message, &result, &recordedAt); err != nil {
		return ir.Entry{}, fmt.Errorf("scan journal entry: %w", err)
	}

	var err error
	if e.Args, err = unmarshalObject(args); err != nil {
		return ir.Entry{}, fmt.Errorf("journal entry %d args: %w", e.Seq, err)
	}
	if e.Result, err = unmarshalObject(result); err != nil {
		return ir.Entry{}, fmt.Errorf("journal entry %d result: %w", e.Seq, err)
	}
	if err := json.Unmarshal([]byte(signers), &e.Signers); err != nil {
		return ir.Entry{}, fmt.Errorf("journal entry %d signers: %w", e.Seq, err)
	}
	e.Time = time.Unix(0, recordedAt).UTC()
	return e, nil
}

// marshalObject stores an object as canonical JSON TEXT.
func marshalObject(obj ir.Object) (string, error) {
	if obj == nil {
		obj = ir.Object{}
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unmarshalObject parses canonical JSON TEXT. An empty object reads back
// as nil, matching how entries are built before they are stored.
func unmarshalObject(data string) (ir.Object, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var obj ir.Object
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
