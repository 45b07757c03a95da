// Package snapshot writes and reads portable copies of ledger state: a
// zstd-compressed stream of CBOR items, one header followed by one item
// per record.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/codec"
	"github.com/roach88/turnstile/internal/state"
)

// Format identifies a snapshot stream.
const Format = "turnstile-snapshot"

// Version is the stream layout version Write produces.
const Version = 1

// Header precedes the records.
type Header struct {
	Format  string    `cbor:"1,keyasint"`
	Version int       `cbor:"2,keyasint"`
	Count   int       `cbor:"3,keyasint"`
	Taken   time.Time `cbor:"4,keyasint"`
}

type item struct {
	Address address.Address `cbor:"1,keyasint"`
	Kind    address.Kind    `cbor:"2,keyasint"`
	Body    []byte          `cbor:"3,keyasint"`
}

// ErrFormat is returned by Read for streams that are not snapshots or
// use an unknown version.
var ErrFormat = errors.New("not a turnstile snapshot")

// Write encodes records to w. taken is stored in the header.
func Write(w io.Writer, records []state.Record, taken time.Time) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("snapshot: zstd writer: %w", err)
	}
	enc := codec.NewEncoder(zw)

	hdr := Header{Format: Format, Version: Version, Count: len(records), Taken: taken.UTC()}
	if err := enc.Encode(hdr); err != nil {
		zw.Close()
		return fmt.Errorf("snapshot: encode header: %w", err)
	}
	for _, rec := range records {
		if err := enc.Encode(item{Address: rec.Address, Kind: rec.Kind, Body: rec.Body}); err != nil {
			zw.Close()
			return fmt.Errorf("snapshot: encode %s: %w", rec.Address.Short(), err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("snapshot: flush: %w", err)
	}
	return nil
}

// Read decodes a snapshot written by Write.
func Read(r io.Reader) (*Header, []state.Record, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: zstd reader: %w", err)
	}
	defer zr.Close()
	dec := codec.NewDecoder(zr)

	var hdr Header
	if err := dec.Decode(&hdr); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if hdr.Format != Format {
		return nil, nil, fmt.Errorf("%w: format %q", ErrFormat, hdr.Format)
	}
	if hdr.Version != Version {
		return nil, nil, fmt.Errorf("%w: version %d", ErrFormat, hdr.Version)
	}

	records := make([]state.Record, 0, hdr.Count)
	for i := range hdr.Count {
		var it item
		if err := dec.Decode(&it); err != nil {
			return nil, nil, fmt.Errorf("snapshot: record %d of %d: %w", i+1, hdr.Count, err)
		}
		records = append(records, state.Record{Address: it.Address, Kind: it.Kind, Body: it.Body})
	}
	return &hdr, records, nil
}

// Export writes every record of d.
func Export(ctx context.Context, d state.Dumper, w io.Writer, taken time.Time) (int, error) {
	records, err := d.Records(ctx)
	if err != nil {
		return 0, fmt.Errorf("snapshot: dump records: %w", err)
	}
	return len(records), Write(w, records, taken)
}

// Import reads a snapshot into d.
func Import(ctx context.Context, d state.Dumper, r io.Reader) (*Header, error) {
	hdr, records, err := Read(r)
	if err != nil {
		return nil, err
	}
	if err := d.Restore(ctx, records); err != nil {
		return nil, fmt.Errorf("snapshot: restore: %w", err)
	}
	return hdr, nil
}
