// Package metadata publishes the display representation of ledger
// entities: the collectible face of an event, a ticket class, a ticket,
// or an attendance credential.
//
// Publishing is cosmetic. The ledger calls a Publisher only after an
// operation has committed, logs any failure, and never lets a failure
// change the outcome of the operation.
package metadata

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/turnstile/internal/address"
)

// Document is one entity's display metadata.
type Document struct {
	Kind       address.Kind      `json:"kind"`
	Address    address.Address   `json:"address"`
	Name       string            `json:"name"`
	Symbol     string            `json:"symbol,omitempty"`
	URI        string            `json:"uri,omitempty"`
	Owner      string            `json:"owner,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Publisher accepts documents after commit.
type Publisher interface {
	Publish(ctx context.Context, doc Document) error
}

// Nop discards every document.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Document) error { return nil }

// Recorder keeps every document in memory. Set Err to make Publish fail.
type Recorder struct {
	mu   sync.Mutex
	docs []Document
	Err  error
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.docs = append(r.docs, doc)
	return nil
}

// Documents returns a copy of what has been published so far.
func (r *Recorder) Documents() []Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Document, len(r.docs))
	copy(out, r.docs)
	return out
}

// Logger writes each document to a structured log at Info.
type Logger struct {
	Log *slog.Logger
}

// Publish implements Publisher.
func (l Logger) Publish(ctx context.Context, doc Document) error {
	log := l.Log
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "metadata published",
		"kind", doc.Kind.String(),
		"address", doc.Address.Short(),
		"name", doc.Name,
		"owner", doc.Owner,
	)
	return nil
}
