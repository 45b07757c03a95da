package identity

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/turnstile/internal/codec"
)

var (
	ErrUnknownPrincipal = errors.New("identity: no key registered for principal")
	ErrInvalidSignature = errors.New("identity: invalid Ed25519 signature")
	ErrUnsigned         = errors.New("identity: envelope carries no signatures")
)

// Signature binds one principal to an envelope payload.
type Signature struct {
	Principal Principal `cbor:"1,keyasint"`
	Value     []byte    `cbor:"2,keyasint"`
}

// Envelope is a CBOR payload with any number of co-signatures. Every
// signature covers the same payload bytes, so a door scanner and a
// ticket holder can sign one check-in independently.
type Envelope struct {
	Payload    []byte      `cbor:"1,keyasint"`
	Signatures []Signature `cbor:"2,keyasint"`
}

// Seal encodes payload and returns an unsigned envelope.
func Seal(payload any) (*Envelope, error) {
	data, err := codec.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("identity: encoding payload: %w", err)
	}
	return &Envelope{Payload: data}, nil
}

// Sign appends principal's signature over the payload.
func (e *Envelope) Sign(principal Principal, key ed25519.PrivateKey) {
	e.Signatures = append(e.Signatures, Signature{
		Principal: principal,
		Value:     ed25519.Sign(key, e.Payload),
	})
}

// Decode unmarshals the payload into v. Call only after Verify.
func (e *Envelope) Decode(v any) error {
	if err := codec.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("identity: decoding payload: %w", err)
	}
	return nil
}

// Keyring maps principals to their public keys.
type Keyring struct {
	mu   sync.RWMutex
	keys map[Principal]ed25519.PublicKey
}

// NewKeyring returns an empty keyring.
func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[Principal]ed25519.PublicKey)}
}

// Register records principal's public key, replacing any previous one.
func (k *Keyring) Register(principal Principal, key ed25519.PublicKey) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[principal] = key
}

// Verify checks every signature on the envelope and returns the set of
// principals that signed. One bad or unknown signature fails the whole
// envelope: a partially verified caller set is never returned.
func (k *Keyring) Verify(e *Envelope) (Signers, error) {
	if len(e.Signatures) == 0 {
		return nil, ErrUnsigned
	}

	k.mu.RLock()
	defer k.mu.RUnlock()

	signers := make(Signers, len(e.Signatures))
	for _, sig := range e.Signatures {
		key, ok := k.keys[sig.Principal]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPrincipal, sig.Principal)
		}
		if !ed25519.Verify(key, e.Payload, sig.Value) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSignature, sig.Principal)
		}
		signers[sig.Principal] = struct{}{}
	}
	return signers, nil
}
