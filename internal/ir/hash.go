package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainEntry separates journal entry hashes from any other SHA-256 use.
// The version suffix changes together with SchemaVersion.
const DomainEntry = "turnstile/entry/v1"

// hashWithDomain computes SHA256(domain || 0x00 || data). The null byte
// keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EntryID computes the content-addressed ID of a journal entry.
//
// The wall-clock Time is excluded: two ledgers that apply the same
// operations in the same order produce the same IDs.
func EntryID(e Entry) (string, error) {
	canonical, err := MarshalCanonical(e.identity())
	if err != nil {
		return "", fmt.Errorf("entry id: %w", err)
	}
	return hashWithDomain(DomainEntry, canonical), nil
}

// MustEntryID is like EntryID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEntryID(e Entry) string {
	id, err := EntryID(e)
	if err != nil {
		panic(err)
	}
	return id
}
