package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/roach88/turnstile/internal/address"
)

type sampleRecord struct {
	Kind    string           `cbor:"kind"`
	Owner   string           `cbor:"owner,omitempty"`
	Balance uint64           `cbor:"balance"`
	Vault   address.Address  `cbor:"vault"`
	Fee     *address.Address `cbor:"fee,omitempty"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	fee := address.FeeVault(address.Event("alice", "fest"))
	original := sampleRecord{
		Kind:    "account",
		Owner:   "alice",
		Balance: 42,
		Vault:   address.EscrowVault(address.Event("alice", "fest")),
		Fee:     &fee,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.Vault != original.Vault || decoded.Balance != original.Balance || decoded.Owner != original.Owner {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
	if decoded.Fee == nil || *decoded.Fee != fee {
		t.Errorf("fee vault lost in roundtrip: %v", decoded.Fee)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	record := map[string]any{"z": 1, "a": "x", "m": []any{1, 2}}

	first, err := Marshal(record)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	second, err := Marshal(record)
	if err != nil {
		t.Fatalf("second Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestAddressEncodesAsText(t *testing.T) {
	addr := address.Currency("USD")
	data, err := Marshal(sampleRecord{Vault: addr})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	diag, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(diag, addr.String()) {
		t.Errorf("diagnostic %q does not contain hex address %s", diag, addr)
	}
}

func TestEncoderDecoderStreamRoundtrip(t *testing.T) {
	records := []sampleRecord{
		{Kind: "vault", Balance: 1},
		{Kind: "account", Owner: "bob", Balance: 2},
		{Kind: "account", Owner: "carol"},
	}

	var buf bytes.Buffer
	encoder := NewEncoder(&buf)
	for _, r := range records {
		if err := encoder.Encode(r); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buf)
	for i, want := range records {
		var got sampleRecord
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode[%d]: %v", i, err)
		}
		if got.Kind != want.Kind || got.Owner != want.Owner || got.Balance != want.Balance {
			t.Errorf("record[%d] = %+v, want %+v", i, got, want)
		}
	}
}
