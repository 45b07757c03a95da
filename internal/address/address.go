package address

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Size is the length of an Address in bytes.
const Size = 32

// Address identifies one ledger record. The zero value is the root of the
// derivation tree and never names a record.
type Address [Size]byte

// Root is the parent of all top-level entities (events and currencies).
var Root Address

// Kind selects the domain key used for derivation.
type Kind uint8

const (
	KindEvent Kind = iota + 1
	KindTicketClass
	KindTicket
	KindCollaborator
	KindEscrowVault
	KindFeeVault
	KindCurrency
	KindAccount
	KindAttendance
)

var kindNames = map[Kind]string{
	KindEvent:        "event",
	KindTicketClass:  "ticket_class",
	KindTicket:       "ticket",
	KindCollaborator: "collaborator",
	KindEscrowVault:  "escrow_vault",
	KindFeeVault:     "fee_vault",
	KindCurrency:     "currency",
	KindAccount:      "account",
	KindAttendance:   "attendance",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("address: unknown kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("address: unknown kind %q", text)
}

// domainKey builds the 32-byte BLAKE3 key for a kind: the ASCII string
// "turnstile.address." followed by the kind name, zero-padded. Readable
// keys keep hex dumps inspectable.
func domainKey(k Kind) [32]byte {
	var key [32]byte
	copy(key[:], "turnstile.address."+k.String())
	return key
}

var domainKeys = func() map[Kind][32]byte {
	keys := make(map[Kind][32]byte, len(kindNames))
	for k := range kindNames {
		keys[k] = domainKey(k)
	}
	return keys
}()

// Derive computes the address of a child entity of the given kind under
// parent. The same (parent, kind, seed) always yields the same address.
//
// Panics on an unknown kind: that is a programming error, not input.
func Derive(parent Address, kind Kind, seed []byte) Address {
	key, ok := domainKeys[kind]
	if !ok {
		panic("address: derive with unknown kind " + kind.String())
	}
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("address: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(parent[:])
	hasher.Write(seed)

	var out Address
	copy(out[:], hasher.Sum(nil))
	return out
}

// Seed joins seed parts with a 4-byte big-endian length prefix per part.
func Seed(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		size += 4 + len(p)
	}
	buf := make([]byte, 0, size)
	for _, p := range parts {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(p)))
		buf = append(buf, p...)
	}
	return buf
}

// IsZero reports whether a is the root address.
func (a Address) IsZero() bool {
	return a == Root
}

// String returns the lowercase hex encoding.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Short returns the first 8 hex characters, for logs and tables.
func (a Address) Short() string {
	return a.String()[:8]
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Parse decodes a 64-character hex address.
func Parse(s string) (Address, error) {
	var a Address
	if len(s) != hex.EncodedLen(Size) {
		return a, fmt.Errorf("address: want %d hex characters, got %d", hex.EncodedLen(Size), len(s))
	}
	if _, err := hex.Decode(a[:], []byte(s)); err != nil {
		return a, fmt.Errorf("address: %w", err)
	}
	return a, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or with constant input.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Compare orders addresses bytewise. Used to acquire locks in a fixed order.
func Compare(a, b Address) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
