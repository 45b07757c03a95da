package identity

import (
	"crypto/ed25519"

	"github.com/zeebo/blake3"
)

// DevKey derives a fixed Ed25519 key pair from a principal's name.
//
// Anyone who knows the name can sign as the principal. It exists for
// scenarios and the local CLI, which name callers with --as and need
// stable keys across runs.
func DevKey(p Principal) ed25519.PrivateKey {
	seed := blake3.Sum256([]byte("turnstile dev key\x00" + string(p)))
	return ed25519.NewKeyFromSeed(seed[:])
}

// SignAsDev seals payload and signs it with the dev key of each
// principal, registering their public keys in k.
func (k *Keyring) SignAsDev(payload any, principals ...Principal) (*Envelope, error) {
	env, err := Seal(payload)
	if err != nil {
		return nil, err
	}
	for _, p := range principals {
		key := DevKey(p)
		k.Register(p, key.Public().(ed25519.PublicKey))
		env.Sign(p, key)
	}
	return env, nil
}
