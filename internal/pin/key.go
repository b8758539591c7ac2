package pin

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	SaltSize = 32

	argonTime    = 2
	argonMemory  = 19 * 1024
	argonThreads = 1
)

// NewSalt returns a fresh registration salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate pin salt: %w", err)
	}
	return salt, nil
}

// Key is the signing key derived from a PIN. It is never stored.
type Key struct {
	private ed25519.PrivateKey
}

// DeriveKey stretches pin with Argon2id and seeds an Ed25519 key with the result.
func DeriveKey(pin string, salt []byte) Key {
	seed := argon2.IDKey([]byte(pin), salt, argonTime, argonMemory, argonThreads, ed25519.SeedSize)
	return Key{private: ed25519.NewKeyFromSeed(seed)}
}

func (k Key) PublicKey() ed25519.PublicKey {
	return k.private.Public().(ed25519.PublicKey)
}

// Sign signs a challenge.
func (k Key) Sign(challenge []byte) []byte {
	return ed25519.Sign(k.private, challenge)
}
