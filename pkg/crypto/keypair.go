// Package crypto manages Ed25519 keypairs for order signing.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/cloudflare/circl/sign/ed25519"

	"github.com/aurora-markets/aurora/pkg/ledger"
)

// Keypair holds an Ed25519 private key and its derived public identity.
type Keypair struct {
	priv ed25519.PrivateKey
	pub  ledger.Pubkey
}

// GenerateKeypair creates a new random Ed25519 keypair.
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	id, err := ledger.PubkeyFromBytes(pub)
	if err != nil {
		return nil, err
	}
	return &Keypair{priv: priv, pub: id}, nil
}

// FromSeedHex creates a Keypair from a hex-encoded 32-byte seed.
// Format: 64 hex chars, no 0x prefix.
func FromSeedHex(seedHex string) (*Keypair, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	id, err := ledger.PubkeyFromBytes(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &Keypair{priv: priv, pub: id}, nil
}

// Public returns the public identity.
func (k *Keypair) Public() ledger.Pubkey { return k.pub }

// Private returns the private key for use with order.Sign and
// order.SignAndAttach.
// WARNING: keep this secret; never expose it in logs.
func (k *Keypair) Private() ed25519.PrivateKey { return k.priv }

// SeedHex returns the private seed as hex (64 chars, no prefix).
// WARNING: keep this secret; never expose it in logs.
func (k *Keypair) SeedHex() string { return hex.EncodeToString(k.priv.Seed()) }

// Sign signs a 32-byte message hash.
func (k *Keypair) Sign(hash []byte) (ledger.Signature, error) {
	if len(hash) != 32 {
		return ledger.Signature{}, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}
	return ledger.SignatureFromBytes(ed25519.Sign(k.priv, hash))
}
