package order

import (
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/ed25519"

	"github.com/aurora-markets/aurora/pkg/ledger"
)

// ErrUnsigned marks an order carrying the all-zero signature sentinel where
// a signed order is required.
var ErrUnsigned = errors.New("order: unsigned")

// Sign produces the maker's signature over the order's content hash. The
// order is not modified; the caller decides whether to attach the result.
func Sign(o Order, priv ed25519.PrivateKey) (ledger.Signature, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return ledger.Signature{}, fmt.Errorf("order: private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(priv))
	}
	hash := o.Hash()
	return ledger.SignatureFromBytes(ed25519.Sign(priv, hash[:]))
}

// SignAndAttach returns a copy of the order with Maker forced to the key's
// public identity and the signature attached. Forcing the maker happens
// before hashing, so the signature always covers the identity it verifies
// against.
func SignAndAttach(o Order, priv ed25519.PrivateKey) (Order, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return Order{}, fmt.Errorf("order: private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(priv))
	}
	pub, err := ledger.PubkeyFromBytes(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return Order{}, err
	}
	o.Maker = pub
	sig, err := Sign(o, priv)
	if err != nil {
		return Order{}, err
	}
	o.Signature = sig
	return o, nil
}

// Verify checks the attached signature against the maker identity. It
// fails closed: the unsigned sentinel, a zero maker, or any cryptographic
// mismatch all return false, never an error.
func Verify(o Order) bool {
	if o.Signature.IsZero() {
		// Unsigned sentinel: deterministic fast reject, no crypto work.
		return false
	}
	if o.Maker.IsZero() {
		return false
	}
	hash := o.Hash()
	return ed25519.Verify(ed25519.PublicKey(o.Maker[:]), hash[:], o.Signature[:])
}

// IsExpired reports whether the order is dead at the supplied unix time.
// Expiration 0 means the order never expires. The time source is always an
// explicit argument so callers and tests control the instant.
func IsExpired(o Order, now int64) bool {
	if o.Expiration == 0 {
		return false
	}
	return now >= 0 && uint64(now) >= o.Expiration
}
