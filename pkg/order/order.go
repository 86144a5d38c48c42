// Package order implements the off-chain order protocol: the canonical
// binary encodings of an order, its content-addressed hash, signing and
// verification, and the crossing/fill arithmetic used to pair orders.
//
// Everything in this package is pure: no call retains state, blocks, or
// reads a clock. Time enters only as an explicit argument.
package order

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/aurora-markets/aurora/pkg/ledger"
)

// Side says which asset the maker gives.
type Side uint8

const (
	// Bid gives quote for base.
	Bid Side = 0
	// Ask gives base for quote.
	Ask Side = 1
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	}
	return fmt.Sprintf("side(%d)", uint8(s))
}

const (
	// FullOrderLen is the size of the full wire encoding.
	FullOrderLen = 225
	// CompactOrderLen is the size of the compact wire encoding. Logical
	// content is 61 bytes; the fixed allocation includes 4 bytes of
	// alignment padding.
	CompactOrderLen = 65
	// HashLen is the size of an order's content hash.
	HashLen = 32

	// hashedPrefixLen is the signature-free portion of the full encoding,
	// i.e. the canonical bytes the content hash commits to.
	hashedPrefixLen = FullOrderLen - ledger.SignatureLen
)

// hashDomain separates order hashes from every other message type the
// system signs. It is hashed ahead of the canonical encoding.
var hashDomain = []byte("aurora/order/v1")

// LengthError reports a buffer whose length does not exactly match a fixed
// wire size. Decoders never truncate or zero-pad.
type LengthError struct {
	What string
	Want int
	Got  int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("order: %s must be %d bytes, got %d", e.What, e.Want, e.Got)
}

// SideError reports an encoded side byte outside the closed enum.
type SideError struct {
	Value uint8
}

func (e *SideError) Error() string {
	return fmt.Sprintf("order: invalid side byte %d", e.Value)
}

// Order is a maker's signed intent to trade.
//
// Identity: Hash is a pure function of every field except Signature, so an
// economically identical order with the same nonce always hashes the same
// no matter how many times it is reconstructed.
type Order struct {
	// Nonce is the maker-scoped replay-protection counter.
	Nonce uint64
	// Maker is the signing identity.
	Maker ledger.Pubkey
	// Market identifies the market the order trades in.
	Market ledger.Pubkey
	// BaseMint and QuoteMint define what is given vs received.
	BaseMint  ledger.Pubkey
	QuoteMint ledger.Pubkey
	// Side is Bid (give quote) or Ask (give base).
	Side Side
	// MakerAmount is what the maker gives, TakerAmount what the maker wants.
	MakerAmount uint64
	TakerAmount uint64
	// Expiration is unix seconds; 0 means the order never expires.
	Expiration uint64
	// Signature over Hash(). Zero value means unsigned.
	Signature ledger.Signature
}

// Params carries the economic fields of a new order.
type Params struct {
	Nonce       uint64
	Maker       ledger.Pubkey
	Market      ledger.Pubkey
	BaseMint    ledger.Pubkey
	QuoteMint   ledger.Pubkey
	MakerAmount uint64
	TakerAmount uint64
	Expiration  uint64
}

// NewBid builds an unsigned bid (maker gives quote for base).
func NewBid(p Params) Order { return newOrder(p, Bid) }

// NewAsk builds an unsigned ask (maker gives base for quote).
func NewAsk(p Params) Order { return newOrder(p, Ask) }

func newOrder(p Params, side Side) Order {
	return Order{
		Nonce:       p.Nonce,
		Maker:       p.Maker,
		Market:      p.Market,
		BaseMint:    p.BaseMint,
		QuoteMint:   p.QuoteMint,
		Side:        side,
		MakerAmount: p.MakerAmount,
		TakerAmount: p.TakerAmount,
		Expiration:  p.Expiration,
	}
}

// Signed reports whether a signature has been attached. The all-zero
// signature is the wire sentinel for "unsigned" and is never treated as a
// real signature.
func (o Order) Signed() bool { return !o.Signature.IsZero() }

// encodePrefix writes the canonical signature-free bytes into dst, which
// must have room for hashedPrefixLen bytes.
func (o Order) encodePrefix(dst []byte) {
	binary.LittleEndian.PutUint64(dst[0:8], o.Nonce)
	copy(dst[8:40], o.Maker[:])
	copy(dst[40:72], o.Market[:])
	copy(dst[72:104], o.BaseMint[:])
	copy(dst[104:136], o.QuoteMint[:])
	dst[136] = byte(o.Side)
	binary.LittleEndian.PutUint64(dst[137:145], o.MakerAmount)
	binary.LittleEndian.PutUint64(dst[145:153], o.TakerAmount)
	binary.LittleEndian.PutUint64(dst[153:161], o.Expiration)
}

// EncodeFull serializes the order to its 225-byte wire form.
//
// Layout (little-endian):
//
//	[0..8)     nonce
//	[8..40)    maker
//	[40..72)   market
//	[72..104)  baseMint
//	[104..136) quoteMint
//	[136]      side
//	[137..145) makerAmount
//	[145..153) takerAmount
//	[153..161) expiration
//	[161..225) signature
func (o Order) EncodeFull() [FullOrderLen]byte {
	var data [FullOrderLen]byte
	o.encodePrefix(data[:hashedPrefixLen])
	copy(data[hashedPrefixLen:], o.Signature[:])
	return data
}

// DecodeFull parses a 225-byte full order. Input of any other length is
// rejected.
func DecodeFull(data []byte) (Order, error) {
	if len(data) != FullOrderLen {
		return Order{}, &LengthError{What: "full order", Want: FullOrderLen, Got: len(data)}
	}
	if data[136] > uint8(Ask) {
		return Order{}, &SideError{Value: data[136]}
	}
	var o Order
	o.Nonce = binary.LittleEndian.Uint64(data[0:8])
	copy(o.Maker[:], data[8:40])
	copy(o.Market[:], data[40:72])
	copy(o.BaseMint[:], data[72:104])
	copy(o.QuoteMint[:], data[104:136])
	o.Side = Side(data[136])
	o.MakerAmount = binary.LittleEndian.Uint64(data[137:145])
	o.TakerAmount = binary.LittleEndian.Uint64(data[145:153])
	o.Expiration = binary.LittleEndian.Uint64(data[153:161])
	copy(o.Signature[:], data[161:225])
	return o, nil
}

// Hash returns the order's 32-byte content address: Keccak-256 over the
// domain tag followed by the canonical signature-free encoding. It is the
// message that gets signed, the key for on-ledger fill state, and the
// idempotency key for resubmission.
func (o Order) Hash() [HashLen]byte {
	var prefix [hashedPrefixLen]byte
	o.encodePrefix(prefix[:])

	h := sha3.NewLegacyKeccak256()
	h.Write(hashDomain)
	h.Write(prefix[:])

	var out [HashLen]byte
	h.Sum(out[:0])
	return out
}

// Compact is the reduced serialization used where market and mint context
// is implicit from the surrounding transaction.
//
// The nonce is truncated to its low 32 bits. The truncation is lossy: a
// consumer recovering a Compact cannot reconstruct the high bits and must
// obtain the full nonce from side-channel context (see Expand).
type Compact struct {
	Nonce32     uint32
	Maker       ledger.Pubkey
	Side        Side
	MakerAmount uint64
	TakerAmount uint64
	Expiration  uint64
}

// Compact reduces the order to its compact form, truncating the nonce to
// the low 32 bits.
func (o Order) Compact() Compact {
	return Compact{
		Nonce32:     uint32(o.Nonce),
		Maker:       o.Maker,
		Side:        o.Side,
		MakerAmount: o.MakerAmount,
		TakerAmount: o.TakerAmount,
		Expiration:  o.Expiration,
	}
}

// Encode serializes the compact order to its 65-byte wire form.
//
// Layout: nonce32(4) maker(32) side(1) makerAmount(8) takerAmount(8)
// expiration(8) pad(4).
func (c Compact) Encode() [CompactOrderLen]byte {
	var data [CompactOrderLen]byte
	binary.LittleEndian.PutUint32(data[0:4], c.Nonce32)
	copy(data[4:36], c.Maker[:])
	data[36] = byte(c.Side)
	binary.LittleEndian.PutUint64(data[37:45], c.MakerAmount)
	binary.LittleEndian.PutUint64(data[45:53], c.TakerAmount)
	binary.LittleEndian.PutUint64(data[53:61], c.Expiration)
	return data
}

// DecodeCompact parses a 65-byte compact order. Input of any other length
// is rejected.
func DecodeCompact(data []byte) (Compact, error) {
	if len(data) != CompactOrderLen {
		return Compact{}, &LengthError{What: "compact order", Want: CompactOrderLen, Got: len(data)}
	}
	if data[36] > uint8(Ask) {
		return Compact{}, &SideError{Value: data[36]}
	}
	var c Compact
	c.Nonce32 = binary.LittleEndian.Uint32(data[0:4])
	copy(c.Maker[:], data[4:36])
	c.Side = Side(data[36])
	c.MakerAmount = binary.LittleEndian.Uint64(data[37:45])
	c.TakerAmount = binary.LittleEndian.Uint64(data[45:53])
	c.Expiration = binary.LittleEndian.Uint64(data[53:61])
	return c, nil
}

// Expand rebuilds a full order from the compact form. The full nonce and
// the market/mint identities are not recoverable from the compact bytes
// and must come from the surrounding transaction or other side-channel
// context; the low 32 bits of fullNonce must match Nonce32.
func (c Compact) Expand(fullNonce uint64, market, baseMint, quoteMint ledger.Pubkey, sig ledger.Signature) (Order, error) {
	if uint32(fullNonce) != c.Nonce32 {
		return Order{}, fmt.Errorf("order: full nonce %d does not extend truncated nonce %d", fullNonce, c.Nonce32)
	}
	return Order{
		Nonce:       fullNonce,
		Maker:       c.Maker,
		Market:      market,
		BaseMint:    baseMint,
		QuoteMint:   quoteMint,
		Side:        c.Side,
		MakerAmount: c.MakerAmount,
		TakerAmount: c.TakerAmount,
		Expiration:  c.Expiration,
		Signature:   sig,
	}, nil
}
