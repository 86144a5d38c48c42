package txbuild

import (
	"errors"
	"fmt"

	"github.com/aurora-markets/aurora/pkg/ledger"
	"github.com/aurora-markets/aurora/pkg/order"
)

// MaxMakers bounds one match instruction, limited by the settlement
// program's compute budget.
const MaxMakers = 5

// Match instruction data layout:
//
//	[0]         discriminator
//	[1..33)     taker hash (32)
//	[33..98)    taker compact order (65)
//	[98..162)   taker signature (64)
//	[162]       num makers
//	[163]       full-fill bitmask
//	per maker (177 bytes):
//	  [+0..+32)    maker hash (32)
//	  [+32..+97)   maker compact order (65)
//	  [+97..+161)  maker signature (64)
//	  [+161..+169) maker fill amount (8, LE)
//	  [+169..+177) taker fill amount (8, LE)
//
// The maker pubkey sits 4 bytes into each compact order (after the
// truncated nonce), which the cross-referenced verification offsets below
// rely on.
const (
	TakerMessageOffset   = 1
	takerCompactOffset   = TakerMessageOffset + order.HashLen
	TakerPubkeyOffset    = takerCompactOffset + 4
	TakerSignatureOffset = takerCompactOffset + order.CompactOrderLen
	NumMakersOffset      = TakerSignatureOffset + ledger.SignatureLen
	BitmaskOffset        = NumMakersOffset + 1
	makerBaseOffset      = BitmaskOffset + 1

	// MakerEntryLen is one maker's slice of the match data.
	MakerEntryLen = order.HashLen + order.CompactOrderLen + ledger.SignatureLen + 8 + 8
)

// TakerFullFillBit marks the taker order as fully consumed by this match.
// Bits 0..MaxMakers-1 mark the corresponding maker orders; a clear bit
// means a partial fill whose on-ledger tracking state must be decremented,
// not closed.
const TakerFullFillBit = 7

// MatchDataLen returns the match instruction data size for n makers.
func MatchDataLen(n int) int { return makerBaseOffset + n*MakerEntryLen }

// MakerOffsets returns where maker i's message, pubkey, and signature live
// inside the match instruction data, for cross-referenced verification.
func MakerOffsets(i int) TripleOffsets {
	base := makerBaseOffset + i*MakerEntryLen
	return TripleOffsets{
		Message:   uint16(base),
		Pubkey:    uint16(base + order.HashLen + 4),
		Signature: uint16(base + order.HashLen + order.CompactOrderLen),
	}
}

// TakerOffsets returns where the taker's message, pubkey, and signature
// live inside the match instruction data.
func TakerOffsets() TripleOffsets {
	return TripleOffsets{
		Message:   TakerMessageOffset,
		Pubkey:    TakerPubkeyOffset,
		Signature: TakerSignatureOffset,
	}
}

// Structural and economic rejection reasons. Every failure is reported
// before any instruction byte is assembled; no order is silently dropped.
var (
	ErrNoMakers       = errors.New("txbuild: at least one maker order required")
	ErrTooManyMakers  = errors.New("txbuild: more than 5 maker orders")
	ErrLengthMismatch = errors.New("txbuild: fill arrays must match maker orders")
	ErrBadBitmask     = errors.New("txbuild: bitmask sets a bit with no corresponding order")
	ErrBadSignature   = errors.New("txbuild: order signature does not verify")
	ErrExpired        = errors.New("txbuild: order is expired")
	ErrNoCross        = errors.New("txbuild: orders do not cross")
	ErrWrongMarket    = errors.New("txbuild: order market or mints differ from match parameters")
	ErrFillMismatch   = errors.New("txbuild: taker fill inconsistent with maker fill")
)

// MatchParams describes one settlement of a taker against 1..5 makers.
//
// FullFillBitmask is decided by the caller from external remaining-balance
// knowledge; the builder validates its shape but never computes it.
// Now is the unix time expiration is judged against.
type MatchParams struct {
	Operator  ledger.Pubkey
	Market    ledger.Pubkey
	BaseMint  ledger.Pubkey
	QuoteMint ledger.Pubkey

	Taker      order.Order
	Makers     []order.Order
	MakerFills []uint64
	TakerFills []uint64

	FullFillBitmask uint8
	Now             int64

	// InlineVerification selects inline verification instructions instead
	// of the default cross-referenced mode.
	InlineVerification bool
}

func (p *MatchParams) validate() error {
	n := len(p.Makers)
	if n == 0 {
		return ErrNoMakers
	}
	if n > MaxMakers {
		return fmt.Errorf("%w: got %d", ErrTooManyMakers, n)
	}
	if len(p.MakerFills) != n || len(p.TakerFills) != n {
		return fmt.Errorf("%w: %d makers, %d maker fills, %d taker fills",
			ErrLengthMismatch, n, len(p.MakerFills), len(p.TakerFills))
	}

	// Only bits 0..n-1 and the taker bit may be set.
	allowed := uint8(1<<TakerFullFillBit) | (uint8(1)<<n - 1)
	if p.FullFillBitmask&^allowed != 0 {
		return fmt.Errorf("%w: bitmask %#08b with %d makers", ErrBadBitmask, p.FullFillBitmask, n)
	}

	// Settlement accounts are derived from p.Market and the mints; they must
	// be the same identities the order data commits to.
	if p.Taker.Market != p.Market || p.Taker.BaseMint != p.BaseMint || p.Taker.QuoteMint != p.QuoteMint {
		return fmt.Errorf("%w: taker", ErrWrongMarket)
	}

	if !order.Verify(p.Taker) {
		return fmt.Errorf("%w: taker", ErrBadSignature)
	}
	if order.IsExpired(p.Taker, p.Now) {
		return fmt.Errorf("%w: taker", ErrExpired)
	}

	for i, m := range p.Makers {
		if m.Market != p.Market || m.BaseMint != p.BaseMint || m.QuoteMint != p.QuoteMint {
			return fmt.Errorf("%w: maker %d", ErrWrongMarket, i)
		}
		if !order.Verify(m) {
			return fmt.Errorf("%w: maker %d", ErrBadSignature, i)
		}
		if order.IsExpired(m, p.Now) {
			return fmt.Errorf("%w: maker %d", ErrExpired, i)
		}

		bid, ask := p.Taker, m
		if p.Taker.Side == order.Ask {
			bid, ask = m, p.Taker
		}
		if !order.CanCross(bid, ask) {
			return fmt.Errorf("%w: taker vs maker %d", ErrNoCross, i)
		}

		// Price consistency: the supplied taker fill must be exactly the
		// proportional amount the maker's declared ratio supports.
		want, err := order.TakerFill(m, p.MakerFills[i])
		if err != nil {
			return fmt.Errorf("txbuild: maker %d: %w", i, err)
		}
		if want != p.TakerFills[i] {
			return fmt.Errorf("%w: maker %d: want %d, got %d", ErrFillMismatch, i, want, p.TakerFills[i])
		}
	}
	return nil
}

// BuildMatchInstruction assembles the settlement instruction alone. The
// accounts each party needs are derived through the injected derive
// function; a set full-fill bit omits that party's fill-tracking account,
// which only exists for partially filled orders.
func BuildMatchInstruction(p MatchParams, programID ledger.Pubkey, derive ledger.Derive) (ledger.Instruction, error) {
	if err := p.validate(); err != nil {
		return ledger.Instruction{}, err
	}

	exchange, _ := derive(ledger.SeedExchange)
	takerHash := p.Taker.Hash()

	keys := make([]ledger.AccountMeta, 0, 13+5*len(p.Makers))
	keys = append(keys,
		ledger.SignerMut(p.Operator),
		ledger.Readonly(exchange),
		ledger.Readonly(p.Market),
	)
	keys = append(keys, partyAccounts(takerHash, p.Taker.Maker, p.Market, p.BaseMint, p.QuoteMint,
		p.FullFillBitmask&(1<<TakerFullFillBit) != 0, derive)...)
	keys = append(keys,
		ledger.Readonly(ledger.SystemProgramID),
		ledger.Readonly(ledger.InstructionsSysvarID),
	)
	for i, m := range p.Makers {
		hash := m.Hash()
		keys = append(keys, partyAccounts(hash, m.Maker, p.Market, p.BaseMint, p.QuoteMint,
			p.FullFillBitmask&(1<<i) != 0, derive)...)
	}

	data := make([]byte, 0, MatchDataLen(len(p.Makers)))
	data = append(data, byte(ledger.IxMatchOrders))
	data = append(data, takerHash[:]...)
	takerCompact := p.Taker.Compact().Encode()
	data = append(data, takerCompact[:]...)
	data = append(data, p.Taker.Signature[:]...)
	data = append(data, byte(len(p.Makers)), p.FullFillBitmask)

	for i, m := range p.Makers {
		hash := m.Hash()
		compact := m.Compact().Encode()
		data = append(data, hash[:]...)
		data = append(data, compact[:]...)
		data = append(data, m.Signature[:]...)
		data = appendUint64(data, p.MakerFills[i])
		data = appendUint64(data, p.TakerFills[i])
	}

	return ledger.Instruction{ProgramID: programID, Accounts: keys, Data: data}, nil
}

// partyAccounts derives one party's account set: fill tracking (partial
// fills only), nonce, position, and the two token accounts.
func partyAccounts(hash [order.HashLen]byte, owner, market, baseMint, quoteMint ledger.Pubkey,
	fullFill bool, derive ledger.Derive) []ledger.AccountMeta {

	out := make([]ledger.AccountMeta, 0, 5)
	if !fullFill {
		status, _ := derive(ledger.SeedOrderStatus, hash[:])
		out = append(out, ledger.Writable(status))
	}
	nonce, _ := derive(ledger.SeedUserNonce, owner[:])
	position, _ := derive(ledger.SeedPosition, owner[:], market[:])
	baseAcct, _ := derive(ledger.SeedTokenAccount, position[:], baseMint[:])
	quoteAcct, _ := derive(ledger.SeedTokenAccount, position[:], quoteMint[:])
	return append(out,
		ledger.Readonly(nonce),
		ledger.Writable(position),
		ledger.Writable(baseAcct),
		ledger.Writable(quoteAcct),
	)
}

func appendUint64(dst []byte, v uint64) []byte {
	return append(dst,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// BuildMatchTransaction composes the full settlement transaction: one
// verification instruction per signing party (taker first, then makers in
// the order supplied) followed by the match instruction. The settlement
// program locates each verification instruction by this fixed relative
// order and rejects anything else.
func BuildMatchTransaction(p MatchParams, programID ledger.Pubkey, derive ledger.Derive) (ledger.Transaction, error) {
	matchIx, err := BuildMatchInstruction(p, programID, derive)
	if err != nil {
		return ledger.Transaction{}, err
	}

	parties := 1 + len(p.Makers)
	instructions := make([]ledger.Instruction, 0, parties+1)

	if p.InlineVerification {
		instructions = append(instructions, SingleVerifyInstruction(VerifyOrder(p.Taker)))
		for _, m := range p.Makers {
			instructions = append(instructions, SingleVerifyInstruction(VerifyOrder(m)))
		}
	} else {
		// Cross-referenced: verification data lives in the match instruction,
		// which sits after all verification instructions.
		matchIndex := uint16(parties)
		offs := make([]TripleOffsets, 0, parties)
		offs = append(offs, TakerOffsets())
		for i := range p.Makers {
			offs = append(offs, MakerOffsets(i))
		}
		refIxs, err := CrossReferencedVerifyInstructions(matchIndex, offs)
		if err != nil {
			return ledger.Transaction{}, err
		}
		instructions = append(instructions, refIxs...)
	}

	instructions = append(instructions, matchIx)
	return ledger.Transaction{FeePayer: p.Operator, Instructions: instructions}, nil
}
