// Package ledger holds the primitive types of the external settlement
// ledger: public identities, instructions, transactions, and the closed
// instruction discriminator space of the settlement program.
//
// The ledger itself (account state, submission, confirmation) lives outside
// this repository; everything here is the minimal vocabulary needed to
// assemble a transaction the settlement program will accept.
package ledger

import (
	"encoding/hex"
	"fmt"
)

// Pubkey is a raw 32-byte public identity. Identities are always encoded
// on the wire as their raw bytes, never in a human-readable form.
type Pubkey [32]byte

// PubkeyLen is the byte length of a public identity.
const PubkeyLen = 32

// Hex returns the lowercase hex encoding of the key.
func (p Pubkey) Hex() string { return hex.EncodeToString(p[:]) }

// Bytes returns a copy of the raw key bytes.
func (p Pubkey) Bytes() []byte {
	out := make([]byte, PubkeyLen)
	copy(out, p[:])
	return out
}

// IsZero reports whether the key is all zero.
func (p Pubkey) IsZero() bool { return p == Pubkey{} }

// PubkeyFromBytes converts a 32-byte slice into a Pubkey.
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	if len(b) != PubkeyLen {
		return Pubkey{}, fmt.Errorf("pubkey must be %d bytes, got %d", PubkeyLen, len(b))
	}
	var p Pubkey
	copy(p[:], b)
	return p, nil
}

// PubkeyFromHex parses a hex-encoded 32-byte public identity.
func PubkeyFromHex(s string) (Pubkey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Pubkey{}, fmt.Errorf("parse pubkey: %w", err)
	}
	return PubkeyFromBytes(b)
}

// MustPubkey parses a hex pubkey and panics on failure. For fixed
// well-known identities only.
func MustPubkey(s string) Pubkey {
	p, err := PubkeyFromHex(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Signature is a raw 64-byte signature. The all-zero value is the wire
// sentinel for "unsigned".
type Signature [64]byte

// SignatureLen is the byte length of a signature.
const SignatureLen = 64

// Hex returns the lowercase hex encoding of the signature.
func (s Signature) Hex() string { return hex.EncodeToString(s[:]) }

// IsZero reports whether the signature is the unsigned sentinel.
func (s Signature) IsZero() bool { return s == Signature{} }

// SignatureFromBytes converts a 64-byte slice into a Signature.
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) != SignatureLen {
		return Signature{}, fmt.Errorf("signature must be %d bytes, got %d", SignatureLen, len(b))
	}
	var s Signature
	copy(s[:], b)
	return s, nil
}

// AccountMeta declares how an instruction touches one account.
type AccountMeta struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
}

// SignerMut marks an account as signer and writable.
func SignerMut(p Pubkey) AccountMeta { return AccountMeta{Pubkey: p, IsSigner: true, IsWritable: true} }

// Writable marks an account as writable.
func Writable(p Pubkey) AccountMeta { return AccountMeta{Pubkey: p, IsWritable: true} }

// Readonly marks an account as read-only.
func Readonly(p Pubkey) AccountMeta { return AccountMeta{Pubkey: p} }

// Instruction is one program invocation inside a transaction.
type Instruction struct {
	ProgramID Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

// Transaction is an ordered list of instructions submitted atomically.
// Instruction order is significant: the settlement program locates the
// signature-verification instructions that precede it by relative index.
type Transaction struct {
	FeePayer     Pubkey
	Instructions []Instruction
}

// Derive is deterministic address derivation supplied by the ledger
// integration: pure hashing of fixed seeds to (address, bump). Consumed
// as an opaque collaborator; this repository never implements it.
type Derive func(seeds ...[]byte) (Pubkey, uint8)

// InstructionKind is the settlement program's instruction discriminator.
// The enumeration is closed and versioned; callers must not invent values.
type InstructionKind uint8

const (
	IxInitialize           InstructionKind = 0
	IxCreateMarket         InstructionKind = 1
	IxAddDepositMint       InstructionKind = 2
	IxMintCompleteSet      InstructionKind = 3
	IxMergeCompleteSet     InstructionKind = 4
	IxCancelOrder          InstructionKind = 5
	IxIncrementNonce       InstructionKind = 6
	IxSettleMarket         InstructionKind = 7
	IxRedeemWinnings       InstructionKind = 8
	IxSetPaused            InstructionKind = 9
	IxSetOperator          InstructionKind = 10
	IxWithdrawFromPosition InstructionKind = 11
	IxActivateMarket       InstructionKind = 12
	IxMatchOrders          InstructionKind = 13
)

// Well-known program identities on the external ledger.
var (
	// SigVerifyProgramID is the native signature-verification program. Its
	// instructions carry no account references; the settlement program reads
	// their results through the instructions sysvar.
	SigVerifyProgramID = MustPubkey("03eacd2d3e2044e7c1ec9d3b5de77d561f1ba48e8c2a3a5dba67e5ea1acc0000")

	// SystemProgramID creates and funds ledger accounts.
	SystemProgramID = Pubkey{}

	// InstructionsSysvarID exposes the transaction's own instruction list to
	// the executing program (used to locate verification instructions).
	InstructionsSysvarID = MustPubkey("06a7d517187bd16635dad40455fdc2c0c124c68f215675a5dbbacb5f08000000")
)

// PDA seed tags used by the settlement program. Passed to an injected
// Derive by callers that need the corresponding account addresses.
var (
	SeedExchange    = []byte("central_state")
	SeedMarket      = []byte("market")
	SeedOrderStatus = []byte("order_status")
	SeedUserNonce   = []byte("user_nonce")
	SeedPosition    = []byte("position")
	SeedVault       = []byte("market_deposit_token_account")

	// SeedTokenAccount derives a position's per-mint token account.
	SeedTokenAccount = []byte("token_account")
)
