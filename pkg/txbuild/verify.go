// Package txbuild assembles settlement transactions: native
// signature-verification instructions plus the match instruction that
// settles a taker against up to five makers atomically.
package txbuild

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/aurora-markets/aurora/pkg/ledger"
	"github.com/aurora-markets/aurora/pkg/order"
)

// Signature-verification instruction wire format. The payload is
// self-describing: a header declares how many (signature, pubkey, message)
// triples follow and where each component lives — either inline in this
// instruction or at an offset inside another instruction of the same
// transaction. The external verifier rejects any instruction whose declared
// offsets disagree with the actual payload length, so every size here is
// exact.
const (
	// verifyBaseHeaderLen is the count byte plus padding byte.
	verifyBaseHeaderLen = 2
	// verifyEntryHeaderLen is one entry's offset block: signature offset +
	// instruction index, pubkey offset + instruction index, message offset +
	// size + instruction index, all u16 little-endian.
	verifyEntryHeaderLen = 14
	// verifyTripleLen is one inline triple: signature(64) pubkey(32) message(32).
	verifyTripleLen = ledger.SignatureLen + ledger.PubkeyLen + order.HashLen

	// SingleVerifyLen is the payload size of a one-signature inline
	// instruction: 16-byte header + one triple.
	SingleVerifyLen = verifyBaseHeaderLen + verifyEntryHeaderLen + verifyTripleLen

	// CrossRefVerifyLen is the payload size of a one-signature
	// cross-referenced instruction: header only, no inline data.
	CrossRefVerifyLen = verifyBaseHeaderLen + verifyEntryHeaderLen

	// sameInstruction in an instruction-index slot means the offset points
	// into this instruction's own payload.
	sameInstruction = 0xFFFF

	// maxBatchVerify keeps every declared offset within u16 range.
	maxBatchVerify = 255
)

var (
	// ErrEmptyBatch marks a batch verification request with no entries.
	ErrEmptyBatch = errors.New("txbuild: batch requires at least one signature")
	// ErrBatchTooLarge marks a batch whose offsets would overflow the header.
	ErrBatchTooLarge = errors.New("txbuild: too many signatures in batch")
)

// VerifyParams is one (pubkey, message, signature) triple for the native
// signature-verification program.
type VerifyParams struct {
	Pubkey    ledger.Pubkey
	Message   [order.HashLen]byte
	Signature ledger.Signature
}

// NewVerifyParams validates raw component lengths before any instruction
// byte is written. Components of the wrong size are caller input errors.
func NewVerifyParams(pubkey, message, signature []byte) (VerifyParams, error) {
	var p VerifyParams
	pk, err := ledger.PubkeyFromBytes(pubkey)
	if err != nil {
		return VerifyParams{}, fmt.Errorf("txbuild: %w", err)
	}
	if len(message) != order.HashLen {
		return VerifyParams{}, fmt.Errorf("txbuild: message must be %d bytes, got %d", order.HashLen, len(message))
	}
	sig, err := ledger.SignatureFromBytes(signature)
	if err != nil {
		return VerifyParams{}, fmt.Errorf("txbuild: %w", err)
	}
	p.Pubkey = pk
	copy(p.Message[:], message)
	p.Signature = sig
	return p, nil
}

// VerifyOrder derives verification parameters from a signed order: the
// maker identity, the order hash as message, and the attached signature.
func VerifyOrder(o order.Order) VerifyParams {
	return VerifyParams{
		Pubkey:    o.Maker,
		Message:   o.Hash(),
		Signature: o.Signature,
	}
}

// putEntryHeader writes one 14-byte offset block at dst.
func putEntryHeader(dst []byte, sigOff, sigIx, pubOff, pubIx, msgOff, msgSize, msgIx uint16) {
	binary.LittleEndian.PutUint16(dst[0:2], sigOff)
	binary.LittleEndian.PutUint16(dst[2:4], sigIx)
	binary.LittleEndian.PutUint16(dst[4:6], pubOff)
	binary.LittleEndian.PutUint16(dst[6:8], pubIx)
	binary.LittleEndian.PutUint16(dst[8:10], msgOff)
	binary.LittleEndian.PutUint16(dst[10:12], msgSize)
	binary.LittleEndian.PutUint16(dst[12:14], msgIx)
}

// SingleVerifyInstruction builds a one-signature inline verification
// instruction (144-byte payload, no account references).
func SingleVerifyInstruction(p VerifyParams) ledger.Instruction {
	data := make([]byte, SingleVerifyLen)
	data[0] = 1
	data[1] = 0

	const (
		sigOff = verifyBaseHeaderLen + verifyEntryHeaderLen
		pubOff = sigOff + ledger.SignatureLen
		msgOff = pubOff + ledger.PubkeyLen
	)
	putEntryHeader(data[2:16], sigOff, sameInstruction, pubOff, sameInstruction, msgOff, order.HashLen, sameInstruction)

	copy(data[sigOff:pubOff], p.Signature[:])
	copy(data[pubOff:msgOff], p.Pubkey[:])
	copy(data[msgOff:], p.Message[:])

	return ledger.Instruction{ProgramID: ledger.SigVerifyProgramID, Data: data}
}

// BatchVerifyInstruction builds one instruction verifying every supplied
// triple. Payload: 2 + 14n header bytes, then n inline 128-byte triples.
func BatchVerifyInstruction(params []VerifyParams) (ledger.Instruction, error) {
	n := len(params)
	if n == 0 {
		return ledger.Instruction{}, ErrEmptyBatch
	}
	if n > maxBatchVerify {
		return ledger.Instruction{}, ErrBatchTooLarge
	}

	headerLen := verifyBaseHeaderLen + n*verifyEntryHeaderLen
	data := make([]byte, headerLen+n*verifyTripleLen)
	data[0] = byte(n)
	data[1] = 0

	for i, p := range params {
		tripleOff := headerLen + i*verifyTripleLen
		sigOff := uint16(tripleOff)
		pubOff := sigOff + ledger.SignatureLen
		msgOff := pubOff + ledger.PubkeyLen

		entry := data[verifyBaseHeaderLen+i*verifyEntryHeaderLen:]
		putEntryHeader(entry, sigOff, sameInstruction, pubOff, sameInstruction, msgOff, order.HashLen, sameInstruction)

		copy(data[tripleOff:], p.Signature[:])
		copy(data[tripleOff+ledger.SignatureLen:], p.Pubkey[:])
		copy(data[tripleOff+ledger.SignatureLen+ledger.PubkeyLen:], p.Message[:])
	}

	return ledger.Instruction{ProgramID: ledger.SigVerifyProgramID, Data: data}, nil
}

// TripleOffsets locates one party's signature, pubkey, and message inside
// another instruction's payload.
type TripleOffsets struct {
	Signature uint16
	Pubkey    uint16
	Message   uint16
}

// CrossRefVerifyInstruction builds a one-signature verification
// instruction whose data lives inside the instruction at targetIx of the
// same transaction. Only the 16-byte header is carried, saving one inline
// triple per party.
func CrossRefVerifyInstruction(targetIx uint16, off TripleOffsets) ledger.Instruction {
	data := make([]byte, CrossRefVerifyLen)
	data[0] = 1
	data[1] = 0
	putEntryHeader(data[2:16], off.Signature, targetIx, off.Pubkey, targetIx, off.Message, order.HashLen, targetIx)
	return ledger.Instruction{ProgramID: ledger.SigVerifyProgramID, Data: data}
}

// CrossReferencedVerifyInstructions builds one cross-referenced
// verification instruction per offset triple, all pointing into the
// instruction at targetIx.
func CrossReferencedVerifyInstructions(targetIx uint16, offs []TripleOffsets) ([]ledger.Instruction, error) {
	if len(offs) == 0 {
		return nil, ErrEmptyBatch
	}
	out := make([]ledger.Instruction, 0, len(offs))
	for _, off := range offs {
		out = append(out, CrossRefVerifyInstruction(targetIx, off))
	}
	return out, nil
}
