package txbuild

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/aurora-markets/aurora/pkg/ledger"
	"github.com/aurora-markets/aurora/pkg/order"
)

func TestCancelOrderInstruction(t *testing.T) {
	o := signedTestOrder(t, 7, order.Bid, 100, 50)
	ix := CancelOrderInstruction(o, testProgramID, testDerive)

	if ix.ProgramID != testProgramID {
		t.Error("wrong program")
	}
	wantLen := 1 + order.HashLen + order.FullOrderLen
	if len(ix.Data) != wantLen {
		t.Fatalf("data length %d, want %d", len(ix.Data), wantLen)
	}
	if ix.Data[0] != byte(ledger.IxCancelOrder) {
		t.Errorf("discriminator %d", ix.Data[0])
	}

	hash := o.Hash()
	if !bytes.Equal(ix.Data[1:33], hash[:]) {
		t.Error("hash misplaced")
	}
	full := o.EncodeFull()
	if !bytes.Equal(ix.Data[33:], full[:]) {
		t.Error("full order misplaced")
	}

	if len(ix.Accounts) != 3 {
		t.Fatalf("account count %d", len(ix.Accounts))
	}
	if ix.Accounts[0].Pubkey != o.Maker || !ix.Accounts[0].IsSigner {
		t.Error("maker must sign the cancel")
	}
}

func TestIncrementNonceInstruction(t *testing.T) {
	owner := testOperator
	ix := IncrementNonceInstruction(owner, 42, testProgramID, testDerive)

	if len(ix.Data) != 9 {
		t.Fatalf("data length %d, want 9", len(ix.Data))
	}
	if ix.Data[0] != byte(ledger.IxIncrementNonce) {
		t.Errorf("discriminator %d", ix.Data[0])
	}
	if binary.LittleEndian.Uint64(ix.Data[1:9]) != 42 {
		t.Error("nonce misplaced")
	}
	if !ix.Accounts[0].IsSigner || ix.Accounts[0].Pubkey != owner {
		t.Error("owner must sign")
	}
}
