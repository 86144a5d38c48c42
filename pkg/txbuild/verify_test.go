package txbuild

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/aurora-markets/aurora/pkg/ledger"
)

func testParams(fill byte) VerifyParams {
	var p VerifyParams
	for i := range p.Pubkey {
		p.Pubkey[i] = fill
	}
	for i := range p.Message {
		p.Message[i] = fill + 1
	}
	for i := range p.Signature {
		p.Signature[i] = fill + 2
	}
	return p
}

func u16(data []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(data[off : off+2])
}

func TestNewVerifyParams(t *testing.T) {
	pub := make([]byte, 32)
	msg := make([]byte, 32)
	sig := make([]byte, 64)
	if _, err := NewVerifyParams(pub, msg, sig); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	if _, err := NewVerifyParams(pub[:31], msg, sig); err == nil {
		t.Error("short pubkey accepted")
	}
	if _, err := NewVerifyParams(pub, msg[:31], sig); err == nil {
		t.Error("short message accepted")
	}
	if _, err := NewVerifyParams(pub, msg, sig[:63]); err == nil {
		t.Error("short signature accepted")
	}
}

func TestSingleVerifyInstruction(t *testing.T) {
	p := testParams(10)
	ix := SingleVerifyInstruction(p)

	if ix.ProgramID != ledger.SigVerifyProgramID {
		t.Error("wrong program")
	}
	if len(ix.Accounts) != 0 {
		t.Error("verification instruction must carry no accounts")
	}
	if len(ix.Data) != SingleVerifyLen {
		t.Fatalf("data length %d, want %d", len(ix.Data), SingleVerifyLen)
	}
	if ix.Data[0] != 1 || ix.Data[1] != 0 {
		t.Errorf("header bytes % x", ix.Data[:2])
	}

	// Offset block: signature at 16, pubkey at 80, message at 112, all
	// pointing at this instruction.
	if u16(ix.Data, 2) != 16 || u16(ix.Data, 4) != 0xFFFF {
		t.Error("signature offset block wrong")
	}
	if u16(ix.Data, 6) != 80 || u16(ix.Data, 8) != 0xFFFF {
		t.Error("pubkey offset block wrong")
	}
	if u16(ix.Data, 10) != 112 || u16(ix.Data, 12) != 32 || u16(ix.Data, 14) != 0xFFFF {
		t.Error("message offset block wrong")
	}

	if !bytes.Equal(ix.Data[16:80], p.Signature[:]) {
		t.Error("signature misplaced")
	}
	if !bytes.Equal(ix.Data[80:112], p.Pubkey[:]) {
		t.Error("pubkey misplaced")
	}
	if !bytes.Equal(ix.Data[112:144], p.Message[:]) {
		t.Error("message misplaced")
	}
}

func TestBatchVerifyInstruction(t *testing.T) {
	params := []VerifyParams{testParams(1), testParams(50), testParams(99)}
	ix, err := BatchVerifyInstruction(params)
	if err != nil {
		t.Fatalf("BatchVerifyInstruction: %v", err)
	}

	wantLen := 2 + 3*14 + 3*128
	if len(ix.Data) != wantLen {
		t.Fatalf("data length %d, want %d", len(ix.Data), wantLen)
	}
	if ix.Data[0] != 3 {
		t.Errorf("count byte %d", ix.Data[0])
	}

	headerLen := 2 + 3*14
	for i, p := range params {
		entry := 2 + i*14
		triple := headerLen + i*128
		if got := u16(ix.Data, entry); int(got) != triple {
			t.Errorf("entry %d signature offset %d, want %d", i, got, triple)
		}
		if got := u16(ix.Data, entry+4); int(got) != triple+64 {
			t.Errorf("entry %d pubkey offset %d", i, got)
		}
		if got := u16(ix.Data, entry+8); int(got) != triple+96 {
			t.Errorf("entry %d message offset %d", i, got)
		}
		if !bytes.Equal(ix.Data[triple:triple+64], p.Signature[:]) {
			t.Errorf("entry %d signature misplaced", i)
		}
		if !bytes.Equal(ix.Data[triple+64:triple+96], p.Pubkey[:]) {
			t.Errorf("entry %d pubkey misplaced", i)
		}
		if !bytes.Equal(ix.Data[triple+96:triple+128], p.Message[:]) {
			t.Errorf("entry %d message misplaced", i)
		}
	}
}

func TestBatchVerifyErrors(t *testing.T) {
	if _, err := BatchVerifyInstruction(nil); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("empty batch: %v", err)
	}
	big := make([]VerifyParams, 256)
	if _, err := BatchVerifyInstruction(big); !errors.Is(err, ErrBatchTooLarge) {
		t.Errorf("oversized batch: %v", err)
	}
}

func TestCrossRefVerifyInstruction(t *testing.T) {
	off := TripleOffsets{Signature: 98, Pubkey: 37, Message: 1}
	ix := CrossRefVerifyInstruction(3, off)

	if len(ix.Data) != CrossRefVerifyLen {
		t.Fatalf("data length %d, want %d", len(ix.Data), CrossRefVerifyLen)
	}
	if ix.Data[0] != 1 {
		t.Errorf("count byte %d", ix.Data[0])
	}
	if u16(ix.Data, 2) != 98 || u16(ix.Data, 4) != 3 {
		t.Error("signature reference wrong")
	}
	if u16(ix.Data, 6) != 37 || u16(ix.Data, 8) != 3 {
		t.Error("pubkey reference wrong")
	}
	if u16(ix.Data, 10) != 1 || u16(ix.Data, 12) != 32 || u16(ix.Data, 14) != 3 {
		t.Error("message reference wrong")
	}
}

func TestCrossReferencedVerifyInstructions(t *testing.T) {
	offs := []TripleOffsets{TakerOffsets(), MakerOffsets(0), MakerOffsets(1)}
	ixs, err := CrossReferencedVerifyInstructions(3, offs)
	if err != nil {
		t.Fatal(err)
	}
	if len(ixs) != 3 {
		t.Fatalf("got %d instructions", len(ixs))
	}
	for i, ix := range ixs {
		if len(ix.Data) != CrossRefVerifyLen {
			t.Errorf("instruction %d length %d", i, len(ix.Data))
		}
	}
	if _, err := CrossReferencedVerifyInstructions(0, nil); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("empty: %v", err)
	}
}
