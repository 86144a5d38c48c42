package order

import (
	"bytes"
	"errors"
	"testing"

	"github.com/aurora-markets/aurora/pkg/ledger"
)

func testOrder() Order {
	var maker, market, base, quote ledger.Pubkey
	for i := range maker {
		maker[i] = byte(i + 1)
		market[i] = byte(i + 100)
		base[i] = byte(i + 150)
		quote[i] = byte(i + 200)
	}
	return Order{
		Nonce:       0x0102030405060708,
		Maker:       maker,
		Market:      market,
		BaseMint:    base,
		QuoteMint:   quote,
		Side:        Bid,
		MakerAmount: 100,
		TakerAmount: 50,
		Expiration:  1700000000,
	}
}

func TestFullRoundTrip(t *testing.T) {
	o := testOrder()
	for i := range o.Signature {
		o.Signature[i] = byte(i)
	}
	o.Signature[0] = 1 // keep off the unsigned sentinel

	enc := o.EncodeFull()
	got, err := DecodeFull(enc[:])
	if err != nil {
		t.Fatalf("DecodeFull: %v", err)
	}
	if got != o {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, o)
	}
}

func TestFullLayout(t *testing.T) {
	o := testOrder()
	enc := o.EncodeFull()

	if len(enc) != FullOrderLen {
		t.Fatalf("encoded length %d, want %d", len(enc), FullOrderLen)
	}
	// nonce little-endian at [0..8)
	if enc[0] != 0x08 || enc[7] != 0x01 {
		t.Errorf("nonce bytes: % x", enc[0:8])
	}
	if !bytes.Equal(enc[8:40], o.Maker[:]) {
		t.Error("maker misplaced")
	}
	if !bytes.Equal(enc[40:72], o.Market[:]) {
		t.Error("market misplaced")
	}
	if enc[136] != byte(Bid) {
		t.Errorf("side byte %d", enc[136])
	}
	if enc[137] != 100 {
		t.Errorf("makerAmount low byte %d", enc[137])
	}
	if enc[145] != 50 {
		t.Errorf("takerAmount low byte %d", enc[145])
	}
}

func TestDecodeFullRejectsLength(t *testing.T) {
	for _, n := range []int{0, 1, FullOrderLen - 1, FullOrderLen + 1, 1000} {
		_, err := DecodeFull(make([]byte, n))
		var lenErr *LengthError
		if !errors.As(err, &lenErr) {
			t.Errorf("length %d: got %v, want LengthError", n, err)
		}
	}
}

func TestDecodeFullRejectsSide(t *testing.T) {
	o := testOrder()
	enc := o.EncodeFull()
	enc[136] = 2
	_, err := DecodeFull(enc[:])
	var sideErr *SideError
	if !errors.As(err, &sideErr) {
		t.Fatalf("got %v, want SideError", err)
	}
	if sideErr.Value != 2 {
		t.Errorf("SideError.Value = %d", sideErr.Value)
	}
}

func TestHashDeterministic(t *testing.T) {
	o := testOrder()
	if o.Hash() != o.Hash() {
		t.Fatal("hash not deterministic")
	}
}

func TestHashIgnoresSignature(t *testing.T) {
	o := testOrder()
	h1 := o.Hash()
	for i := range o.Signature {
		o.Signature[i] = 0xAA
	}
	if o.Hash() != h1 {
		t.Fatal("hash changed with signature")
	}
}

func TestHashSensitivity(t *testing.T) {
	base := testOrder()
	ref := base.Hash()

	mutations := map[string]func(*Order){
		"nonce":       func(o *Order) { o.Nonce++ },
		"maker":       func(o *Order) { o.Maker[0] ^= 1 },
		"market":      func(o *Order) { o.Market[31] ^= 1 },
		"baseMint":    func(o *Order) { o.BaseMint[0] ^= 1 },
		"quoteMint":   func(o *Order) { o.QuoteMint[0] ^= 1 },
		"side":        func(o *Order) { o.Side = Ask },
		"makerAmount": func(o *Order) { o.MakerAmount++ },
		"takerAmount": func(o *Order) { o.TakerAmount++ },
		"expiration":  func(o *Order) { o.Expiration++ },
	}
	for name, mutate := range mutations {
		o := base
		mutate(&o)
		if o.Hash() == ref {
			t.Errorf("hash unchanged after mutating %s", name)
		}
	}
}

func TestCompactTruncatesNonce(t *testing.T) {
	o := testOrder()
	o.Nonce = 0x1_0000_0005

	c := o.Compact()
	if c.Nonce32 != 5 {
		t.Fatalf("Nonce32 = %d, want 5", c.Nonce32)
	}

	enc := c.Encode()
	got, err := DecodeCompact(enc[:])
	if err != nil {
		t.Fatalf("DecodeCompact: %v", err)
	}
	if got != c {
		t.Fatalf("compact round trip mismatch:\n got %+v\nwant %+v", got, c)
	}
}

func TestCompactLayout(t *testing.T) {
	o := testOrder()
	enc := o.Compact().Encode()

	if len(enc) != CompactOrderLen {
		t.Fatalf("encoded length %d, want %d", len(enc), CompactOrderLen)
	}
	if enc[0] != 0x08 {
		t.Errorf("nonce32 low byte %d", enc[0])
	}
	if !bytes.Equal(enc[4:36], o.Maker[:]) {
		t.Error("maker misplaced")
	}
	if enc[36] != byte(Bid) {
		t.Errorf("side byte %d", enc[36])
	}
	if enc[37] != 100 || enc[45] != 50 {
		t.Error("amounts misplaced")
	}
	if !bytes.Equal(enc[61:65], []byte{0, 0, 0, 0}) {
		t.Error("padding not zero")
	}
}

func TestDecodeCompactRejects(t *testing.T) {
	if _, err := DecodeCompact(make([]byte, CompactOrderLen-1)); err == nil {
		t.Error("short input accepted")
	}
	bad := make([]byte, CompactOrderLen)
	bad[36] = 7
	var sideErr *SideError
	if _, err := DecodeCompact(bad); !errors.As(err, &sideErr) {
		t.Errorf("bad side: got %v, want SideError", err)
	}
}

func TestExpand(t *testing.T) {
	o := testOrder()
	c := o.Compact()

	got, err := c.Expand(o.Nonce, o.Market, o.BaseMint, o.QuoteMint, o.Signature)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if got != o {
		t.Fatalf("expand mismatch:\n got %+v\nwant %+v", got, o)
	}

	// High bits differ but low 32 match: accepted, caller's context wins.
	if _, err := c.Expand(o.Nonce+(1<<32), o.Market, o.BaseMint, o.QuoteMint, o.Signature); err != nil {
		t.Errorf("high-bit extension rejected: %v", err)
	}
	// Low 32 bits disagree: rejected.
	if _, err := c.Expand(o.Nonce+1, o.Market, o.BaseMint, o.QuoteMint, o.Signature); err == nil {
		t.Error("mismatched low nonce accepted")
	}
}
