package order

import (
	"testing"

	"github.com/cloudflare/circl/sign/ed25519"
)

func testKey(seed byte) ed25519.PrivateKey {
	s := make([]byte, ed25519.SeedSize)
	for i := range s {
		s[i] = seed
	}
	return ed25519.NewKeyFromSeed(s)
}

func TestSignAndVerify(t *testing.T) {
	priv := testKey(1)
	signed, err := SignAndAttach(testOrder(), priv)
	if err != nil {
		t.Fatalf("SignAndAttach: %v", err)
	}
	if !signed.Signed() {
		t.Fatal("signature not attached")
	}
	if !Verify(signed) {
		t.Fatal("signature did not verify")
	}
}

func TestSignAndAttachForcesMaker(t *testing.T) {
	priv := testKey(2)
	o := testOrder() // carries an unrelated maker
	signed, err := SignAndAttach(o, priv)
	if err != nil {
		t.Fatalf("SignAndAttach: %v", err)
	}
	pub := priv.Public().(ed25519.PublicKey)
	if string(signed.Maker[:]) != string(pub) {
		t.Fatal("maker not replaced with signing key")
	}
}

func TestVerifyUnsignedSentinel(t *testing.T) {
	o := testOrder() // zero signature
	if Verify(o) {
		t.Fatal("unsigned order verified")
	}
}

func TestVerifyZeroMaker(t *testing.T) {
	priv := testKey(3)
	signed, err := SignAndAttach(testOrder(), priv)
	if err != nil {
		t.Fatal(err)
	}
	signed.Maker = [32]byte{}
	if Verify(signed) {
		t.Fatal("zero-maker order verified")
	}
}

func TestVerifyWrongKey(t *testing.T) {
	signed, err := SignAndAttach(testOrder(), testKey(4))
	if err != nil {
		t.Fatal(err)
	}
	other := testKey(5).Public().(ed25519.PublicKey)
	copy(signed.Maker[:], other)
	if Verify(signed) {
		t.Fatal("signature verified against wrong key")
	}
}

func TestVerifyRejectsMutation(t *testing.T) {
	signed, err := SignAndAttach(testOrder(), testKey(6))
	if err != nil {
		t.Fatal(err)
	}
	cases := map[string]func(*Order){
		"nonce":       func(o *Order) { o.Nonce++ },
		"makerAmount": func(o *Order) { o.MakerAmount++ },
		"side":        func(o *Order) { o.Side = Ask },
		"signature":   func(o *Order) { o.Signature[10] ^= 1 },
	}
	for name, mutate := range cases {
		o := signed
		mutate(&o)
		if Verify(o) {
			t.Errorf("verified after mutating %s", name)
		}
	}
}

func TestSignRejectsShortKey(t *testing.T) {
	if _, err := Sign(testOrder(), make([]byte, 31)); err == nil {
		t.Fatal("short key accepted")
	}
	if _, err := SignAndAttach(testOrder(), nil); err == nil {
		t.Fatal("nil key accepted")
	}
}

func TestIsExpired(t *testing.T) {
	cases := []struct {
		name       string
		expiration uint64
		now        int64
		want       bool
	}{
		{"zero never expires", 0, 1 << 60, false},
		{"before expiry", 1000, 999, false},
		{"at expiry", 1000, 1000, true},
		{"after expiry", 1000, 1001, true},
		{"negative now", 1000, -5, false},
	}
	for _, tc := range cases {
		o := testOrder()
		o.Expiration = tc.expiration
		if got := IsExpired(o, tc.now); got != tc.want {
			t.Errorf("%s: IsExpired = %v, want %v", tc.name, got, tc.want)
		}
	}
}
