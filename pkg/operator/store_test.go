package operator

import (
	"errors"
	"testing"

	"github.com/cloudflare/circl/sign/ed25519"

	"github.com/aurora-markets/aurora/pkg/ledger"
	"github.com/aurora-markets/aurora/pkg/order"
)

var (
	storeMarket = ledger.MustPubkey("0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a")
	storeBase   = ledger.MustPubkey("0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b")
	storeQuote  = ledger.MustPubkey("0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c")
)

func storedOrder(t *testing.T, seed byte, side order.Side, makerAmount, takerAmount, expiration uint64) order.Order {
	t.Helper()
	s := make([]byte, ed25519.SeedSize)
	for i := range s {
		s[i] = seed
	}
	priv := ed25519.NewKeyFromSeed(s)

	params := order.Params{
		Nonce:       uint64(seed),
		Market:      storeMarket,
		BaseMint:    storeBase,
		QuoteMint:   storeQuote,
		MakerAmount: makerAmount,
		TakerAmount: takerAmount,
		Expiration:  expiration,
	}
	var o order.Order
	if side == order.Bid {
		o = order.NewBid(params)
	} else {
		o = order.NewAsk(params)
	}
	signed, err := order.SignAndAttach(o, priv)
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	o := storedOrder(t, 1, order.Bid, 100, 50, 0)
	hash := o.Hash()

	if err := store.SaveOrder(o); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}
	got, err := store.GetOrder(hash)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got != o {
		t.Fatal("round trip mismatch")
	}

	// Idempotent resave.
	if err := store.SaveOrder(o); err != nil {
		t.Fatalf("resave: %v", err)
	}
}

func TestStoreNotFound(t *testing.T) {
	store := newTestStore(t)
	var hash [order.HashLen]byte
	hash[0] = 9
	if _, err := store.GetOrder(hash); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("got %v, want ErrOrderNotFound", err)
	}
}

func TestStoreMarketIndex(t *testing.T) {
	store := newTestStore(t)
	o1 := storedOrder(t, 1, order.Bid, 100, 50, 0)
	o2 := storedOrder(t, 2, order.Ask, 50, 90, 0)
	for _, o := range []order.Order{o1, o2} {
		if err := store.SaveOrder(o); err != nil {
			t.Fatal(err)
		}
	}

	orders, err := store.OrdersByMarket(storeMarket)
	if err != nil {
		t.Fatalf("OrdersByMarket: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("got %d orders, want 2", len(orders))
	}

	other := ledger.MustPubkey("0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d0d")
	orders, err = store.OrdersByMarket(other)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 0 {
		t.Fatalf("foreign market returned %d orders", len(orders))
	}
}

func TestStoreMarketIndexHighByteMarket(t *testing.T) {
	store := newTestStore(t)

	// A market pubkey ending in 0xFF must not break the index scan bound.
	o := storedOrder(t, 1, order.Bid, 100, 50, 0)
	for i := range o.Market {
		o.Market[i] = 0xFF
	}
	if err := store.SaveOrder(o); err != nil {
		t.Fatal(err)
	}

	orders, err := store.OrdersByMarket(o.Market)
	if err != nil {
		t.Fatalf("OrdersByMarket: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("got %d orders, want 1", len(orders))
	}
	if orders[0] != o {
		t.Fatal("wrong order returned")
	}
}

func TestKeyUpperBound(t *testing.T) {
	cases := []struct {
		prefix, want []byte
	}{
		{[]byte{0x01, 0x02}, []byte{0x01, 0x03}},
		{[]byte{0x01, 0xFF}, []byte{0x02}},
		{[]byte{0x01, 0xFF, 0xFF}, []byte{0x02}},
		{[]byte{0xFF, 0xFF}, nil},
	}
	for _, tc := range cases {
		got := keyUpperBound(tc.prefix)
		if string(got) != string(tc.want) {
			t.Errorf("keyUpperBound(% x) = % x, want % x", tc.prefix, got, tc.want)
		}
	}
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)
	o := storedOrder(t, 1, order.Bid, 100, 50, 0)
	hash := o.Hash()
	if err := store.SaveOrder(o); err != nil {
		t.Fatal(err)
	}

	if err := store.DeleteOrder(hash); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	if _, err := store.GetOrder(hash); !errors.Is(err, ErrOrderNotFound) {
		t.Fatal("order still present after delete")
	}
	orders, err := store.OrdersByMarket(storeMarket)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 0 {
		t.Fatal("index entry survived delete")
	}

	// Deleting again is a no-op.
	if err := store.DeleteOrder(hash); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestStoreCancelled(t *testing.T) {
	store := newTestStore(t)
	o := storedOrder(t, 1, order.Bid, 100, 50, 0)
	hash := o.Hash()
	if err := store.SaveOrder(o); err != nil {
		t.Fatal(err)
	}

	cancelled, err := store.IsCancelled(hash)
	if err != nil || cancelled {
		t.Fatalf("fresh order cancelled=%v err=%v", cancelled, err)
	}
	if err := store.MarkCancelled(hash); err != nil {
		t.Fatalf("MarkCancelled: %v", err)
	}
	cancelled, err = store.IsCancelled(hash)
	if err != nil || !cancelled {
		t.Fatalf("after cancel: cancelled=%v err=%v", cancelled, err)
	}
	if _, err := store.GetOrder(hash); !errors.Is(err, ErrOrderNotFound) {
		t.Fatal("cancelled order still stored")
	}
}
