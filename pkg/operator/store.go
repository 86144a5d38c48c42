// Package operator runs the off-chain matching operator: it accepts signed
// orders, persists them, plans matches, and assembles settlement
// transactions.
package operator

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/aurora-markets/aurora/pkg/ledger"
	"github.com/aurora-markets/aurora/pkg/order"
)

// Store persists signed orders in Pebble, keyed by order hash with a
// per-market secondary index.
//
// Key schema:
//
//	ord:<32-byte-hash>               → full 225-byte order encoding
//	mkt:<32-byte-market><32-byte-hash> → empty (index entry)
//	cxl:<32-byte-hash>               → empty (cancelled marker)
type Store struct {
	db *pebble.DB
}

const (
	prefixOrder     = "ord:"
	prefixMarket    = "mkt:"
	prefixCancelled = "cxl:"
)

// ErrOrderNotFound marks a lookup for a hash the store has never seen.
var ErrOrderNotFound = errors.New("operator: order not found")

func NewStore(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open order store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func orderKey(hash [order.HashLen]byte) []byte {
	return append([]byte(prefixOrder), hash[:]...)
}

func marketKey(market ledger.Pubkey, hash [order.HashLen]byte) []byte {
	key := make([]byte, 0, len(prefixMarket)+ledger.PubkeyLen+order.HashLen)
	key = append(key, prefixMarket...)
	key = append(key, market[:]...)
	return append(key, hash[:]...)
}

func marketPrefix(market ledger.Pubkey) []byte {
	return append([]byte(prefixMarket), market[:]...)
}

func cancelledKey(hash [order.HashLen]byte) []byte {
	return append([]byte(prefixCancelled), hash[:]...)
}

// keyUpperBound returns the exclusive upper bound for a prefix scan. The
// increment must carry over trailing 0xFF bytes: market pubkeys are raw
// bytes, so a prefix can end in any value. A nil bound (whole prefix 0xFF)
// means unbounded.
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	for i := len(bound) - 1; i >= 0; i-- {
		if bound[i] != 0xFF {
			bound[i]++
			return bound[:i+1]
		}
	}
	return nil
}

// SaveOrder persists a full order under its hash and indexes it by market.
// Re-saving the same order is idempotent.
func (s *Store) SaveOrder(o order.Order) error {
	hash := o.Hash()
	full := o.EncodeFull()

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(orderKey(hash), full[:], nil); err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	if err := batch.Set(marketKey(o.Market, hash), nil, nil); err != nil {
		return fmt.Errorf("index order: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

// GetOrder loads one order by hash.
func (s *Store) GetOrder(hash [order.HashLen]byte) (order.Order, error) {
	val, closer, err := s.db.Get(orderKey(hash))
	if err == pebble.ErrNotFound {
		return order.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("get order: %w", err)
	}
	defer closer.Close()
	return order.DecodeFull(val)
}

// DeleteOrder removes an order and its market index entry. Deleting an
// unknown hash is a no-op.
func (s *Store) DeleteOrder(hash [order.HashLen]byte) error {
	o, err := s.GetOrder(hash)
	if err == ErrOrderNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(orderKey(hash), nil); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if err := batch.Delete(marketKey(o.Market, hash), nil); err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// MarkCancelled records a hash as cancelled and drops the stored order.
func (s *Store) MarkCancelled(hash [order.HashLen]byte) error {
	if err := s.db.Set(cancelledKey(hash), nil, pebble.Sync); err != nil {
		return fmt.Errorf("mark cancelled: %w", err)
	}
	return s.DeleteOrder(hash)
}

// IsCancelled reports whether a hash was cancelled.
func (s *Store) IsCancelled(hash [order.HashLen]byte) (bool, error) {
	_, closer, err := s.db.Get(cancelledKey(hash))
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check cancelled: %w", err)
	}
	closer.Close()
	return true, nil
}

// OrdersByMarket loads every stored order for a market. Index entries whose
// order body is missing are skipped.
func (s *Store) OrdersByMarket(market ledger.Pubkey) ([]order.Order, error) {
	prefix := marketPrefix(market)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("scan market: %w", err)
	}
	defer iter.Close()

	var out []order.Order
	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		var hash [order.HashLen]byte
		copy(hash[:], key[len(key)-order.HashLen:])
		o, err := s.GetOrder(hash)
		if err != nil {
			continue
		}
		out = append(out, o)
	}
	return out, iter.Error()
}
