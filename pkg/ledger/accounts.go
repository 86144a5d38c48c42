package ledger

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// On-ledger account layouts. Fixed sizes, little-endian integers, an 8-byte
// discriminator up front. Decoding is the only direction this SDK needs;
// the settlement program owns the writes.

const (
	ExchangeAccountLen    = 88
	MarketAccountLen      = 120
	PositionAccountLen    = 80
	OrderStatusAccountLen = 24
	UserNonceAccountLen   = 16
)

// Account discriminators (8 bytes each).
var (
	ExchangeDiscriminator    = [8]byte{'e', 'x', 'c', 'h', 'a', 'n', 'g', 'e'}
	MarketDiscriminator      = [8]byte{'m', 'a', 'r', 'k', 'e', 't', 0, 0}
	OrderStatusDiscriminator = [8]byte{'o', 'r', 'd', 's', 't', 'a', 't', 0}
	UserNonceDiscriminator   = [8]byte{'u', 's', 'r', 'n', 'o', 'n', 'c', 'e'}
	PositionDiscriminator    = [8]byte{'p', 'o', 's', 'i', 't', 'i', 'o', 'n'}
)

// AccountError reports a malformed account buffer.
type AccountError struct {
	Kind   string
	Reason string
}

func (e *AccountError) Error() string {
	return fmt.Sprintf("ledger: bad %s account: %s", e.Kind, e.Reason)
}

func checkAccount(kind string, data []byte, wantLen int, disc [8]byte) error {
	if len(data) != wantLen {
		return &AccountError{Kind: kind, Reason: fmt.Sprintf("length %d, want %d", len(data), wantLen)}
	}
	if !bytes.Equal(data[:8], disc[:]) {
		return &AccountError{Kind: kind, Reason: fmt.Sprintf("discriminator %x", data[:8])}
	}
	return nil
}

func readPubkey(data []byte, off int) Pubkey {
	var p Pubkey
	copy(p[:], data[off:off+32])
	return p
}

// Exchange is the singleton exchange state account.
//
// Layout (88 bytes): disc(8) authority(32) operator(32) marketCount(8)
// paused(1) bump(1) pad(6).
type Exchange struct {
	Authority   Pubkey
	Operator    Pubkey
	MarketCount uint64
	Paused      bool
	Bump        uint8
}

// DecodeExchange parses an exchange account.
func DecodeExchange(data []byte) (Exchange, error) {
	if err := checkAccount("exchange", data, ExchangeAccountLen, ExchangeDiscriminator); err != nil {
		return Exchange{}, err
	}
	return Exchange{
		Authority:   readPubkey(data, 8),
		Operator:    readPubkey(data, 40),
		MarketCount: binary.LittleEndian.Uint64(data[72:80]),
		Paused:      data[80] != 0,
		Bump:        data[81],
	}, nil
}

// MarketStatus is the lifecycle state of a market.
type MarketStatus uint8

const (
	MarketPending MarketStatus = 0
	MarketActive  MarketStatus = 1
	MarketSettled MarketStatus = 2
)

func (s MarketStatus) String() string {
	switch s {
	case MarketPending:
		return "pending"
	case MarketActive:
		return "active"
	case MarketSettled:
		return "settled"
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

// Market is one market account.
//
// Layout (120 bytes): disc(8) marketID(8) numOutcomes(1) status(1)
// winningOutcome(1) hasWinningOutcome(1) bump(1) pad(3) oracle(32)
// questionID(32) conditionID(32).
type Market struct {
	MarketID          uint64
	NumOutcomes       uint8
	Status            MarketStatus
	WinningOutcome    uint8
	HasWinningOutcome bool
	Bump              uint8
	Oracle            Pubkey
	QuestionID        [32]byte
	ConditionID       [32]byte
}

// DecodeMarket parses a market account.
func DecodeMarket(data []byte) (Market, error) {
	if err := checkAccount("market", data, MarketAccountLen, MarketDiscriminator); err != nil {
		return Market{}, err
	}
	m := Market{
		MarketID:          binary.LittleEndian.Uint64(data[8:16]),
		NumOutcomes:       data[16],
		Status:            MarketStatus(data[17]),
		WinningOutcome:    data[18],
		HasWinningOutcome: data[19] != 0,
		Bump:              data[20],
		Oracle:            readPubkey(data, 24),
	}
	copy(m.QuestionID[:], data[56:88])
	copy(m.ConditionID[:], data[88:120])
	if m.Status > MarketSettled {
		return Market{}, &AccountError{Kind: "market", Reason: fmt.Sprintf("status %d", data[17])}
	}
	return m, nil
}

// Position is a user's custody account for a market.
//
// Layout (80 bytes): disc(8) owner(32) market(32) bump(1) pad(7).
type Position struct {
	Owner  Pubkey
	Market Pubkey
	Bump   uint8
}

// DecodePosition parses a position account.
func DecodePosition(data []byte) (Position, error) {
	if err := checkAccount("position", data, PositionAccountLen, PositionDiscriminator); err != nil {
		return Position{}, err
	}
	return Position{
		Owner:  readPubkey(data, 8),
		Market: readPubkey(data, 40),
		Bump:   data[72],
	}, nil
}

// OrderStatus tracks partial fills and cancellation for one order hash.
// A fully filled order's status account is closed by the settlement
// program, so absence of this account is itself a signal.
//
// Layout (24 bytes): disc(8) remaining(8) isCancelled(1) pad(7).
type OrderStatus struct {
	Remaining   uint64
	IsCancelled bool
}

// DecodeOrderStatus parses an order status account.
func DecodeOrderStatus(data []byte) (OrderStatus, error) {
	if err := checkAccount("order status", data, OrderStatusAccountLen, OrderStatusDiscriminator); err != nil {
		return OrderStatus{}, err
	}
	return OrderStatus{
		Remaining:   binary.LittleEndian.Uint64(data[8:16]),
		IsCancelled: data[16] != 0,
	}, nil
}

// UserNonce is a maker's current replay-protection counter. Orders with a
// nonce below this value are dead.
//
// Layout (16 bytes): disc(8) nonce(8).
type UserNonce struct {
	Nonce uint64
}

// DecodeUserNonce parses a user nonce account.
func DecodeUserNonce(data []byte) (UserNonce, error) {
	if err := checkAccount("user nonce", data, UserNonceAccountLen, UserNonceDiscriminator); err != nil {
		return UserNonce{}, err
	}
	return UserNonce{Nonce: binary.LittleEndian.Uint64(data[8:16])}, nil
}
