package order

import (
	"errors"
	"math/bits"
)

// Crossing and proportional-fill arithmetic. All comparisons run in 128-bit
// integer space; floating point never appears here.

var (
	// ErrZeroMakerAmount marks a proportional-fill request against an order
	// that declares nothing to give. Division by zero is a caller error, not
	// a defined result.
	ErrZeroMakerAmount = errors.New("order: maker amount is zero")

	// ErrFillExceedsOrder marks a fill larger than the order's declared
	// maker amount.
	ErrFillExceedsOrder = errors.New("order: fill exceeds maker amount")
)

// CanCross reports whether a bid and an ask are price-compatible on the
// same market and mint pair.
//
// The bid's implied price (quote per base) is bid.MakerAmount/bid.TakerAmount;
// the ask's is ask.TakerAmount/ask.MakerAmount. Crossing means bid price >=
// ask price, which cross-multiplies (both denominators positive) to
//
//	bid.MakerAmount * ask.MakerAmount >= bid.TakerAmount * ask.TakerAmount
//
// evaluated in 128 bits so no precision is lost. Equal prices cross.
// Expiration is not checked here; the caller owns "now".
func CanCross(bid, ask Order) bool {
	if bid.Side != Bid || ask.Side != Ask {
		return false
	}
	if bid.Market != ask.Market || bid.BaseMint != ask.BaseMint || bid.QuoteMint != ask.QuoteMint {
		return false
	}
	if bid.MakerAmount == 0 || bid.TakerAmount == 0 || ask.MakerAmount == 0 || ask.TakerAmount == 0 {
		return false
	}

	bidHi, bidLo := bits.Mul64(bid.MakerAmount, ask.MakerAmount)
	askHi, askLo := bits.Mul64(bid.TakerAmount, ask.TakerAmount)
	if bidHi != askHi {
		return bidHi > askHi
	}
	return bidLo >= askLo
}

// TakerFill returns the taker amount corresponding to a maker giving
// makerFillAmount of a maker order:
//
//	floor(makerFillAmount * TakerAmount / MakerAmount)
//
// Flooring is required: rounding up would promise the taker more than the
// maker's declared ratio supports. The fill must not exceed the order's
// maker amount, which also bounds the quotient below 2^64 so the 128-bit
// division is exact.
func TakerFill(maker Order, makerFillAmount uint64) (uint64, error) {
	if maker.MakerAmount == 0 {
		return 0, ErrZeroMakerAmount
	}
	if makerFillAmount > maker.MakerAmount {
		return 0, ErrFillExceedsOrder
	}
	hi, lo := bits.Mul64(makerFillAmount, maker.TakerAmount)
	quo, _ := bits.Div64(hi, lo, maker.MakerAmount)
	return quo, nil
}
