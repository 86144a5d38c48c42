package order

import (
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/aurora-markets/aurora/pkg/ledger"
)

// ConditionID derives a market's condition identifier from its oracle, the
// 32-byte question identifier, and the outcome count:
//
//	keccak256(oracle || questionID || numOutcomes)
//
// The same derivation runs inside the settlement program; markets decoded
// from the ledger carry the result (ledger.Market.ConditionID).
func ConditionID(oracle ledger.Pubkey, questionID [32]byte, numOutcomes uint8) [32]byte {
	var out [32]byte
	copy(out[:], crypto.Keccak256(oracle[:], questionID[:], []byte{numOutcomes}))
	return out
}
