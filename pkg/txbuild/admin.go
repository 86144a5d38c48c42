package txbuild

import (
	"encoding/binary"

	"github.com/aurora-markets/aurora/pkg/ledger"
	"github.com/aurora-markets/aurora/pkg/order"
)

// CancelOrderInstruction builds the instruction that records an order hash
// as cancelled before any fill lands. Data: discriminator, order hash,
// full order encoding. The order owner signs the transaction; no off-chain
// signature check is needed because the ledger checks the transaction
// signature against the embedded maker.
func CancelOrderInstruction(o order.Order, programID ledger.Pubkey, derive ledger.Derive) ledger.Instruction {
	hash := o.Hash()
	full := o.EncodeFull()

	data := make([]byte, 0, 1+order.HashLen+order.FullOrderLen)
	data = append(data, byte(ledger.IxCancelOrder))
	data = append(data, hash[:]...)
	data = append(data, full[:]...)

	status, _ := derive(ledger.SeedOrderStatus, hash[:])
	return ledger.Instruction{
		ProgramID: programID,
		Accounts: []ledger.AccountMeta{
			ledger.SignerMut(o.Maker),
			ledger.Writable(status),
			ledger.Readonly(ledger.SystemProgramID),
		},
		Data: data,
	}
}

// IncrementNonceInstruction builds the instruction that bumps a user's
// minimum nonce, invalidating every outstanding order signed below the new
// value in one move.
func IncrementNonceInstruction(owner ledger.Pubkey, newMinNonce uint64, programID ledger.Pubkey, derive ledger.Derive) ledger.Instruction {
	data := make([]byte, 1+8)
	data[0] = byte(ledger.IxIncrementNonce)
	binary.LittleEndian.PutUint64(data[1:], newMinNonce)

	nonce, _ := derive(ledger.SeedUserNonce, owner[:])
	return ledger.Instruction{
		ProgramID: programID,
		Accounts: []ledger.AccountMeta{
			ledger.SignerMut(owner),
			ledger.Writable(nonce),
			ledger.Readonly(ledger.SystemProgramID),
		},
		Data: data,
	}
}
