package instruction

import (
	"github.com/kaspanet/cinnabar/domain/calculator/operation"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
)

// BalanceAndSign returns the usual tail of a calculator run: balance the
// transaction with the signer's cells, send the change back to changeReceiver
// and sign everything the signer owns
func BalanceAndSign(signer operation.Signer, balancer skeleton.ScriptEx,
	changeReceiver operation.ChangeReceiver, additionalFeeRate uint64) *Instruction {

	return New(
		&operation.BalanceTransaction{
			Balancer:          balancer,
			ChangeReceiver:    changeReceiver,
			AdditionalFeeRate: additionalFeeRate,
		},
		&operation.AddSignatures{Signer: signer},
	)
}

// Balance is BalanceAndSign without the signature, for simulated runs whose
// inputs are locked by scripts that need none
func Balance(balancer skeleton.ScriptEx, changeReceiver operation.ChangeReceiver, additionalFeeRate uint64) *Instruction {
	return New(&operation.BalanceTransaction{
		Balancer:          balancer,
		ChangeReceiver:    changeReceiver,
		AdditionalFeeRate: additionalFeeRate,
	})
}
