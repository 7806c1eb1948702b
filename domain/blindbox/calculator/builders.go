package calculator

import (
	"github.com/kaspanet/cinnabar/domain/blindbox/contract"
	"github.com/kaspanet/cinnabar/domain/calculator/instruction"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
	"github.com/kaspanet/cinnabar/infrastructure/deployment"
)

// LoadRecord returns the deployment record of the blind box contract on
// network. An empty version selects the latest deployment.
func LoadRecord(store *deployment.Store, network, version string) (*deployment.Record, error) {
	return store.Find(network, contract.Name, version)
}

// BuildPurchaseBlindBox returns the part of a purchase transaction specific to
// blind boxes. The caller funds it, typically with instruction.BalanceAndSign
// over the buyer's cells.
//
//	cell deps: blind box contract
//	outputs:   purchase cell (lock: server, type: blind box, capacity: price × count)
func BuildPurchaseBlindBox(record *deployment.Record, purchaseCount uint8,
	buyer, server skeleton.ScriptEx, series *Series) *instruction.Instruction {

	return instruction.New(
		&AddBlindBoxCellDep{Record: record},
		&AddBlindBoxOutputCell{
			Server:        server,
			Buyer:         buyer,
			PurchaseCount: purchaseCount,
			Series:        series,
		},
	)
}

// BuildOpenBlindBox returns the part of an open transaction specific to blind
// boxes. The caller funds it, typically with instruction.BalanceAndSign over
// the server's cells.
//
//	cell deps: blind box contract
//	inputs:    purchase cell
//	outputs:   one series cell per purchased box (lock: buyer)
func BuildOpenBlindBox(record *deployment.Record, server skeleton.ScriptEx, series *Series) *instruction.Instruction {
	return instruction.New(
		&AddBlindBoxCellDep{Record: record},
		&AddBlindBoxPurchaseInputCell{Server: server, Series: series},
		&AddBlindBoxOutputCellsBySeries{Series: series},
	)
}
