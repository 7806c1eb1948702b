package operation

import (
	"context"

	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
	"github.com/kaspanet/cinnabar/domain/contracts/alwayssuccess"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/pkg/errors"
)

// Secp256k1SighashName is the cell dep name of the secp256k1 sighash-all dep group
const Secp256k1SighashName = "secp256k1_sighash_all"

// AddCellDep adds the live cell at (TxHash, Index) as a cell dep called Name.
// Adding the same out point and dep type twice is a no-op.
type AddCellDep struct {
	Name     string
	TxHash   externalapi.DomainHash
	Index    uint32
	DepType  externalapi.DepType
	WithData bool
}

// Run implements Operation
func (op *AddCellDep) Run(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error {
	outPoint := externalapi.OutPoint{TxHash: op.TxHash, Index: op.Index}
	cell, err := chainState.GetLiveCell(ctx, outPoint, op.WithData)
	if err != nil {
		return errors.Wrapf(err, "cell dep %s at %s", op.Name, outPoint)
	}
	added := s.AddCellDep(&skeleton.CellDepEx{
		Name:    op.Name,
		CellDep: &externalapi.CellDep{OutPoint: outPoint, DepType: op.DepType},
		Output:  &skeleton.CellOutputEx{Output: cell.Output, Data: cell.Data},
	})
	if !added {
		log.Debugf("Cell dep %s at %s is already present", op.Name, outPoint)
	}
	return nil
}

// AddSecp256k1SighashCellDep adds the secp256k1 sighash-all dep group of the network
type AddSecp256k1SighashCellDep struct{}

// Run implements Operation
func (op *AddSecp256k1SighashCellDep) Run(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error {
	depGroup := chainState.Params().Secp256k1DepGroup
	addCellDep := &AddCellDep{
		Name:     Secp256k1SighashName,
		TxHash:   depGroup.TxHash,
		Index:    depGroup.Index,
		DepType:  externalapi.DepTypeDepGroup,
		WithData: true,
	}
	return addCellDep.Run(ctx, chainState, s)
}

// AddAlwaysSuccessCellDep adds the always-success contract of a simulated chain state
// as a cell dep called alwayssuccess.Name
type AddAlwaysSuccessCellDep struct{}

// Run implements Operation
func (op *AddAlwaysSuccessCellDep) Run(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error {
	simulator, err := rpc.AsSimulator(chainState)
	if err != nil {
		return err
	}
	cell := simulator.AlwaysSuccessCell()
	s.AddCellDep(&skeleton.CellDepEx{
		Name:    alwayssuccess.Name,
		CellDep: &externalapi.CellDep{OutPoint: cell.OutPoint, DepType: externalapi.DepTypeCode},
		Output:  &skeleton.CellOutputEx{Output: cell.Output, Data: cell.Data},
	})
	return nil
}

// AddFakeContractCellDepByName deploys Contract on a simulated chain state, if it
// isn't deployed yet, and adds its code cell as a cell dep called Contract
type AddFakeContractCellDepByName struct {
	Contract   string
	WithTypeID bool
}

// Run implements Operation
func (op *AddFakeContractCellDepByName) Run(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error {
	simulator, err := rpc.AsSimulator(chainState)
	if err != nil {
		return err
	}
	cell, err := simulator.DeployContract(ctx, op.Contract, op.WithTypeID)
	if err != nil {
		return err
	}
	s.AddCellDep(&skeleton.CellDepEx{
		Name:    op.Contract,
		CellDep: &externalapi.CellDep{OutPoint: cell.OutPoint, DepType: externalapi.DepTypeCode},
		Output:  &skeleton.CellOutputEx{Output: cell.Output, Data: cell.Data},
	})
	return nil
}
