// Package calculator holds the operations that build blind box transactions.
//
// A purchase pays price × count into a cell locked by the server and typed
// by the blind box contract. An open consumes that cell and mints count
// cells of the purchased series for the buyer.
package calculator

import (
	"context"

	"github.com/kaspanet/cinnabar/domain/blindbox/blindboxargs"
	"github.com/kaspanet/cinnabar/domain/blindbox/contract"
	"github.com/kaspanet/cinnabar/domain/calculator/operation"
	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
	"github.com/kaspanet/cinnabar/domain/contracts/alwayssuccess"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/capacity"
	"github.com/kaspanet/cinnabar/infrastructure/deployment"
	"github.com/pkg/errors"
)

// Price is the price of one blind box, in shannons
const Price = 500 * capacity.ShannonsPerCKB

// SimulatedPurchaseCount is the number of boxes held by purchase cells minted in simulated runs
const SimulatedPurchaseCount = 5

// AddBlindBoxCellDep adds the blind box contract as a cell dep. Against a real
// network the contract cell is the one Record points at. In simulated runs
// the contract is deployed on the fly.
type AddBlindBoxCellDep struct {
	Record *deployment.Record
}

// Run implements operation.Operation
func (op *AddBlindBoxCellDep) Run(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error {
	if chainState.IsSimulated() {
		withTypeID := op.Record != nil && op.Record.TypeID != nil
		addFakeCellDep := &operation.AddFakeContractCellDepByName{Contract: contract.Name, WithTypeID: withTypeID}
		return addFakeCellDep.Run(ctx, chainState, s)
	}

	if op.Record == nil {
		return errors.Errorf("a deployment record of %s is required outside of simulations", contract.Name)
	}
	outPoint, err := op.Record.OutPoint()
	if err != nil {
		return err
	}
	addCellDep := &operation.AddCellDep{
		Name:    contract.Name,
		TxHash:  outPoint.TxHash,
		Index:   outPoint.Index,
		DepType: externalapi.DepTypeCode,
		// Without a type id, scripts reference the contract by the hash of its data
		WithData: op.Record.TypeID == nil,
	}
	return addCellDep.Run(ctx, chainState, s)
}

// AddBlindBoxOutputCell adds the purchase cell: locked by Server, holding
// Price × PurchaseCount, with blind box args recording Buyer and Series
type AddBlindBoxOutputCell struct {
	Server        skeleton.ScriptEx
	Buyer         skeleton.ScriptEx
	PurchaseCount uint8
	Series        *Series

	// Price of a single box. Nil means the default Price; zero makes the boxes free.
	Price *uint64
}

// Run implements operation.Operation
func (op *AddBlindBoxOutputCell) Run(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error {
	if op.PurchaseCount == 0 {
		return errors.Wrap(blindboxargs.ErrBadArgs, "purchase count must be positive")
	}
	buyer, err := op.Buyer.Resolve(s)
	if err != nil {
		return err
	}
	price := uint64(Price)
	if op.Price != nil {
		price = *op.Price
	}
	args := &blindboxargs.Args{
		SeriesTypeHash: op.Series.TypeHash(),
		PurchaseCount:  op.PurchaseCount,
		Price:          price,
		Buyer:          buyer,
	}
	totalPrice, ok := args.TotalPrice()
	if !ok {
		return errors.Wrapf(blindboxargs.ErrBadArgs, "%d boxes at %d shannons overflow", op.PurchaseCount, price)
	}

	blindBoxType := skeleton.NewScriptExReference(contract.Name, args.Encode())
	addOutputCell := &operation.AddOutputCell{
		Lock:     op.Server,
		Type:     &blindBoxType,
		Capacity: totalPrice,
	}
	log.Debugf("Purchasing %d boxes of series %s for %s", op.PurchaseCount, op.Series.Name,
		capacity.FormatShannons(totalPrice))
	return addOutputCell.Run(ctx, chainState, s)
}

// AddBlindBoxPurchaseInputCell consumes a purchase cell of Series held by
// Server. Simulated runs mint one holding SimulatedPurchaseCount boxes bought
// by an always-success lock.
type AddBlindBoxPurchaseInputCell struct {
	Server skeleton.ScriptEx
	Series *Series
}

// Run implements operation.Operation
func (op *AddBlindBoxPurchaseInputCell) Run(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error {
	seriesTypeHash := op.Series.TypeHash()
	if !chainState.IsSimulated() {
		blindBoxType := skeleton.NewScriptExReference(contract.Name, seriesTypeHash.ByteSlice())
		addInputCell := &operation.AddInputCell{
			Lock:       op.Server,
			Type:       &blindBoxType,
			Count:      1,
			SearchMode: rpc.SearchModePrefix,
		}
		return addInputCell.Run(ctx, chainState, s)
	}

	if _, ok := s.CellDepByName(alwayssuccess.Name); !ok {
		err := (&operation.AddAlwaysSuccessCellDep{}).Run(ctx, chainState, s)
		if err != nil {
			return err
		}
	}
	buyer, err := skeleton.NewScriptExReference(alwayssuccess.Name, []byte{0}).Resolve(s)
	if err != nil {
		return err
	}
	args := &blindboxargs.Args{
		SeriesTypeHash: seriesTypeHash,
		PurchaseCount:  SimulatedPurchaseCount,
		Price:          Price,
		Buyer:          buyer,
	}
	totalPrice, _ := args.TotalPrice()
	blindBoxType := skeleton.NewScriptExReference(contract.Name, args.Encode())
	addFakeCellInput := &operation.AddFakeCellInput{
		Lock:     op.Server,
		Type:     &blindBoxType,
		Capacity: totalPrice,
	}
	return addFakeCellInput.Run(ctx, chainState, s)
}

// AddBlindBoxOutputCellsBySeries mints the boxes of the purchase cell consumed
// by the last input: one cell of Series per purchased box, locked by the buyer
type AddBlindBoxOutputCellsBySeries struct {
	Series *Series
}

// Run implements operation.Operation
func (op *AddBlindBoxOutputCellsBySeries) Run(_ context.Context, _ rpc.RPC, s *skeleton.TransactionSkeleton) error {
	if len(s.Inputs) == 0 {
		return errors.New("no purchase cell among the inputs")
	}
	purchaseCell := s.Inputs[len(s.Inputs)-1].Output
	if purchaseCell.Output.Type == nil {
		return errors.Errorf("the last input %s is not a purchase cell", s.Inputs[len(s.Inputs)-1].Input.PreviousOutput)
	}
	args, err := blindboxargs.Decode(purchaseCell.Output.Type.Args)
	if err != nil {
		return err
	}
	if args.SeriesTypeHash != op.Series.TypeHash() {
		return errors.Errorf("the purchase cell was bought for series %s, not %s", args.SeriesTypeHash, op.Series.Name)
	}

	for i := 0; i < int(args.PurchaseCount); i++ {
		s.AddOutput(skeleton.NewCellOutputEx(args.Buyer.Clone(), op.Series.TypeScript.Clone(), nil, 0))
	}
	log.Debugf("Opened %d boxes of series %s", args.PurchaseCount, op.Series.Name)
	return nil
}
