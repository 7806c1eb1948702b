package operation

import (
	"context"

	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/util/address"
	"github.com/pkg/errors"
)

// AddInputCell consumes Count live cells locked by Lock, and typed by Type when
// it is set. Cells already consumed by the skeleton are skipped. Count must be
// positive.
type AddInputCell struct {
	Lock       skeleton.ScriptEx
	Type       *skeleton.ScriptEx
	Count      int
	SearchMode rpc.SearchMode
}

// Run implements Operation
func (op *AddInputCell) Run(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error {
	if op.Count <= 0 {
		return errors.Wrapf(ErrNonPositiveCount, "got %d", op.Count)
	}
	lock, err := op.Lock.Resolve(s)
	if err != nil {
		return err
	}
	query := &rpc.CellQuery{Lock: lock, SearchMode: op.SearchMode}
	if op.Type != nil {
		query.Type, err = op.Type.Resolve(s)
		if err != nil {
			return err
		}
	}
	cells, err := findUnusedCells(ctx, chainState, s, query, op.Count)
	if err != nil {
		return err
	}
	if len(cells) < op.Count {
		return &InsufficientCellsError{Required: op.Count, Found: len(cells)}
	}
	for _, cell := range cells {
		err := addLiveCellInput(s, cell, 0)
		if err != nil {
			return err
		}
	}
	return nil
}

// AddInputCellByOutPoint consumes the live cell at (TxHash, Index)
type AddInputCellByOutPoint struct {
	TxHash externalapi.DomainHash
	Index  uint32
	Since  uint64
}

// Run implements Operation
func (op *AddInputCellByOutPoint) Run(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error {
	outPoint := externalapi.OutPoint{TxHash: op.TxHash, Index: op.Index}
	cell, err := chainState.GetLiveCell(ctx, outPoint, true)
	if err != nil {
		return errors.Wrapf(err, "input %s", outPoint)
	}
	return addLiveCellInput(s, cell, op.Since)
}

// AddInputCellByAddress consumes one plain cell owned by Address
type AddInputCellByAddress struct {
	Address *address.Address
}

// Run implements Operation
func (op *AddInputCellByAddress) Run(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error {
	query := &rpc.CellQuery{
		Lock:       op.Address.Script(),
		PlainOnly:  true,
		SearchMode: rpc.SearchModeExact,
	}
	cells, err := findUnusedCells(ctx, chainState, s, query, 1)
	if err != nil {
		return err
	}
	if len(cells) == 0 {
		return errors.Wrapf(&InsufficientCellsError{Required: 1}, "address %s", op.Address)
	}
	return addLiveCellInput(s, cells[0], 0)
}

// AddFakeCellInput mints a cell on a simulated chain state and consumes it.
// A zero Capacity mints a cell holding exactly its occupied capacity.
type AddFakeCellInput struct {
	Lock     skeleton.ScriptEx
	Type     *skeleton.ScriptEx
	Data     []byte
	Capacity uint64
}

// Run implements Operation
func (op *AddFakeCellInput) Run(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error {
	simulator, err := rpc.AsSimulator(chainState)
	if err != nil {
		return err
	}
	lock, err := op.Lock.Resolve(s)
	if err != nil {
		return err
	}
	var typeScript *externalapi.Script
	if op.Type != nil {
		typeScript, err = op.Type.Resolve(s)
		if err != nil {
			return err
		}
	}
	output := skeleton.NewCellOutputEx(lock, typeScript, op.Data, op.Capacity)
	cell, err := simulator.MintCell(ctx, output.Output, output.Data)
	if err != nil {
		return err
	}
	return addLiveCellInput(s, cell, 0)
}

// findUnusedCells returns up to limit cells matching query that the skeleton
// doesn't consume yet. A non-positive limit returns every such cell.
func findUnusedCells(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton,
	query *rpc.CellQuery, limit int) ([]*rpc.Cell, error) {

	cells, err := chainState.FindCells(ctx, query)
	if err != nil {
		return nil, err
	}
	unused := make([]*rpc.Cell, 0, len(cells))
	for _, cell := range cells {
		if s.HasInput(cell.OutPoint) {
			continue
		}
		unused = append(unused, cell)
		if limit > 0 && len(unused) == limit {
			break
		}
	}
	return unused, nil
}

func addLiveCellInput(s *skeleton.TransactionSkeleton, cell *rpc.Cell, since uint64) error {
	log.Debugf("Adding input %s holding %d shannons", cell.OutPoint, cell.Output.Capacity)
	return s.AddInput(&skeleton.CellInputEx{
		Input:  &externalapi.CellInput{PreviousOutput: cell.OutPoint, Since: since},
		Output: &skeleton.CellOutputEx{Output: cell.Output, Data: cell.Data},
	})
}
