// Package simulation builds transactions and runs their scripts offline.
package simulation

import (
	"context"

	"github.com/kaspanet/cinnabar/domain/calculator/instruction"
	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
	"github.com/kaspanet/cinnabar/domain/contracts"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/serialization"
	"github.com/kaspanet/cinnabar/domain/verifier"
	"github.com/pkg/errors"
)

// DefaultMaxCycles is the cycle budget of a whole transaction
const DefaultMaxCycles uint64 = 70_000_000

// ErrProgramNotFound is returned for a script whose code isn't a registered contract
var ErrProgramNotFound = errors.New("program not found")

// TransactionSimulator runs the registered contracts of every script of a transaction
type TransactionSimulator struct {
	Contracts *contracts.Registry

	// MaxCycles is the budget shared by all scripts. Zero means DefaultMaxCycles.
	MaxCycles uint64
}

// NewTransactionSimulator returns a simulator running the given contracts
func NewTransactionSimulator(registry *contracts.Registry) *TransactionSimulator {
	return &TransactionSimulator{Contracts: registry, MaxCycles: DefaultMaxCycles}
}

// Result is a simulated transaction and the cycles its scripts consumed
type Result struct {
	Skeleton *skeleton.TransactionSkeleton
	Cycles   uint64
}

// Run builds a skeleton out of instructions and verifies it
func (ts *TransactionSimulator) Run(ctx context.Context, chainState rpc.RPC,
	instructions ...*instruction.Instruction) (*Result, error) {

	s, err := instruction.NewTransactionCalculator(chainState, instructions...).Run(ctx)
	if err != nil {
		return nil, err
	}
	cycles, err := ts.Verify(ctx, chainState, s)
	if err != nil {
		return nil, err
	}
	return &Result{Skeleton: s, Cycles: cycles}, nil
}

// Verify runs the lock script of every input group and the type script of
// every input and output group, and returns the consumed cycles
func (ts *TransactionSimulator) Verify(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) (uint64, error) {
	resolved, err := resolve(ctx, chainState, s)
	if err != nil {
		return 0, err
	}

	maxCycles := ts.MaxCycles
	if maxCycles == 0 {
		maxCycles = DefaultMaxCycles
	}
	groups := append(s.LockGroups(), s.TypeGroups()...)
	consumed := uint64(0)
	for _, group := range groups {
		contract, err := ts.contractOf(resolved, group.Script)
		if err != nil {
			return consumed, err
		}
		scriptGroup := &verifier.ScriptGroup{
			Script:        group.Script,
			InputIndexes:  group.InputIndexes,
			OutputIndexes: group.OutputIndexes,
		}
		cycles, err := verifier.RunProgram(contract.Program, resolved, scriptGroup, maxCycles-consumed)
		consumed += cycles
		if err != nil {
			return consumed, errors.Wrapf(err, "script %s of contract %s", group.Script, contract.Name)
		}
		log.Debugf("Contract %s accepted script %s in %d cycles", contract.Name, group.Script, cycles)
	}
	return consumed, nil
}

// contractOf finds the cell dep holding the code of script and returns the
// contract deployed in it
func (ts *TransactionSimulator) contractOf(resolved *verifier.ResolvedTransaction,
	script *externalapi.Script) (*contracts.Contract, error) {

	for i, depCell := range resolved.DepCells {
		depCellEx := &skeleton.CellOutputEx{Output: depCell, Data: resolved.DepData[i]}
		var matches bool
		if script.HashType == externalapi.HashTypeType {
			typeHash, ok := depCellEx.TypeHash()
			matches = ok && typeHash == script.CodeHash
		} else {
			matches = depCellEx.DataHash() == script.CodeHash
		}
		if !matches {
			continue
		}
		contract, ok := ts.Contracts.ByBinary(depCellEx.Data)
		if !ok {
			return nil, errors.Wrapf(ErrProgramNotFound, "the code of %s isn't a registered contract", script)
		}
		return contract, nil
	}
	return nil, errors.Wrapf(ErrProgramNotFound, "no cell dep holds the code of %s", script)
}

// resolve attaches the live cells behind the skeleton's inputs and cell deps.
// Dep groups are expanded into their members.
func resolve(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) (*verifier.ResolvedTransaction, error) {
	resolved := &verifier.ResolvedTransaction{
		Transaction: s.Transaction(),
		InputCells:  make([]*externalapi.CellOutput, len(s.Inputs)),
		InputData:   make([][]byte, len(s.Inputs)),
	}
	for i, input := range s.Inputs {
		resolved.InputCells[i] = input.Output.Output
		resolved.InputData[i] = input.Output.Data
	}

	for _, cellDep := range s.CellDeps {
		cell := cellDep.Output
		if cell == nil || cell.Data == nil {
			liveCell, err := chainState.GetLiveCell(ctx, cellDep.CellDep.OutPoint, true)
			if err != nil {
				return nil, errors.Wrapf(err, "cell dep %s", cellDep.CellDep.OutPoint)
			}
			cell = &skeleton.CellOutputEx{Output: liveCell.Output, Data: liveCell.Data}
		}
		if cellDep.CellDep.DepType == externalapi.DepTypeCode {
			resolved.DepCells = append(resolved.DepCells, cell.Output)
			resolved.DepData = append(resolved.DepData, cell.Data)
			continue
		}

		members, err := serialization.DeserializeOutPointVec(cell.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "dep group %s", cellDep.CellDep.OutPoint)
		}
		for _, member := range members {
			memberCell, err := chainState.GetLiveCell(ctx, member, true)
			if err != nil {
				return nil, errors.Wrapf(err, "member %s of dep group %s", member, cellDep.CellDep.OutPoint)
			}
			resolved.DepCells = append(resolved.DepCells, memberCell.Output)
			resolved.DepData = append(resolved.DepData, memberCell.Data)
		}
	}
	return resolved, nil
}
