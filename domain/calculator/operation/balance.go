package operation

import (
	"context"

	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/estimatedsize"
	"github.com/kaspanet/cinnabar/domain/utils/serialization"
	"github.com/pkg/errors"
)

// MinFeeRate is the fee rate, in shannons per thousand bytes, every transaction pays
const MinFeeRate uint64 = 1000

// ChangeReceiver receives the capacity left over by BalanceTransaction. It is
// either a lock for a new change output or the index of an existing output.
type ChangeReceiver struct {
	Lock        *skeleton.ScriptEx
	OutputIndex int
}

// ChangeToLock sends the change to a new output locked by lock
func ChangeToLock(lock skeleton.ScriptEx) ChangeReceiver {
	return ChangeReceiver{Lock: &lock}
}

// ChangeToOutput adds the change to the output at index
func ChangeToOutput(index int) ChangeReceiver {
	return ChangeReceiver{OutputIndex: index}
}

// BalanceTransaction makes the inputs cover the outputs plus the fee. Missing
// capacity is collected from plain cells locked by Balancer, and the rest goes
// to ChangeReceiver. A remainder too small to form a change cell is left as fee.
type BalanceTransaction struct {
	Balancer          skeleton.ScriptEx
	ChangeReceiver    ChangeReceiver
	AdditionalFeeRate uint64
}

// Run implements Operation
func (op *BalanceTransaction) Run(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error {
	balancer, err := op.Balancer.Resolve(s)
	if err != nil {
		return err
	}
	var changeLock *externalapi.Script
	if op.ChangeReceiver.Lock != nil {
		changeLock, err = op.ChangeReceiver.Lock.Resolve(s)
		if err != nil {
			return err
		}
	} else if _, err := s.Output(op.ChangeReceiver.OutputIndex); err != nil {
		return err
	}

	feeRate := MinFeeRate + op.AdditionalFeeRate
	funds := &balancerFunds{
		query: &rpc.CellQuery{Lock: balancer, PlainOnly: true, SearchMode: rpc.SearchModeExact},
	}
	for {
		inputCapacity := s.InputCapacity()
		outputCapacity := s.OutputCapacity()
		fee := estimatedFee(s, nil, feeRate)
		needed := outputCapacity + fee
		if inputCapacity < needed {
			err := funds.addInput(ctx, chainState, s)
			if err != nil {
				if err == errNoMoreFunds {
					return &ImbalancedTransactionError{Needed: needed, Available: inputCapacity}
				}
				return err
			}
			continue
		}

		remainder := inputCapacity - needed
		if changeLock == nil {
			output, _ := s.Output(op.ChangeReceiver.OutputIndex)
			output.Output.Capacity += remainder
			log.Debugf("Balanced with %d shannons of change into output %d, fee %d",
				remainder, op.ChangeReceiver.OutputIndex, fee)
			return nil
		}
		if remainder == 0 {
			log.Debugf("Balanced exactly, fee %d", fee)
			return nil
		}

		change := skeleton.NewCellOutputEx(changeLock, nil, nil, 0)
		feeWithChange := estimatedFee(s, change, feeRate)
		if inputCapacity >= outputCapacity+feeWithChange+change.Capacity() {
			change.Output.Capacity = inputCapacity - outputCapacity - feeWithChange
			s.AddOutput(change)
			log.Debugf("Balanced with a change output of %d shannons, fee %d", change.Capacity(), feeWithChange)
			return nil
		}

		err := funds.addInput(ctx, chainState, s)
		if err == errNoMoreFunds {
			log.Debugf("Remainder of %d shannons is too small for a change cell and is left as fee", remainder)
			return nil
		}
		if err != nil {
			return err
		}
	}
}

var errNoMoreFunds = errors.New("no more balancer cells")

// balancerFunds hands out the balancer's unused cells one at a time
type balancerFunds struct {
	query   *rpc.CellQuery
	cells   []*rpc.Cell
	fetched bool
}

func (f *balancerFunds) addInput(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error {
	if !f.fetched {
		cells, err := findUnusedCells(ctx, chainState, s, f.query, 0)
		if err != nil {
			return err
		}
		f.cells = cells
		f.fetched = true
	}
	for len(f.cells) > 0 {
		cell := f.cells[0]
		f.cells = f.cells[1:]
		if s.HasInput(cell.OutPoint) {
			continue
		}
		return addLiveCellInput(s, cell, 0)
	}
	return errNoMoreFunds
}

// estimatedFee returns the fee of the transaction s describes, with extraOutput
// appended when set. The first witness of every lock group that hasn't been
// signed yet is counted with a signature placeholder.
func estimatedFee(s *skeleton.TransactionSkeleton, extraOutput *skeleton.CellOutputEx, feeRate uint64) uint64 {
	tx := s.Transaction()
	if extraOutput != nil {
		tx.Outputs = append(tx.Outputs, extraOutput.Output)
		tx.OutputsData = append(tx.OutputsData, []byte{})
	}
	for _, group := range s.LockGroups() {
		index := group.InputIndexes[0]
		witness := *s.Witnesses[index]
		if witness.Lock != nil {
			continue
		}
		witness.Lock = make([]byte, estimatedsize.SignaturePlaceholderSize)
		tx.Witnesses[index] = serialization.SerializeWitnessArgs(&witness)
	}
	return estimatedsize.TransactionFee(tx, feeRate)
}
