// Package instruction groups operations into instructions and runs them
// against a chain state to produce a transaction skeleton.
package instruction

import (
	"context"

	"github.com/kaspanet/cinnabar/domain/calculator/operation"
	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
	"github.com/pkg/errors"
)

// ErrInstructionConsumed is returned when an instruction runs a second time
var ErrInstructionConsumed = errors.New("instruction already consumed")

// Instruction is an ordered list of operations. Running it consumes it.
type Instruction struct {
	operations []operation.Operation
	consumed   bool
}

// New returns an instruction running operations in order
func New(operations ...operation.Operation) *Instruction {
	return &Instruction{operations: operations}
}

// Push appends an operation
func (i *Instruction) Push(op operation.Operation) {
	i.operations = append(i.operations, op)
}

// Append appends operations, keeping their order
func (i *Instruction) Append(operations ...operation.Operation) {
	i.operations = append(i.operations, operations...)
}

// Merge moves the operations of other to the end of i. other is left empty.
func (i *Instruction) Merge(other *Instruction) {
	i.operations = append(i.operations, other.operations...)
	other.operations = nil
}

// Len returns the number of operations left to run
func (i *Instruction) Len() int {
	return len(i.operations)
}

// Run runs the operations in order against s. It stops at the first failure,
// returned as an *OperationError.
func (i *Instruction) Run(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error {
	if i.consumed {
		return errors.WithStack(ErrInstructionConsumed)
	}
	i.consumed = true

	operations := i.operations
	i.operations = nil
	for index, op := range operations {
		log.Tracef("Running operation %d: %T", index, op)
		err := op.Run(ctx, chainState, s)
		if err != nil {
			return &OperationError{OperationIndex: index, Operation: op, Err: err}
		}
	}
	return nil
}
