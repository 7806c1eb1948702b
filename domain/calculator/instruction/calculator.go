package instruction

import (
	"context"
	"fmt"

	"github.com/kaspanet/cinnabar/domain/calculator/operation"
	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/capacity"
	"github.com/kaspanet/cinnabar/infrastructure/logger"
	"github.com/pkg/errors"
)

// OperationError locates the operation that failed a calculator run
type OperationError struct {
	InstructionIndex int
	OperationIndex   int
	Operation        operation.Operation
	Err              error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("instruction %d, operation %d (%T): %s",
		e.InstructionIndex, e.OperationIndex, e.Operation, e.Err)
}

// Unwrap returns the error of the failed operation
func (e *OperationError) Unwrap() error {
	return e.Err
}

// TransactionCalculator runs instructions in order against a single chain
// state, threading one skeleton through all of them
type TransactionCalculator struct {
	chainState   rpc.RPC
	instructions []*Instruction
}

// NewTransactionCalculator returns a calculator running instructions against chainState
func NewTransactionCalculator(chainState rpc.RPC, instructions ...*Instruction) *TransactionCalculator {
	return &TransactionCalculator{
		chainState:   chainState,
		instructions: instructions,
	}
}

// Instruction appends an instruction to the calculator
func (c *TransactionCalculator) Instruction(instruction *Instruction) *TransactionCalculator {
	c.instructions = append(c.instructions, instruction)
	return c
}

// Run builds a new skeleton
func (c *TransactionCalculator) Run(ctx context.Context) (*skeleton.TransactionSkeleton, error) {
	s := skeleton.New()
	err := c.Apply(ctx, s)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Apply runs the instructions on an existing skeleton and checks that every
// output holds at least its occupied capacity
func (c *TransactionCalculator) Apply(ctx context.Context, s *skeleton.TransactionSkeleton) error {
	err := ctx.Err()
	if err != nil {
		return errors.WithStack(err)
	}

	for index, instruction := range c.instructions {
		err := instruction.Run(ctx, c.chainState, s)
		if err != nil {
			var operationError *OperationError
			if errors.As(err, &operationError) {
				operationError.InstructionIndex = index
				return operationError
			}
			return errors.Wrapf(err, "instruction %d", index)
		}
	}
	err = s.CheckCapacity()
	if err != nil {
		return err
	}

	log.Debugf("%s", logger.NewLogClosure(func() string {
		return fmt.Sprintf("Calculated a transaction with %d inputs (%s) and %d outputs (%s)",
			len(s.Inputs), capacity.FormatShannons(s.InputCapacity()),
			len(s.Outputs), capacity.FormatShannons(s.OutputCapacity()))
	}))
	return nil
}

// Send builds a skeleton and submits its transaction
func (c *TransactionCalculator) Send(ctx context.Context) (externalapi.DomainHash, *skeleton.TransactionSkeleton, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "TransactionCalculator.Send")
	defer onEnd()

	s, err := c.Run(ctx)
	if err != nil {
		return externalapi.DomainHash{}, nil, err
	}
	txHash, err := c.chainState.SendTransaction(ctx, s.Transaction())
	if err != nil {
		return externalapi.DomainHash{}, nil, err
	}
	return txHash, s, nil
}
