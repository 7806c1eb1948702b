// Package operation holds the building blocks of a transaction. Each operation
// performs one mutation of a skeleton, and runs at most once.
package operation

import (
	"context"
	"fmt"

	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
	"github.com/pkg/errors"
)

// Operation mutates a skeleton, using chainState to look up live cells
type Operation interface {
	Run(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error
}

// Func is an adapter to allow the use of ordinary functions as Operations
type Func func(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error

// Run calls f(ctx, chainState, s)
func (f Func) Run(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error {
	return f(ctx, chainState, s)
}

var (
	// ErrInsufficientCells indicates fewer matching live cells than requested
	ErrInsufficientCells = errors.New("insufficient cells")

	// ErrImbalancedTransaction indicates the inputs cannot cover the outputs and the fee
	ErrImbalancedTransaction = errors.New("imbalanced transaction")

	// ErrNothingToSign indicates a signer that owns none of the inputs
	ErrNothingToSign = errors.New("nothing to sign")

	// ErrNonPositiveCount indicates an input query asking for no cells
	ErrNonPositiveCount = errors.New("cell count must be positive")
)

// InsufficientCellsError reports how many cells were found
type InsufficientCellsError struct {
	Required int
	Found    int
}

func (e *InsufficientCellsError) Error() string {
	return fmt.Sprintf("%s: required %d, found %d", ErrInsufficientCells, e.Required, e.Found)
}

// Unwrap returns ErrInsufficientCells
func (e *InsufficientCellsError) Unwrap() error {
	return ErrInsufficientCells
}

// ImbalancedTransactionError reports the capacity the transaction lacks, in shannons
type ImbalancedTransactionError struct {
	Needed    uint64
	Available uint64
}

func (e *ImbalancedTransactionError) Error() string {
	return fmt.Sprintf("%s: needed %d shannons, available %d", ErrImbalancedTransaction, e.Needed, e.Available)
}

// Unwrap returns ErrImbalancedTransaction
func (e *ImbalancedTransactionError) Unwrap() error {
	return ErrImbalancedTransaction
}
