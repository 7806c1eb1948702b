package operation

import (
	"context"

	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/cellhashing"
	"github.com/kaspanet/cinnabar/util/address"
	"github.com/pkg/errors"
)

// ErrTypeIDWithoutInput is returned when a type id is requested before any input was added
var ErrTypeIDWithoutInput = errors.New("a type id requires at least one input")

// AddOutputCell creates a cell locked by Lock.
//
// With UseAdditionalCapacity the cell holds its occupied capacity plus Capacity.
// Otherwise it holds Capacity, or exactly its occupied capacity when Capacity is
// zero. UseTypeID replaces Type with a type id script derived from the first input.
type AddOutputCell struct {
	Lock                  skeleton.ScriptEx
	Type                  *skeleton.ScriptEx
	Data                  []byte
	Capacity              uint64
	UseAdditionalCapacity bool
	UseTypeID             bool
}

// Run implements Operation
func (op *AddOutputCell) Run(_ context.Context, _ rpc.RPC, s *skeleton.TransactionSkeleton) error {
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
	if op.UseTypeID {
		typeScript, err = nextTypeIDScript(s)
		if err != nil {
			return err
		}
	}

	output := skeleton.NewCellOutputEx(lock, typeScript, op.Data, 0)
	if op.UseAdditionalCapacity {
		output.Output.Capacity += op.Capacity
	} else if op.Capacity != 0 {
		output.Output.Capacity = op.Capacity
	}
	index := s.AddOutput(output)
	log.Debugf("Added output %d holding %d shannons", index, output.Capacity())
	return nil
}

// AddOutputCellByAddress creates a cell owned by Address holding Data, with exactly its occupied capacity
type AddOutputCellByAddress struct {
	Address   *address.Address
	Data      []byte
	AddTypeID bool
}

// Run implements Operation
func (op *AddOutputCellByAddress) Run(ctx context.Context, chainState rpc.RPC, s *skeleton.TransactionSkeleton) error {
	addOutputCell := &AddOutputCell{
		Lock:      skeleton.NewScriptEx(op.Address.Script()),
		Data:      op.Data,
		UseTypeID: op.AddTypeID,
	}
	return addOutputCell.Run(ctx, chainState, s)
}

// TypeMode tells AddOutputCellByInputIndex what to do with the input's type script
type TypeMode int

// Type modes
const (
	TypeModeKeep TypeMode = iota
	TypeModeRemove
	TypeModeReplace
)

// AddOutputCellByInputIndex recreates the cell consumed by input InputIndex.
// A nil Data or Lock keeps the input's. With AdjustCapacity the capacity becomes
// the occupied capacity of the new cell, otherwise the input's capacity is kept.
type AddOutputCellByInputIndex struct {
	InputIndex     int
	Data           []byte
	Lock           *skeleton.ScriptEx
	TypeMode       TypeMode
	Type           *skeleton.ScriptEx
	AdjustCapacity bool
}

// Run implements Operation
func (op *AddOutputCellByInputIndex) Run(_ context.Context, _ rpc.RPC, s *skeleton.TransactionSkeleton) error {
	input, err := s.Input(op.InputIndex)
	if err != nil {
		return err
	}
	output := input.Output.Clone()
	if op.Data != nil {
		output.Data = op.Data
	}
	if op.Lock != nil {
		output.Output.Lock, err = op.Lock.Resolve(s)
		if err != nil {
			return err
		}
	}
	switch op.TypeMode {
	case TypeModeKeep:
	case TypeModeRemove:
		output.Output.Type = nil
	case TypeModeReplace:
		if op.Type == nil {
			return errors.Errorf("replacing the type script of input %d requires a type script", op.InputIndex)
		}
		output.Output.Type, err = op.Type.Resolve(s)
		if err != nil {
			return err
		}
	default:
		return errors.Errorf("unknown type mode %d", op.TypeMode)
	}
	if op.AdjustCapacity {
		output.Output.Capacity = output.OccupiedCapacity()
	}
	s.AddOutput(output)
	return nil
}

func nextTypeIDScript(s *skeleton.TransactionSkeleton) (*externalapi.Script, error) {
	if len(s.Inputs) == 0 {
		return nil, errors.WithStack(ErrTypeIDWithoutInput)
	}
	typeID := cellhashing.TypeIDArgs(s.Inputs[0].Input, uint64(len(s.Outputs)))
	return cellhashing.TypeIDScript(typeID), nil
}
