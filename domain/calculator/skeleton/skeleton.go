package skeleton

import (
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/capacity"
	"github.com/kaspanet/cinnabar/domain/utils/cellhashing"
	"github.com/kaspanet/cinnabar/domain/utils/serialization"
	"github.com/pkg/errors"
)

// TransactionSkeleton is the transaction being assembled by a calculator run.
// Witnesses are kept aligned to inputs.
type TransactionSkeleton struct {
	CellDeps   []*CellDepEx
	HeaderDeps []externalapi.DomainHash
	Inputs     []*CellInputEx
	Outputs    []*CellOutputEx
	Witnesses  []*externalapi.WitnessArgs
}

// New returns an empty TransactionSkeleton
func New() *TransactionSkeleton {
	return &TransactionSkeleton{}
}

// AddCellDep appends cellDep unless a dep with the same out point and dep type is
// already present. It returns whether the dep was appended. A name given to a dep
// that was added unnamed is kept.
func (s *TransactionSkeleton) AddCellDep(cellDep *CellDepEx) bool {
	for _, existing := range s.CellDeps {
		if existing.CellDep.OutPoint == cellDep.CellDep.OutPoint &&
			existing.CellDep.DepType == cellDep.CellDep.DepType {
			if existing.Name == "" {
				existing.Name = cellDep.Name
			}
			if existing.Output == nil {
				existing.Output = cellDep.Output
			}
			return false
		}
	}
	s.CellDeps = append(s.CellDeps, cellDep)
	return true
}

// CellDepByName returns the cell dep called name
func (s *TransactionSkeleton) CellDepByName(name string) (*CellDepEx, bool) {
	for _, cellDep := range s.CellDeps {
		if cellDep.Name == name {
			return cellDep, true
		}
	}
	return nil, false
}

// HasInput returns whether outPoint is already consumed by the skeleton
func (s *TransactionSkeleton) HasInput(outPoint externalapi.OutPoint) bool {
	for _, input := range s.Inputs {
		if input.Input.PreviousOutput == outPoint {
			return true
		}
	}
	return false
}

// AddInput appends input together with an empty witness
func (s *TransactionSkeleton) AddInput(input *CellInputEx) error {
	if s.HasInput(input.Input.PreviousOutput) {
		return errors.Wrapf(ErrDuplicateInput, "out point %s", input.Input.PreviousOutput)
	}
	s.Inputs = append(s.Inputs, input)
	s.Witnesses = append(s.Witnesses, &externalapi.WitnessArgs{})
	return nil
}

// AddOutput appends output and returns its index
func (s *TransactionSkeleton) AddOutput(output *CellOutputEx) int {
	s.Outputs = append(s.Outputs, output)
	return len(s.Outputs) - 1
}

// Input returns the input at index
func (s *TransactionSkeleton) Input(index int) (*CellInputEx, error) {
	if index < 0 || index >= len(s.Inputs) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "input %d of %d", index, len(s.Inputs))
	}
	return s.Inputs[index], nil
}

// Output returns the output at index
func (s *TransactionSkeleton) Output(index int) (*CellOutputEx, error) {
	if index < 0 || index >= len(s.Outputs) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "output %d of %d", index, len(s.Outputs))
	}
	return s.Outputs[index], nil
}

// InputCapacity returns the total capacity consumed by the inputs
func (s *TransactionSkeleton) InputCapacity() uint64 {
	total := uint64(0)
	for _, input := range s.Inputs {
		total += input.Output.Capacity()
	}
	return total
}

// OutputCapacity returns the total capacity created by the outputs
func (s *TransactionSkeleton) OutputCapacity() uint64 {
	total := uint64(0)
	for _, output := range s.Outputs {
		total += output.Capacity()
	}
	return total
}

// CheckCapacity returns ErrOutputCapacityUnderflow if any output holds less than its footprint
func (s *TransactionSkeleton) CheckCapacity() error {
	for i, output := range s.Outputs {
		err := capacity.CheckOutput(output.Output, output.Data)
		if err != nil {
			return errors.Wrapf(ErrOutputCapacityUnderflow, "output %d: %s", i, err)
		}
	}
	return nil
}

// Transaction builds the transaction the skeleton describes
func (s *TransactionSkeleton) Transaction() *externalapi.DomainTransaction {
	tx := &externalapi.DomainTransaction{
		CellDeps:    make([]*externalapi.CellDep, len(s.CellDeps)),
		HeaderDeps:  make([]externalapi.DomainHash, len(s.HeaderDeps)),
		Inputs:      make([]*externalapi.CellInput, len(s.Inputs)),
		Outputs:     make([]*externalapi.CellOutput, len(s.Outputs)),
		OutputsData: make([][]byte, len(s.Outputs)),
		Witnesses:   make([][]byte, len(s.Witnesses)),
	}
	for i, cellDep := range s.CellDeps {
		dep := *cellDep.CellDep
		tx.CellDeps[i] = &dep
	}
	copy(tx.HeaderDeps, s.HeaderDeps)
	for i, input := range s.Inputs {
		cellInput := *input.Input
		tx.Inputs[i] = &cellInput
	}
	for i, output := range s.Outputs {
		tx.Outputs[i] = output.Output.Clone()
		data := output.Data
		if data == nil {
			data = []byte{}
		}
		tx.OutputsData[i] = data
	}
	for i, witness := range s.Witnesses {
		if witness.IsEmpty() {
			tx.Witnesses[i] = []byte{}
			continue
		}
		tx.Witnesses[i] = serialization.SerializeWitnessArgs(witness)
	}
	return tx
}

// TxHash returns the hash of the transaction the skeleton describes
func (s *TransactionSkeleton) TxHash() externalapi.DomainHash {
	return cellhashing.TransactionHash(s.Transaction())
}

// ScriptGroup is a set of inputs and outputs sharing the same script
type ScriptGroup struct {
	Script        *externalapi.Script
	InputIndexes  []int
	OutputIndexes []int
}

// LockGroups groups the inputs by lock script, in order of first appearance
func (s *TransactionSkeleton) LockGroups() []*ScriptGroup {
	var groups []*ScriptGroup
	byHash := make(map[externalapi.DomainHash]*ScriptGroup)
	for i, input := range s.Inputs {
		hash := input.Output.LockHash()
		group, ok := byHash[hash]
		if !ok {
			group = &ScriptGroup{Script: input.Output.Output.Lock}
			byHash[hash] = group
			groups = append(groups, group)
		}
		group.InputIndexes = append(group.InputIndexes, i)
	}
	return groups
}

// TypeGroups groups the inputs and outputs by type script, in order of first appearance
func (s *TransactionSkeleton) TypeGroups() []*ScriptGroup {
	var groups []*ScriptGroup
	byHash := make(map[externalapi.DomainHash]*ScriptGroup)
	groupOf := func(cell *CellOutputEx) *ScriptGroup {
		hash, ok := cell.TypeHash()
		if !ok {
			return nil
		}
		group, ok := byHash[hash]
		if !ok {
			group = &ScriptGroup{Script: cell.Output.Type}
			byHash[hash] = group
			groups = append(groups, group)
		}
		return group
	}
	for i, input := range s.Inputs {
		if group := groupOf(input.Output); group != nil {
			group.InputIndexes = append(group.InputIndexes, i)
		}
	}
	for i, output := range s.Outputs {
		if group := groupOf(output); group != nil {
			group.OutputIndexes = append(group.OutputIndexes, i)
		}
	}
	return groups
}
