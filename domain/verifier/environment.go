package verifier

import (
	"fmt"

	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/cellhashing"
	"github.com/kaspanet/cinnabar/domain/utils/serialization"
	"github.com/pkg/errors"
)

// Source selects which cells of the transaction a load reads
type Source int

// Sources
const (
	SourceInput Source = iota
	SourceOutput
	SourceCellDep
	SourceGroupInput
	SourceGroupOutput
)

func (s Source) String() string {
	switch s {
	case SourceInput:
		return "Input"
	case SourceOutput:
		return "Output"
	case SourceCellDep:
		return "CellDep"
	case SourceGroupInput:
		return "GroupInput"
	case SourceGroupOutput:
		return "GroupOutput"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// Cycle costs charged by TransactionEnvironment
const (
	NodeCycles      = 1_000
	LoadCycles      = 100
	LoadCyclesPerKB = 10
)

// Environment is everything a script can observe about the transaction it validates.
// Every call charges cycles against the budget of the run.
type Environment interface {
	// LoadScript returns the script being run
	LoadScript() (*externalapi.Script, error)

	// LoadTxHash returns the hash of the transaction
	LoadTxHash() (externalapi.DomainHash, error)

	LoadCell(index int, source Source) (*externalapi.CellOutput, error)
	LoadCellCapacity(index int, source Source) (uint64, error)
	LoadCellLock(index int, source Source) (*externalapi.Script, error)

	// LoadCellType returns nil when the cell has no type script
	LoadCellType(index int, source Source) (*externalapi.Script, error)

	// LoadCellTypeHash returns false when the cell has no type script
	LoadCellTypeHash(index int, source Source) (externalapi.DomainHash, bool, error)

	LoadCellData(index int, source Source) ([]byte, error)
	LoadWitnessArgs(index int, source Source) (*externalapi.WitnessArgs, error)

	// Charge consumes cycles, failing with ErrExceededMaxCycles once the budget is spent
	Charge(cycles uint64) error
}

// ResolvedTransaction is a transaction together with the cells its inputs and cell deps point at
type ResolvedTransaction struct {
	Transaction *externalapi.DomainTransaction
	InputCells  []*externalapi.CellOutput
	InputData   [][]byte
	DepCells    []*externalapi.CellOutput
	DepData     [][]byte
}

// ScriptGroup is the script being run and the positions of the cells carrying it
type ScriptGroup struct {
	Script        *externalapi.Script
	InputIndexes  []int
	OutputIndexes []int
}

// TransactionEnvironment serves Environment calls out of a ResolvedTransaction
type TransactionEnvironment struct {
	tx        *ResolvedTransaction
	group     *ScriptGroup
	maxCycles uint64
	cycles    uint64
}

// NewTransactionEnvironment returns the environment a script of group sees when validating tx
func NewTransactionEnvironment(tx *ResolvedTransaction, group *ScriptGroup, maxCycles uint64) *TransactionEnvironment {
	return &TransactionEnvironment{
		tx:        tx,
		group:     group,
		maxCycles: maxCycles,
	}
}

// Cycles returns the cycles consumed so far
func (e *TransactionEnvironment) Cycles() uint64 {
	return e.cycles
}

// Charge implements Environment
func (e *TransactionEnvironment) Charge(cycles uint64) error {
	e.cycles += cycles
	if e.cycles > e.maxCycles {
		return errors.Wrapf(ErrExceededMaxCycles, "consumed %d of %d cycles", e.cycles, e.maxCycles)
	}
	return nil
}

func (e *TransactionEnvironment) chargeLoad(size int) error {
	return e.Charge(LoadCycles + uint64(size)/1024*LoadCyclesPerKB)
}

// LoadScript implements Environment
func (e *TransactionEnvironment) LoadScript() (*externalapi.Script, error) {
	if err := e.chargeLoad(len(e.group.Script.Args)); err != nil {
		return nil, err
	}
	return e.group.Script.Clone(), nil
}

// LoadTxHash implements Environment
func (e *TransactionEnvironment) LoadTxHash() (externalapi.DomainHash, error) {
	if err := e.chargeLoad(externalapi.DomainHashSize); err != nil {
		return externalapi.DomainHash{}, err
	}
	return cellhashing.TransactionHash(e.tx.Transaction), nil
}

func (e *TransactionEnvironment) cell(index int, source Source) (*externalapi.CellOutput, []byte, error) {
	if index < 0 {
		return nil, nil, ErrIndexOutOfBound
	}
	switch source {
	case SourceInput:
		if index >= len(e.tx.InputCells) {
			return nil, nil, ErrIndexOutOfBound
		}
		return e.tx.InputCells[index], e.tx.InputData[index], nil
	case SourceOutput:
		if index >= len(e.tx.Transaction.Outputs) {
			return nil, nil, ErrIndexOutOfBound
		}
		return e.tx.Transaction.Outputs[index], e.tx.Transaction.OutputsData[index], nil
	case SourceCellDep:
		if index >= len(e.tx.DepCells) {
			return nil, nil, ErrIndexOutOfBound
		}
		if e.tx.DepCells[index] == nil {
			return nil, nil, ErrItemMissing
		}
		return e.tx.DepCells[index], e.tx.DepData[index], nil
	case SourceGroupInput:
		if index >= len(e.group.InputIndexes) {
			return nil, nil, ErrIndexOutOfBound
		}
		return e.cell(e.group.InputIndexes[index], SourceInput)
	case SourceGroupOutput:
		if index >= len(e.group.OutputIndexes) {
			return nil, nil, ErrIndexOutOfBound
		}
		return e.cell(e.group.OutputIndexes[index], SourceOutput)
	}
	return nil, nil, errors.Wrapf(ErrIndexOutOfBound, "unknown source %s", source)
}

// LoadCell implements Environment
func (e *TransactionEnvironment) LoadCell(index int, source Source) (*externalapi.CellOutput, error) {
	cell, _, err := e.cell(index, source)
	if err != nil {
		return nil, err
	}
	if err := e.chargeLoad(len(serialization.SerializeCellOutput(cell))); err != nil {
		return nil, err
	}
	return cell.Clone(), nil
}

// LoadCellCapacity implements Environment
func (e *TransactionEnvironment) LoadCellCapacity(index int, source Source) (uint64, error) {
	cell, _, err := e.cell(index, source)
	if err != nil {
		return 0, err
	}
	if err := e.chargeLoad(8); err != nil {
		return 0, err
	}
	return cell.Capacity, nil
}

// LoadCellLock implements Environment
func (e *TransactionEnvironment) LoadCellLock(index int, source Source) (*externalapi.Script, error) {
	cell, _, err := e.cell(index, source)
	if err != nil {
		return nil, err
	}
	if err := e.chargeLoad(len(cell.Lock.Args)); err != nil {
		return nil, err
	}
	return cell.Lock.Clone(), nil
}

// LoadCellType implements Environment
func (e *TransactionEnvironment) LoadCellType(index int, source Source) (*externalapi.Script, error) {
	cell, _, err := e.cell(index, source)
	if err != nil {
		return nil, err
	}
	if cell.Type == nil {
		return nil, e.chargeLoad(0)
	}
	if err := e.chargeLoad(len(cell.Type.Args)); err != nil {
		return nil, err
	}
	return cell.Type.Clone(), nil
}

// LoadCellTypeHash implements Environment
func (e *TransactionEnvironment) LoadCellTypeHash(index int, source Source) (externalapi.DomainHash, bool, error) {
	cell, _, err := e.cell(index, source)
	if err != nil {
		return externalapi.DomainHash{}, false, err
	}
	if err := e.chargeLoad(externalapi.DomainHashSize); err != nil {
		return externalapi.DomainHash{}, false, err
	}
	if cell.Type == nil {
		return externalapi.DomainHash{}, false, nil
	}
	return cellhashing.ScriptHash(cell.Type), true, nil
}

// LoadCellData implements Environment
func (e *TransactionEnvironment) LoadCellData(index int, source Source) ([]byte, error) {
	_, data, err := e.cell(index, source)
	if err != nil {
		return nil, err
	}
	if err := e.chargeLoad(len(data)); err != nil {
		return nil, err
	}
	dataClone := make([]byte, len(data))
	copy(dataClone, data)
	return dataClone, nil
}

// LoadWitnessArgs implements Environment. Witnesses are aligned to inputs,
// so group sources are translated to transaction positions first.
func (e *TransactionEnvironment) LoadWitnessArgs(index int, source Source) (*externalapi.WitnessArgs, error) {
	switch source {
	case SourceGroupInput:
		if index < 0 || index >= len(e.group.InputIndexes) {
			return nil, ErrIndexOutOfBound
		}
		index = e.group.InputIndexes[index]
	case SourceGroupOutput:
		if index < 0 || index >= len(e.group.OutputIndexes) {
			return nil, ErrIndexOutOfBound
		}
		index = e.group.OutputIndexes[index]
	case SourceCellDep:
		return nil, errors.Wrapf(ErrIndexOutOfBound, "cell deps have no witnesses")
	}

	witnesses := e.tx.Transaction.Witnesses
	if index < 0 || index >= len(witnesses) {
		return nil, ErrIndexOutOfBound
	}
	if err := e.chargeLoad(len(witnesses[index])); err != nil {
		return nil, err
	}
	if len(witnesses[index]) == 0 {
		return nil, ErrItemMissing
	}
	witness, err := serialization.DeserializeWitnessArgs(witnesses[index])
	if err != nil {
		return nil, errors.Wrapf(ErrEncoding, "witness %d: %s", index, err)
	}
	return witness, nil
}

// QueryIter calls visit with the items load returns for indexes 0, 1, 2... of source
// until load fails with ErrIndexOutOfBound or visit returns false. Any other load
// error is returned.
func QueryIter[T any](load func(index int, source Source) (T, error), source Source,
	visit func(index int, item T) bool) error {

	for index := 0; ; index++ {
		item, err := load(index, source)
		if errors.Is(err, ErrIndexOutOfBound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !visit(index, item) {
			return nil
		}
	}
}
