package skeleton

import (
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/capacity"
	"github.com/kaspanet/cinnabar/domain/utils/cellhashing"
)

// CellOutputEx is a cell output together with its data
type CellOutputEx struct {
	Output *externalapi.CellOutput
	Data   []byte
}

// NewCellOutputEx creates a cell. A zero capacity is replaced by the occupied capacity of the cell.
func NewCellOutputEx(lock, typeScript *externalapi.Script, data []byte, cellCapacity uint64) *CellOutputEx {
	cell := &CellOutputEx{
		Output: &externalapi.CellOutput{
			Capacity: cellCapacity,
			Lock:     lock,
			Type:     typeScript,
		},
		Data: data,
	}
	if cellCapacity == 0 {
		cell.Output.Capacity = cell.OccupiedCapacity()
	}
	return cell
}

// OccupiedCapacity returns the minimal capacity the cell must hold
func (c *CellOutputEx) OccupiedCapacity() uint64 {
	return capacity.OccupiedCapacity(c.Output, c.Data)
}

// Capacity returns the capacity the cell holds
func (c *CellOutputEx) Capacity() uint64 {
	return c.Output.Capacity
}

// LockHash returns the hash of the cell's lock script
func (c *CellOutputEx) LockHash() externalapi.DomainHash {
	return cellhashing.ScriptHash(c.Output.Lock)
}

// TypeHash returns the hash of the cell's type script, if it has one
func (c *CellOutputEx) TypeHash() (externalapi.DomainHash, bool) {
	if c.Output.Type == nil {
		return externalapi.DomainHash{}, false
	}
	return cellhashing.ScriptHash(c.Output.Type), true
}

// DataHash returns the hash of the cell's data
func (c *CellOutputEx) DataHash() externalapi.DomainHash {
	return cellhashing.Hash(c.Data)
}

// Clone returns a deep copy of the cell
func (c *CellOutputEx) Clone() *CellOutputEx {
	var dataClone []byte
	if c.Data != nil {
		dataClone = make([]byte, len(c.Data))
		copy(dataClone, c.Data)
	}
	return &CellOutputEx{Output: c.Output.Clone(), Data: dataClone}
}

// CellInputEx is an input together with the live cell it consumes
type CellInputEx struct {
	Input  *externalapi.CellInput
	Output *CellOutputEx
}

// CellDepEx is a cell dep, optionally named so scripts can reference it, together
// with the cell it points at. Output is nil for dep groups.
type CellDepEx struct {
	Name    string
	CellDep *externalapi.CellDep
	Output  *CellOutputEx
}
