package externalapi

import (
	"bytes"
	"fmt"
)

// OutPoint points to an output of a previous transaction
type OutPoint struct {
	TxHash DomainHash
	Index  uint32
}

// String stringifies an outpoint.
func (op OutPoint) String() string {
	return fmt.Sprintf("%s:%d", op.TxHash, op.Index)
}

// CellInput consumes a live cell
type CellInput struct {
	PreviousOutput OutPoint
	Since          uint64
}

// CellOutput is the content of a cell, excluding its data
type CellOutput struct {
	Capacity uint64
	Lock     *Script
	Type     *Script
}

// Clone returns a clone of CellOutput
func (output *CellOutput) Clone() *CellOutput {
	if output == nil {
		return nil
	}
	return &CellOutput{
		Capacity: output.Capacity,
		Lock:     output.Lock.Clone(),
		Type:     output.Type.Clone(),
	}
}

// Equal returns whether output equals to other
func (output *CellOutput) Equal(other *CellOutput) bool {
	if output == nil || other == nil {
		return output == other
	}
	return output.Capacity == other.Capacity &&
		output.Lock.Equal(other.Lock) &&
		output.Type.Equal(other.Type)
}

// DepType tells whether a cell dep points at code or at a group of other deps
type DepType byte

// Supported dep types
const (
	DepTypeCode     DepType = 0
	DepTypeDepGroup DepType = 1
)

func (t DepType) String() string {
	switch t {
	case DepTypeCode:
		return "code"
	case DepTypeDepGroup:
		return "dep_group"
	}
	return fmt.Sprintf("unknown(%d)", byte(t))
}

// CellDep is a read-only reference to a cell whose data a transaction's scripts need
type CellDep struct {
	OutPoint OutPoint
	DepType  DepType
}

// DomainTransaction represents a cell-model transaction
type DomainTransaction struct {
	Version     uint32
	CellDeps    []*CellDep
	HeaderDeps  []DomainHash
	Inputs      []*CellInput
	Outputs     []*CellOutput
	OutputsData [][]byte
	Witnesses   [][]byte
}

// WitnessArgs is the structured witness layout used by lock and type scripts.
// A nil field is absent.
type WitnessArgs struct {
	Lock       []byte
	InputType  []byte
	OutputType []byte
}

// IsEmpty returns whether all fields of the witness are absent
func (w *WitnessArgs) IsEmpty() bool {
	return w == nil || (w.Lock == nil && w.InputType == nil && w.OutputType == nil)
}

// Equal returns whether w equals to other
func (w *WitnessArgs) Equal(other *WitnessArgs) bool {
	if w == nil || other == nil {
		return w.IsEmpty() && other.IsEmpty()
	}
	return optionalBytesEqual(w.Lock, other.Lock) &&
		optionalBytesEqual(w.InputType, other.InputType) &&
		optionalBytesEqual(w.OutputType, other.OutputType)
}

func optionalBytesEqual(a, b []byte) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return bytes.Equal(a, b)
}
