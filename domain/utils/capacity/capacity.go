package capacity

import (
	"fmt"

	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/pkg/errors"
)

// ShannonsPerCKB is the number of shannons in one CKB. Capacity is counted in
// shannons, and every occupied byte costs one CKB.
const ShannonsPerCKB uint64 = 100_000_000

// CellOverheadBytes is the capacity field every cell carries
const CellOverheadBytes = 8

// ScriptOccupiedBytes returns the bytes a script occupies inside a cell.
// A nil script occupies nothing.
func ScriptOccupiedBytes(script *externalapi.Script) uint64 {
	if script == nil {
		return 0
	}
	return externalapi.DomainHashSize + 1 + uint64(len(script.Args))
}

// OccupiedBytes returns the storage footprint of a cell with the given output and data length
func OccupiedBytes(output *externalapi.CellOutput, dataLength int) uint64 {
	return CellOverheadBytes +
		ScriptOccupiedBytes(output.Lock) +
		ScriptOccupiedBytes(output.Type) +
		uint64(dataLength)
}

// OccupiedCapacity returns the minimal capacity, in shannons, that a cell with
// the given output and data must hold
func OccupiedCapacity(output *externalapi.CellOutput, data []byte) uint64 {
	return OccupiedBytes(output, len(data)) * ShannonsPerCKB
}

// CheckOutput returns an error if the output capacity does not cover its footprint
func CheckOutput(output *externalapi.CellOutput, data []byte) error {
	occupied := OccupiedCapacity(output, data)
	if output.Capacity < occupied {
		return errors.Errorf("capacity %s is below the occupied capacity %s",
			FormatShannons(output.Capacity), FormatShannons(occupied))
	}
	return nil
}

// FormatShannons formats an amount of shannons as a decimal CKB string
func FormatShannons(shannons uint64) string {
	return fmt.Sprintf("%d.%08d CKB", shannons/ShannonsPerCKB, shannons%ShannonsPerCKB)
}
