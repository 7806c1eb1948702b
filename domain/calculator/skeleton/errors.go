package skeleton

import "github.com/pkg/errors"

var (
	// ErrOutputCapacityUnderflow indicates an output holding less capacity than its footprint
	ErrOutputCapacityUnderflow = errors.New("output capacity underflow")

	// ErrBadScriptReference indicates a script referencing a cell dep name the skeleton lacks,
	// or a cell dep whose code hash cannot be derived
	ErrBadScriptReference = errors.New("bad script reference")

	// ErrDuplicateInput indicates the same out point was added twice as an input
	ErrDuplicateInput = errors.New("duplicate input")

	// ErrIndexOutOfRange indicates an input or output index past the end of the skeleton
	ErrIndexOutOfRange = errors.New("index out of range")
)
