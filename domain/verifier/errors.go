package verifier

import (
	"fmt"

	"github.com/pkg/errors"
)

// CustomErrorStart is the first code contracts may use for their own errors.
// Lower codes are reserved for the environment and the dispatcher.
const CustomErrorStart int8 = 32

// ScriptError is the reason a script rejected a transaction. Its Code is the
// exit code the script would return and is stable across releases.
type ScriptError struct {
	Code    int8
	Message string
}

// NewScriptError returns a ScriptError with the given code
func NewScriptError(code int8, message string) ScriptError {
	return ScriptError{Code: code, Message: message}
}

func (e ScriptError) Error() string {
	return fmt.Sprintf("script error %d: %s", e.Code, e.Message)
}

// Is matches any ScriptError with the same code
func (e ScriptError) Is(target error) bool {
	var other ScriptError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// Errors raised by the environment
var (
	ErrIndexOutOfBound = NewScriptError(1, "index out of bound")
	ErrItemMissing     = NewScriptError(2, "item missing")
	ErrLengthNotEnough = NewScriptError(3, "length not enough")
	ErrEncoding        = NewScriptError(4, "encoding")
)

// Errors raised by the dispatcher. They reveal a broken tree rather than a bad transaction.
var (
	ErrTreeRootMissing   = NewScriptError(10, "tree root missing")
	ErrUnknownNode       = NewScriptError(11, "unknown node")
	ErrExceededMaxCycles = NewScriptError(12, "exceeded max cycles")
)

var (
	errInvalidNodeID   = errors.New("invalid node id")
	errDuplicateNodeID = errors.New("duplicate node id")
)

// IsConfigurationError returns whether err comes from a misconfigured tree
// rather than from a rejected transaction
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrTreeRootMissing) || errors.Is(err, ErrUnknownNode) ||
		errors.Is(err, errInvalidNodeID) || errors.Is(err, errDuplicateNodeID)
}

// ExitCode returns the exit code a script failing with err would return.
// Errors that are not ScriptErrors map to -1.
func ExitCode(err error) int8 {
	if err == nil {
		return 0
	}
	var scriptError ScriptError
	if errors.As(err, &scriptError) {
		return scriptError.Code
	}
	return -1
}
