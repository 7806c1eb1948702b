package skeleton

import (
	"fmt"

	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/pkg/errors"
)

// ScriptEx is either a concrete script or a reference to a named cell dep plus args.
// A reference is resolved against a skeleton: the code hash is the type hash of the
// dep cell when it has a type script, and the hash of its data otherwise.
type ScriptEx struct {
	script *externalapi.Script
	name   string
	args   []byte
}

// NewScriptEx wraps a concrete script
func NewScriptEx(script *externalapi.Script) ScriptEx {
	return ScriptEx{script: script}
}

// NewScriptExReference references the cell dep called name
func NewScriptExReference(name string, args []byte) ScriptEx {
	return ScriptEx{name: name, args: args}
}

// IsReference returns whether the script is a cell dep reference
func (s ScriptEx) IsReference() bool {
	return s.script == nil
}

// Name returns the referenced cell dep name, or an empty string for concrete scripts
func (s ScriptEx) Name() string {
	return s.name
}

// Args returns the script args
func (s ScriptEx) Args() []byte {
	if s.script != nil {
		return s.script.Args
	}
	return s.args
}

// WithArgs returns a copy of s with its args replaced
func (s ScriptEx) WithArgs(args []byte) ScriptEx {
	if s.script != nil {
		script := s.script.Clone()
		script.Args = args
		return ScriptEx{script: script}
	}
	return ScriptEx{name: s.name, args: args}
}

func (s ScriptEx) String() string {
	if s.script != nil {
		return s.script.String()
	}
	return fmt.Sprintf("%s/%x", s.name, s.args)
}

// Resolve returns the concrete script s describes
func (s ScriptEx) Resolve(skeleton *TransactionSkeleton) (*externalapi.Script, error) {
	if s.script != nil {
		return s.script.Clone(), nil
	}

	cellDep, ok := skeleton.CellDepByName(s.name)
	if !ok {
		return nil, errors.Wrapf(ErrBadScriptReference, "no cell dep named %q", s.name)
	}
	if cellDep.Output == nil {
		return nil, errors.Wrapf(ErrBadScriptReference, "cell dep %q has no resolved cell", s.name)
	}

	argsClone := make([]byte, len(s.args))
	copy(argsClone, s.args)
	if typeHash, ok := cellDep.Output.TypeHash(); ok {
		return &externalapi.Script{
			CodeHash: typeHash,
			HashType: externalapi.HashTypeType,
			Args:     argsClone,
		}, nil
	}
	if cellDep.Output.Data == nil {
		return nil, errors.Wrapf(ErrBadScriptReference, "cell dep %q has neither a type script nor data", s.name)
	}
	return &externalapi.Script{
		CodeHash: cellDep.Output.DataHash(),
		HashType: externalapi.HashTypeData1,
		Args:     argsClone,
	}, nil
}
