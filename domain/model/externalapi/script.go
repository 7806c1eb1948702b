package externalapi

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
)

// ScriptHashType tells how a script's CodeHash is matched against cell deps
type ScriptHashType byte

// Supported hash types
const (
	HashTypeData  ScriptHashType = 0
	HashTypeType  ScriptHashType = 1
	HashTypeData1 ScriptHashType = 2
	HashTypeData2 ScriptHashType = 4
)

var hashTypeNames = map[ScriptHashType]string{
	HashTypeData:  "data",
	HashTypeType:  "type",
	HashTypeData1: "data1",
	HashTypeData2: "data2",
}

func (t ScriptHashType) String() string {
	if name, ok := hashTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", byte(t))
}

// ParseScriptHashType returns the ScriptHashType named by name
func ParseScriptHashType(name string) (ScriptHashType, error) {
	for hashType, hashTypeName := range hashTypeNames {
		if hashTypeName == name {
			return hashType, nil
		}
	}
	return 0, errors.Errorf("unknown script hash type %q", name)
}

// IsValid returns whether t is one of the known hash types
func (t ScriptHashType) IsValid() bool {
	_, ok := hashTypeNames[t]
	return ok
}

// Script is a predicate attached to a cell: the lock script decides who may spend
// it, the type script defines what kind of cell it is.
type Script struct {
	CodeHash DomainHash
	HashType ScriptHashType
	Args     []byte
}

// Equal returns whether script equals to other
func (script *Script) Equal(other *Script) bool {
	if script == nil || other == nil {
		return script == other
	}
	return script.CodeHash == other.CodeHash &&
		script.HashType == other.HashType &&
		bytes.Equal(script.Args, other.Args)
}

// Clone returns a clone of Script
func (script *Script) Clone() *Script {
	if script == nil {
		return nil
	}
	argsClone := make([]byte, len(script.Args))
	copy(argsClone, script.Args)
	return &Script{
		CodeHash: script.CodeHash,
		HashType: script.HashType,
		Args:     argsClone,
	}
}

func (script *Script) String() string {
	if script == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s/%s/%x", script.CodeHash, script.HashType, script.Args)
}
