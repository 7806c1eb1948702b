package serialization

import (
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/pkg/errors"
)

// ScriptFixedSize is the size of a serialized script with empty args
const ScriptFixedSize = 4*4 + externalapi.DomainHashSize + 1 + 4

// SerializeScript encodes script as a molecule Script table
func SerializeScript(script *externalapi.Script) []byte {
	return serializeTable([][]byte{
		script.CodeHash.ByteSlice(),
		{byte(script.HashType)},
		SerializeBytes(script.Args),
	})
}

// DeserializeScript decodes a molecule Script table
func DeserializeScript(data []byte) (*externalapi.Script, error) {
	fields, err := deserializeTable(data, 3)
	if err != nil {
		return nil, errors.Wrap(err, "script")
	}

	codeHash, err := externalapi.NewDomainHashFromByteSlice(fields[0])
	if err != nil {
		return nil, errors.Wrapf(ErrMalformed, "script code hash: %s", err)
	}
	if len(fields[1]) != 1 {
		return nil, errors.Wrapf(ErrMalformed, "script hash type has %d bytes", len(fields[1]))
	}
	hashType := externalapi.ScriptHashType(fields[1][0])
	if !hashType.IsValid() {
		return nil, errors.Wrapf(ErrMalformed, "script hash type %d", fields[1][0])
	}
	args, err := DeserializeBytes(fields[2])
	if err != nil {
		return nil, errors.Wrap(err, "script args")
	}

	return &externalapi.Script{
		CodeHash: codeHash,
		HashType: hashType,
		Args:     args,
	}, nil
}

func serializeScriptOpt(script *externalapi.Script) []byte {
	if script == nil {
		return []byte{}
	}
	return SerializeScript(script)
}

func deserializeScriptOpt(data []byte) (*externalapi.Script, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return DeserializeScript(data)
}
