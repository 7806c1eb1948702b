package cellhashing

import (
	"encoding/binary"

	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/serialization"
	"golang.org/x/crypto/blake2b"
)

// Blake160Size is the size of a truncated blake2b hash, as used in lock args
const Blake160Size = 20

// TypeIDCodeHash is the code hash of the built-in type id script ("TYPE_ID" right aligned)
var TypeIDCodeHash = externalapi.DomainHash{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	'T', 'Y', 'P', 'E', '_', 'I', 'D',
}

// Hash returns the blake2b-256 hash of data
func Hash(data []byte) externalapi.DomainHash {
	return blake2b.Sum256(data)
}

// Blake160 returns the first 20 bytes of the blake2b-256 hash of data
func Blake160(data []byte) []byte {
	hash := Hash(data)
	return hash[:Blake160Size]
}

// ScriptHash returns the hash of the serialized script
func ScriptHash(script *externalapi.Script) externalapi.DomainHash {
	return Hash(serialization.SerializeScript(script))
}

// TransactionHash returns the hash of tx, which doesn't commit to its witnesses
func TransactionHash(tx *externalapi.DomainTransaction) externalapi.DomainHash {
	return Hash(serialization.SerializeRawTransaction(tx))
}

// TypeIDArgs derives the unique type id of the output at outputIndex of a
// transaction whose first input is firstInput
func TypeIDArgs(firstInput *externalapi.CellInput, outputIndex uint64) externalapi.DomainHash {
	writer := NewHashWriter()
	writer.InfallibleWrite(serialization.SerializeCellInput(firstInput))
	var index [8]byte
	binary.LittleEndian.PutUint64(index[:], outputIndex)
	writer.InfallibleWrite(index[:])
	return writer.Finalize()
}

// TypeIDScript returns the type id script with the given args
func TypeIDScript(typeID externalapi.DomainHash) *externalapi.Script {
	return &externalapi.Script{
		CodeHash: TypeIDCodeHash,
		HashType: externalapi.HashTypeType,
		Args:     typeID.ByteSlice(),
	}
}

// IsTypeIDScript returns whether script is a type id script
func IsTypeIDScript(script *externalapi.Script) bool {
	return script != nil && script.CodeHash == TypeIDCodeHash && script.HashType == externalapi.HashTypeType
}
