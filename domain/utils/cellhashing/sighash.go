package cellhashing

import (
	"encoding/binary"

	"github.com/kaspanet/cinnabar/domain/model/externalapi"
)

// SighashAllMessage returns the message a sighash-all lock signs: the transaction
// hash followed by every witness of the lock group, each prefixed by its length
// as a little endian uint64. The first group witness must carry a zeroed
// signature placeholder.
func SighashAllMessage(txHash externalapi.DomainHash, witnesses [][]byte) externalapi.DomainHash {
	writer := NewHashWriter()
	writer.InfallibleWrite(txHash[:])
	var length [8]byte
	for _, witness := range witnesses {
		binary.LittleEndian.PutUint64(length[:], uint64(len(witness)))
		writer.InfallibleWrite(length[:])
		writer.InfallibleWrite(witness)
	}
	return writer.Finalize()
}
