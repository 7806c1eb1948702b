package cellhashing

import (
	"bytes"
	"testing"

	"github.com/kaspanet/cinnabar/domain/model/externalapi"
)

func TestTypeIDArgs(t *testing.T) {
	input := &externalapi.CellInput{
		PreviousOutput: externalapi.OutPoint{TxHash: externalapi.DomainHash{0x11}, Index: 3},
	}

	first := TypeIDArgs(input, 0)
	if first != TypeIDArgs(input, 0) {
		t.Fatalf("type id derivation is not deterministic")
	}
	if first == TypeIDArgs(input, 1) {
		t.Fatalf("type ids of different output indexes collide")
	}

	otherInput := &externalapi.CellInput{
		PreviousOutput: externalapi.OutPoint{TxHash: externalapi.DomainHash{0x11}, Index: 4},
	}
	if first == TypeIDArgs(otherInput, 0) {
		t.Fatalf("type ids of different inputs collide")
	}
}

func TestHashWriterMatchesHash(t *testing.T) {
	data := []byte("cell model")
	writer := NewHashWriter()
	writer.InfallibleWrite(data[:4])
	writer.InfallibleWrite(data[4:])
	if writer.Finalize() != Hash(data) {
		t.Fatalf("incremental hash differs from one-shot hash")
	}
}

func TestBlake160(t *testing.T) {
	data := []byte{1, 2, 3}
	hash := Hash(data)
	short := Blake160(data)
	if len(short) != Blake160Size || !bytes.Equal(short, hash[:Blake160Size]) {
		t.Fatalf("unexpected blake160 %x", short)
	}
}

func TestTransactionHashIgnoresWitnesses(t *testing.T) {
	tx := &externalapi.DomainTransaction{
		Inputs: []*externalapi.CellInput{{}},
	}
	before := TransactionHash(tx)
	tx.Witnesses = [][]byte{{1}}
	if before != TransactionHash(tx) {
		t.Fatalf("transaction hash must not commit to witnesses")
	}
	tx.Inputs[0].Since = 1
	if before == TransactionHash(tx) {
		t.Fatalf("transaction hash must commit to inputs")
	}
}

func TestTypeIDScript(t *testing.T) {
	script := TypeIDScript(externalapi.DomainHash{1})
	if !IsTypeIDScript(script) {
		t.Fatalf("expected a type id script")
	}
	if IsTypeIDScript(&externalapi.Script{CodeHash: TypeIDCodeHash, HashType: externalapi.HashTypeData}) {
		t.Fatalf("data hash type must not be treated as type id")
	}
}

func TestSighashAllMessageCommitsToWitnesses(t *testing.T) {
	txHash := externalapi.DomainHash{1}
	base := SighashAllMessage(txHash, [][]byte{make([]byte, 65)})
	if base == SighashAllMessage(txHash, [][]byte{make([]byte, 65), {}}) {
		t.Fatalf("an extra empty witness must change the message")
	}
	if base == SighashAllMessage(externalapi.DomainHash{2}, [][]byte{make([]byte, 65)}) {
		t.Fatalf("the message must commit to the transaction hash")
	}
}
