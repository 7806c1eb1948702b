package operation

import (
	"bytes"
	"context"
	"testing"

	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/cellhashing"
	"github.com/pkg/errors"
)

// recordingSigner "signs" by returning the message, padded to its signature size
type recordingSigner struct {
	lock     *externalapi.Script
	messages []externalapi.DomainHash
}

func (s *recordingSigner) OwnsLock(lock *externalapi.Script) bool {
	return lock.Equal(s.lock)
}

func (s *recordingSigner) Sign(message externalapi.DomainHash) ([]byte, error) {
	s.messages = append(s.messages, message)
	return append(message.ByteSlice(), make([]byte, s.SignatureSize()-len(message))...), nil
}

func (s *recordingSigner) SignatureSize() int {
	return 64
}

func TestAddSignatures(t *testing.T) {
	client := newTestClient(t)
	mintCells(t, client, testLock(1), 100*ckb, 100*ckb)
	mintCells(t, client, testLock(2), 100*ckb)
	s := skeleton.New()
	err := runOperations(t, client, s,
		&AddInputCell{Lock: skeleton.NewScriptEx(testLock(1)), Count: 1, SearchMode: rpc.SearchModeExact},
		&AddInputCell{Lock: skeleton.NewScriptEx(testLock(2)), Count: 1, SearchMode: rpc.SearchModeExact},
		&AddInputCell{Lock: skeleton.NewScriptEx(testLock(1)), Count: 1, SearchMode: rpc.SearchModeExact},
		&AddOutputCell{Lock: skeleton.NewScriptEx(testLock(3)), Capacity: 299 * ckb})
	if err != nil {
		t.Fatalf("runOperations: %+v", err)
	}

	signer := &recordingSigner{lock: testLock(1)}
	err = (&AddSignatures{Signer: signer}).Run(context.Background(), client, s)
	if err != nil {
		t.Fatalf("AddSignatures: %+v", err)
	}
	if len(signer.messages) != 1 {
		t.Fatalf("expected one signed lock group, got %d", len(signer.messages))
	}
	if len(s.Witnesses[0].Lock) != signer.SignatureSize() {
		t.Fatalf("the first input of the group wasn't signed")
	}
	if s.Witnesses[1].Lock != nil || s.Witnesses[2].Lock != nil {
		t.Fatalf("only the first witness of the owned group may be signed")
	}

	// The message commits to the witness holding a zeroed placeholder
	tx := s.Transaction()
	placeholder := *s.Witnesses[0]
	placeholder.Lock = make([]byte, signer.SignatureSize())
	signedSkeleton := *s
	signedSkeleton.Witnesses = []*externalapi.WitnessArgs{&placeholder, s.Witnesses[1], s.Witnesses[2]}
	unsignedTx := signedSkeleton.Transaction()
	expected := cellhashing.SighashAllMessage(cellhashing.TransactionHash(tx),
		[][]byte{unsignedTx.Witnesses[0], unsignedTx.Witnesses[2]})
	if signer.messages[0] != expected {
		t.Fatalf("unexpected sighash message %s, expected %s", signer.messages[0], expected)
	}
	if !bytes.Equal(s.Witnesses[0].Lock[:32], expected.ByteSlice()) {
		t.Fatalf("the signature wasn't stored in the witness")
	}
}

func TestAddSignaturesNothingToSign(t *testing.T) {
	client := newTestClient(t)
	mintCells(t, client, testLock(1), 100*ckb)
	s := skeleton.New()
	err := runOperations(t, client, s,
		&AddInputCell{Lock: skeleton.NewScriptEx(testLock(1)), Count: 1, SearchMode: rpc.SearchModeExact},
		&AddSignatures{Signer: &recordingSigner{lock: testLock(9)}})
	if !errors.Is(err, ErrNothingToSign) {
		t.Fatalf("expected ErrNothingToSign, got %v", err)
	}
}
