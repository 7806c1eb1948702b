package operation

import (
	"context"

	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/cellhashing"
	"github.com/pkg/errors"
)

// Signer produces the lock witnesses of the inputs it owns
type Signer interface {
	// OwnsLock returns whether the signer can unlock cells locked by lock
	OwnsLock(lock *externalapi.Script) bool

	// Sign signs a sighash-all message
	Sign(message externalapi.DomainHash) ([]byte, error)

	// SignatureSize is the size of the signatures Sign returns
	SignatureSize() int
}

// AddSignatures signs every lock group owned by Signer. It commits to the whole
// transaction, so it must be the last operation to touch the skeleton.
type AddSignatures struct {
	Signer Signer
}

// Run implements Operation
func (op *AddSignatures) Run(_ context.Context, _ rpc.RPC, s *skeleton.TransactionSkeleton) error {
	signed := 0
	for _, group := range s.LockGroups() {
		if !op.Signer.OwnsLock(group.Script) {
			continue
		}
		firstWitness := s.Witnesses[group.InputIndexes[0]]
		firstWitness.Lock = make([]byte, op.Signer.SignatureSize())

		tx := s.Transaction()
		witnesses := make([][]byte, 0, len(group.InputIndexes)+len(tx.Witnesses)-len(tx.Inputs))
		for _, index := range group.InputIndexes {
			witnesses = append(witnesses, tx.Witnesses[index])
		}
		witnesses = append(witnesses, tx.Witnesses[len(tx.Inputs):]...)

		message := cellhashing.SighashAllMessage(cellhashing.TransactionHash(tx), witnesses)
		signature, err := op.Signer.Sign(message)
		if err != nil {
			return errors.Wrapf(err, "signing lock group of input %d", group.InputIndexes[0])
		}
		if len(signature) != op.Signer.SignatureSize() {
			return errors.Errorf("signer returned a %d byte signature, expected %d",
				len(signature), op.Signer.SignatureSize())
		}
		firstWitness.Lock = signature
		signed++
	}
	if signed == 0 {
		return errors.WithStack(ErrNothingToSign)
	}
	log.Debugf("Signed %d lock groups", signed)
	return nil
}
