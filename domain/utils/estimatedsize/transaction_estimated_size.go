package estimatedsize

import (
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/serialization"
)

// BlockOffsetSize is the per-transaction offset a block spends to reference the transaction
const BlockOffsetSize = 4

// SignaturePlaceholderSize is the size of the lock field a signature will fill
const SignaturePlaceholderSize = 65

// TransactionEstimatedSerializedSize returns the size the transaction occupies in a block.
// Witnesses must already hold placeholders of their final size for the estimate to be exact.
func TransactionEstimatedSerializedSize(tx *externalapi.DomainTransaction) uint64 {
	return uint64(len(serialization.SerializeTransaction(tx))) + BlockOffsetSize
}

// FeeForSize returns the fee, in shannons, for size bytes at feeRate shannons per
// thousand bytes. The result is rounded up.
func FeeForSize(size uint64, feeRate uint64) uint64 {
	return (size*feeRate + 999) / 1000
}

// TransactionFee estimates the fee of tx at feeRate shannons per thousand bytes
func TransactionFee(tx *externalapi.DomainTransaction, feeRate uint64) uint64 {
	return FeeForSize(TransactionEstimatedSerializedSize(tx), feeRate)
}
