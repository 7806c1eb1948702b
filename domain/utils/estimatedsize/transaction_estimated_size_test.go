package estimatedsize

import (
	"testing"

	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/serialization"
)

func TestFeeForSize(t *testing.T) {
	tests := []struct {
		size, feeRate, expected uint64
	}{
		{size: 1000, feeRate: 1000, expected: 1000},
		{size: 1, feeRate: 1000, expected: 1},
		{size: 1001, feeRate: 1, expected: 2},
		{size: 500, feeRate: 0, expected: 0},
	}
	for _, test := range tests {
		fee := FeeForSize(test.size, test.feeRate)
		if fee != test.expected {
			t.Fatalf("FeeForSize(%d, %d): expected %d, got %d", test.size, test.feeRate, test.expected, fee)
		}
	}
}

func TestTransactionEstimatedSerializedSizeGrowsWithWitness(t *testing.T) {
	tx := &externalapi.DomainTransaction{
		Inputs: []*externalapi.CellInput{{}},
		Outputs: []*externalapi.CellOutput{
			{Lock: &externalapi.Script{Args: make([]byte, 20)}},
		},
		OutputsData: [][]byte{{}},
	}
	before := TransactionEstimatedSerializedSize(tx)
	tx.Witnesses = [][]byte{serialization.SerializeWitnessArgs(&externalapi.WitnessArgs{
		Lock: make([]byte, SignaturePlaceholderSize),
	})}
	after := TransactionEstimatedSerializedSize(tx)
	// 4 bytes of witnesses offset, 4 bytes of bytes header, 16 bytes of witness table,
	// 4 bytes of lock header and the placeholder itself
	expectedGrowth := uint64(4 + 4 + 16 + 4 + SignaturePlaceholderSize)
	if after-before != expectedGrowth {
		t.Fatalf("expected size to grow by %d, grew by %d", expectedGrowth, after-before)
	}
}
