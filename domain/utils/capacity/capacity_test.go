package capacity

import (
	"testing"

	"github.com/kaspanet/cinnabar/domain/model/externalapi"
)

func TestOccupiedCapacity(t *testing.T) {
	lock := &externalapi.Script{Args: make([]byte, 20)}
	typeScript := &externalapi.Script{Args: make([]byte, 32)}

	tests := []struct {
		name     string
		output   *externalapi.CellOutput
		data     []byte
		expected uint64
	}{
		{
			name:     "secp256k1 cell",
			output:   &externalapi.CellOutput{Lock: lock},
			expected: 61 * ShannonsPerCKB,
		},
		{
			name:     "cell with type and data",
			output:   &externalapi.CellOutput{Lock: lock, Type: typeScript},
			data:     make([]byte, 10),
			expected: (61 + 65 + 10) * ShannonsPerCKB,
		},
	}
	for _, test := range tests {
		occupied := OccupiedCapacity(test.output, test.data)
		if occupied != test.expected {
			t.Fatalf("%s: expected %d, got %d", test.name, test.expected, occupied)
		}
	}
}

func TestCheckOutput(t *testing.T) {
	output := &externalapi.CellOutput{Lock: &externalapi.Script{Args: make([]byte, 20)}}
	output.Capacity = 61*ShannonsPerCKB - 1
	if err := CheckOutput(output, nil); err == nil {
		t.Fatalf("expected capacity underflow")
	}
	output.Capacity = 61 * ShannonsPerCKB
	if err := CheckOutput(output, nil); err != nil {
		t.Fatalf("CheckOutput: %+v", err)
	}
}

func TestFormatShannons(t *testing.T) {
	if formatted := FormatShannons(500*ShannonsPerCKB + 1); formatted != "500.00000001 CKB" {
		t.Fatalf("unexpected format %s", formatted)
	}
}
