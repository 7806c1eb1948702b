package contract

import (
	"testing"

	"github.com/kaspanet/cinnabar/domain/blindbox/blindboxargs"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/cellhashing"
	"github.com/kaspanet/cinnabar/domain/verifier"
	"github.com/pkg/errors"
)

const (
	price     = 500 * 100_000_000
	maxCycles = 10_000_000
)

var (
	buyerLock    = &externalapi.Script{CodeHash: externalapi.DomainHash{0xb0}, HashType: externalapi.HashTypeType, Args: make([]byte, 20)}
	serverLock   = &externalapi.Script{CodeHash: externalapi.DomainHash{0x5e}, HashType: externalapi.HashTypeType, Args: []byte{1}}
	strangerLock = &externalapi.Script{CodeHash: externalapi.DomainHash{0x99}, HashType: externalapi.HashTypeType, Args: []byte{2}}
	seriesType   = &externalapi.Script{CodeHash: externalapi.DomainHash{0x5e, 0x51}, HashType: externalapi.HashTypeData1, Args: make([]byte, 32)}
)

func blindBoxType(count uint8) *externalapi.Script {
	args := &blindboxargs.Args{
		SeriesTypeHash: cellhashing.ScriptHash(seriesType),
		PurchaseCount:  count,
		Price:          price,
		Buyer:          buyerLock,
	}
	return &externalapi.Script{CodeHash: Contract.DataHash(), HashType: externalapi.HashTypeData1, Args: args.Encode()}
}

type transactionBuilder struct {
	tx *verifier.ResolvedTransaction
}

func newTransactionBuilder() *transactionBuilder {
	return &transactionBuilder{tx: &verifier.ResolvedTransaction{Transaction: &externalapi.DomainTransaction{}}}
}

func (b *transactionBuilder) input(capacity uint64, lock, typeScript *externalapi.Script) *transactionBuilder {
	b.tx.Transaction.Inputs = append(b.tx.Transaction.Inputs, &externalapi.CellInput{
		PreviousOutput: externalapi.OutPoint{Index: uint32(len(b.tx.InputCells))},
	})
	b.tx.InputCells = append(b.tx.InputCells, &externalapi.CellOutput{Capacity: capacity, Lock: lock, Type: typeScript})
	b.tx.InputData = append(b.tx.InputData, []byte{})
	b.tx.Transaction.Witnesses = append(b.tx.Transaction.Witnesses, []byte{})
	return b
}

func (b *transactionBuilder) output(capacity uint64, lock, typeScript *externalapi.Script) *transactionBuilder {
	b.tx.Transaction.Outputs = append(b.tx.Transaction.Outputs, &externalapi.CellOutput{Capacity: capacity, Lock: lock, Type: typeScript})
	b.tx.Transaction.OutputsData = append(b.tx.Transaction.OutputsData, []byte{})
	return b
}

// run runs the blind box tree over the group of typeScript
func (b *transactionBuilder) run(typeScript *externalapi.Script) error {
	group := &verifier.ScriptGroup{Script: typeScript}
	typeHash := cellhashing.ScriptHash(typeScript)
	for i, cell := range b.tx.InputCells {
		if cell.Type != nil && cellhashing.ScriptHash(cell.Type) == typeHash {
			group.InputIndexes = append(group.InputIndexes, i)
		}
	}
	for i, cell := range b.tx.Transaction.Outputs {
		if cell.Type != nil && cellhashing.ScriptHash(cell.Type) == typeHash {
			group.OutputIndexes = append(group.OutputIndexes, i)
		}
	}
	_, err := verifier.RunProgram(Contract.Program, b.tx, group, maxCycles)
	return err
}

func TestPurchase(t *testing.T) {
	const count = 3
	typeScript := blindBoxType(count)

	tests := []struct {
		name        string
		build       func() *transactionBuilder
		expectedErr error
	}{
		{
			name: "exact payment",
			build: func() *transactionBuilder {
				return newTransactionBuilder().
					input(count*price+1000, buyerLock, nil).
					output(count*price, serverLock, typeScript)
			},
		},
		{
			name: "payment one shannon short",
			build: func() *transactionBuilder {
				return newTransactionBuilder().
					input(count*price+1000, buyerLock, nil).
					output(count*price-1, serverLock, typeScript)
			},
			expectedErr: ErrInsufficientPay,
		},
		{
			name: "buyer missing from inputs",
			build: func() *transactionBuilder {
				return newTransactionBuilder().
					input(count*price+1000, strangerLock, nil).
					output(count*price, serverLock, typeScript)
			},
			expectedErr: ErrNoPayerFound,
		},
		{
			name: "buyer among several inputs",
			build: func() *transactionBuilder {
				return newTransactionBuilder().
					input(100, strangerLock, nil).
					input(count*price, buyerLock, nil).
					output(count*price, serverLock, typeScript)
			},
		},
	}
	for _, test := range tests {
		err := test.build().run(typeScript)
		if test.expectedErr == nil {
			if err != nil {
				t.Fatalf("%s: unexpected error: %+v", test.name, err)
			}
			continue
		}
		if !errors.Is(err, test.expectedErr) {
			t.Fatalf("%s: expected %v, got %v", test.name, test.expectedErr, err)
		}
		if verifier.IsConfigurationError(err) {
			t.Fatalf("%s: a rejection must not be a configuration error", test.name)
		}
	}
}

func TestOpen(t *testing.T) {
	const count = 5
	typeScript := blindBoxType(count)

	build := func(minted int) *transactionBuilder {
		builder := newTransactionBuilder().input(count*price, serverLock, typeScript)
		for i := 0; i < minted; i++ {
			builder.output(1000, buyerLock, seriesType)
		}
		// Cells of the series for someone else, or for the buyer without the series, don't count
		builder.output(1000, strangerLock, seriesType)
		builder.output(1000, buyerLock, nil)
		return builder
	}

	err := build(count).run(typeScript)
	if err != nil {
		t.Fatalf("opening exactly %d boxes: %+v", count, err)
	}
	err = build(count - 1).run(typeScript)
	if !errors.Is(err, ErrInsufficientOpen) {
		t.Fatalf("expected ErrInsufficientOpen, got %v", err)
	}
	err = build(count + 1).run(typeScript)
	if err != nil {
		t.Fatalf("opening more boxes than purchased: %+v", err)
	}
}

func TestAmbiguousShape(t *testing.T) {
	typeScript := blindBoxType(1)

	both := newTransactionBuilder().
		input(price, buyerLock, typeScript).
		output(price, serverLock, typeScript)
	err := both.run(typeScript)
	if !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("cell in both inputs and outputs: expected ErrUnknownOperation, got %v", err)
	}

	neither := newTransactionBuilder().
		input(price, buyerLock, nil).
		output(price, serverLock, nil)
	err = neither.run(typeScript)
	if !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("cell in neither inputs nor outputs: expected ErrUnknownOperation, got %v", err)
	}
	if verifier.ExitCode(err) != verifier.CustomErrorStart+1 {
		t.Fatalf("unexpected exit code %d", verifier.ExitCode(err))
	}
}

func TestBadArgs(t *testing.T) {
	typeScript := &externalapi.Script{CodeHash: Contract.DataHash(), HashType: externalapi.HashTypeData1, Args: make([]byte, 40)}
	err := newTransactionBuilder().
		input(price, buyerLock, nil).
		output(price, serverLock, typeScript).
		run(typeScript)
	if !errors.Is(err, ErrBadArgs) {
		t.Fatalf("expected ErrBadArgs, got %v", err)
	}
}

func TestErrorCodes(t *testing.T) {
	expected := map[verifier.ScriptError]int8{
		ErrBadArgs:          32,
		ErrUnknownOperation: 33,
		ErrInsufficientPay:  34,
		ErrNoPayerFound:     35,
		ErrInsufficientOpen: 36,
	}
	for scriptError, code := range expected {
		if scriptError.Code != code {
			t.Fatalf("%s: expected code %d", scriptError.Message, code)
		}
	}
}
