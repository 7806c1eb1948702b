package operation

import (
	"context"
	"testing"

	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
	"github.com/pkg/errors"
)

// TestBalanceInvariant checks that a balanced skeleton always pays at least
// its estimated fee, whichever way the change is handled.
func TestBalanceInvariant(t *testing.T) {
	tests := []struct {
		name              string
		funds             []uint64
		outputs           []uint64
		changeToOutput    bool
		additionalFeeRate uint64
		expectedOutputs   int
	}{
		{
			name:            "single input with change",
			funds:           []uint64{1000 * ckb},
			outputs:         []uint64{100 * ckb},
			expectedOutputs: 2,
		},
		{
			name:            "several inputs needed",
			funds:           []uint64{100 * ckb, 100 * ckb, 100 * ckb, 100 * ckb},
			outputs:         []uint64{250 * ckb},
			expectedOutputs: 2,
		},
		{
			name:              "higher fee rate",
			funds:             []uint64{1000 * ckb},
			outputs:           []uint64{100 * ckb, 200 * ckb},
			additionalFeeRate: 5000,
			expectedOutputs:   3,
		},
		{
			name:            "change into an existing output",
			funds:           []uint64{1000 * ckb},
			outputs:         []uint64{100 * ckb},
			changeToOutput:  true,
			expectedOutputs: 1,
		},
		{
			name:            "remainder too small for a change cell is left as fee",
			funds:           []uint64{100*ckb + 10*ckb},
			outputs:         []uint64{100 * ckb},
			expectedOutputs: 1,
		},
	}

	for _, test := range tests {
		client := newTestClient(t)
		mintCells(t, client, testLock(1), test.funds...)
		s := skeleton.New()
		for _, outputCapacity := range test.outputs {
			s.AddOutput(skeleton.NewCellOutputEx(testLock(2), nil, nil, outputCapacity))
		}

		changeReceiver := ChangeToLock(skeleton.NewScriptEx(testLock(1)))
		if test.changeToOutput {
			changeReceiver = ChangeToOutput(0)
		}
		balance := &BalanceTransaction{
			Balancer:          skeleton.NewScriptEx(testLock(1)),
			ChangeReceiver:    changeReceiver,
			AdditionalFeeRate: test.additionalFeeRate,
		}
		err := balance.Run(context.Background(), client, s)
		if err != nil {
			t.Fatalf("%s: BalanceTransaction: %+v", test.name, err)
		}

		fee := estimatedFee(s, nil, MinFeeRate+test.additionalFeeRate)
		if s.InputCapacity() < s.OutputCapacity()+fee {
			t.Fatalf("%s: inputs %d don't cover outputs %d plus fee %d",
				test.name, s.InputCapacity(), s.OutputCapacity(), fee)
		}
		if len(s.Outputs) != test.expectedOutputs {
			t.Fatalf("%s: expected %d outputs, got %d", test.name, test.expectedOutputs, len(s.Outputs))
		}
		if err := s.CheckCapacity(); err != nil {
			t.Fatalf("%s: CheckCapacity: %+v", test.name, err)
		}
		if test.changeToOutput && s.Outputs[0].Capacity() == test.outputs[0] {
			t.Fatalf("%s: the change output didn't receive the change", test.name)
		}
	}
}

func TestBalanceUnreachable(t *testing.T) {
	client := newTestClient(t)
	mintCells(t, client, testLock(1), 100*ckb)
	s := skeleton.New()
	s.AddOutput(skeleton.NewCellOutputEx(testLock(2), nil, nil, 1000*ckb))

	balance := &BalanceTransaction{
		Balancer:       skeleton.NewScriptEx(testLock(1)),
		ChangeReceiver: ChangeToLock(skeleton.NewScriptEx(testLock(1))),
	}
	err := balance.Run(context.Background(), client, s)
	var imbalanced *ImbalancedTransactionError
	if !errors.As(err, &imbalanced) {
		t.Fatalf("expected ImbalancedTransactionError, got %v", err)
	}
	if !errors.Is(err, ErrImbalancedTransaction) {
		t.Fatalf("ImbalancedTransactionError must unwrap to ErrImbalancedTransaction")
	}
	if imbalanced.Available != 100*ckb || imbalanced.Needed <= 1000*ckb {
		t.Fatalf("unexpected error numbers %+v", imbalanced)
	}
}

func TestBalanceSkipsConsumedCells(t *testing.T) {
	client := newTestClient(t)
	mintCells(t, client, testLock(1), 1000*ckb)
	s := skeleton.New()
	err := runOperations(t, client, s,
		&AddInputCell{Lock: skeleton.NewScriptEx(testLock(1)), Count: 1, SearchMode: rpc.SearchModeExact},
		&AddOutputCell{Lock: skeleton.NewScriptEx(testLock(2)), Capacity: 100 * ckb},
		&BalanceTransaction{
			Balancer:       skeleton.NewScriptEx(testLock(1)),
			ChangeReceiver: ChangeToLock(skeleton.NewScriptEx(testLock(1))),
		})
	if err != nil {
		t.Fatalf("runOperations: %+v", err)
	}
	if len(s.Inputs) != 1 {
		t.Fatalf("the already consumed cell must not be added twice, got %d inputs", len(s.Inputs))
	}
}

func TestBalanceRejectsBadChangeIndex(t *testing.T) {
	balance := &BalanceTransaction{
		Balancer:       skeleton.NewScriptEx(testLock(1)),
		ChangeReceiver: ChangeToOutput(4),
	}
	err := balance.Run(context.Background(), newTestClient(t), skeleton.New())
	if !errors.Is(err, skeleton.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}
