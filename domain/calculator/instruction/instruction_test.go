package instruction

import (
	"bytes"
	"context"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/kaspanet/cinnabar/domain/calculator/operation"
	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/calculator/rpc/fakerpc"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
	"github.com/kaspanet/cinnabar/domain/contracts/alwayssuccess"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/capacity"
	"github.com/pkg/errors"
)

const ckb = capacity.ShannonsPerCKB

func newTestClient(t *testing.T) *fakerpc.Client {
	client, err := fakerpc.New(fakerpc.WithAutoFunding(1000*ckb, 3))
	if err != nil {
		t.Fatalf("fakerpc.New: %+v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func testLock(args byte) *externalapi.Script {
	return &externalapi.Script{
		CodeHash: externalapi.DomainHash{0x44},
		HashType: externalapi.HashTypeType,
		Args:     bytes.Repeat([]byte{args}, 20),
	}
}

func payInstructions() (*Instruction, *Instruction) {
	payer := skeleton.NewScriptEx(testLock(1))
	first := New(
		&operation.AddAlwaysSuccessCellDep{},
		&operation.AddInputCell{Lock: payer, Count: 1, SearchMode: rpc.SearchModeExact},
		&operation.AddOutputCell{Lock: skeleton.NewScriptExReference(alwayssuccess.Name, []byte{7}), Capacity: 300 * ckb},
	)
	second := New(
		&operation.AddOutputCell{Lock: skeleton.NewScriptEx(testLock(2)), Data: []byte("memo"), UseTypeID: true},
		&operation.BalanceTransaction{
			Balancer:       payer,
			ChangeReceiver: operation.ChangeToLock(payer),
		},
	)
	return first, second
}

// TestMergeMatchesSequentialRun checks that running a merged instruction gives
// the same skeleton as running its parts one after the other
func TestMergeMatchesSequentialRun(t *testing.T) {
	first, second := payInstructions()
	sequential, err := NewTransactionCalculator(newTestClient(t), first, second).Run(context.Background())
	if err != nil {
		t.Fatalf("sequential run: %+v", err)
	}

	mergedFirst, mergedSecond := payInstructions()
	mergedFirst.Merge(mergedSecond)
	if mergedSecond.Len() != 0 {
		t.Fatalf("Merge must drain the merged instruction, %d operations left", mergedSecond.Len())
	}
	merged, err := NewTransactionCalculator(newTestClient(t), mergedFirst).Run(context.Background())
	if err != nil {
		t.Fatalf("merged run: %+v", err)
	}

	if !reflect.DeepEqual(sequential.Transaction(), merged.Transaction()) {
		t.Fatalf("merged run differs from sequential run.\nsequential: %s\nmerged: %s",
			spew.Sdump(sequential.Transaction()), spew.Sdump(merged.Transaction()))
	}
}

func TestInstructionRunsOnce(t *testing.T) {
	calls := 0
	instruction := New(operation.Func(func(context.Context, rpc.RPC, *skeleton.TransactionSkeleton) error {
		calls++
		return nil
	}))
	s := skeleton.New()
	err := instruction.Run(context.Background(), nil, s)
	if err != nil {
		t.Fatalf("Run: %+v", err)
	}
	err = instruction.Run(context.Background(), nil, s)
	if !errors.Is(err, ErrInstructionConsumed) {
		t.Fatalf("expected ErrInstructionConsumed, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("operation ran %d times", calls)
	}
}

func TestOperationErrorLocatesFailure(t *testing.T) {
	errTest := errors.New("test failure")
	ok := operation.Func(func(context.Context, rpc.RPC, *skeleton.TransactionSkeleton) error { return nil })
	failing := operation.Func(func(context.Context, rpc.RPC, *skeleton.TransactionSkeleton) error { return errTest })
	ran := false
	never := operation.Func(func(context.Context, rpc.RPC, *skeleton.TransactionSkeleton) error {
		ran = true
		return nil
	})

	calculator := NewTransactionCalculator(newTestClient(t), New(ok), New(ok, ok, failing, never))
	_, err := calculator.Run(context.Background())
	var operationError *OperationError
	if !errors.As(err, &operationError) {
		t.Fatalf("expected an OperationError, got %v", err)
	}
	if operationError.InstructionIndex != 1 || operationError.OperationIndex != 2 {
		t.Fatalf("unexpected failure location %d/%d", operationError.InstructionIndex, operationError.OperationIndex)
	}
	if !errors.Is(err, errTest) {
		t.Fatalf("OperationError must unwrap to the operation's error")
	}
	if ran {
		t.Fatalf("an operation ran after a failure")
	}
}

func TestCalculatorChecksCapacity(t *testing.T) {
	underfunded := operation.Func(func(_ context.Context, _ rpc.RPC, s *skeleton.TransactionSkeleton) error {
		s.AddOutput(skeleton.NewCellOutputEx(testLock(1), nil, nil, 1))
		return nil
	})
	_, err := NewTransactionCalculator(newTestClient(t), New(underfunded)).Run(context.Background())
	if !errors.Is(err, skeleton.ErrOutputCapacityUnderflow) {
		t.Fatalf("expected ErrOutputCapacityUnderflow, got %v", err)
	}
}

func TestCalculatorHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTransactionCalculator(newTestClient(t), New()).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSend(t *testing.T) {
	client := newTestClient(t)
	first, second := payInstructions()
	txHash, s, err := NewTransactionCalculator(client, first, second).Send(context.Background())
	if err != nil {
		t.Fatalf("Send: %+v", err)
	}
	if txHash != s.TxHash() {
		t.Fatalf("sent hash %s differs from the skeleton's %s", txHash, s.TxHash())
	}
	for i := range s.Outputs {
		_, err := client.GetLiveCell(context.Background(), externalapi.OutPoint{TxHash: txHash, Index: uint32(i)}, false)
		if err != nil {
			t.Fatalf("output %d is not live: %+v", i, err)
		}
	}
}
