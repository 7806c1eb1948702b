package calculator

import (
	"context"
	"testing"

	"github.com/kaspanet/cinnabar/domain/blindbox/blindboxargs"
	"github.com/kaspanet/cinnabar/domain/blindbox/contract"
	"github.com/kaspanet/cinnabar/domain/calculator/instruction"
	"github.com/kaspanet/cinnabar/domain/calculator/operation"
	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/calculator/rpc/fakerpc"
	"github.com/kaspanet/cinnabar/domain/calculator/simulation"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
	"github.com/kaspanet/cinnabar/domain/contracts"
	"github.com/kaspanet/cinnabar/domain/contracts/alwayssuccess"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/capacity"
	"github.com/kaspanet/cinnabar/domain/verifier"
	"github.com/pkg/errors"
)

var (
	testBuyer  = skeleton.NewScriptExReference(alwayssuccess.Name, []byte{0})
	testServer = skeleton.NewScriptExReference(alwayssuccess.Name, []byte{1})
)

func newTestEnvironment(t *testing.T) (*simulation.TransactionSimulator, *fakerpc.Client) {
	registry, err := contracts.NewRegistry(alwayssuccess.Contract, contract.Contract)
	if err != nil {
		t.Fatalf("NewRegistry: %+v", err)
	}
	client, err := fakerpc.New(fakerpc.WithContracts(registry), fakerpc.WithAutoFunding(2000*capacity.ShannonsPerCKB, 2))
	if err != nil {
		t.Fatalf("fakerpc.New: %+v", err)
	}
	t.Cleanup(func() { client.Close() })
	return simulation.NewTransactionSimulator(registry), client
}

func prepare() *instruction.Instruction {
	return instruction.New(&operation.AddAlwaysSuccessCellDep{})
}

func TestSimulatedPurchase(t *testing.T) {
	for _, purchaseCount := range []uint8{1, 3} {
		simulator, client := newTestEnvironment(t)
		series := PublicSeries()
		result, err := simulator.Run(context.Background(), client,
			prepare(),
			BuildPurchaseBlindBox(nil, purchaseCount, testBuyer, testServer, series),
			instruction.Balance(testBuyer, operation.ChangeToLock(testBuyer), 0))
		if err != nil {
			t.Fatalf("count %d: purchase: %+v", purchaseCount, err)
		}

		purchaseCell := result.Skeleton.Outputs[0]
		if purchaseCell.Capacity() != uint64(purchaseCount)*Price {
			t.Fatalf("count %d: purchase cell holds %d shannons", purchaseCount, purchaseCell.Capacity())
		}
		args, err := blindboxargs.Decode(purchaseCell.Output.Type.Args)
		if err != nil {
			t.Fatalf("count %d: Decode: %+v", purchaseCount, err)
		}
		buyer, err := testBuyer.Resolve(result.Skeleton)
		if err != nil {
			t.Fatalf("Resolve: %+v", err)
		}
		if args.PurchaseCount != purchaseCount || args.Price != Price || !args.Buyer.Equal(buyer) ||
			args.SeriesTypeHash != series.TypeHash() {
			t.Fatalf("count %d: unexpected args %+v", purchaseCount, args)
		}
	}
}

func TestSimulatedOpen(t *testing.T) {
	simulator, client := newTestEnvironment(t)
	series := WhitelistSeries()
	result, err := simulator.Run(context.Background(), client,
		prepare(),
		BuildOpenBlindBox(nil, testServer, series),
		instruction.Balance(testServer, operation.ChangeToLock(testServer), 0))
	if err != nil {
		t.Fatalf("open: %+v", err)
	}

	opened := 0
	for _, output := range result.Skeleton.Outputs {
		if output.Output.Type != nil && output.Output.Type.Equal(series.TypeScript) {
			opened++
		}
	}
	if opened != SimulatedPurchaseCount {
		t.Fatalf("expected %d opened boxes, got %d", SimulatedPurchaseCount, opened)
	}
}

// TestPurchaseReadBack checks that opening a purchase cell mints exactly what
// was bought, for the buyer who bought it
func TestPurchaseReadBack(t *testing.T) {
	for _, purchaseCount := range []uint8{1, 2, 17, 255} {
		_, client := newTestEnvironment(t)
		series := PublicSeries()
		purchase, err := instruction.NewTransactionCalculator(client,
			prepare(),
			BuildPurchaseBlindBox(nil, purchaseCount, testBuyer, testServer, series),
		).Run(context.Background())
		if err != nil {
			t.Fatalf("count %d: purchase: %+v", purchaseCount, err)
		}

		open := skeleton.New()
		err = open.AddInput(&skeleton.CellInputEx{
			Input:  &externalapi.CellInput{PreviousOutput: externalapi.OutPoint{TxHash: purchase.TxHash()}},
			Output: purchase.Outputs[0],
		})
		if err != nil {
			t.Fatalf("AddInput: %+v", err)
		}
		err = (&AddBlindBoxOutputCellsBySeries{Series: series}).Run(context.Background(), client, open)
		if err != nil {
			t.Fatalf("count %d: AddBlindBoxOutputCellsBySeries: %+v", purchaseCount, err)
		}

		buyer, err := testBuyer.Resolve(purchase)
		if err != nil {
			t.Fatalf("Resolve: %+v", err)
		}
		if len(open.Outputs) != int(purchaseCount) {
			t.Fatalf("count %d: minted %d boxes", purchaseCount, len(open.Outputs))
		}
		for i, output := range open.Outputs {
			if !output.Output.Lock.Equal(buyer) || !output.Output.Type.Equal(series.TypeScript) {
				t.Fatalf("count %d: box %d isn't a series cell of the buyer", purchaseCount, i)
			}
		}

		err = (&AddBlindBoxOutputCellsBySeries{Series: WhitelistSeries()}).Run(context.Background(), client, open)
		if err == nil {
			t.Fatalf("opening into another series unexpectedly succeeded")
		}
	}
}

func TestSimulatedOpenRejectsMissingBoxes(t *testing.T) {
	simulator, client := newTestEnvironment(t)
	series := WhitelistSeries()
	dropLastBox := operation.Func(func(_ context.Context, _ rpc.RPC, s *skeleton.TransactionSkeleton) error {
		s.Outputs = s.Outputs[:len(s.Outputs)-1]
		return nil
	})
	_, err := simulator.Run(context.Background(), client,
		prepare(),
		BuildOpenBlindBox(nil, testServer, series),
		instruction.New(dropLastBox),
		instruction.Balance(testServer, operation.ChangeToLock(testServer), 0))
	if !errors.Is(err, contract.ErrInsufficientOpen) {
		t.Fatalf("expected InsufficientOpen, got %v", err)
	}
	if verifier.IsConfigurationError(err) {
		t.Fatalf("a missing box is a rejection, not a configuration error")
	}
}

func TestSimulatedPurchaseRejectsUnderpayment(t *testing.T) {
	simulator, client := newTestEnvironment(t)
	underpay := operation.Func(func(_ context.Context, _ rpc.RPC, s *skeleton.TransactionSkeleton) error {
		s.Outputs[0].Output.Capacity--
		return nil
	})
	_, err := simulator.Run(context.Background(), client,
		prepare(),
		BuildPurchaseBlindBox(nil, 2, testBuyer, testServer, PublicSeries()),
		instruction.New(underpay),
		instruction.Balance(testBuyer, operation.ChangeToLock(testBuyer), 0))
	if !errors.Is(err, contract.ErrInsufficientPay) {
		t.Fatalf("expected InsufficientPay, got %v", err)
	}
}

func TestPurchaseCountMustBePositive(t *testing.T) {
	_, client := newTestEnvironment(t)
	_, err := instruction.NewTransactionCalculator(client,
		prepare(),
		BuildPurchaseBlindBox(nil, 0, testBuyer, testServer, PublicSeries()),
	).Run(context.Background())
	if !errors.Is(err, blindboxargs.ErrBadArgs) {
		t.Fatalf("expected ErrBadArgs, got %v", err)
	}
}

// realNetwork only answers IsSimulated
type realNetwork struct {
	rpc.RPC
}

func (realNetwork) IsSimulated() bool {
	return false
}

func TestRealNetworkRequiresRecord(t *testing.T) {
	err := (&AddBlindBoxCellDep{}).Run(context.Background(), realNetwork{}, skeleton.New())
	if err == nil {
		t.Fatalf("adding the blind box cell dep without a record unexpectedly succeeded")
	}
}

func TestSimulatedFreePurchase(t *testing.T) {
	simulator, client := newTestEnvironment(t)
	free := uint64(0)
	result, err := simulator.Run(context.Background(), client,
		prepare(),
		instruction.New(
			&AddBlindBoxCellDep{},
			&AddBlindBoxOutputCell{
				Server:        testServer,
				Buyer:         testBuyer,
				PurchaseCount: 2,
				Series:        PublicSeries(),
				Price:         &free,
			},
		),
		instruction.Balance(testBuyer, operation.ChangeToLock(testBuyer), 0))
	if err != nil {
		t.Fatalf("free purchase: %+v", err)
	}

	purchaseCell := result.Skeleton.Outputs[0]
	args, err := blindboxargs.Decode(purchaseCell.Output.Type.Args)
	if err != nil {
		t.Fatalf("Decode: %+v", err)
	}
	if args.Price != 0 {
		t.Fatalf("expected a zero price, got %d", args.Price)
	}
	if purchaseCell.Capacity() != purchaseCell.OccupiedCapacity() {
		t.Fatalf("a free purchase cell should hold its occupied capacity %d, holds %d",
			purchaseCell.OccupiedCapacity(), purchaseCell.Capacity())
	}
}
