package simulation

import (
	"bytes"
	"context"
	"testing"

	"github.com/kaspanet/cinnabar/domain/calculator/instruction"
	"github.com/kaspanet/cinnabar/domain/calculator/operation"
	"github.com/kaspanet/cinnabar/domain/calculator/rpc/fakerpc"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
	"github.com/kaspanet/cinnabar/domain/contracts"
	"github.com/kaspanet/cinnabar/domain/contracts/alwayssuccess"
	"github.com/kaspanet/cinnabar/domain/contracts/simplelock"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/capacity"
	"github.com/kaspanet/cinnabar/domain/verifier"
	"github.com/pkg/errors"
)

func newTestSimulator(t *testing.T) (*TransactionSimulator, *fakerpc.Client) {
	registry, err := contracts.NewRegistry(alwayssuccess.Contract, simplelock.Contract)
	if err != nil {
		t.Fatalf("NewRegistry: %+v", err)
	}
	client, err := fakerpc.New(fakerpc.WithContracts(registry))
	if err != nil {
		t.Fatalf("fakerpc.New: %+v", err)
	}
	t.Cleanup(func() { client.Close() })
	return NewTransactionSimulator(registry), client
}

func transferInstruction(inputArgs []byte) *instruction.Instruction {
	alwaysSuccess := skeleton.NewScriptExReference(alwayssuccess.Name, nil)
	return instruction.New(
		&operation.AddAlwaysSuccessCellDep{},
		&operation.AddFakeContractCellDepByName{Contract: simplelock.Name},
		&operation.AddFakeCellInput{
			Lock:     skeleton.NewScriptExReference(simplelock.Name, inputArgs),
			Capacity: 1000 * capacity.ShannonsPerCKB,
		},
		&operation.AddOutputCell{Lock: skeleton.NewScriptExReference(simplelock.Name, bytes.Repeat([]byte{2}, 32))},
		&operation.BalanceTransaction{
			Balancer:       alwaysSuccess,
			ChangeReceiver: operation.ChangeToLock(alwaysSuccess),
		},
	)
}

func TestSimulatorAcceptsValidTransaction(t *testing.T) {
	simulator, client := newTestSimulator(t)
	result, err := simulator.Run(context.Background(), client, transferInstruction(bytes.Repeat([]byte{1}, 32)))
	if err != nil {
		t.Fatalf("Run: %+v", err)
	}
	if result.Cycles == 0 {
		t.Fatalf("a verified transaction must consume cycles")
	}
	if len(result.Skeleton.Outputs) != 2 {
		t.Fatalf("expected an output and a change output, got %d outputs", len(result.Skeleton.Outputs))
	}
}

func TestSimulatorRunsInputLocks(t *testing.T) {
	simulator, client := newTestSimulator(t)
	_, err := simulator.Run(context.Background(), client, transferInstruction([]byte{1, 2, 3}))
	if !errors.Is(err, simplelock.ErrBadArgs) {
		t.Fatalf("expected simple-lock to reject short args, got %v", err)
	}
	if verifier.ExitCode(err) != verifier.CustomErrorStart {
		t.Fatalf("unexpected exit code %d", verifier.ExitCode(err))
	}
}

func TestSimulatorUnknownProgram(t *testing.T) {
	simulator, client := newTestSimulator(t)
	unknownType := skeleton.NewScriptEx(&externalapi.Script{
		CodeHash: externalapi.DomainHash{0x99},
		HashType: externalapi.HashTypeData1,
	})
	result, err := simulator.Run(context.Background(), client, transferInstruction(bytes.Repeat([]byte{1}, 32)),
		instruction.New(&operation.AddOutputCell{Lock: skeleton.NewScriptEx(&externalapi.Script{}), Type: &unknownType}))
	if !errors.Is(err, ErrProgramNotFound) {
		t.Fatalf("expected ErrProgramNotFound, got %v (result %+v)", err, result)
	}
}

func TestSimulatorCycleBudget(t *testing.T) {
	simulator, client := newTestSimulator(t)
	simulator.MaxCycles = verifier.NodeCycles
	_, err := simulator.Run(context.Background(), client, transferInstruction(bytes.Repeat([]byte{1}, 32)))
	if !errors.Is(err, verifier.ErrExceededMaxCycles) {
		t.Fatalf("expected ErrExceededMaxCycles, got %v", err)
	}
}

func TestResolveExpandsDepGroups(t *testing.T) {
	_, client := newTestSimulator(t)
	s := skeleton.New()
	err := (&operation.AddSecp256k1SighashCellDep{}).Run(context.Background(), client, s)
	if err != nil {
		t.Fatalf("AddSecp256k1SighashCellDep: %+v", err)
	}
	resolved, err := resolve(context.Background(), client, s)
	if err != nil {
		t.Fatalf("resolve: %+v", err)
	}
	if len(resolved.DepCells) != 1 || string(resolved.DepData[0]) != string(fakerpc.Secp256k1CodeBinary) {
		t.Fatalf("the dep group wasn't expanded into its code cell")
	}
}
