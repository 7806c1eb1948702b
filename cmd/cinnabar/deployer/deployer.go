// Package deployer puts contract cells on chain and keeps the deployment
// records of their lineage.
//
// A lineage starts with a deploy, continues with any number of migrations
// that spend the previous contract cell, and may end with a consume that
// releases its capacity. Only the owner of the latest contract cell may
// migrate or consume it.
package deployer

import (
	"context"
	"time"

	"github.com/kaspanet/cinnabar/domain/calculator/instruction"
	"github.com/kaspanet/cinnabar/domain/calculator/operation"
	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/calculator/skeleton"
	"github.com/kaspanet/cinnabar/domain/utils/cellhashing"
	"github.com/kaspanet/cinnabar/infrastructure/deployment"
	"github.com/kaspanet/cinnabar/util/address"
	"github.com/pkg/errors"
)

// AdditionalFeeRate is paid on top of operation.MinFeeRate, in shannons per KB
const AdditionalFeeRate = 2000

var (
	// ErrAlreadyConsumed is returned when the latest record of a contract is a consume
	ErrAlreadyConsumed = errors.New("version already consumed")

	// ErrNotOwner is returned when the payer doesn't own the contract cell
	ErrNotOwner = errors.New("payer address doesn't match the contract owner")

	// ErrVersionMismatch is returned when the given version isn't the latest one
	ErrVersionMismatch = errors.New("version doesn't match the latest record")
)

// Deployer builds, sends and records contract transactions on one network
type Deployer struct {
	chainState rpc.RPC
	store      *deployment.Store
	network    string
	binaries   BinaryLoader
	signer     operation.Signer
	now        func() time.Time
}

// New returns a Deployer. A nil signer leaves transactions unsigned, which
// only a simulated chain accepts.
func New(chainState rpc.RPC, store *deployment.Store, network string, binaries BinaryLoader,
	signer operation.Signer) *Deployer {

	return &Deployer{
		chainState: chainState,
		store:      store,
		network:    network,
		binaries:   binaries,
		signer:     signer,
		now:        time.Now,
	}
}

// DeployRequest describes a new contract cell
type DeployRequest struct {
	ContractName string
	Version      string
	Payer        *address.Address
	// Owner locks the contract cell. Defaults to Payer.
	Owner  *address.Address
	TypeID bool
}

// MigrateRequest describes the replacement of the latest contract cell
type MigrateRequest struct {
	ContractName string
	FromVersion  string
	ToVersion    string
	Payer        *address.Address
	// Owner locks the new contract cell. Defaults to Payer.
	Owner      *address.Address
	TypeIDMode TypeIDMode
}

// ConsumeRequest describes the destruction of the latest contract cell
type ConsumeRequest struct {
	ContractName string
	Version      string
	Payer        *address.Address
	// Receiver gets the released capacity. Defaults to Payer.
	Receiver *address.Address
}

func orDefault(addr, fallback *address.Address) *address.Address {
	if addr != nil {
		return addr
	}
	return fallback
}

func addressString(addr *address.Address) *string {
	if addr == nil {
		return nil
	}
	return deployment.StringPtr(addr.String())
}

// Deploy creates a contract cell holding the binary of the contract
func (d *Deployer) Deploy(ctx context.Context, request *DeployRequest) (*deployment.Record, error) {
	binary, err := d.binaries.LoadBinary(request.ContractName)
	if err != nil {
		return nil, err
	}
	owner := orDefault(request.Owner, request.Payer)

	deploy := instruction.New(
		&operation.AddSecp256k1SighashCellDep{},
		&operation.AddInputCellByAddress{Address: request.Payer},
		&operation.AddOutputCellByAddress{Address: owner, Data: binary, AddTypeID: request.TypeID},
	)
	deploy.Merge(d.tail(request.Payer, owner))

	record := &deployment.Record{
		Name:         request.ContractName,
		Operation:    deployment.OperationDeploy,
		Version:      request.Version,
		DataHash:     deployment.StringPtr(cellhashing.Hash(binary).String()),
		PayerAddress: request.Payer.String(),
		OwnerAddress: addressString(request.Owner),
	}
	return d.sendAndRecord(ctx, deploy, record)
}

// Migrate spends the latest contract cell and creates one holding the current
// binary of the contract
func (d *Deployer) Migrate(ctx context.Context, request *MigrateRequest) (*deployment.Record, error) {
	latest, err := d.latestOwnedRecord(request.ContractName, request.FromVersion, request.Payer)
	if err != nil {
		return nil, err
	}
	outPoint, err := latest.OutPoint()
	if err != nil {
		return nil, err
	}
	binary, err := d.binaries.LoadBinary(request.ContractName)
	if err != nil {
		return nil, err
	}
	owner := orDefault(request.Owner, request.Payer)
	ownerLock := skeleton.NewScriptEx(owner.Script())

	migrate := instruction.New(
		&operation.AddSecp256k1SighashCellDep{},
		&operation.AddInputCellByOutPoint{TxHash: outPoint.TxHash, Index: outPoint.Index},
	)
	switch request.TypeIDMode {
	case TypeIDModeKeep:
		migrate.Push(&operation.AddOutputCellByInputIndex{
			InputIndex:     0,
			Data:           binary,
			Lock:           &ownerLock,
			TypeMode:       operation.TypeModeKeep,
			AdjustCapacity: true,
		})
	case TypeIDModeRemove:
		migrate.Push(&operation.AddOutputCellByInputIndex{
			InputIndex:     0,
			Data:           binary,
			Lock:           &ownerLock,
			TypeMode:       operation.TypeModeRemove,
			AdjustCapacity: true,
		})
	case TypeIDModeNew:
		migrate.Push(&operation.AddOutputCellByAddress{Address: owner, Data: binary, AddTypeID: true})
	default:
		return nil, errors.Errorf("unknown type id mode %d", request.TypeIDMode)
	}
	migrate.Merge(d.tail(request.Payer, owner))

	record := &deployment.Record{
		Name:         request.ContractName,
		Operation:    deployment.OperationMigrate,
		Version:      request.ToVersion,
		DataHash:     deployment.StringPtr(cellhashing.Hash(binary).String()),
		PayerAddress: request.Payer.String(),
		OwnerAddress: addressString(request.Owner),
	}
	return d.sendAndRecord(ctx, migrate, record)
}

// Consume spends the latest contract cell and sends its capacity to the receiver
func (d *Deployer) Consume(ctx context.Context, request *ConsumeRequest) (*deployment.Record, error) {
	latest, err := d.latestOwnedRecord(request.ContractName, request.Version, request.Payer)
	if err != nil {
		return nil, err
	}
	outPoint, err := latest.OutPoint()
	if err != nil {
		return nil, err
	}

	consume := instruction.New(
		&operation.AddSecp256k1SighashCellDep{},
		&operation.AddInputCellByOutPoint{TxHash: outPoint.TxHash, Index: outPoint.Index},
	)
	consume.Merge(d.tail(request.Payer, orDefault(request.Receiver, request.Payer)))

	record := &deployment.Record{
		Name:         request.ContractName,
		Operation:    deployment.OperationConsume,
		PayerAddress: request.Payer.String(),
	}
	return d.sendAndRecord(ctx, consume, record)
}

// latestOwnedRecord returns the latest record of a contract after checking
// that it is live, owned by payer and at version
func (d *Deployer) latestOwnedRecord(name, version string, payer *address.Address) (*deployment.Record, error) {
	latest, err := d.store.Latest(d.network, name)
	if err != nil {
		return nil, err
	}
	if latest.IsConsumed() {
		return nil, errors.Wrapf(ErrAlreadyConsumed, "contract %s", name)
	}
	if latest.ContractOwnerAddress() != payer.String() {
		return nil, errors.Wrapf(ErrNotOwner, "contract %s is owned by %s, not %s",
			name, latest.ContractOwnerAddress(), payer)
	}
	if latest.Version != version {
		return nil, errors.Wrapf(ErrVersionMismatch, "contract %s is at version %s, not %s",
			name, latest.Version, version)
	}
	return latest, nil
}

// tail balances with the payer's cells and, unless unsigned, signs as the payer
func (d *Deployer) tail(payer, changeReceiver *address.Address) *instruction.Instruction {
	balancer := skeleton.NewScriptEx(payer.Script())
	change := operation.ChangeToLock(skeleton.NewScriptEx(changeReceiver.Script()))
	if d.signer == nil {
		return instruction.Balance(balancer, change, AdditionalFeeRate)
	}
	return instruction.BalanceAndSign(d.signer, balancer, change, AdditionalFeeRate)
}

// sendAndRecord sends the transaction built by the instruction and appends a
// record describing its first output
func (d *Deployer) sendAndRecord(ctx context.Context, instr *instruction.Instruction,
	record *deployment.Record) (*deployment.Record, error) {

	txHash, s, err := instruction.NewTransactionCalculator(d.chainState, instr).Send(ctx)
	if err != nil {
		return nil, err
	}
	log.Infof("Transaction hash: %s", txHash)

	record.Date = d.now().UTC().Format(time.RFC3339)
	record.TxHash = txHash.String()
	record.OutIndex = 0
	if len(s.Outputs) > 0 {
		record.OccupiedCapacity = s.Outputs[0].OccupiedCapacity()
		if typeHash, ok := s.Outputs[0].TypeHash(); ok {
			record.TypeID = deployment.StringPtr(typeHash.String())
		}
	}

	err = d.store.Append(d.network, record)
	if err != nil {
		return nil, errors.Wrapf(err, "transaction %s was sent but its record was not saved", txHash)
	}
	return record, nil
}
