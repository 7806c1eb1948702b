// Package fakerpc is a deterministic in-memory chain state. Calculators run
// against it exactly as they would against a node, and the simulator-only
// operations use it to mint cells and deploy contracts out of thin air.
package fakerpc

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/contracts"
	"github.com/kaspanet/cinnabar/domain/contracts/alwayssuccess"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/netparams"
	"github.com/kaspanet/cinnabar/domain/utils/capacity"
	"github.com/kaspanet/cinnabar/domain/utils/cellhashing"
	"github.com/kaspanet/cinnabar/domain/utils/serialization"
	"github.com/pkg/errors"
)

var (
	// ErrDoubleSpend indicates a transaction listing the same out point twice as an input
	ErrDoubleSpend = errors.New("double spend")

	// ErrOutputsExceedInputs indicates a transaction creating more capacity than it consumes
	ErrOutputsExceedInputs = errors.New("outputs exceed inputs")
)

// Secp256k1CodeBinary is the data of the fake secp256k1 code cell behind the dep group
var Secp256k1CodeBinary = []byte("cinnabar-system:secp256k1_blake160_sighash_all")

// Client is a simulated rpc.RPC. It is safe for concurrent use.
type Client struct {
	mtx sync.Mutex

	params    *netparams.Params
	contracts *contracts.Registry
	store     *cellStore

	mintCount     uint64
	alwaysSuccess *rpc.Cell
	deployed      map[deploymentKey]*rpc.Cell

	autoFundingCapacity uint64
	autoFundingCount    int

	dataDir      string
	initialCells []*rpc.Cell
}

type deploymentKey struct {
	name       string
	withTypeID bool
}

// Option configures a Client
type Option func(client *Client) error

// WithParams sets the network the client pretends to be. The default is the test network.
func WithParams(params *netparams.Params) Option {
	return func(client *Client) error {
		paramsCopy := *params
		client.params = &paramsCopy
		return nil
	}
}

// WithContracts sets the contracts DeployContract can deploy
func WithContracts(registry *contracts.Registry) Option {
	return func(client *Client) error {
		client.contracts = registry
		return nil
	}
}

// WithAutoFunding makes an exact query for plain cells that finds nothing mint
// count cells of cellCapacity shannons for the queried lock
func WithAutoFunding(cellCapacity uint64, count int) Option {
	return func(client *Client) error {
		if count <= 0 {
			return errors.Errorf("auto funding count must be positive, got %d", count)
		}
		client.autoFundingCapacity = cellCapacity
		client.autoFundingCount = count
		return nil
	}
}

// WithCells adds cells to the live cell set. Cells whose out point is already
// live are skipped.
func WithCells(cells ...*rpc.Cell) Option {
	return func(client *Client) error {
		client.initialCells = append(client.initialCells, cells...)
		return nil
	}
}

// WithDataDir keeps the live cell set in a leveldb database at dataDir, so
// that the simulated chain outlives the client
func WithDataDir(dataDir string) Option {
	return func(client *Client) error {
		client.dataDir = dataDir
		return nil
	}
}

// New returns a Client seeded with the always-success cell and the network's
// secp256k1 dep group
func New(options ...Option) (*Client, error) {
	params := netparams.TestnetParams
	client := &Client{
		params:   &params,
		deployed: make(map[deploymentKey]*rpc.Cell),
	}
	var err error
	client.contracts, err = contracts.NewRegistry(alwayssuccess.Contract)
	if err != nil {
		return nil, err
	}
	for _, option := range options {
		err := option(client)
		if err != nil {
			return nil, err
		}
	}

	client.store, err = newCellStore(client.dataDir)
	if err != nil {
		return nil, err
	}
	err = client.seed()
	if err != nil {
		client.store.close()
		return nil, err
	}
	return client, nil
}

// Close releases the client's storage
func (c *Client) Close() error {
	return c.store.close()
}

func (c *Client) seed() error {
	var err error
	alwaysSuccessOutput := &externalapi.CellOutput{Lock: c.alwaysSuccessLock(nil)}
	alwaysSuccessOutput.Capacity = capacity.OccupiedCapacity(alwaysSuccessOutput, alwayssuccess.Contract.Binary)
	c.alwaysSuccess = &rpc.Cell{
		OutPoint: externalapi.OutPoint{TxHash: cellhashing.Hash([]byte(alwayssuccess.Name))},
		Output:   alwaysSuccessOutput,
		Data:     alwayssuccess.Contract.Binary,
	}

	secp256k1Code := c.plainCell(externalapi.OutPoint{TxHash: c.params.Secp256k1DepGroup.TxHash, Index: 1},
		Secp256k1CodeBinary)
	depGroup := c.plainCell(c.params.Secp256k1DepGroup,
		serialization.SerializeOutPointVec([]externalapi.OutPoint{secp256k1Code.OutPoint}))

	c.mintCount, err = c.store.counter(mintCountKey)
	if err != nil {
		return err
	}
	batch := c.store.db.Begin()
	cells := append([]*rpc.Cell{c.alwaysSuccess, secp256k1Code, depGroup}, c.initialCells...)
	added := make(map[externalapi.OutPoint]struct{}, len(cells))
	for _, cell := range cells {
		if _, ok := added[cell.OutPoint]; ok {
			continue
		}
		live, err := c.store.has(cell.OutPoint)
		if err != nil {
			return err
		}
		if live {
			continue
		}
		c.store.add(batch, cell)
		added[cell.OutPoint] = struct{}{}
	}
	return batch.Commit()
}

func (c *Client) plainCell(outPoint externalapi.OutPoint, data []byte) *rpc.Cell {
	output := &externalapi.CellOutput{Lock: c.alwaysSuccessLock(nil)}
	output.Capacity = capacity.OccupiedCapacity(output, data)
	return &rpc.Cell{OutPoint: outPoint, Output: output, Data: data}
}

// alwaysSuccessLock returns the lock every simulated system cell carries
func (c *Client) alwaysSuccessLock(args []byte) *externalapi.Script {
	return &externalapi.Script{
		CodeHash: alwayssuccess.Contract.DataHash(),
		HashType: externalapi.HashTypeData1,
		Args:     args,
	}
}

// nextOutPoint returns a fresh out point. Out points depend only on how many
// cells were minted before, so runs are reproducible.
func (c *Client) nextOutPoint() externalapi.OutPoint {
	var counter [8]byte
	binary.LittleEndian.PutUint64(counter[:], c.mintCount)
	c.mintCount++

	writer := cellhashing.NewHashWriter()
	writer.InfallibleWrite([]byte("fakerpc:mint:"))
	writer.InfallibleWrite(counter[:])
	return externalapi.OutPoint{TxHash: writer.Finalize()}
}

// IsSimulated implements rpc.RPC
func (c *Client) IsSimulated() bool {
	return true
}

// Params implements rpc.RPC
func (c *Client) Params() *netparams.Params {
	return c.params
}

// FindCells implements rpc.RPC
func (c *Client) FindCells(ctx context.Context, query *rpc.CellQuery) ([]*rpc.Cell, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	cells, err := c.store.find(query)
	if err != nil {
		return nil, err
	}
	if len(cells) > 0 || !c.shouldAutoFund(query) {
		return cells, nil
	}

	log.Debugf("Auto funding %d cells of %s for lock %s", c.autoFundingCount,
		capacity.FormatShannons(c.autoFundingCapacity), query.Lock)
	batch := c.store.db.Begin()
	for i := 0; i < c.autoFundingCount; i++ {
		cell := &rpc.Cell{
			OutPoint: c.nextOutPoint(),
			Output:   &externalapi.CellOutput{Capacity: c.autoFundingCapacity, Lock: query.Lock.Clone()},
			Data:     []byte{},
		}
		c.store.add(batch, cell)
	}
	c.store.putCounter(batch, mintCountKey, c.mintCount)
	err = batch.Commit()
	if err != nil {
		return nil, err
	}
	return c.store.find(query)
}

func (c *Client) shouldAutoFund(query *rpc.CellQuery) bool {
	return c.autoFundingCount > 0 && query.PlainOnly && query.Type == nil &&
		query.SearchMode == rpc.SearchModeExact
}

// GetLiveCell implements rpc.RPC
func (c *Client) GetLiveCell(ctx context.Context, outPoint externalapi.OutPoint, withData bool) (*rpc.Cell, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	cell, err := c.store.get(outPoint)
	if err != nil {
		return nil, err
	}
	if !withData {
		cell.Data = nil
	}
	return cell, nil
}

// SendTransaction implements rpc.RPC. The inputs must be live and distinct, and
// must hold at least the capacity of the outputs. They are consumed and the
// outputs become live cells. Scripts aren't run.
func (c *Client) SendTransaction(ctx context.Context, tx *externalapi.DomainTransaction) (externalapi.DomainHash, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if len(tx.Outputs) != len(tx.OutputsData) {
		return externalapi.DomainHash{}, errors.Errorf("transaction has %d outputs but %d outputs data",
			len(tx.Outputs), len(tx.OutputsData))
	}
	txHash := cellhashing.TransactionHash(tx)
	err := c.checkBalance(tx)
	if err != nil {
		return externalapi.DomainHash{}, errors.Wrapf(err, "transaction %s", txHash)
	}
	batch := c.store.db.Begin()
	for _, input := range tx.Inputs {
		err := c.store.remove(batch, input.PreviousOutput)
		if err != nil {
			return externalapi.DomainHash{}, errors.Wrapf(err, "transaction %s", txHash)
		}
	}
	for i, output := range tx.Outputs {
		c.store.add(batch, &rpc.Cell{
			OutPoint: externalapi.OutPoint{TxHash: txHash, Index: uint32(i)},
			Output:   output.Clone(),
			Data:     tx.OutputsData[i],
		})
	}
	err = batch.Commit()
	if err != nil {
		return externalapi.DomainHash{}, err
	}
	log.Infof("Accepted transaction %s with %d inputs and %d outputs", txHash, len(tx.Inputs), len(tx.Outputs))
	return txHash, nil
}

// checkBalance resolves the inputs of tx against the live cell set and checks
// that none repeats and that they cover the outputs
func (c *Client) checkBalance(tx *externalapi.DomainTransaction) error {
	spent := make(map[externalapi.OutPoint]struct{}, len(tx.Inputs))
	var inputCapacity uint64
	for _, input := range tx.Inputs {
		if _, ok := spent[input.PreviousOutput]; ok {
			return errors.Wrapf(ErrDoubleSpend, "out point %s", input.PreviousOutput)
		}
		spent[input.PreviousOutput] = struct{}{}

		cell, err := c.store.get(input.PreviousOutput)
		if err != nil {
			return err
		}
		inputCapacity, err = addCapacity(inputCapacity, cell.Output.Capacity)
		if err != nil {
			return err
		}
	}

	var outputCapacity uint64
	for _, output := range tx.Outputs {
		var err error
		outputCapacity, err = addCapacity(outputCapacity, output.Capacity)
		if err != nil {
			return err
		}
	}
	if outputCapacity > inputCapacity {
		return errors.Wrapf(ErrOutputsExceedInputs, "outputs hold %s, inputs %s",
			capacity.FormatShannons(outputCapacity), capacity.FormatShannons(inputCapacity))
	}
	return nil
}

func addCapacity(total, amount uint64) (uint64, error) {
	sum := total + amount
	if sum < total {
		return 0, errors.Errorf("capacity overflows: %d + %d", total, amount)
	}
	return sum, nil
}

// MintCell implements rpc.Simulator
func (c *Client) MintCell(ctx context.Context, output *externalapi.CellOutput, data []byte) (*rpc.Cell, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.mint(output, data)
}

func (c *Client) mint(output *externalapi.CellOutput, data []byte) (*rpc.Cell, error) {
	err := capacity.CheckOutput(output, data)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte{}
	}
	cell := &rpc.Cell{OutPoint: c.nextOutPoint(), Output: output.Clone(), Data: data}
	batch := c.store.db.Begin()
	c.store.putCounter(batch, mintCountKey, c.mintCount)
	c.store.add(batch, cell)
	err = batch.Commit()
	if err != nil {
		return nil, err
	}
	return cell, nil
}

// DeployContract implements rpc.Simulator. The code cell of a contract is
// created once per type id setting and reused afterwards.
func (c *Client) DeployContract(ctx context.Context, name string, withTypeID bool) (*rpc.Cell, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	key := deploymentKey{name: name, withTypeID: withTypeID}
	if cell, ok := c.deployed[key]; ok {
		return cell, nil
	}
	contract, ok := c.contracts.ByName(name)
	if !ok {
		return nil, errors.Errorf("unknown contract %s, known contracts are %v", name, c.contracts.Names())
	}

	output := &externalapi.CellOutput{Lock: c.alwaysSuccessLock(nil)}
	if withTypeID {
		output.Type = cellhashing.TypeIDScript(cellhashing.Hash([]byte(name)))
	}
	output.Capacity = capacity.OccupiedCapacity(output, contract.Binary)
	cell, err := c.mint(output, contract.Binary)
	if err != nil {
		return nil, err
	}
	c.deployed[key] = cell
	log.Debugf("Deployed contract %s at %s", name, cell.OutPoint)
	return cell, nil
}

// AlwaysSuccessCell implements rpc.Simulator
func (c *Client) AlwaysSuccessCell() *rpc.Cell {
	return c.alwaysSuccess
}
