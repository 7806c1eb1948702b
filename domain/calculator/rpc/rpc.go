package rpc

import (
	"bytes"
	"context"

	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/netparams"
	"github.com/pkg/errors"
)

// ErrCellNotFound is returned by GetLiveCell when the out point is unknown or already spent
var ErrCellNotFound = errors.New("live cell not found")

// SearchMode tells how the args of a query script are compared with a cell's
type SearchMode int

// Search modes
const (
	SearchModePrefix SearchMode = iota
	SearchModeExact
)

func (m SearchMode) String() string {
	switch m {
	case SearchModePrefix:
		return "prefix"
	case SearchModeExact:
		return "exact"
	}
	return "unknown"
}

// CellQuery selects live cells by lock and type script
type CellQuery struct {
	Lock *externalapi.Script

	// Type is matched when non-nil
	Type *externalapi.Script

	// PlainOnly restricts results to cells without a type script and without data
	PlainOnly bool

	SearchMode SearchMode

	// Limit is the maximum number of cells to return. Zero means no limit.
	Limit int
}

// Cell is a live cell
type Cell struct {
	OutPoint externalapi.OutPoint
	Output   *externalapi.CellOutput
	Data     []byte
}

// Matches returns whether cell satisfies the query
func (q *CellQuery) Matches(cell *Cell) bool {
	if !q.scriptMatches(q.Lock, cell.Output.Lock) {
		return false
	}
	if q.Type != nil && !q.scriptMatches(q.Type, cell.Output.Type) {
		return false
	}
	if q.PlainOnly && (cell.Output.Type != nil || len(cell.Data) != 0) {
		return false
	}
	return true
}

func (q *CellQuery) scriptMatches(expected, actual *externalapi.Script) bool {
	if actual == nil {
		return false
	}
	if expected.CodeHash != actual.CodeHash || expected.HashType != actual.HashType {
		return false
	}
	if q.SearchMode == SearchModeExact {
		return bytes.Equal(expected.Args, actual.Args)
	}
	return bytes.HasPrefix(actual.Args, expected.Args)
}

// RPC is the chain state a calculator runs against. It is either a node
// reached over JSON-RPC or a deterministic in-memory simulation.
type RPC interface {
	// FindCells returns live cells matching query, in a deterministic order
	FindCells(ctx context.Context, query *CellQuery) ([]*Cell, error)

	// GetLiveCell returns the live cell at outPoint, or ErrCellNotFound
	GetLiveCell(ctx context.Context, outPoint externalapi.OutPoint, withData bool) (*Cell, error)

	// SendTransaction submits tx and returns its hash
	SendTransaction(ctx context.Context, tx *externalapi.DomainTransaction) (externalapi.DomainHash, error)

	// IsSimulated returns whether the chain state is simulated
	IsSimulated() bool

	// Params returns the parameters of the network behind the RPC
	Params() *netparams.Params
}

// Simulator is implemented by simulated chain states. It lets operations create
// cells out of thin air, which only makes sense offline.
type Simulator interface {
	// MintCell creates a new live cell
	MintCell(ctx context.Context, output *externalapi.CellOutput, data []byte) (*Cell, error)

	// DeployContract returns the code cell of the named contract, creating it on first use
	DeployContract(ctx context.Context, name string, withTypeID bool) (*Cell, error)

	// AlwaysSuccessCell returns the pre-seeded cell holding the always-success contract
	AlwaysSuccessCell() *Cell
}

// AsSimulator returns the Simulator behind chainState, or an error if it talks to a real network
func AsSimulator(chainState RPC) (Simulator, error) {
	simulator, ok := chainState.(Simulator)
	if !ok || !chainState.IsSimulated() {
		return nil, errors.Errorf("%T is not a simulated chain state", chainState)
	}
	return simulator, nil
}
