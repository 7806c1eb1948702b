package rpcclient

import (
	"context"

	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
)

const getCellsPageSize = 100

type searchKeyFilter struct {
	Script             *jsonScript  `json:"script,omitempty"`
	ScriptLenRange     *[2]hexUint64 `json:"script_len_range,omitempty"`
	OutputDataLenRange *[2]hexUint64 `json:"output_data_len_range,omitempty"`
}

type searchKey struct {
	Script           *jsonScript      `json:"script"`
	ScriptType       string           `json:"script_type"`
	ScriptSearchMode string           `json:"script_search_mode"`
	Filter           *searchKeyFilter `json:"filter,omitempty"`
	WithData         bool             `json:"with_data"`
}

type indexerCell struct {
	Output     *jsonCellOutput `json:"output"`
	OutputData hexBytes        `json:"output_data"`
	OutPoint   *jsonOutPoint   `json:"out_point"`
}

type getCellsResult struct {
	Objects    []*indexerCell `json:"objects"`
	LastCursor string         `json:"last_cursor"`
}

func newSearchKey(query *rpc.CellQuery) *searchKey {
	key := &searchKey{
		Script:           toJSONScript(query.Lock),
		ScriptType:       "lock",
		ScriptSearchMode: query.SearchMode.String(),
		WithData:         true,
	}
	if query.Type != nil || query.PlainOnly {
		key.Filter = &searchKeyFilter{}
	}
	if query.Type != nil {
		key.Filter.Script = toJSONScript(query.Type)
	}
	if query.PlainOnly {
		empty := [2]hexUint64{newHexUint64(0), newHexUint64(1)}
		key.Filter.ScriptLenRange = &empty
		key.Filter.OutputDataLenRange = &empty
	}
	return key
}

// FindCells sends get_cells requests until query.Limit cells matching query are
// found or the indexer runs out of cells
func (c *RPCClient) FindCells(ctx context.Context, query *rpc.CellQuery) ([]*rpc.Cell, error) {
	key := newSearchKey(query)
	var cells []*rpc.Cell
	var cursor interface{}
	for {
		var result getCellsResult
		err := c.call(ctx, "get_cells", &result, key, "asc", newHexUint64(getCellsPageSize), cursor)
		if err != nil {
			return nil, err
		}
		for _, object := range result.Objects {
			cell, err := object.toCell()
			if err != nil {
				return nil, err
			}
			// The indexer only filters type scripts by prefix
			if !query.Matches(cell) {
				continue
			}
			cells = append(cells, cell)
			if query.Limit > 0 && len(cells) == query.Limit {
				return cells, nil
			}
		}
		if len(result.Objects) < getCellsPageSize {
			return cells, nil
		}
		cursor = result.LastCursor
	}
}

func (o *indexerCell) toCell() (*rpc.Cell, error) {
	outPoint, err := o.OutPoint.toOutPoint()
	if err != nil {
		return nil, err
	}
	output, err := o.Output.toCellOutput()
	if err != nil {
		return nil, err
	}
	data, err := o.OutputData.bytes()
	if err != nil {
		return nil, err
	}
	return &rpc.Cell{OutPoint: outPoint, Output: output, Data: data}, nil
}

var _ rpc.RPC = (*RPCClient)(nil)
