package rpcclient

import (
	"context"

	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/pkg/errors"
)

type getLiveCellResult struct {
	Cell *struct {
		Output *jsonCellOutput `json:"output"`
		Data   *struct {
			Content hexBytes `json:"content"`
		} `json:"data"`
	} `json:"cell"`
	Status string `json:"status"`
}

// GetLiveCell sends a get_live_cell request. Cells that are not live yield rpc.ErrCellNotFound.
func (c *RPCClient) GetLiveCell(ctx context.Context, outPoint externalapi.OutPoint, withData bool) (*rpc.Cell, error) {
	var result getLiveCellResult
	err := c.call(ctx, "get_live_cell", &result, toJSONOutPoint(outPoint), withData)
	if err != nil {
		return nil, err
	}
	if result.Status != "live" || result.Cell == nil {
		return nil, errors.Wrapf(rpc.ErrCellNotFound, "out point %s has status %s", outPoint, result.Status)
	}
	output, err := result.Cell.Output.toCellOutput()
	if err != nil {
		return nil, err
	}
	cell := &rpc.Cell{OutPoint: outPoint, Output: output}
	if withData && result.Cell.Data != nil {
		cell.Data, err = result.Cell.Data.Content.bytes()
		if err != nil {
			return nil, err
		}
	}
	return cell, nil
}
