package rpcclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/netparams"
	"github.com/kaspanet/cinnabar/domain/utils/cellhashing"
	"github.com/pkg/errors"
)

type handlerFunc func(method string, params []json.RawMessage) (interface{}, *rpcError)

// newTestClient starts a JSON-RPC server answering with handler and returns a client pointing at it
func newTestClient(t *testing.T, handler handlerFunc) *RPCClient {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result, rpcErr := handler(req.Method, req.Params)
		resultBytes, _ := json.Marshal(result)
		_ = json.NewEncoder(w).Encode(&response{ID: req.ID, Result: resultBytes, Error: rpcErr})
	}))
	t.Cleanup(server.Close)

	params := netparams.TestnetParams
	params.RPCURL = server.URL
	return NewRPCClient(&params)
}

func testLock(b byte) *externalapi.Script {
	return netparams.TestnetParams.Secp256k1Lock([]byte{b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b})
}

func testIndexerCell(index uint32, lock *externalapi.Script, capacity uint64) *indexerCell {
	return &indexerCell{
		Output:     toJSONCellOutput(&externalapi.CellOutput{Capacity: capacity, Lock: lock}),
		OutputData: newHexBytes(nil),
		OutPoint:   toJSONOutPoint(externalapi.OutPoint{TxHash: cellhashing.Hash([]byte("tx")), Index: index}),
	}
}

func TestFindCellsPaginates(t *testing.T) {
	lock := testLock(1)
	requests := 0
	client := newTestClient(t, func(method string, params []json.RawMessage) (interface{}, *rpcError) {
		if method != "get_cells" {
			t.Fatalf("TestFindCellsPaginates: unexpected method %s", method)
		}
		requests++
		var key searchKey
		if err := json.Unmarshal(params[0], &key); err != nil {
			t.Fatalf("TestFindCellsPaginates: search key: %+v", err)
		}
		if key.ScriptSearchMode != "exact" || key.Filter == nil || key.Filter.OutputDataLenRange == nil {
			t.Fatalf("TestFindCellsPaginates: unexpected search key %+v", key)
		}
		if requests == 1 {
			objects := make([]*indexerCell, getCellsPageSize)
			for i := range objects {
				objects[i] = testIndexerCell(uint32(i), lock, 100)
			}
			return &getCellsResult{Objects: objects, LastCursor: "0x01"}, nil
		}
		var cursor string
		if err := json.Unmarshal(params[3], &cursor); err != nil || cursor != "0x01" {
			t.Fatalf("TestFindCellsPaginates: unexpected cursor %s", params[3])
		}
		return &getCellsResult{Objects: []*indexerCell{testIndexerCell(getCellsPageSize, lock, 100)}}, nil
	})

	cells, err := client.FindCells(context.Background(), &rpc.CellQuery{
		Lock:       lock,
		PlainOnly:  true,
		SearchMode: rpc.SearchModeExact,
	})
	if err != nil {
		t.Fatalf("FindCells: %+v", err)
	}
	if len(cells) != getCellsPageSize+1 || requests != 2 {
		t.Fatalf("TestFindCellsPaginates: got %d cells in %d requests", len(cells), requests)
	}
	if !cells[0].Output.Lock.Equal(lock) || cells[0].Output.Capacity != 100 {
		t.Fatalf("TestFindCellsPaginates: unexpected cell %+v", cells[0].Output)
	}
}

func TestFindCellsLimitAndFiltering(t *testing.T) {
	lock := testLock(1)
	client := newTestClient(t, func(method string, params []json.RawMessage) (interface{}, *rpcError) {
		return &getCellsResult{Objects: []*indexerCell{
			testIndexerCell(0, testLock(2), 100),
			testIndexerCell(1, lock, 200),
			testIndexerCell(2, lock, 300),
		}}, nil
	})

	cells, err := client.FindCells(context.Background(), &rpc.CellQuery{
		Lock:       lock,
		SearchMode: rpc.SearchModeExact,
		Limit:      1,
	})
	if err != nil {
		t.Fatalf("FindCells: %+v", err)
	}
	if len(cells) != 1 || cells[0].OutPoint.Index != 1 {
		t.Fatalf("TestFindCellsLimitAndFiltering: unexpected cells %+v", cells)
	}
}

func TestGetLiveCell(t *testing.T) {
	lock := testLock(3)
	outPoint := externalapi.OutPoint{TxHash: cellhashing.Hash([]byte("live")), Index: 2}
	client := newTestClient(t, func(method string, params []json.RawMessage) (interface{}, *rpcError) {
		var requested jsonOutPoint
		if err := json.Unmarshal(params[0], &requested); err != nil {
			t.Fatalf("TestGetLiveCell: out point: %+v", err)
		}
		if requested.Index != "0x2" {
			return map[string]interface{}{"cell": nil, "status": "unknown"}, nil
		}
		return map[string]interface{}{
			"cell": map[string]interface{}{
				"output": toJSONCellOutput(&externalapi.CellOutput{Capacity: 6_100_000_000, Lock: lock}),
				"data":   map[string]interface{}{"content": "0xbeef"},
			},
			"status": "live",
		}, nil
	})

	cell, err := client.GetLiveCell(context.Background(), outPoint, true)
	if err != nil {
		t.Fatalf("GetLiveCell: %+v", err)
	}
	if cell.Output.Capacity != 6_100_000_000 || string(cell.Data) != "\xbe\xef" || cell.OutPoint != outPoint {
		t.Fatalf("TestGetLiveCell: unexpected cell %+v", cell)
	}

	_, err = client.GetLiveCell(context.Background(), externalapi.OutPoint{TxHash: outPoint.TxHash}, false)
	if !errors.Is(err, rpc.ErrCellNotFound) {
		t.Fatalf("TestGetLiveCell: expected ErrCellNotFound, got %v", err)
	}
}

func TestSendTransaction(t *testing.T) {
	expectedHash := cellhashing.Hash([]byte("sent"))
	tx := &externalapi.DomainTransaction{
		CellDeps: []*externalapi.CellDep{{
			OutPoint: netparams.TestnetParams.Secp256k1DepGroup,
			DepType:  externalapi.DepTypeDepGroup,
		}},
		Inputs:      []*externalapi.CellInput{{PreviousOutput: externalapi.OutPoint{TxHash: expectedHash}}},
		Outputs:     []*externalapi.CellOutput{{Capacity: 100, Lock: testLock(4)}},
		OutputsData: [][]byte{{}},
		Witnesses:   [][]byte{{1, 2}},
	}
	client := newTestClient(t, func(method string, params []json.RawMessage) (interface{}, *rpcError) {
		var sent jsonTransaction
		if err := json.Unmarshal(params[0], &sent); err != nil {
			t.Fatalf("TestSendTransaction: transaction: %+v", err)
		}
		if sent.CellDeps[0].DepType != "dep_group" || sent.Witnesses[0] != "0x0102" || sent.Version != "0x0" {
			t.Fatalf("TestSendTransaction: unexpected transaction %+v", sent)
		}
		return newHexHash(expectedHash), nil
	})

	txHash, err := client.SendTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("SendTransaction: %+v", err)
	}
	if txHash != expectedHash {
		t.Fatalf("TestSendTransaction: expected %s, got %s", expectedHash, txHash)
	}
}

func TestRPCError(t *testing.T) {
	client := newTestClient(t, func(method string, params []json.RawMessage) (interface{}, *rpcError) {
		return nil, &rpcError{Code: -301, Message: "TransactionFailedToResolve", Data: "Unknown(OutPoint)"}
	})
	_, err := client.SendTransaction(context.Background(), &externalapi.DomainTransaction{})
	if !errors.Is(err, ErrRPC) {
		t.Fatalf("TestRPCError: expected ErrRPC, got %v", err)
	}
}
