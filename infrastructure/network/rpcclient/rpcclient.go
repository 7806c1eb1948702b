// Package rpcclient talks to a node over JSON-RPC. RPCClient implements rpc.RPC.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/kaspanet/cinnabar/domain/netparams"
	"github.com/pkg/errors"
)

const defaultTimeout = 30 * time.Second

// RPCClient is an RPC client
type RPCClient struct {
	params     *netparams.Params
	rpcAddress string
	httpClient *http.Client
	nextID     uint64
}

// NewRPCClient creates a client for the network described by params
func NewRPCClient(params *netparams.Params) *RPCClient {
	return &RPCClient{
		params:     params,
		rpcAddress: params.RPCURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SetTimeout sets the timeout by which to wait for RPC responses
func (c *RPCClient) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// Address returns the address the RPC client talks to
func (c *RPCClient) Address() string {
	return c.rpcAddress
}

// Params implements rpc.RPC
func (c *RPCClient) Params() *netparams.Params {
	return c.params
}

// IsSimulated implements rpc.RPC
func (c *RPCClient) IsSimulated() bool {
	return false
}

// ErrRPC is an error in the RPC protocol
var ErrRPC = errors.New("rpc error")

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

type response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *RPCClient) convertRPCError(err *rpcError) error {
	message := err.Message
	if err.Data != "" {
		message = fmt.Sprintf("%s: %s", message, err.Data)
	}
	return errors.Wrapf(ErrRPC, "code %d: %s", err.Code, message)
}

// call sends an RPC request respective to method and decodes the RPC server's result into result
func (c *RPCClient) call(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	id := atomic.AddUint64(&c.nextID, 1)
	requestBytes, err := json.Marshal(&request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return errors.WithStack(err)
	}
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcAddress, bytes.NewReader(requestBytes))
	if err != nil {
		return errors.WithStack(err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	log.Tracef("Sending %s request %d to %s", method, id, c.rpcAddress)
	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return errors.Wrapf(err, "error sending %s to %s", method, c.rpcAddress)
	}
	defer httpResponse.Body.Close()

	responseBytes, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return errors.Wrapf(err, "error reading the response to %s", method)
	}
	if httpResponse.StatusCode != http.StatusOK {
		return errors.Wrapf(ErrRPC, "%s returned HTTP status %d: %s", method, httpResponse.StatusCode, responseBytes)
	}
	var rpcResponse response
	err = json.Unmarshal(responseBytes, &rpcResponse)
	if err != nil {
		return errors.Wrapf(err, "error parsing the response to %s", method)
	}
	if rpcResponse.Error != nil {
		return c.convertRPCError(rpcResponse.Error)
	}
	if rpcResponse.ID != id {
		return errors.Wrapf(ErrRPC, "response id %d doesn't match request id %d", rpcResponse.ID, id)
	}
	if result == nil {
		return nil
	}
	err = json.Unmarshal(rpcResponse.Result, result)
	if err != nil {
		return errors.Wrapf(err, "error parsing the result of %s", method)
	}
	return nil
}
