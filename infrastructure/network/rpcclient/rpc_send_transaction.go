package rpcclient

import (
	"context"

	"github.com/kaspanet/cinnabar/domain/model/externalapi"
)

// SendTransaction sends a send_transaction request and returns the hash the node assigned to tx
func (c *RPCClient) SendTransaction(ctx context.Context, tx *externalapi.DomainTransaction) (externalapi.DomainHash, error) {
	var txHash hexBytes
	err := c.call(ctx, "send_transaction", &txHash, toJSONTransaction(tx), "passthrough")
	if err != nil {
		return externalapi.DomainHash{}, err
	}
	hash, err := txHash.hash()
	if err != nil {
		return externalapi.DomainHash{}, err
	}
	log.Infof("Sent transaction %s to %s", hash, c.rpcAddress)
	return hash, nil
}
