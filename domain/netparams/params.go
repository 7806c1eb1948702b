package netparams

import (
	"net/url"

	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/pkg/errors"
)

// Params defines a network by its endpoint and system scripts
type Params struct {
	// Name is used for deployment record paths and logs
	Name string

	// RPCURL is the default JSON-RPC endpoint of the network
	RPCURL string

	// Human-readable part for bech32 encoded addresses
	AddressPrefix string

	// The secp256k1 sighash-all lock every default address points at
	Secp256k1CodeHash externalapi.DomainHash
	Secp256k1HashType externalapi.ScriptHashType

	// Secp256k1DepGroup is the dep group cell holding the secp256k1 lock and its data
	Secp256k1DepGroup externalapi.OutPoint
}

// Secp256k1Lock returns the secp256k1 sighash-all lock for the given blake160 args
func (p *Params) Secp256k1Lock(args []byte) *externalapi.Script {
	argsClone := make([]byte, len(args))
	copy(argsClone, args)
	return &externalapi.Script{
		CodeHash: p.Secp256k1CodeHash,
		HashType: p.Secp256k1HashType,
		Args:     argsClone,
	}
}

var secp256k1CodeHash = mustHashFromString("9bd7e06f3ecf4be0f2fcd2188b23f1b9fcc88e5d4b65a8637b17723bbda3cce8")

// MainnetParams defines the network parameters for the main network.
var MainnetParams = Params{
	Name:              "mainnet",
	RPCURL:            "https://mainnet.ckb.dev",
	AddressPrefix:     "ckb",
	Secp256k1CodeHash: secp256k1CodeHash,
	Secp256k1HashType: externalapi.HashTypeType,
	Secp256k1DepGroup: externalapi.OutPoint{
		TxHash: mustHashFromString("71a7ba8fc96349fea0ed3a5c47992e3b4084b031a42264a018e0072e8172e46c"),
		Index:  0,
	},
}

// TestnetParams defines the network parameters for the test network.
var TestnetParams = Params{
	Name:              "testnet",
	RPCURL:            "https://testnet.ckb.dev",
	AddressPrefix:     "ckt",
	Secp256k1CodeHash: secp256k1CodeHash,
	Secp256k1HashType: externalapi.HashTypeType,
	Secp256k1DepGroup: externalapi.OutPoint{
		TxHash: mustHashFromString("f8de3bb47d055cdf460d93a2a6e1b05f7432f9777c8c474abf4eec1d4aee5d37"),
		Index:  0,
	},
}

// CustomNetworkName is the name used for networks given by URL
const CustomNetworkName = "custom"

// ParamsForNetwork resolves "mainnet", "testnet" or a JSON-RPC URL into network parameters.
// A URL is treated as a development chain sharing the test network's system scripts.
func ParamsForNetwork(network string) (*Params, error) {
	switch network {
	case MainnetParams.Name:
		params := MainnetParams
		return &params, nil
	case TestnetParams.Name:
		params := TestnetParams
		return &params, nil
	}

	endpoint, err := url.Parse(network)
	if err != nil {
		return nil, errors.Wrapf(err, "network %q is neither mainnet, testnet nor a URL", network)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, errors.Errorf("network %q is neither mainnet, testnet nor an http(s) URL", network)
	}
	params := TestnetParams
	params.Name = CustomNetworkName
	params.RPCURL = endpoint.String()
	return &params, nil
}

// mustHashFromString panics on an error since it will only be called with
// hard-coded, and therefore known good, hashes.
func mustHashFromString(hexStr string) externalapi.DomainHash {
	hash, err := externalapi.NewDomainHashFromString(hexStr)
	if err != nil {
		panic(err)
	}
	return hash
}
