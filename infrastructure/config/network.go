package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/netparams"
	"github.com/pkg/errors"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Network            string `long:"network" short:"n" description:"The network to connect to: mainnet, testnet or the JSON-RPC URL of a node" default:"testnet"`
	Simulate           bool   `long:"simulate" description:"Run against a simulated chain kept on disk instead of a node"`
	SimulationDir      string `long:"simulation-dir" description:"Directory of the simulated chain" default:"migration/simulation/chain"`
	OverrideParamsFile string `long:"override-params-file" description:"Overrides network params (allowed only on custom networks)"`

	ActiveNetParams *netparams.Params
}

type overrideParamsConfig struct {
	Name              *string `json:"name"`
	AddressPrefix     *string `json:"addressPrefix"`
	Secp256k1CodeHash *string `json:"secp256k1CodeHash"`
	Secp256k1HashType *string `json:"secp256k1HashType"`
	Secp256k1DepGroup *struct {
		TxHash string `json:"txHash"`
		Index  uint32 `json:"index"`
	} `json:"secp256k1DepGroup"`
}

// ResolveNetwork parses the network command line argument and sets ActiveNetParams accordingly.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	params, err := netparams.ParamsForNetwork(networkFlags.Network)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return err
	}
	networkFlags.ActiveNetParams = params

	err = networkFlags.overrideParams()
	if err != nil {
		return err
	}
	return nil
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *netparams.Params {
	return networkFlags.ActiveNetParams
}

// RecordNetwork is the name deployment records are kept under
func (networkFlags *NetworkFlags) RecordNetwork() string {
	if networkFlags.Simulate {
		return "simulation"
	}
	return networkFlags.ActiveNetParams.Name
}

func (networkFlags *NetworkFlags) overrideParams() error {
	if networkFlags.OverrideParamsFile == "" {
		return nil
	}

	if networkFlags.ActiveNetParams.Name != netparams.CustomNetworkName {
		return errors.Errorf("override-params-file is allowed only when the network is given by URL")
	}

	overrideParamsFile, err := os.Open(networkFlags.OverrideParamsFile)
	if err != nil {
		return errors.WithStack(err)
	}
	defer overrideParamsFile.Close()

	decoder := json.NewDecoder(overrideParamsFile)
	decoder.DisallowUnknownFields()
	config := &overrideParamsConfig{}
	err = decoder.Decode(config)
	if err != nil {
		return errors.Wrapf(err, "error parsing %s", networkFlags.OverrideParamsFile)
	}

	params := networkFlags.ActiveNetParams
	if config.Name != nil {
		params.Name = *config.Name
	}

	if config.AddressPrefix != nil {
		params.AddressPrefix = *config.AddressPrefix
	}

	if config.Secp256k1CodeHash != nil {
		params.Secp256k1CodeHash, err = externalapi.NewDomainHashFromString(*config.Secp256k1CodeHash)
		if err != nil {
			return errors.Wrap(err, "secp256k1CodeHash")
		}
	}

	if config.Secp256k1HashType != nil {
		params.Secp256k1HashType, err = externalapi.ParseScriptHashType(*config.Secp256k1HashType)
		if err != nil {
			return errors.Wrap(err, "secp256k1HashType")
		}
	}

	if config.Secp256k1DepGroup != nil {
		txHash, err := externalapi.NewDomainHashFromString(config.Secp256k1DepGroup.TxHash)
		if err != nil {
			return errors.Wrap(err, "secp256k1DepGroup")
		}
		params.Secp256k1DepGroup = externalapi.OutPoint{TxHash: txHash, Index: config.Secp256k1DepGroup.Index}
	}

	return nil
}
