package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/kaspanet/cinnabar/cmd/cinnabar/deployer"
	"github.com/kaspanet/cinnabar/domain/blindbox/contract"
	"github.com/kaspanet/cinnabar/domain/calculator/operation"
	"github.com/kaspanet/cinnabar/domain/calculator/rpc/fakerpc"
	"github.com/kaspanet/cinnabar/domain/contracts"
	"github.com/kaspanet/cinnabar/domain/contracts/alwayssuccess"
	"github.com/kaspanet/cinnabar/domain/contracts/simplelock"
	"github.com/kaspanet/cinnabar/domain/utils/capacity"
	"github.com/kaspanet/cinnabar/infrastructure/deployment"
	"github.com/kaspanet/cinnabar/infrastructure/keys"
	"github.com/kaspanet/cinnabar/infrastructure/network/rpcclient"
	"github.com/kaspanet/cinnabar/util/address"
	"github.com/pkg/errors"
)

// Simulated payers get a single cell this large the first time they pay
const simulatedFunding = 1_000_000 * capacity.ShannonsPerCKB

func printErrorAndExit(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

// simulatedContracts are the contracts a simulated chain can deploy and run
func simulatedContracts() (*contracts.Registry, error) {
	return contracts.NewRegistry(alwayssuccess.Contract, simplelock.Contract, contract.Contract)
}

// newDeployer connects to the configured chain and returns a deployer signing
// as payer, along with a function releasing the connection
func newDeployer(cfg *configFlags, payer *address.Address) (*deployer.Deployer, func(), error) {
	store := deployment.NewStore(cfg.MigrationDir)
	params := cfg.NetParams()

	if cfg.Simulate {
		registry, err := simulatedContracts()
		if err != nil {
			return nil, nil, err
		}
		client, err := fakerpc.New(
			fakerpc.WithParams(params),
			fakerpc.WithContracts(registry),
			fakerpc.WithAutoFunding(simulatedFunding, 1),
			fakerpc.WithDataDir(cfg.SimulationDir),
		)
		if err != nil {
			return nil, nil, err
		}
		log.Infof("Simulating %s in %s", params.Name, cfg.SimulationDir)
		d := deployer.New(client, store, cfg.RecordNetwork(), &deployer.RegistryLoader{Registry: registry}, nil)
		return d, func() { client.Close() }, nil
	}

	signer, err := loadSigner(cfg, payer)
	if err != nil {
		return nil, nil, err
	}
	client := rpcclient.NewRPCClient(params)
	log.Infof("Connected to %s", client.Address())
	d := deployer.New(client, store, cfg.RecordNetwork(), &deployer.DirectoryLoader{Dir: cfg.BinaryDir}, signer)
	return d, func() {}, nil
}

// loadSigner reads the payer's key from PrivateKeyFile or prompts for it, and
// checks that it unlocks the payer's cells
func loadSigner(cfg *configFlags, payer *address.Address) (operation.Signer, error) {
	var keyPair *keys.KeyPair
	var err error
	if cfg.PrivateKeyFile != "" {
		keyPair, err = keyPairFromFile(cfg, cfg.PrivateKeyFile)
	} else {
		keyPair, err = keys.PromptKeyPair(cfg.NetParams(), payer.String())
	}
	if err != nil {
		return nil, err
	}
	if !keyPair.OwnsLock(payer.Script()) {
		return nil, errors.Errorf("the given key doesn't unlock %s", payer)
	}
	return keyPair, nil
}

func keyPairFromFile(cfg *configFlags, path string) (*keys.KeyPair, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not read the key from %s", path)
	}
	secret := strings.TrimSpace(string(content))
	if len(strings.Fields(secret)) > 1 {
		return keys.NewKeyPairFromMnemonic(cfg.NetParams(), secret, "")
	}
	return keys.ParsePrivateKey(cfg.NetParams(), secret)
}

// parseAddress decodes an address of the configured network. An empty string
// yields nil.
func parseAddress(cfg *configFlags, flagName string, value string) (*address.Address, error) {
	if value == "" {
		return nil, nil
	}
	addr, err := address.Decode(cfg.NetParams(), value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid --%s", flagName)
	}
	return addr, nil
}

func printRecord(record *deployment.Record) {
	fmt.Printf("%-20s %-10s %-8s %s:%d  %s\n", record.Name, record.Version, record.Operation,
		record.TxHash, record.OutIndex, record.Date)
}
