package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/kaspanet/cinnabar/cmd/cinnabar/deployer"
	"github.com/kaspanet/cinnabar/infrastructure/config"
	"github.com/kaspanet/cinnabar/infrastructure/deployment"
	"github.com/pkg/errors"
)

const (
	deploySubCmd  = "deploy"
	migrateSubCmd = "migrate"
	consumeSubCmd = "consume"
	listSubCmd    = "list"
)

type configFlags struct {
	MigrationDir   string `long:"migration-dir" description:"Directory of the deployment records" default:"migration"`
	BinaryDir      string `long:"binary-dir" description:"Directory of the contract binaries" default:"build/release"`
	PrivateKeyFile string `long:"private-key-file" description:"File holding the payer's hex private key or mnemonic. Prompted for when missing"`
	config.NetworkFlags
	config.LogFlags
}

type deployConfig struct {
	ContractName string `long:"contract-name" description:"Contract name in the binary directory" required:"true"`
	Tag          string `long:"tag" description:"The version of the contract, e.g. v0.1.8" required:"true"`
	PayerAddress string `long:"payer-address" description:"Who pays the capacity and the transaction fee" required:"true"`
	OwnerAddress string `long:"owner-address" description:"The owner of the contract cell. Defaults to the payer"`
	TypeID       bool   `long:"type-id" description:"Deploy the contract cell with a type id, which makes it upgradable"`
}

type migrateConfig struct {
	ContractName string `long:"contract-name" description:"The contract to migrate" required:"true"`
	FromTag      string `long:"from-tag" description:"The latest deployed version, which is consumed" required:"true"`
	ToTag        string `long:"to-tag" description:"The new version of the contract" required:"true"`
	PayerAddress string `long:"payer-address" description:"Must be the owner of the latest contract cell" required:"true"`
	OwnerAddress string `long:"owner-address" description:"The owner of the new contract cell. Defaults to the payer"`
	TypeIDMode   string `long:"type-id-mode" description:"What to do with the type id of the contract cell: keep, remove or new" default:"keep"`
}

type consumeConfig struct {
	ContractName   string `long:"contract-name" description:"The contract to consume" required:"true"`
	Tag            string `long:"tag" description:"The latest deployed version" required:"true"`
	PayerAddress   string `long:"payer-address" description:"Must be the owner of the latest contract cell" required:"true"`
	ReceiveAddress string `long:"receive-address" description:"Who receives the released capacity. Defaults to the payer"`
}

type listConfig struct {
	Mode string `long:"mode" description:"Which contracts to list: all, deployed or consumed" default:"all"`
}

func parseCommandLine() (subCommand string, cfg *configFlags, subConfig interface{}) {
	cfg = &configFlags{}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)

	deployConf := &deployConfig{}
	parser.AddCommand(deploySubCmd, "Deploys a new contract",
		"Deploys a contract binary into a new contract cell and records it", deployConf)

	migrateConf := &migrateConfig{}
	parser.AddCommand(migrateSubCmd, "Migrates a deployed contract to a new version",
		"Consumes the latest contract cell and deploys the current binary in its place", migrateConf)

	consumeConf := &consumeConfig{}
	parser.AddCommand(consumeSubCmd, "Consumes a contract cell",
		"Consumes the latest contract cell to release its capacity", consumeConf)

	listConf := &listConfig{}
	parser.AddCommand(listSubCmd, "Lists the recorded contracts",
		"Lists the latest record of every contract of the network", listConf)

	_, err := parser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		os.Exit(1)
	}

	switch parser.Command.Active.Name {
	case deploySubCmd:
		subConfig = deployConf
	case migrateSubCmd:
		_, err = deployer.ParseTypeIDMode(migrateConf.TypeIDMode)
		subConfig = migrateConf
	case consumeSubCmd:
		subConfig = consumeConf
	case listSubCmd:
		_, err = deployment.ParseListMode(listConf.Mode)
		subConfig = listConf
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}

	return parser.Command.Active.Name, cfg, subConfig
}
