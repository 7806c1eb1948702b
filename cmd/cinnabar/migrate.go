package main

import (
	"context"

	"github.com/kaspanet/cinnabar/cmd/cinnabar/deployer"
)

func migrate(ctx context.Context, cfg *configFlags, conf *migrateConfig) error {
	typeIDMode, err := deployer.ParseTypeIDMode(conf.TypeIDMode)
	if err != nil {
		return err
	}
	payer, err := parseAddress(cfg, "payer-address", conf.PayerAddress)
	if err != nil {
		return err
	}
	owner, err := parseAddress(cfg, "owner-address", conf.OwnerAddress)
	if err != nil {
		return err
	}

	d, tearDown, err := newDeployer(cfg, payer)
	if err != nil {
		return err
	}
	defer tearDown()

	record, err := d.Migrate(ctx, &deployer.MigrateRequest{
		ContractName: conf.ContractName,
		FromVersion:  conf.FromTag,
		ToVersion:    conf.ToTag,
		Payer:        payer,
		Owner:        owner,
		TypeIDMode:   typeIDMode,
	})
	if err != nil {
		return err
	}
	printRecord(record)
	return nil
}
