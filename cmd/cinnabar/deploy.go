package main

import (
	"context"

	"github.com/kaspanet/cinnabar/cmd/cinnabar/deployer"
)

func deploy(ctx context.Context, cfg *configFlags, conf *deployConfig) error {
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

	record, err := d.Deploy(ctx, &deployer.DeployRequest{
		ContractName: conf.ContractName,
		Version:      conf.Tag,
		Payer:        payer,
		Owner:        owner,
		TypeID:       conf.TypeID,
	})
	if err != nil {
		return err
	}
	printRecord(record)
	return nil
}
