package main

import (
	"context"

	"github.com/kaspanet/cinnabar/cmd/cinnabar/deployer"
)

func consume(ctx context.Context, cfg *configFlags, conf *consumeConfig) error {
	payer, err := parseAddress(cfg, "payer-address", conf.PayerAddress)
	if err != nil {
		return err
	}
	receiver, err := parseAddress(cfg, "receive-address", conf.ReceiveAddress)
	if err != nil {
		return err
	}

	d, tearDown, err := newDeployer(cfg, payer)
	if err != nil {
		return err
	}
	defer tearDown()

	record, err := d.Consume(ctx, &deployer.ConsumeRequest{
		ContractName: conf.ContractName,
		Version:      conf.Tag,
		Payer:        payer,
		Receiver:     receiver,
	})
	if err != nil {
		return err
	}
	printRecord(record)
	return nil
}
