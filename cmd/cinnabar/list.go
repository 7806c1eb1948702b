package main

import (
	"fmt"

	"github.com/kaspanet/cinnabar/infrastructure/deployment"
)

func list(cfg *configFlags, conf *listConfig) error {
	mode, err := deployment.ParseListMode(conf.Mode)
	if err != nil {
		return err
	}
	store := deployment.NewStore(cfg.MigrationDir)
	records, err := store.List(cfg.RecordNetwork(), mode)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("No %s contracts on %s\n", conf.Mode, cfg.RecordNetwork())
		return nil
	}
	for _, record := range records {
		printRecord(record)
	}
	return nil
}
