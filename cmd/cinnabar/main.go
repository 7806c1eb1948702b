package main

import (
	"context"

	"github.com/kaspanet/cinnabar/infrastructure/os/signal"
	"github.com/kaspanet/cinnabar/util/panics"
	"github.com/pkg/errors"
)

func main() {
	defer panics.HandlePanic(log, "main", nil)
	interrupt := signal.InterruptListener()

	subCmd, cfg, subConfig := parseCommandLine()

	err := cfg.InitLogs()
	if err != nil {
		printErrorAndExit(err)
	}

	ctx, cancel := signal.InterruptContext(context.Background(), interrupt)
	defer cancel()

	switch subCmd {
	case deploySubCmd:
		err = deploy(ctx, cfg, subConfig.(*deployConfig))
	case migrateSubCmd:
		err = migrate(ctx, cfg, subConfig.(*migrateConfig))
	case consumeSubCmd:
		err = consume(ctx, cfg, subConfig.(*consumeConfig))
	case listSubCmd:
		err = list(cfg, subConfig.(*listConfig))
	default:
		err = errors.Errorf("Unknown sub-command '%s'\n", subCmd)
	}

	if err != nil {
		panics.ExitWithError(log, subCmd, err)
	}
}
