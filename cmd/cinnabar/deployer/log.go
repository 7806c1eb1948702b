package deployer

import "github.com/kaspanet/cinnabar/infrastructure/logger"

var log = logger.RegisterSubSystem("DPLR")
