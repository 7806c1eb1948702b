package signal

import (
	"github.com/kaspanet/cinnabar/infrastructure/logger"
)

var log = logger.RegisterSubSystem("SGNL")
