package operation

import "github.com/kaspanet/cinnabar/infrastructure/logger"

var log = logger.RegisterSubSystem("OPER")
