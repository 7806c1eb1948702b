package config

import (
	"os"
	"path/filepath"

	"github.com/kaspanet/cinnabar/infrastructure/logger"
	"github.com/pkg/errors"
)

const (
	defaultLogFilename    = "cinnabar.log"
	defaultErrLogFilename = "cinnabar_err.log"
)

// LogFlags holds the logging configuration
type LogFlags struct {
	LogDir     string `long:"logdir" description:"Directory to log output" default:"migration/logs"`
	DebugLevel string `long:"loglevel" short:"d" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems" default:"info"`
}

// InitLogs starts the log rotators in LogDir and applies DebugLevel.
// Everything from info up is echoed to stderr.
func (logFlags *LogFlags) InitLogs() error {
	err := os.MkdirAll(logFlags.LogDir, 0700)
	if err != nil {
		return errors.WithStack(err)
	}
	logger.InitLog(filepath.Join(logFlags.LogDir, defaultLogFilename),
		filepath.Join(logFlags.LogDir, defaultErrLogFilename), logger.LevelInfo)

	return logger.ParseAndSetLogLevels(logFlags.DebugLevel)
}
