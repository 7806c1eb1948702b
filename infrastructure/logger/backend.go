package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync/atomic"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

// Flags to modify Backend's behavior.
const (
	// LogFlagLongFile adds the full path and line of the logging callsite
	LogFlagLongFile uint32 = 1 << iota

	// LogFlagShortFile adds the file name and line of the logging callsite.
	// It takes precedence over LogFlagLongFile.
	LogFlagShortFile
)

// LogFlagsEnv is the environment variable read by NewBackend, a comma
// separated list of "longfile" and "shortfile"
const LogFlagsEnv = "CINNABAR_LOGFLAGS"

func parseLogFlags(value string) (flags uint32) {
	for _, flag := range strings.Split(value, ",") {
		switch strings.TrimSpace(flag) {
		case "longfile":
			flags |= LogFlagLongFile
		case "shortfile":
			flags |= LogFlagShortFile
		}
	}
	return flags
}

const logsBuffer = 128

// RotationOptions sets when a log file is rolled and how many rolls are kept
type RotationOptions struct {
	ThresholdKB int64
	MaxRolls    int
}

// DefaultRotationOptions keeps three rolls of 10 MB each
var DefaultRotationOptions = RotationOptions{ThresholdKB: 10 * 1000, MaxRolls: 3}

// ErrBackendRunning is returned when a running backend is reconfigured
var ErrBackendRunning = errors.New("the logger is already running")

// Backend serializes the entries of all its subsystem loggers onto its
// writers. Each writer only receives entries at or above its own level.
type Backend struct {
	flag      uint32
	isRunning uint32
	writers   []levelWriter
	writeChan chan logEntry
	done      chan struct{}
}

type logEntry struct {
	log   []byte
	level Level
}

type levelWriter struct {
	io.WriteCloser
	threshold Level
}

// NewBackendWithFlags returns a Backend using flags instead of LogFlagsEnv
func NewBackendWithFlags(flags uint32) *Backend {
	return &Backend{
		flag:      flags,
		writeChan: make(chan logEntry, logsBuffer),
		done:      make(chan struct{}),
	}
}

// NewBackend returns a Backend using the flags set in LogFlagsEnv
func NewBackend() *Backend {
	return NewBackendWithFlags(parseLogFlags(os.Getenv(LogFlagsEnv)))
}

// AddLogWriter makes the backend write every entry at or above logLevel to writer
func (b *Backend) AddLogWriter(writer io.WriteCloser, logLevel Level) error {
	if b.IsRunning() {
		return errors.WithStack(ErrBackendRunning)
	}
	b.writers = append(b.writers, levelWriter{WriteCloser: writer, threshold: logLevel})
	return nil
}

// AddLogFile is AddRotatingLogFile with DefaultRotationOptions
func (b *Backend) AddLogFile(logFile string, logLevel Level) error {
	return b.AddRotatingLogFile(logFile, logLevel, DefaultRotationOptions)
}

// AddRotatingLogFile makes the backend write every entry at or above logLevel
// to logFile, creating it and its directory if needed
func (b *Backend) AddRotatingLogFile(logFile string, logLevel Level, options RotationOptions) error {
	if b.IsRunning() {
		return errors.WithStack(ErrBackendRunning)
	}
	if logDir := filepath.Dir(logFile); logDir != "." {
		err := os.MkdirAll(logDir, 0700)
		if err != nil {
			return errors.Wrapf(err, "failed to create log directory %s", logDir)
		}
	}
	r, err := rotator.New(logFile, options.ThresholdKB, false, options.MaxRolls)
	if err != nil {
		return errors.Wrapf(err, "failed to create file rotator for %s", logFile)
	}
	return b.AddLogWriter(r, logLevel)
}

// Run starts delivering entries to the writers. It may only be called once.
func (b *Backend) Run() error {
	if !atomic.CompareAndSwapUint32(&b.isRunning, 0, 1) {
		return errors.WithStack(ErrBackendRunning)
	}
	go func() {
		defer close(b.done)
		defer func() {
			if err := recover(); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Fatal error in logger.Backend goroutine: %+v\n", err)
				_, _ = fmt.Fprintf(os.Stderr, "Goroutine stacktrace: %s\n", debug.Stack())
			}
		}()
		for entry := range b.writeChan {
			for _, writer := range b.writers {
				if entry.level >= writer.threshold {
					_, _ = writer.Write(entry.log)
				}
			}
		}
	}()
	return nil
}

// IsRunning returns whether Run was called and Close wasn't
func (b *Backend) IsRunning() bool {
	return atomic.LoadUint32(&b.isRunning) != 0
}

// Close waits for the pending entries to be written and closes the writers
func (b *Backend) Close() {
	wasRunning := atomic.CompareAndSwapUint32(&b.isRunning, 1, 0)
	close(b.writeChan)
	if wasRunning {
		<-b.done
	}
	for _, writer := range b.writers {
		_ = writer.Close()
	}
}

// Logger returns a new logger for a particular subsystem that writes to the
// Backend b. A tag describes the subsystem and is included in all log
// messages. Loggers start switched off until a level is set.
func (b *Backend) Logger(subsystemTag string) *Logger {
	return &Logger{level: uint32(LevelOff), tag: subsystemTag, b: b}
}
