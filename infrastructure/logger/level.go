package logger

import (
	"strings"

	"github.com/pkg/errors"
)

// Level is the level at which a logger is configured. All messages sent
// to a level which is below the current level are filtered.
type Level uint32

// Level constants.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

type levelName struct {
	tag  string
	name string
}

var levelNames = [...]levelName{
	LevelTrace:    {tag: "TRC", name: "trace"},
	LevelDebug:    {tag: "DBG", name: "debug"},
	LevelInfo:     {tag: "INF", name: "info"},
	LevelWarn:     {tag: "WRN", name: "warn"},
	LevelError:    {tag: "ERR", name: "error"},
	LevelCritical: {tag: "CRT", name: "critical"},
	LevelOff:      {tag: "OFF", name: "off"},
}

// ErrUnknownLevel is returned by ParseLevel for names that aren't a level
var ErrUnknownLevel = errors.New("unknown log level")

// ParseLevel accepts either the full name of a level or its three letter tag,
// in any case
func ParseLevel(s string) (Level, error) {
	for level, names := range levelNames {
		if strings.EqualFold(s, names.name) || strings.EqualFold(s, names.tag) {
			return Level(level), nil
		}
	}
	return LevelInfo, errors.Wrapf(ErrUnknownLevel, "%q", s)
}

// LevelFromString is ParseLevel that falls back to LevelInfo
func LevelFromString(s string) (l Level, ok bool) {
	level, err := ParseLevel(s)
	return level, err == nil
}

// String returns the tag used for the level in log lines
func (l Level) String() string {
	if l >= LevelOff {
		return levelNames[LevelOff].tag
	}
	return levelNames[l].tag
}
