package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func TestBackendFiltersByLevel(t *testing.T) {
	backend := NewBackendWithFlags(0)
	infoWriter := &bufferCloser{}
	errorWriter := &bufferCloser{}
	if err := backend.AddLogWriter(infoWriter, LevelInfo); err != nil {
		t.Fatalf("AddLogWriter: %+v", err)
	}
	if err := backend.AddLogWriter(errorWriter, LevelError); err != nil {
		t.Fatalf("AddLogWriter: %+v", err)
	}
	if err := backend.Run(); err != nil {
		t.Fatalf("Run: %+v", err)
	}
	if err := backend.AddLogWriter(&bufferCloser{}, LevelInfo); err == nil {
		t.Fatalf("AddLogWriter unexpectedly succeeded on a running backend")
	}

	log := backend.Logger("TEST")
	log.SetLevel(LevelDebug)
	log.Tracef("trace %d", 1)
	log.Debugf("debug %d", 2)
	log.Infof("info %d", 3)
	log.Errorf("error %d", 4)
	backend.Close()

	infoOutput := infoWriter.String()
	if strings.Contains(infoOutput, "debug 2") || strings.Contains(infoOutput, "trace 1") {
		t.Fatalf("info writer received entries below its level:\n%s", infoOutput)
	}
	if !strings.Contains(infoOutput, "[INF] TEST: info 3") || !strings.Contains(infoOutput, "[ERR] TEST: error 4") {
		t.Fatalf("info writer is missing entries:\n%s", infoOutput)
	}
	if strings.Contains(errorWriter.String(), "info 3") {
		t.Fatalf("error writer received an info entry:\n%s", errorWriter.String())
	}
	if !infoWriter.closed || !errorWriter.closed {
		t.Fatalf("Close didn't close the writers")
	}
}

func TestLoggerOffByDefault(t *testing.T) {
	backend := NewBackendWithFlags(0)
	writer := &bufferCloser{}
	_ = backend.AddLogWriter(writer, LevelTrace)
	_ = backend.Run()
	backend.Logger("TEST").Criticalf("should not be written")
	backend.Close()
	if writer.Len() != 0 {
		t.Fatalf("a logger without a level wrote: %s", writer.String())
	}
}

func TestParseAndSetLogLevels(t *testing.T) {
	log := RegisterSubSystem("LTST")
	tests := []struct {
		debugLevel    string
		expectedLevel Level
		expectedError bool
	}{
		{debugLevel: "info", expectedLevel: LevelInfo},
		{debugLevel: "LTST=trace", expectedLevel: LevelTrace},
		{debugLevel: "LTST=wrn,LTST=err", expectedLevel: LevelError},
		{debugLevel: "nonsense", expectedError: true},
		{debugLevel: "NOPE=info", expectedError: true},
		{debugLevel: "LTST", expectedError: true},
		{debugLevel: "LTST=loud,", expectedError: true},
	}
	for _, test := range tests {
		log.SetLevel(LevelOff)
		err := ParseAndSetLogLevels(test.debugLevel)
		if test.expectedError {
			if err == nil {
				t.Errorf("%s: expected an error", test.debugLevel)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %+v", test.debugLevel, err)
			continue
		}
		if log.Level() != test.expectedLevel {
			t.Errorf("%s: expected level %s, got %s", test.debugLevel, test.expectedLevel, log.Level())
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		expected Level
	}{
		{name: "trace", expected: LevelTrace},
		{name: "DBG", expected: LevelDebug},
		{name: "Info", expected: LevelInfo},
		{name: "wrn", expected: LevelWarn},
		{name: "critical", expected: LevelCritical},
		{name: "off", expected: LevelOff},
	}
	for _, test := range tests {
		level, err := ParseLevel(test.name)
		if err != nil {
			t.Errorf("%s: unexpected error: %+v", test.name, err)
			continue
		}
		if level != test.expected {
			t.Errorf("%s: expected %s, got %s", test.name, test.expected, level)
		}
	}

	_, err := ParseLevel("loud")
	if !errors.Is(err, ErrUnknownLevel) {
		t.Fatalf("ParseLevel: expected ErrUnknownLevel, got %+v", err)
	}
	if Level(42).String() != "OFF" {
		t.Fatalf("out of range level printed as %s", Level(42))
	}
}

func TestParseLogFlags(t *testing.T) {
	if flags := parseLogFlags(""); flags != 0 {
		t.Fatalf("empty flags parsed as %d", flags)
	}
	if flags := parseLogFlags("shortfile, longfile,bogus"); flags != LogFlagShortFile|LogFlagLongFile {
		t.Fatalf("unexpected flags %d", flags)
	}
}

func TestShortFileFlagAddsCallsite(t *testing.T) {
	backend := NewBackendWithFlags(LogFlagShortFile)
	writer := &bufferCloser{}
	_ = backend.AddLogWriter(writer, LevelTrace)
	_ = backend.Run()
	log := backend.Logger("TEST")
	log.SetLevel(LevelInfo)
	log.Infof("with callsite")
	backend.Close()
	if !strings.Contains(writer.String(), "TEST logger_test.go:") {
		t.Fatalf("entry lacks its callsite: %s", writer.String())
	}
}
