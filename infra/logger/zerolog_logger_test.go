package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corelogger "github.com/kilianp07/feederwatch/core/logger"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer assert.NoError(t, os.Unsetenv("APP_ENV"))
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Infow("info", map[string]any{"k": 2})
	l.Warnf("warn")
	l.Errorf("error")
	l.Errorw("error", errors.New("boom"), nil)
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := newZerolog(&buf, "scheduler", false)
	l.Errorw("cycle failed", errors.New("disk full"), corelogger.CycleFields(4, corelogger.Fields{"key": "cycle_4"}))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "feederwatch", line["service"])
	assert.Equal(t, "scheduler", line["component"])
	assert.Equal(t, "disk full", line["error"])
	assert.Equal(t, float64(4), line["cycle"])
	assert.Equal(t, "cycle_4", line["key"])
	assert.Equal(t, "error", line["level"])
}

func TestConfigure(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	defer forceConsole.Store(false)
	if err := Configure("warn", true); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Fatalf("level not applied")
	}
	if !forceConsole.Load() {
		t.Fatalf("console not forced")
	}
	if err := Configure("loud", false); err == nil {
		t.Fatalf("expected invalid level error")
	}
}
