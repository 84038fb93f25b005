package logger

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	SetOutput(buf)
	prev := GetLogLevel()
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		logLevel.Store(int32(prev))
	})
	log.SetFlags(0)
	return buf
}

func TestSetLogLevel_FiltersBelowLevel(t *testing.T) {
	buf := captureLog(t)

	SetLogLevel("warn")
	Debugf("debug %d", 1)
	Infof("info %d", 2)
	Warnf("warn %d", 3)
	Errorf("error %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "[WARN] warn 3")
	assert.Contains(t, out, "[ERROR] error 4")
}

func TestSetLogLevel_UnknownFallsBackToInfo(t *testing.T) {
	_ = captureLog(t)

	SetLogLevel("verbose")
	assert.Equal(t, LevelInfo, GetLogLevel())
	assert.Equal(t, "INFO", GetLogLevel().String())
}

func TestShortFuncName(t *testing.T) {
	assert.Equal(t, "main.run", shortFuncName("main.run.func1"))
	assert.Equal(t, "main.run", shortFuncName("main.run"))
}
