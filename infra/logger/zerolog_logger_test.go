package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	l := NewZerologLogger("test")
	require.NotNil(t, l)
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerComponentField(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLoggerWithWriter("optimizer", &buf)
	l.Infof("solved")
	assert.Contains(t, buf.String(), `"component":"optimizer"`)
	assert.Contains(t, buf.String(), "solved")
}

func TestDevConsoleWriter(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	var buf bytes.Buffer
	l := NewZerologLoggerWithWriter("api", &buf)
	l.Warnf("degraded")
	assert.Contains(t, buf.String(), "degraded")
}
