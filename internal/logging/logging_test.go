package logging

import (
	"bytes"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]logiface.Level{
		"":        logiface.LevelInformational,
		"debug":   logiface.LevelDebug,
		"TRACE":   logiface.LevelTrace,
		"warning": logiface.LevelWarning,
		"off":     logiface.LevelDisabled,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Component(New(&buf, logiface.LevelDebug), "event")
	l.Debug().Int("n", 3).Log("pool grown")
	out := buf.String()
	assert.Contains(t, out, `"component":"event"`)
	assert.Contains(t, out, `"msg":"pool grown"`)

	buf.Reset()
	l.Trace().Log("dropped")
	assert.Empty(t, buf.String())

	var nilLogger *Logger
	assert.Nil(t, Component(nilLogger, "x"))
	nilLogger.Info().Log("no-op")
}
