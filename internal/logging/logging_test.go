package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(&buf, "debug", FormatJSON), "service")
	log.Debug().Int("count", 3).Msg("deleted")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "service", line["component"])
	assert.Equal(t, "deleted", line["message"])
	assert.EqualValues(t, 3, line["count"])
}

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level   string
		debugOK bool
		warnOK  bool
	}{
		{"debug", true, true},
		{"WARN", false, true},
		{"", false, true},
		{"bogus", false, true},
		{"error", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(&buf, tt.level, FormatJSON)

			log.Debug().Msg("d")
			assert.Equal(t, tt.debugOK, buf.Len() > 0, "debug emitted")
			buf.Reset()

			log.Warn().Msg("w")
			assert.Equal(t, tt.warnOK, buf.Len() > 0, "warn emitted")
		})
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", FormatConsole)
	log.Info().Str("addr", ":8080").Msg("listening")
	out := buf.String()
	assert.Contains(t, out, "listening")
	assert.Contains(t, out, "addr=")
	assert.False(t, json.Valid(buf.Bytes()))
}
