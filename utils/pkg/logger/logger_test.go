package logger

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRFC3339Millis(t *testing.T) {
	ts := time.Date(2016, 11, 8, 13, 4, 5, 123_456_789, time.FixedZone("X", 3600))
	require.Equal(t, "2016-11-08T12:04:05.123Z", FormatRFC3339Millis(ts))
}

func TestNewWithWriter_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, false)
	log.Debug("hidden")
	log.Info("shown", "empty", "", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "value")
	assert.NotContains(t, out, "empty=")

	buf.Reset()
	NewWithWriter(&buf, true).Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}
