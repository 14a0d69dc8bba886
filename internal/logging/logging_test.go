package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "warn")

	log.Info().Msg("below threshold")
	log.Warn().Msg("at threshold")

	out := buf.String()
	assert.NotContains(t, out, "below threshold")
	assert.Contains(t, out, "at threshold")
}

func TestNewWriter_FallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "chatty")

	log.Debug().Msg("suppressed")
	log.Info().Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "suppressed")
	assert.Contains(t, out, "visible")
}
