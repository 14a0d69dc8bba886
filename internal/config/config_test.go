package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brabrak1/Napoleonic-Game/internal/battle"
)

func writeYAML(t *testing.T, dir, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, "skirmish.yaml"), []byte(content), 0o644)
	require.NoError(t, err)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	c, err := Load(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 1600.0, c.FieldWidth)
	assert.Equal(t, 900.0, c.FieldHeight)
	assert.Equal(t, 6, c.RedArmy)
	assert.Equal(t, 6, c.BlueArmy)
	assert.Equal(t, int64(1), c.Seed)
	assert.Equal(t, 0.0, c.Duration)
	assert.Equal(t, "both", c.AISides)
	assert.Equal(t, ":8080", c.Listen)
}

func TestLoad_ReadsYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, `
logLevel: debug
field:
  width: 2400
armies:
  red: 12
sim:
  seed: 77
ai:
  sides: red
`)

	c, err := Load(dir, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, 2400.0, c.FieldWidth)
	assert.Equal(t, 900.0, c.FieldHeight, "unset keys keep their defaults")
	assert.Equal(t, 12, c.RedArmy)
	assert.Equal(t, 6, c.BlueArmy)
	assert.Equal(t, int64(77), c.Seed)
	assert.Equal(t, "red", c.AISides)
}

func TestLoad_ClampsOutOfRange(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, `
field:
  width: 50
armies:
  red: 500
sim:
  duration: -30
`)

	c, err := Load(dir, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, float64(minFieldWidth), c.FieldWidth)
	assert.Equal(t, maxArmy, c.RedArmy)
	assert.Equal(t, 0.0, c.Duration)
}

func TestLoad_FallsBackOnBadEnumValues(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, `
logLevel: verbose
ai:
  sides: everyone
`)

	c, err := Load(dir, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "both", c.AISides)
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "field: [unclosed\n")

	_, err := Load(dir, zerolog.Nop())
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, `
armies:
  blue: 4
`)
	t.Setenv("SKIRMISH_ARMIES_BLUE", "9")

	c, err := Load(dir, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 9, c.BlueArmy)
}

func TestConfig_AIControls(t *testing.T) {
	cases := []struct {
		sides string
		red   bool
		blue  bool
	}{
		{"both", true, true},
		{"none", false, false},
		{"red", true, false},
		{"blue", false, true},
	}
	for _, tc := range cases {
		c := Config{AISides: tc.sides}
		assert.Equal(t, tc.red, c.AIControls(battle.TeamRed), "sides=%s red", tc.sides)
		assert.Equal(t, tc.blue, c.AIControls(battle.TeamBlue), "sides=%s blue", tc.sides)
	}
}

func TestConfig_BattleTuning(t *testing.T) {
	c := Config{FieldWidth: 2400, FieldHeight: 1200}
	tun := c.BattleTuning()

	assert.Equal(t, 2400.0, tun.FieldWidth)
	assert.Equal(t, 1200.0, tun.FieldHeight)
	assert.Equal(t, battle.DefaultTuning().FormationSpacing, tun.FormationSpacing,
		"everything but the field keeps the baseline")
}
