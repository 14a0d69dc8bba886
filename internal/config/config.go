// Package config loads the skirmish settings from defaults, an optional
// skirmish.yaml, and SKIRMISH_* environment variables, in that order of
// precedence. Out-of-range values are clamped with a warning rather than
// rejected, so a bad config file degrades instead of refusing to start.
// The result is an immutable value handed to each component; nothing
// reads configuration globally after startup.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/brabrak1/Napoleonic-Game/internal/battle"
)

// Config is the loaded, clamped configuration.
type Config struct {
	LogLevel string

	FieldWidth  float64
	FieldHeight float64

	// Units per side for the quick-deploy scenarios.
	RedArmy  int
	BlueArmy int

	Seed int64
	// Duration caps a battle in seconds. 0 plays to the last man.
	Duration float64

	// AISides picks which teams get a commander: red, blue, both, none.
	AISides string

	Listen  string
	Connect string
}

const (
	minFieldWidth  = 800
	maxFieldWidth  = 8000
	minFieldHeight = 450
	maxFieldHeight = 8000

	minArmy = 1
	maxArmy = 60

	maxDuration = 7200
)

// Load reads configuration from dir/skirmish.yaml if present, falling
// back to defaults, with SKIRMISH_* env vars overriding both. A missing
// file is fine; an unreadable one is an error.
func Load(dir string, log zerolog.Logger) (Config, error) {
	v := viper.New()

	v.SetDefault("logLevel", "info")

	v.SetDefault("field.width", 1600)
	v.SetDefault("field.height", 900)

	v.SetDefault("armies.red", 6)
	v.SetDefault("armies.blue", 6)

	v.SetDefault("sim.seed", 1)
	v.SetDefault("sim.duration", 0)

	v.SetDefault("ai.sides", "both")

	v.SetDefault("net.listen", ":8080")
	v.SetDefault("net.connect", "ws://127.0.0.1:8080/ws")

	v.SetConfigName("skirmish")
	v.SetConfigType("yaml")
	if dir == "" {
		dir = "."
	}
	v.AddConfigPath(dir)

	v.SetEnvPrefix("SKIRMISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("config: reading skirmish.yaml: %w", err)
		}
		log.Debug().Msg("no skirmish.yaml, using defaults")
	} else {
		log.Info().Str("file", v.ConfigFileUsed()).Msg("config loaded")
	}

	c := Config{
		LogLevel: v.GetString("logLevel"),

		FieldWidth:  clampFloat(log, "field.width", v.GetFloat64("field.width"), minFieldWidth, maxFieldWidth),
		FieldHeight: clampFloat(log, "field.height", v.GetFloat64("field.height"), minFieldHeight, maxFieldHeight),

		RedArmy:  clampInt(log, "armies.red", v.GetInt("armies.red"), minArmy, maxArmy),
		BlueArmy: clampInt(log, "armies.blue", v.GetInt("armies.blue"), minArmy, maxArmy),

		Seed:     v.GetInt64("sim.seed"),
		Duration: clampFloat(log, "sim.duration", v.GetFloat64("sim.duration"), 0, maxDuration),

		AISides: strings.ToLower(v.GetString("ai.sides")),

		Listen:  v.GetString("net.listen"),
		Connect: v.GetString("net.connect"),
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		log.Warn().Str("logLevel", c.LogLevel).Msg("unknown log level, using info")
		c.LogLevel = "info"
	}
	switch c.AISides {
	case "red", "blue", "both", "none":
	default:
		log.Warn().Str("ai.sides", c.AISides).Msg("unknown ai sides, using both")
		c.AISides = "both"
	}

	return c, nil
}

// AIControls reports whether the configured commander set covers a team.
func (c Config) AIControls(team battle.Team) bool {
	switch c.AISides {
	case "both":
		return true
	case "red":
		return team == battle.TeamRed
	case "blue":
		return team == battle.TeamBlue
	default:
		return false
	}
}

// BattleTuning folds the configured field into the baseline tuning.
func (c Config) BattleTuning() battle.Tuning {
	t := battle.DefaultTuning()
	t.FieldWidth = c.FieldWidth
	t.FieldHeight = c.FieldHeight
	return t
}

func clampFloat(log zerolog.Logger, key string, v, lo, hi float64) float64 {
	c := math.Min(math.Max(v, lo), hi)
	if c != v {
		log.Warn().Str("key", key).Float64("value", v).Float64("clamped", c).Msg("config value out of range")
	}
	return c
}

func clampInt(log zerolog.Logger, key string, v, lo, hi int) int {
	c := v
	if c < lo {
		c = lo
	} else if c > hi {
		c = hi
	}
	if c != v {
		log.Warn().Str("key", key).Int("value", v).Int("clamped", c).Msg("config value out of range")
	}
	return c
}
