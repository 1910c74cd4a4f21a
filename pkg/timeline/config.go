package timeline

import (
	"math"
	"time"

	"github.com/matzehuels/branchview/pkg/errors"
)

// Playback defaults: 2% every 100ms, a five second replay.
const (
	DefaultTick = 100 * time.Millisecond
	DefaultStep = 0.02
)

// Config holds the playback constants.
type Config struct {
	Tick time.Duration `toml:"tick" json:"tick"`
	Step float64       `toml:"step" json:"step"`
}

// DefaultConfig returns the standard playback constants.
func DefaultConfig() Config {
	return Config{Tick: DefaultTick, Step: DefaultStep}
}

// Validate rejects a non-positive tick and steps outside (0, 1].
func (c Config) Validate() error {
	if c.Tick <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "tick must be positive, got %s", c.Tick)
	}
	if !(c.Step > 0 && c.Step <= 1) {
		return errors.New(errors.ErrCodeInvalidConfig, "step must be in (0, 1], got %g", c.Step)
	}
	return nil
}

// Ticks returns how many ticks a full replay takes.
func (c Config) Ticks() int {
	return int(math.Ceil(1/c.Step - epsilon))
}
