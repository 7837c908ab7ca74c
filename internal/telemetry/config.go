package telemetry

import (
	"time"

	"codeberg.org/mutker/ledtop/internal/errors"
)

const defaultInterval = time.Second

type Config struct {
	// Interval is the CPU sampling window; Sample blocks for this long.
	Interval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval: defaultInterval,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()
	if c.Interval <= 0 {
		return errFactory.WithData(ErrInvalidConfig, c.Interval)
	}
	return nil
}
