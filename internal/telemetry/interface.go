package telemetry

import (
	"context"
	"time"
)

// Sampler defines the core domain interface
type Sampler interface {
	Sample(ctx context.Context) (*Snapshot, error)
	Temperatures(ctx context.Context) []Sensor
	Close() error
}

// Snapshot is one sample of host telemetry
type Snapshot struct {
	Timestamp time.Time
	CPU       CPUPercent
	Memory    Memory
	Sensors   []Sensor
}

// CPUPercent holds the share of CPU time per category over the sampling
// window, each in [0, 100].
type CPUPercent struct {
	User    float64
	Nice    float64
	System  float64
	Idle    float64
	Iowait  float64
	Irq     float64
	Softirq float64
	Steal   float64
}

// Memory holds byte totals of physical memory
type Memory struct {
	Total   uint64
	Used    uint64
	Buffers uint64
	Cached  uint64
}

// Sensor is one temperature reading in °C. High and Critical are zero
// when the sensor does not report them.
type Sensor struct {
	Key       string
	Component string
	Label     string
	Current   float64
	High      float64
	Critical  float64
}
