package telemetry

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"codeberg.org/mutker/ledtop/internal/errors"
	"codeberg.org/mutker/ledtop/internal/gpu"
	"codeberg.org/mutker/ledtop/internal/logger"
)

// GPUSource provides GPU temperatures alongside the host sensors.
type GPUSource interface {
	Temperatures() ([]gpu.Reading, error)
	Shutdown() error
}

// sources are the host readers, replaceable in tests
type sources struct {
	cpuTimes func(ctx context.Context) (cpu.TimesStat, error)
	memory   func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	temps    func(ctx context.Context) ([]host.TemperatureStat, error)
	wait     func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

type Service struct {
	cfg Config
	src sources
	gpu GPUSource
}

var _ Sampler = (*Service)(nil)

type Option func(*Service)

// WithGPU merges the readings of src into every temperature read.
func WithGPU(src GPUSource) Option {
	return func(s *Service) {
		s.gpu = src
	}
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	s := &Service{
		cfg: cfg,
		src: sources{
			cpuTimes: readCPUTimes,
			memory:   mem.VirtualMemoryWithContext,
			temps:    host.SensorsTemperaturesWithContext,
			wait:     wait,
			now:      time.Now,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Sample blocks for one interval to measure CPU usage, then reads memory
// and temperatures.
func (s *Service) Sample(ctx context.Context) (*Snapshot, error) {
	errFactory := errors.New()

	before, err := s.src.cpuTimes(ctx)
	if err != nil {
		return nil, errFactory.Wrap(ErrCPUTimes, err)
	}

	if err := s.src.wait(ctx, s.cfg.Interval); err != nil {
		return nil, errFactory.Wrap(ErrSampleCanceled, err)
	}

	after, err := s.src.cpuTimes(ctx)
	if err != nil {
		return nil, errFactory.Wrap(ErrCPUTimes, err)
	}

	vm, err := s.src.memory(ctx)
	if err != nil {
		return nil, errFactory.Wrap(ErrMemoryStat, err)
	}

	return &Snapshot{
		Timestamp: s.src.now(),
		CPU:       cpuPercent(before, after),
		Memory: Memory{
			Total:   vm.Total,
			Used:    vm.Used,
			Buffers: vm.Buffers,
			Cached:  vm.Cached,
		},
		Sensors: s.Temperatures(ctx),
	}, nil
}

// Temperatures reads every host and GPU sensor without waiting. Sensor
// failures are logged and yield fewer readings.
func (s *Service) Temperatures(ctx context.Context) []Sensor {
	stats, err := s.src.temps(ctx)
	if err != nil {
		// Partial reads come back with warnings
		if len(stats) == 0 {
			logger.Warn().Err(err).Msg("Failed to read temperature sensors")
		} else {
			logger.Debug().Err(err).Msg("Temperature sensor warnings")
		}
	}

	sensors := make([]Sensor, 0, len(stats))
	for _, stat := range stats {
		sensors = append(sensors, fromHost(stat))
	}

	if s.gpu != nil {
		readings, err := s.gpu.Temperatures()
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to read GPU temperatures")
		}
		for _, r := range readings {
			sensors = append(sensors, fromGPU(r))
		}
	}

	return sensors
}

func (s *Service) Close() error {
	errFactory := errors.New()

	if s.gpu == nil {
		return nil
	}
	if err := s.gpu.Shutdown(); err != nil {
		return errFactory.Wrap(ErrServiceShutdown, err)
	}
	return nil
}

func readCPUTimes(ctx context.Context) (cpu.TimesStat, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return cpu.TimesStat{}, err
	}
	if len(times) == 0 {
		return cpu.TimesStat{}, errors.New().WithMessage(ErrCPUTimes, "no aggregate CPU times reported")
	}
	return times[0], nil
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
