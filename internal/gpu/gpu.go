package gpu

import (
	"fmt"

	"codeberg.org/mutker/ledtop/internal/errors"
	"codeberg.org/mutker/ledtop/internal/logger"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// Reading is one GPU temperature sample in °C. Thresholds are zero when
// the driver does not report them.
type Reading struct {
	Index    int
	Name     string
	Current  float64
	Slowdown float64
	Shutdown float64
}

// Key is the sensor key the reading is published under.
func (r Reading) Key() string {
	return fmt.Sprintf("nvidia_gpu%d", r.Index)
}

type GPU struct {
	lib     nvmlController
	devices []device
	names   []string
}

// New initializes NVML and enumerates all GPUs.
func New() (*GPU, error) {
	return newGPU(&nvmlWrapper{})
}

func newGPU(lib nvmlController) (*GPU, error) {
	if err := lib.Initialize(); err != nil {
		return nil, err
	}

	g := &GPU{lib: lib}
	if err := g.initialize(); err != nil {
		if shutdownErr := lib.Shutdown(); shutdownErr != nil {
			logger.Debug().Err(shutdownErr).Msg("Failed to shut down NVML")
		}
		return nil, err
	}

	return g, nil
}

func (g *GPU) initialize() error {
	count, err := g.lib.GetDeviceCount()
	if err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		dev, err := g.lib.GetDevice(i)
		if err != nil {
			return err
		}

		name, ret := dev.GetName()
		if !IsNVMLSuccess(ret) {
			logger.Warn().Msgf("Failed to get GPU name: %v", nvml.ErrorString(ret))
			name = fmt.Sprintf("GPU %d", i)
		}
		logger.Info().Msgf("Detected GPU: %v", name)

		g.devices = append(g.devices, dev)
		g.names = append(g.names, name)
	}

	return nil
}

// Count returns the number of detected GPUs.
func (g *GPU) Count() int {
	return len(g.devices)
}

// Temperatures reads the current temperature of every GPU.
func (g *GPU) Temperatures() ([]Reading, error) {
	errFactory := errors.New()
	readings := make([]Reading, 0, len(g.devices))

	for i, dev := range g.devices {
		temp, ret := dev.GetTemperature(nvml.TEMPERATURE_GPU)
		if !IsNVMLSuccess(ret) {
			return nil, errFactory.Wrap(ErrTemperatureReadFailed, newNVMLError(ret)).WithData(g.names[i])
		}

		readings = append(readings, Reading{
			Index:    i,
			Name:     g.names[i],
			Current:  float64(temp),
			Slowdown: threshold(dev, nvml.TEMPERATURE_THRESHOLD_SLOWDOWN),
			Shutdown: threshold(dev, nvml.TEMPERATURE_THRESHOLD_SHUTDOWN),
		})
	}

	return readings, nil
}

func threshold(dev device, kind nvml.TemperatureThresholds) float64 {
	value, ret := dev.GetTemperatureThreshold(kind)
	if !IsNVMLSuccess(ret) {
		return 0
	}

	return float64(value)
}

func (g *GPU) Shutdown() error {
	return g.lib.Shutdown()
}
