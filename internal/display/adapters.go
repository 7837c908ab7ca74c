package display

import (
	"fmt"
	"math"

	"github.com/mazznoer/colorgrad"

	"codeberg.org/mutker/ledtop/internal/config"
	"codeberg.org/mutker/ledtop/internal/errors"
	"codeberg.org/mutker/ledtop/internal/logger"
	"codeberg.org/mutker/ledtop/internal/openrgb"
	"codeberg.org/mutker/ledtop/internal/telemetry"
)

const (
	defaultHighTemp = 90.0
	// maxGreen is the green channel of the coldest temperature color
	maxGreen = 128
)

// renderer draws one display into the buffer of its zone
type renderer interface {
	id() string
	render(snap *telemetry.Snapshot, buf []openrgb.Color) error
}

type base struct {
	name string
	rng  Range
}

func (b base) id() string { return b.name }

// palette parses the display colors and applies its brightness
func palette(d config.Display) (map[string]openrgb.Color, error) {
	out := make(map[string]openrgb.Color, len(d.Palette))
	for _, c := range d.Palette {
		color, err := ParseColor(c.Color)
		if err != nil {
			return nil, errors.New().Wrap(errors.ErrInvalidConfig, err).WithData(d.ID() + "." + c.Name + "_color")
		}
		out[c.Name] = Scale(color, d.Brightness)
	}
	return out, nil
}

type cpuDisplay struct {
	base
	user, nice, system, iowait, irq, softirq openrgb.Color
	idle                                     openrgb.Color
}

func newCPUDisplay(d config.Display, rng Range) (*cpuDisplay, error) {
	p, err := palette(d)
	if err != nil {
		return nil, err
	}
	return &cpuDisplay{
		base:    base{name: d.ID(), rng: rng},
		user:    p["user"],
		nice:    p["nice"],
		system:  p["system"],
		iowait:  p["iowait"],
		irq:     p["irq"],
		softirq: p["softirq"],
		idle:    p["idle"],
	}, nil
}

func (d *cpuDisplay) weights(cpu telemetry.CPUPercent) Weights {
	return Weights{
		{Label: "user", Color: d.user, Fraction: cpu.User / 100},
		{Label: "nice", Color: d.nice, Fraction: cpu.Nice / 100},
		{Label: "system", Color: d.system, Fraction: cpu.System / 100},
		{Label: "iowait", Color: d.iowait, Fraction: cpu.Iowait / 100},
		{Label: "irq", Color: d.irq, Fraction: cpu.Irq / 100},
		{Label: "softirq", Color: d.softirq, Fraction: cpu.Softirq / 100},
	}
}

func (d *cpuDisplay) render(snap *telemetry.Snapshot, buf []openrgb.Color) error {
	w := d.weights(snap.CPU)
	if err := w.Validate(); err != nil {
		return err
	}
	d.rng.Write(buf, Allocate(w, d.idle, d.rng.Len()))
	return nil
}

type memoryDisplay struct {
	base
	used, buffers, cached openrgb.Color
	unused                openrgb.Color
}

func newMemoryDisplay(d config.Display, rng Range) (*memoryDisplay, error) {
	p, err := palette(d)
	if err != nil {
		return nil, err
	}
	return &memoryDisplay{
		base:    base{name: d.ID(), rng: rng},
		used:    p["used"],
		buffers: p["buffers"],
		cached:  p["cached"],
		unused:  p["unused"],
	}, nil
}

func (d *memoryDisplay) weights(m telemetry.Memory) Weights {
	if m.Total == 0 {
		return nil
	}
	total := float64(m.Total)
	return Weights{
		{Label: "used", Color: d.used, Fraction: float64(m.Used) / total},
		{Label: "buffers", Color: d.buffers, Fraction: float64(m.Buffers) / total},
		{Label: "cached", Color: d.cached, Fraction: float64(m.Cached) / total},
	}
}

func (d *memoryDisplay) render(snap *telemetry.Snapshot, buf []openrgb.Color) error {
	d.rng.Write(buf, Allocate(d.weights(snap.Memory), d.unused, d.rng.Len()))
	return nil
}

type tempDisplay struct {
	base
	component  string
	sensor     string
	low        float64
	high       *float64
	gradient   *colorgrad.Gradient
	brightness int
	policy     config.SensorPolicy
	warned     bool
}

func newTempDisplay(d config.Display, rng Range, policy config.SensorPolicy) (*tempDisplay, error) {
	t := &tempDisplay{
		base:       base{name: d.ID(), rng: rng},
		component:  d.Temp.Component,
		sensor:     d.Temp.Sensor,
		low:        d.Temp.Low,
		high:       d.Temp.High,
		brightness: d.Brightness,
		policy:     policy,
	}

	if len(d.Temp.Gradient) > 0 {
		stops := make([]string, len(d.Temp.Gradient))
		for i, s := range d.Temp.Gradient {
			c, err := ParseColor(s)
			if err != nil {
				return nil, errors.New().Wrap(errors.ErrInvalidConfig, err).WithData(d.ID() + ".gradient")
			}
			stops[i] = c.String()
		}

		grad, err := colorgrad.NewGradient().
			HtmlColors(stops...).
			Domain(0, 1).
			Mode(colorgrad.BlendRgb).
			Build()
		if err != nil {
			return nil, errors.New().Wrap(errors.ErrInvalidConfig, err).WithData(d.ID() + ".gradient")
		}
		t.gradient = &grad
	}

	return t, nil
}

// highFor picks the upper bound: configured, else the sensor's critical
// threshold, else its high threshold, else 90 °C.
func (d *tempDisplay) highFor(s telemetry.Sensor) float64 {
	switch {
	case d.high != nil:
		return *d.high
	case s.Critical > 0:
		return s.Critical
	case s.High > 0:
		return s.High
	default:
		return defaultHighTemp
	}
}

// Fraction maps cur onto [0, 1] between low and high
func Fraction(cur, low, high float64) float64 {
	if high <= low {
		if cur >= high {
			return 1
		}
		return 0
	}
	return math.Min(math.Max((cur-low)/(high-low), 0), 1)
}

// TempColor is the default ramp: green when cold, red when hot
func TempColor(t float64) openrgb.Color {
	return openrgb.Color{
		R: uint8(math.Floor(255*t + 0.5)),
		G: uint8(math.Floor(maxGreen*(1-t) + 0.5)),
	}
}

func (d *tempDisplay) color(t float64) openrgb.Color {
	if d.gradient != nil {
		return fromColorful(d.gradient.At(t))
	}
	return TempColor(t)
}

func (d *tempDisplay) lookup(sensors []telemetry.Sensor) (telemetry.Sensor, bool, error) {
	if s, ok := telemetry.FindSensor(sensors, d.component, d.sensor); ok {
		return s, true, nil
	}

	want := fmt.Sprintf("%s: component=%q sensor=%q", d.name, d.component, d.sensor)

	switch d.policy {
	case config.SensorFirst:
		s, ok := telemetry.FindSensor(sensors, "", "")
		d.warnOnce(want, ok)
		return s, ok, nil
	case config.SensorSkip:
		d.warnOnce(want, false)
		return telemetry.Sensor{}, false, nil
	default:
		return telemetry.Sensor{}, false, errors.New().WithData(errors.ErrSensorNotFound, want)
	}
}

func (d *tempDisplay) warnOnce(want string, fallback bool) {
	event := logger.Debug()
	if !d.warned {
		event = logger.Warn()
		d.warned = true
	}
	if fallback {
		event.Msgf("Temperature sensor not found, using first available: %s", want)
		return
	}
	event.Msgf("Temperature sensor not found, leaving display dark: %s", want)
}

func (d *tempDisplay) render(snap *telemetry.Snapshot, buf []openrgb.Color) error {
	s, ok, err := d.lookup(snap.Sensors)
	if err != nil || !ok {
		return err
	}

	t := Fraction(s.Current, d.low, d.highFor(s))
	d.rng.Fill(buf, Scale(d.color(t), d.brightness))

	return nil
}
