package display

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/ledtop/internal/config"
	"codeberg.org/mutker/ledtop/internal/errors"
	"codeberg.org/mutker/ledtop/internal/openrgb"
	"codeberg.org/mutker/ledtop/internal/telemetry"
)

type mockLighting struct {
	mock.Mock
}

func (m *mockLighting) Devices() ([]openrgb.Device, error) {
	args := m.Called()
	return args.Get(0).([]openrgb.Device), args.Error(1)
}

func (m *mockLighting) SetCustomMode(device int) error {
	return m.Called(device).Error(0)
}

func (m *mockLighting) ResizeZone(device, zone, size int) error {
	return m.Called(device, zone, size).Error(0)
}

func (m *mockLighting) UpdateZoneLEDs(device, zone int, colors []openrgb.Color) error {
	// the driver reuses its buffers between frames
	return m.Called(device, zone, append([]openrgb.Color(nil), colors...)).Error(0)
}

func (m *mockLighting) Clear() error {
	return m.Called().Error(0)
}

func testDevices() []openrgb.Device {
	return []openrgb.Device{
		{
			Index: 0,
			Name:  "ASUS Aura",
			Zones: []openrgb.Zone{
				{Index: 0, Name: "Mainboard", LEDsMin: 10, LEDsMax: 10, LEDCount: 10},
				{Index: 1, Name: "ARGB Header", LEDsMin: 0, LEDsMax: 120, LEDCount: 0},
			},
		},
		{
			Index: 1,
			Name:  "Corsair Fan",
			Zones: []openrgb.Zone{
				{Index: 0, Name: "Ring", LEDsMin: 4, LEDsMax: 4, LEDCount: 4},
			},
		},
	}
}

func cpuConfig(device, zone config.Ref, leds string) config.Display {
	return config.Display{
		Kind:       config.KindCPU,
		Device:     device,
		Zone:       zone,
		LEDs:       leds,
		Brightness: 100,
		Palette: []config.Category{
			{Name: "user", Color: "#00ff00"},
			{Name: "nice", Color: "#0000ff"},
			{Name: "system", Color: "#ff0000"},
			{Name: "iowait", Color: "#888888"},
			{Name: "irq", Color: "#ffff00"},
			{Name: "softirq", Color: "#ff00ff"},
			{Name: "idle", Color: "#000000"},
		},
	}
}

func memoryConfig(device, zone config.Ref, leds string) config.Display {
	return config.Display{
		Kind:       config.KindMemory,
		Name:       "strip",
		Device:     device,
		Zone:       zone,
		LEDs:       leds,
		Brightness: 100,
		Palette: []config.Category{
			{Name: "used", Color: "#00ff00"},
			{Name: "buffers", Color: "#0000ff"},
			{Name: "cached", Color: "#ff4400"},
			{Name: "unused", Color: "#888888"},
		},
	}
}

func tempConfig(device, zone config.Ref, opts config.TempOptions) config.Display {
	if opts.Low == 0 {
		opts.Low = 20
	}
	return config.Display{
		Kind:       config.KindTemp,
		Device:     device,
		Zone:       zone,
		Brightness: 100,
		Temp:       opts,
	}
}

func newLighting(t *testing.T) *mockLighting {
	t.Helper()

	m := &mockLighting{}
	m.On("Devices").Return(testDevices(), nil)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func snapshot() *telemetry.Snapshot {
	return &telemetry.Snapshot{
		CPU:    telemetry.CPUPercent{User: 20, System: 10, Idle: 70},
		Memory: telemetry.Memory{Total: 100, Used: 50},
		Sensors: []telemetry.Sensor{
			{Key: "acpitz", Component: "acpitz", Current: 30},
			{Key: "coretemp_package_id_0", Component: "coretemp", Label: "package_id_0", Current: 55},
		},
	}
}

func TestFrameCPU(t *testing.T) {
	m := newLighting(t)
	m.On("SetCustomMode", 0).Return(nil).Once()
	m.On("UpdateZoneLEDs", 0, 0, concat(repeat(green, 2), repeat(red, 1), repeat(black, 7))).Return(nil).Once()

	cfg := &config.Config{CPU: []config.Display{cpuConfig(config.IndexRef(0), config.IndexRef(0), "")}}
	d, err := New(cfg, m, nil)
	require.NoError(t, err)

	require.NoError(t, d.Frame(snapshot()))
}

func TestFrameSharedZoneFlushedOnce(t *testing.T) {
	m := newLighting(t)
	m.On("SetCustomMode", 0).Return(nil).Once()

	// cpu on LEDs 1-5: user 1, system [1,2), idle; memory on 10-6: used 3 from the top
	want := concat(
		[]openrgb.Color{green, red}, repeat(black, 3),
		repeat(gray, 2), repeat(green, 3),
	)
	m.On("UpdateZoneLEDs", 0, 0, want).Return(nil).Once()

	cfg := &config.Config{
		CPU:    []config.Display{cpuConfig(config.NameRef("ASUS Aura"), config.NameRef("Mainboard"), "1-5")},
		Memory: []config.Display{memoryConfig(config.IndexRef(0), config.IndexRef(0), "10-6")},
	}
	d, err := New(cfg, m, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Zones())

	require.NoError(t, d.Frame(snapshot()))
}

func TestFrameResetsUnclaimedLEDs(t *testing.T) {
	m := newLighting(t)
	m.On("SetCustomMode", 1).Return(nil).Once()
	m.On("UpdateZoneLEDs", 1, 0, []openrgb.Color{black, green, black, black}).Return(nil).Once()
	m.On("UpdateZoneLEDs", 1, 0, []openrgb.Color{black, black, black, black}).Return(nil).Once()

	cfg := &config.Config{Memory: []config.Display{memoryConfig(config.IndexRef(1), config.IndexRef(0), "2")}}
	d, err := New(cfg, m, nil)
	require.NoError(t, err)

	require.NoError(t, d.Frame(&telemetry.Snapshot{Memory: telemetry.Memory{Total: 10, Used: 10}}))
	require.NoError(t, d.Off())
}

func TestFrameTemperature(t *testing.T) {
	m := newLighting(t)
	m.On("SetCustomMode", 1).Return(nil).Once()
	m.On("UpdateZoneLEDs", 1, 0, repeat(openrgb.Color{R: 64, G: 32}, 4)).Return(nil).Once()

	high := 90.0
	temp := tempConfig(config.IndexRef(1), config.IndexRef(0), config.TempOptions{Component: "coretemp", High: &high})
	temp.Brightness = 50
	d, err := New(&config.Config{Temp: []config.Display{temp}}, m, nil)
	require.NoError(t, err)

	require.NoError(t, d.Frame(snapshot()))
}

func TestFrameTemperatureGradient(t *testing.T) {
	var got []openrgb.Color
	m := newLighting(t)
	m.On("SetCustomMode", 1).Return(nil).Once()
	m.On("UpdateZoneLEDs", 1, 0, mock.Anything).Run(func(args mock.Arguments) {
		got = args.Get(2).([]openrgb.Color)
	}).Return(nil).Once()

	high := 90.0
	temp := tempConfig(config.IndexRef(1), config.IndexRef(0), config.TempOptions{
		Component: "coretemp",
		High:      &high,
		Gradient:  []string{"#0000ff", "#ff0000"},
	})
	d, err := New(&config.Config{Temp: []config.Display{temp}}, m, nil)
	require.NoError(t, err)

	require.NoError(t, d.Frame(snapshot()))
	require.Len(t, got, 4)
	for _, c := range got {
		assert.InDelta(t, 128, int(c.R), 1)
		assert.InDelta(t, 0, int(c.G), 1)
		assert.InDelta(t, 128, int(c.B), 1)
	}
}

func TestMissingSensorPolicies(t *testing.T) {
	missing := config.TempOptions{Component: "k10temp"}

	t.Run("fail", func(t *testing.T) {
		m := newLighting(t)
		m.On("SetCustomMode", 1).Return(nil).Once()

		d, err := New(&config.Config{
			MissingSensor: config.SensorFail,
			Temp:          []config.Display{tempConfig(config.IndexRef(1), config.IndexRef(0), missing)},
		}, m, nil)
		require.NoError(t, err)

		err = d.Frame(snapshot())
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrSensorNotFound))
		m.AssertNotCalled(t, "UpdateZoneLEDs", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("first", func(t *testing.T) {
		m := newLighting(t)
		m.On("SetCustomMode", 1).Return(nil).Once()
		// acpitz at 30 °C on the default 20-90 ramp
		m.On("UpdateZoneLEDs", 1, 0, repeat(TempColor(Fraction(30, 20, 90)), 4)).Return(nil).Twice()

		d, err := New(&config.Config{
			MissingSensor: config.SensorFirst,
			Temp:          []config.Display{tempConfig(config.IndexRef(1), config.IndexRef(0), missing)},
		}, m, nil)
		require.NoError(t, err)

		require.NoError(t, d.Frame(snapshot()))
		require.NoError(t, d.Frame(snapshot()))
	})

	t.Run("skip", func(t *testing.T) {
		m := newLighting(t)
		m.On("SetCustomMode", 1).Return(nil).Once()
		m.On("UpdateZoneLEDs", 1, 0, repeat(black, 4)).Return(nil).Once()

		d, err := New(&config.Config{
			MissingSensor: config.SensorSkip,
			Temp:          []config.Display{tempConfig(config.IndexRef(1), config.IndexRef(0), missing)},
		}, m, nil)
		require.NoError(t, err)

		require.NoError(t, d.Frame(snapshot()))
	})
}

func TestNewResizesZone(t *testing.T) {
	m := newLighting(t)
	m.On("SetCustomMode", 0).Return(nil).Once()
	m.On("ResizeZone", 0, 1, 20).Return(nil).Once()
	m.On("UpdateZoneLEDs", 0, 1, mock.MatchedBy(func(c []openrgb.Color) bool { return len(c) == 20 })).Return(nil).Once()

	cpu := cpuConfig(config.IndexRef(0), config.NameRef("ARGB Header"), "20-11")
	cpu.Size = 20
	mem := memoryConfig(config.IndexRef(0), config.IndexRef(1), "1-10")
	d, err := New(&config.Config{CPU: []config.Display{cpu}, Memory: []config.Display{mem}}, m, nil)
	require.NoError(t, err)

	require.NoError(t, d.Frame(snapshot()))
}

func TestNewFixedZoneKeepsLength(t *testing.T) {
	m := newLighting(t)
	m.On("SetCustomMode", 0).Return(nil).Once()
	m.On("UpdateZoneLEDs", 0, 0, mock.MatchedBy(func(c []openrgb.Color) bool { return len(c) == 10 })).Return(nil).Once()

	cpu := cpuConfig(config.IndexRef(0), config.NameRef("Mainboard"), "")
	cpu.Size = 10
	d, err := New(&config.Config{CPU: []config.Display{cpu}}, m, nil)
	require.NoError(t, err)

	require.NoError(t, d.Frame(snapshot()))
	m.AssertNotCalled(t, "ResizeZone", mock.Anything, mock.Anything, mock.Anything)
}

func TestNewRejects(t *testing.T) {
	conflicting := cpuConfig(config.IndexRef(0), config.IndexRef(1), "")
	conflicting.Size = 20
	other := memoryConfig(config.IndexRef(0), config.IndexRef(1), "")
	other.Size = 30

	badColor := cpuConfig(config.IndexRef(0), config.IndexRef(0), "")
	badColor.Palette[0].Color = "nope"

	fixed := cpuConfig(config.IndexRef(0), config.NameRef("Mainboard"), "")
	fixed.Size = 20

	oversized := cpuConfig(config.IndexRef(0), config.NameRef("ARGB Header"), "")
	oversized.Size = 121

	tests := []struct {
		name     string
		cfg      *config.Config
		wantCode errors.ErrorCode
	}{
		{
			name:     "device index out of range",
			cfg:      &config.Config{CPU: []config.Display{cpuConfig(config.IndexRef(5), config.IndexRef(0), "")}},
			wantCode: errors.ErrDeviceNotFound,
		},
		{
			name:     "unknown device name",
			cfg:      &config.Config{CPU: []config.Display{cpuConfig(config.NameRef("Razer"), config.IndexRef(0), "")}},
			wantCode: errors.ErrDeviceNotFound,
		},
		{
			name:     "unknown zone",
			cfg:      &config.Config{CPU: []config.Display{cpuConfig(config.IndexRef(0), config.NameRef("Fans"), "")}},
			wantCode: errors.ErrZoneNotFound,
		},
		{
			name:     "range past zone",
			cfg:      &config.Config{CPU: []config.Display{cpuConfig(config.IndexRef(1), config.IndexRef(0), "3-5")}},
			wantCode: errors.ErrInvalidRange,
		},
		{
			name:     "empty zone without size",
			cfg:      &config.Config{CPU: []config.Display{cpuConfig(config.IndexRef(0), config.IndexRef(1), "")}},
			wantCode: errors.ErrInvalidRange,
		},
		{
			name:     "conflicting sizes",
			cfg:      &config.Config{CPU: []config.Display{conflicting}, Memory: []config.Display{other}},
			wantCode: errors.ErrInvalidConfig,
		},
		{
			name:     "size on fixed zone",
			cfg:      &config.Config{CPU: []config.Display{fixed}},
			wantCode: errors.ErrInvalidConfig,
		},
		{
			name:     "size above zone maximum",
			cfg:      &config.Config{CPU: []config.Display{oversized}},
			wantCode: errors.ErrInvalidConfig,
		},
		{
			name:     "bad color",
			cfg:      &config.Config{CPU: []config.Display{badColor}},
			wantCode: errors.ErrInvalidColor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newLighting(t)

			_, err := New(tt.cfg, m, nil)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.wantCode), err.Error())
			m.AssertNotCalled(t, "SetCustomMode", mock.Anything)
			m.AssertNotCalled(t, "ResizeZone", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestNewHardwareFailure(t *testing.T) {
	m := &mockLighting{}
	m.On("Devices").Return([]openrgb.Device(nil), assert.AnError)

	_, err := New(&config.Config{}, m, nil)
	assert.True(t, errors.HasCode(err, errors.ErrHardwareIO))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestFlushFailurePropagates(t *testing.T) {
	m := newLighting(t)
	m.On("SetCustomMode", 1).Return(nil).Once()
	m.On("UpdateZoneLEDs", 1, 0, mock.Anything).Return(assert.AnError).Once()

	d, err := New(&config.Config{CPU: []config.Display{cpuConfig(config.IndexRef(1), config.IndexRef(0), "")}}, m, nil)
	require.NoError(t, err)

	err = d.Frame(snapshot())
	assert.True(t, errors.HasCode(err, errors.ErrHardwareIO))
}

type fakeSampler struct {
	cancel context.CancelFunc
	calls  int
}

func (s *fakeSampler) Sample(ctx context.Context) (*telemetry.Snapshot, error) {
	s.calls++
	if s.calls > 2 {
		s.cancel()
		return nil, ctx.Err()
	}
	return snapshot(), nil
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sampler := &fakeSampler{cancel: cancel}

	m := newLighting(t)
	m.On("SetCustomMode", 1).Return(nil).Once()
	m.On("Clear").Return(nil).Once()
	m.On("UpdateZoneLEDs", 1, 0, mock.Anything).Return(nil).Twice()

	d, err := New(&config.Config{CPU: []config.Display{cpuConfig(config.IndexRef(1), config.IndexRef(0), "")}}, m, sampler)
	require.NoError(t, err)

	require.NoError(t, d.Run(ctx))
	assert.Equal(t, 3, sampler.calls)
}

type failingSampler struct{}

func (failingSampler) Sample(context.Context) (*telemetry.Snapshot, error) {
	return nil, assert.AnError
}

func TestRunSampleFailure(t *testing.T) {
	m := newLighting(t)
	m.On("SetCustomMode", 1).Return(nil).Once()
	m.On("Clear").Return(nil).Once()

	d, err := New(&config.Config{CPU: []config.Display{cpuConfig(config.IndexRef(1), config.IndexRef(0), "")}}, m, failingSampler{})
	require.NoError(t, err)

	err = d.Run(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrSample))
}
