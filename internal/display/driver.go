package display

import (
	"context"

	"codeberg.org/mutker/ledtop/internal/config"
	"codeberg.org/mutker/ledtop/internal/errors"
	"codeberg.org/mutker/ledtop/internal/logger"
	"codeberg.org/mutker/ledtop/internal/openrgb"
	"codeberg.org/mutker/ledtop/internal/telemetry"
)

// Sampler provides one telemetry snapshot per call, blocking for the
// sampling interval.
type Sampler interface {
	Sample(ctx context.Context) (*telemetry.Snapshot, error)
}

// binding ties a display to the buffer of its zone
type binding struct {
	renderer renderer
	zone     *zoneBuffer
}

// Driver renders every configured display once per sample
type Driver struct {
	lighting Lighting
	sampler  Sampler
	bindings []binding
	zones    []*zoneBuffer
}

// New resolves every display against the devices reported by the
// lighting client and builds its renderer. Only then is each used device
// switched to direct mode and each zone with a configured size resized.
func New(cfg *config.Config, lighting Lighting, sampler Sampler) (*Driver, error) {
	errFactory := errors.New()

	devices, err := lighting.Devices()
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrHardwareIO, err)
	}

	displays := cfg.Displays()
	targets, err := resolveTargets(devices, displays)
	if err != nil {
		return nil, err
	}

	renderers := make([]renderer, len(targets))
	for i, t := range targets {
		if renderers[i], err = newRenderer(displays[i], t.rng, cfg.MissingSensor); err != nil {
			return nil, err
		}
	}

	d := &Driver{lighting: lighting, sampler: sampler}

	modeSet := make(map[int]bool)
	zones := make(map[zoneKey]*zoneBuffer)

	for i, t := range targets {
		if !modeSet[t.device.Index] {
			if err := lighting.SetCustomMode(t.device.Index); err != nil {
				return nil, errFactory.Wrap(errors.ErrHardwareIO, err).WithData(t.device.Name)
			}
			modeSet[t.device.Index] = true
		}

		zone, ok := zones[t.key()]
		if !ok {
			if t.size != int(t.zone.LEDCount) {
				if err := lighting.ResizeZone(t.device.Index, t.zone.Index, t.size); err != nil {
					return nil, errFactory.Wrap(errors.ErrHardwareIO, err).WithData(t.zone.Name)
				}
			}
			zone = &zoneBuffer{
				key:        t.key(),
				deviceName: t.device.Name,
				zoneName:   t.zone.Name,
				colors:     make([]openrgb.Color, t.size),
			}
			zones[t.key()] = zone
			d.zones = append(d.zones, zone)
		}

		d.bindings = append(d.bindings, binding{renderer: renderers[i], zone: zone})

		logger.Info().Msgf("Display %s on %s, LEDs %d-%d", displays[i].ID(), zone, t.rng.Start+1, t.rng.End)
	}

	return d, nil
}

func newRenderer(d config.Display, rng Range, policy config.SensorPolicy) (renderer, error) {
	switch d.Kind {
	case config.KindCPU:
		return newCPUDisplay(d, rng)
	case config.KindMemory:
		return newMemoryDisplay(d, rng)
	case config.KindTemp:
		return newTempDisplay(d, rng, policy)
	default:
		return nil, errors.New().WithData(errors.ErrInvalidConfig, d.ID())
	}
}

// Frame resets every zone, renders all displays in order and flushes each
// zone once.
func (d *Driver) Frame(snap *telemetry.Snapshot) error {
	errFactory := errors.New()

	for _, z := range d.zones {
		z.reset()
	}

	for _, b := range d.bindings {
		if err := b.renderer.render(snap, b.zone.colors); err != nil {
			return errFactory.Wrap(errors.ErrRender, err).WithData(b.renderer.id())
		}
	}

	for _, z := range d.zones {
		if err := z.flush(d.lighting); err != nil {
			return err
		}
	}

	return nil
}

// Run clears all devices, then samples and renders until ctx is done.
func (d *Driver) Run(ctx context.Context) error {
	errFactory := errors.New()

	if err := d.lighting.Clear(); err != nil {
		return errFactory.Wrap(errors.ErrHardwareIO, err)
	}

	for {
		snap, err := d.sampler.Sample(ctx)
		if ctx.Err() != nil {
			logger.Debug().Msg("Display loop stopped")
			return nil
		}
		if err != nil {
			return errFactory.Wrap(errors.ErrSample, err)
		}

		if err := d.Frame(snap); err != nil {
			return err
		}
		logger.Debug().Time("sampled_at", snap.Timestamp).Msg("Frame rendered")
	}
}

// Off turns every used zone off
func (d *Driver) Off() error {
	errFactory := errors.New()

	for _, z := range d.zones {
		z.reset()
		if err := z.flush(d.lighting); err != nil {
			return errFactory.Wrap(errors.ErrTurnOffLEDs, err)
		}
	}

	return nil
}

// Zones returns the number of distinct zones the driver writes
func (d *Driver) Zones() int {
	return len(d.zones)
}
