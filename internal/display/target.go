package display

import (
	"fmt"

	"codeberg.org/mutker/ledtop/internal/config"
	"codeberg.org/mutker/ledtop/internal/errors"
	"codeberg.org/mutker/ledtop/internal/openrgb"
)

// target is a display's resolved device, zone and LED range
type target struct {
	device openrgb.Device
	zone   openrgb.Zone
	size   int
	rng    Range
}

func (t target) key() zoneKey {
	return zoneKey{device: t.device.Index, zone: t.zone.Index}
}

func findDevice(devices []openrgb.Device, ref config.Ref) (openrgb.Device, bool) {
	if !ref.ByName {
		if ref.Index < 0 || ref.Index >= len(devices) {
			return openrgb.Device{}, false
		}
		return devices[ref.Index], true
	}

	for _, d := range devices {
		if d.Name == ref.Name {
			return d, true
		}
	}
	return openrgb.Device{}, false
}

func findZone(device openrgb.Device, ref config.Ref) (openrgb.Zone, bool) {
	for _, z := range device.Zones {
		if ref.ByName && z.Name == ref.Name {
			return z, true
		}
		if !ref.ByName && z.Index == ref.Index {
			return z, true
		}
	}
	return openrgb.Zone{}, false
}

// checkSize reports whether a zone can take the given length. Fixed
// zones only accept their current LED count.
func checkSize(zone openrgb.Zone, size int) error {
	if size == int(zone.LEDCount) {
		return nil
	}
	if !zone.Resizable() {
		return fmt.Errorf("zone %s has a fixed length of %d LEDs", zone.Name, zone.LEDCount)
	}
	if size < int(zone.LEDsMin) || size > int(zone.LEDsMax) {
		return fmt.Errorf("size %d outside zone %s limits %d-%d", size, zone.Name, zone.LEDsMin, zone.LEDsMax)
	}

	return nil
}

// resolveTargets looks up every display's device and zone. A zone takes
// the size configured by any display on it, else its LED count; displays
// disagreeing on a zone's size are rejected.
func resolveTargets(devices []openrgb.Device, displays []config.Display) ([]target, error) {
	errFactory := errors.New()

	targets := make([]target, len(displays))
	sizes := make(map[zoneKey]int)

	for i, d := range displays {
		dev, ok := findDevice(devices, d.Device)
		if !ok {
			return nil, errFactory.WithData(errors.ErrDeviceNotFound, d.ID()+": "+d.Device.String())
		}
		zone, ok := findZone(dev, d.Zone)
		if !ok {
			return nil, errFactory.WithData(errors.ErrZoneNotFound, d.ID()+": "+d.Zone.String())
		}

		t := target{device: dev, zone: zone}
		if d.Size > 0 {
			if err := checkSize(zone, d.Size); err != nil {
				return nil, errFactory.Wrap(errors.ErrInvalidConfig, err).WithData(d.ID())
			}
			if prev, seen := sizes[t.key()]; seen && prev != d.Size {
				return nil, errFactory.WithMessage(errors.ErrInvalidConfig,
					d.ID()+": conflicting sizes for zone "+zone.Name)
			}
			sizes[t.key()] = d.Size
		}
		targets[i] = t
	}

	for i := range targets {
		t := &targets[i]
		t.size = int(t.zone.LEDCount)
		if size, ok := sizes[t.key()]; ok {
			t.size = size
		}

		rng, err := ParseRange(displays[i].LEDs, t.size)
		if err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err).WithData(displays[i].ID())
		}
		t.rng = rng
	}

	return targets, nil
}
