package display

import (
	"codeberg.org/mutker/ledtop/internal/errors"
	"codeberg.org/mutker/ledtop/internal/openrgb"
)

// Lighting is the part of the OpenRGB client the driver needs
type Lighting interface {
	Devices() ([]openrgb.Device, error)
	SetCustomMode(device int) error
	ResizeZone(device, zone, size int) error
	UpdateZoneLEDs(device, zone int, colors []openrgb.Color) error
	Clear() error
}

// zoneKey identifies a zone across devices
type zoneKey struct {
	device int
	zone   int
}

// zoneBuffer is the local color buffer of one zone, flushed once per frame
type zoneBuffer struct {
	key        zoneKey
	deviceName string
	zoneName   string
	colors     []openrgb.Color
}

func (z *zoneBuffer) reset() {
	for i := range z.colors {
		z.colors[i] = openrgb.Black
	}
}

func (z *zoneBuffer) flush(l Lighting) error {
	if err := l.UpdateZoneLEDs(z.key.device, z.key.zone, z.colors); err != nil {
		return errors.New().Wrap(errors.ErrHardwareIO, err).WithData(z.String())
	}
	return nil
}

func (z *zoneBuffer) String() string {
	return z.deviceName + "/" + z.zoneName
}
