package openrgb

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// controllerBlob encodes controller data the way the SDK server does.
func controllerBlob(dev Device, version uint32, matrix map[int][2]uint32) []byte {
	e := &encoder{}
	e.i32(dev.Type)
	e.str(dev.Name)
	if version >= 1 {
		e.str(dev.Vendor)
	}
	e.str(dev.Description)
	e.str(dev.Version)
	e.str(dev.Serial)
	e.str(dev.Location)
	e.u16(uint16(len(dev.Modes)))
	e.i32(dev.ActiveMode)
	for _, m := range dev.Modes {
		e.str(m.Name)
		e.i32(m.Value)
		e.u32(m.Flags)
		e.u32(m.SpeedMin)
		e.u32(m.SpeedMax)
		if version >= 3 {
			e.u32(m.BrightnessMin)
			e.u32(m.BrightnessMax)
		}
		e.u32(m.ColorsMin)
		e.u32(m.ColorsMax)
		e.u32(m.Speed)
		if version >= 3 {
			e.u32(m.Brightness)
		}
		e.u32(m.Direction)
		e.u32(m.ColorMode)
		e.colors(m.Colors)
	}
	e.u16(uint16(len(dev.Zones)))
	for i, z := range dev.Zones {
		e.str(z.Name)
		e.i32(z.Type)
		e.u32(z.LEDsMin)
		e.u32(z.LEDsMax)
		e.u32(z.LEDCount)
		if dims, ok := matrix[i]; ok {
			h, w := dims[0], dims[1]
			e.u16(uint16(8 + 4*h*w))
			e.u32(h)
			e.u32(w)
			for j := uint32(0); j < h*w; j++ {
				e.u32(j)
			}
		} else {
			e.u16(0)
		}
	}
	e.u16(uint16(len(dev.LEDs)))
	for _, led := range dev.LEDs {
		e.str(led.Name)
		e.u32(led.Value)
	}
	e.colors(dev.Colors)

	body := e.bytes()
	out := &encoder{}
	out.u32(uint32(4 + len(body)))
	out.buf.Write(body)

	return out.bytes()
}

func sampleDevice() Device {
	return Device{
		Type:        0,
		Name:        "ASUS ROG STRIX B550-F",
		Vendor:      "ASUS",
		Description: "ASUS Aura Motherboard",
		Version:     "AUMA0-E6K5-0107",
		Serial:      "",
		Location:    "I2C: /dev/i2c-1",
		ActiveMode:  0,
		Modes: []Mode{
			{Name: "Direct", Value: 0xFF, Flags: 0x20, ColorMode: 1},
			{Name: "Static", Value: 1, Flags: 0x8, ColorsMin: 1, ColorsMax: 1, Brightness: 100, BrightnessMax: 100, Colors: []Color{{R: 255}}},
		},
		Zones: []Zone{
			{Index: 0, Name: "Aura Mainboard", Type: 1, LEDsMin: 4, LEDsMax: 4, LEDCount: 4},
			{Index: 1, Name: "Aura Addressable 1", Type: 1, LEDsMin: 0, LEDsMax: 120, LEDCount: 30},
		},
		LEDs:   []LED{{Name: "Back I/O", Value: 0}, {Name: "PCH", Value: 1}},
		Colors: []Color{{R: 1, G: 2, B: 3}, {R: 4, G: 5, B: 6}},
	}
}

func TestHeaderEncodeDecode(t *testing.T) {
	h := Header{Device: 3, ID: PacketUpdateZoneLEDs, Size: 42}
	buf := h.encode()

	require.Len(t, buf, HeaderSize)
	assert.Equal(t, []byte("ORGB"), buf[:4])

	got, err := decodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestDecodeHeaderBadMagic(t *testing.T) {
	buf := Header{ID: 1}.encode()
	copy(buf, "XXXX")

	_, err := decodeHeader(buf)
	assert.True(t, errors.Is(err, ErrBadMagic))
}

func TestReadPacketTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writePacket(&buf, 0, PacketRequestControllerCount, []byte{1, 0, 0, 0}))
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-2])

	_, _, err := readPacket(truncated)
	assert.True(t, errors.Is(err, ErrShortPacket))
}

func TestDecodeController(t *testing.T) {
	for _, version := range []uint32{0, 1, 3} {
		want := sampleDevice()
		if version == 0 {
			want.Vendor = ""
		}
		if version < 3 {
			for i := range want.Modes {
				want.Modes[i].Brightness = 0
				want.Modes[i].BrightnessMin = 0
				want.Modes[i].BrightnessMax = 0
			}
		}

		blob := controllerBlob(want, version, map[int][2]uint32{0: {2, 2}})
		got, err := decodeController(blob, version)
		require.NoError(t, err, "version %d", version)

		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Vendor, got.Vendor)
		assert.Equal(t, want.Location, got.Location)
		assert.Equal(t, want.Modes, got.Modes)
		assert.Equal(t, want.Zones, got.Zones)
		assert.Equal(t, want.LEDs, got.LEDs)
		assert.Equal(t, want.Colors, got.Colors)
	}
}

func TestDecodeControllerTruncated(t *testing.T) {
	blob := controllerBlob(sampleDevice(), 3, nil)

	_, err := decodeController(blob[:len(blob)/2], 3)
	assert.True(t, errors.Is(err, ErrShortPacket))
}

func TestZoneResizable(t *testing.T) {
	dev := sampleDevice()
	assert.False(t, dev.Zones[0].Resizable())
	assert.True(t, dev.Zones[1].Resizable())
}

func TestColorString(t *testing.T) {
	assert.Equal(t, "#ff4400", Color{R: 0xff, G: 0x44}.String())
}
