package openrgb

import "fmt"

// Color is a single LED color as carried on the wire.
type Color struct {
	R, G, B uint8
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Black is the off color.
var Black = Color{}

// Mode is a lighting mode reported by a controller.
type Mode struct {
	Name          string
	Value         int32
	Flags         uint32
	SpeedMin      uint32
	SpeedMax      uint32
	BrightnessMin uint32
	BrightnessMax uint32
	ColorsMin     uint32
	ColorsMax     uint32
	Speed         uint32
	Brightness    uint32
	Direction     uint32
	ColorMode     uint32
	Colors        []Color
}

// Zone is a group of LEDs on a controller.
type Zone struct {
	Index    int
	Name     string
	Type     int32
	LEDsMin  uint32
	LEDsMax  uint32
	LEDCount uint32
}

// Resizable reports whether the zone length can be changed by the client.
func (z Zone) Resizable() bool {
	return z.LEDsMin != z.LEDsMax
}

// LED is a single named LED.
type LED struct {
	Name  string
	Value uint32
}

// Device is the controller data of one device on the SDK server.
type Device struct {
	Index       int
	Type        int32
	Name        string
	Vendor      string
	Description string
	Version     string
	Serial      string
	Location    string
	ActiveMode  int32
	Modes       []Mode
	Zones       []Zone
	LEDs        []LED
	Colors      []Color
}
