package config

import (
	"fmt"
	"math"
	"sort"

	"github.com/spf13/viper"

	"codeberg.org/mutker/ledtop/internal/errors"
)

const (
	defaultBrightness = 100
	defaultLowTemp    = 20.0
)

// Category is one named color slot of a display palette
type Category struct {
	Name  string
	Color string
}

// Display is one configured metric display. Palette colors are hex
// strings with defaults filled in.
type Display struct {
	Kind Kind
	// Name is the sub-table name, empty for the section's own display
	Name       string
	Device     Ref
	Zone       Ref
	Size       int // 0 keeps the zone's LED count
	LEDs       string
	Brightness int
	Palette    []Category
	Temp       TempOptions
}

// TempOptions are the temperature display settings. A nil High means the
// threshold comes from the sensor.
type TempOptions struct {
	Component string
	Sensor    string
	Low       float64
	High      *float64
	Gradient  []string
}

// ID names the display the way it appears in the config file
func (d Display) ID() string {
	if d.Name == "" {
		return string(d.Kind)
	}
	return string(d.Kind) + "." + d.Name
}

// Color returns the palette color of the named category
func (d Display) Color(name string) string {
	for _, c := range d.Palette {
		if c.Name == name {
			return c.Color
		}
	}
	return ""
}

type rawDisplay struct {
	Device     any    `mapstructure:"device"`
	Zone       any    `mapstructure:"zone"`
	Size       *int   `mapstructure:"size" validate:"omitempty,min=1"`
	LEDs       string `mapstructure:"leds"`
	LED        *int   `mapstructure:"led" validate:"omitempty,min=1"`
	Brightness *int   `mapstructure:"brightness" validate:"omitempty,min=0,max=100"`

	CPU    cpuColors    `mapstructure:",squash"`
	Memory memoryColors `mapstructure:",squash"`
	Temp   tempFields   `mapstructure:",squash"`
}

type cpuColors struct {
	User    string `mapstructure:"user_color" validate:"hex_color"`
	Nice    string `mapstructure:"nice_color" validate:"hex_color"`
	System  string `mapstructure:"system_color" validate:"hex_color"`
	Iowait  string `mapstructure:"iowait_color" validate:"hex_color"`
	Irq     string `mapstructure:"irq_color" validate:"hex_color"`
	Softirq string `mapstructure:"softirq_color" validate:"hex_color"`
	Idle    string `mapstructure:"idle_color" validate:"hex_color"`
}

type memoryColors struct {
	Used    string `mapstructure:"used_color" validate:"hex_color"`
	Buffers string `mapstructure:"buffers_color" validate:"hex_color"`
	Cached  string `mapstructure:"cached_color" validate:"hex_color"`
	Unused  string `mapstructure:"unused_color" validate:"hex_color"`
}

type tempFields struct {
	Component string   `mapstructure:"component"`
	Sensor    string   `mapstructure:"sensor"`
	Low       *float64 `mapstructure:"low"`
	High      *float64 `mapstructure:"high"`
	Gradient  []string `mapstructure:"gradient" validate:"omitempty,min=2,dive,required,hex_color"`
}

func (r *rawDisplay) palette(kind Kind) []Category {
	pick := func(name, value, def string) Category {
		if value == "" {
			value = def
		}
		return Category{Name: name, Color: value}
	}

	switch kind {
	case KindCPU:
		c := r.CPU
		return []Category{
			pick("user", c.User, "#00ff00"),
			pick("nice", c.Nice, "#0000ff"),
			pick("system", c.System, "#ff0000"),
			pick("iowait", c.Iowait, "#888888"),
			pick("irq", c.Irq, "#ffff00"),
			pick("softirq", c.Softirq, "#ff00ff"),
			pick("idle", c.Idle, "#000000"),
		}
	case KindMemory:
		c := r.Memory
		return []Category{
			pick("used", c.Used, "#00ff00"),
			pick("buffers", c.Buffers, "#0000ff"),
			pick("cached", c.Cached, "#ff4400"),
			pick("unused", c.Unused, "#888888"),
		}
	}

	return nil
}

// loadDisplays decodes the section of the given kind: its own display
// when it carries any plain key, then every sub-table in name order.
func loadDisplays(v *viper.Viper, kind Kind) ([]Display, error) {
	section := v.GetStringMap(string(kind))
	if len(section) == 0 {
		return nil, nil
	}

	var displays []Display

	names := make([]string, 0, len(section))
	own := false
	for name, value := range section {
		if _, ok := value.(map[string]any); ok {
			names = append(names, name)
		} else {
			own = true
		}
	}
	sort.Strings(names)

	if own {
		d, err := decodeDisplay(v, kind, "")
		if err != nil {
			return nil, err
		}
		displays = append(displays, d)
	}

	for _, name := range names {
		d, err := decodeDisplay(v, kind, name)
		if err != nil {
			return nil, err
		}
		displays = append(displays, d)
	}

	return displays, nil
}

func decodeDisplay(v *viper.Viper, kind Kind, name string) (Display, error) {
	errFactory := errors.New()

	d := Display{Kind: kind, Name: name, Brightness: defaultBrightness}
	key := d.ID()

	var raw rawDisplay
	if err := v.UnmarshalKey(key, &raw); err != nil {
		return Display{}, errFactory.Wrap(errors.ErrInvalidConfig, err).WithData(key)
	}

	if err := validate(key, &raw); err != nil {
		return Display{}, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	var err error
	if d.Device, err = parseRef(key+".device", raw.Device); err != nil {
		return Display{}, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	if d.Zone, err = parseRef(key+".zone", raw.Zone); err != nil {
		return Display{}, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if raw.Size != nil {
		d.Size = *raw.Size
	}

	switch {
	case raw.LEDs != "":
		d.LEDs = raw.LEDs
	case raw.LED != nil:
		d.LEDs = fmt.Sprint(*raw.LED)
	}

	if raw.Brightness != nil {
		d.Brightness = *raw.Brightness
	}

	d.Palette = raw.palette(kind)

	if kind == KindTemp {
		d.Temp = TempOptions{
			Component: raw.Temp.Component,
			Sensor:    raw.Temp.Sensor,
			Low:       defaultLowTemp,
			High:      raw.Temp.High,
			Gradient:  raw.Temp.Gradient,
		}
		if raw.Temp.Low != nil {
			d.Temp.Low = *raw.Temp.Low
		}
	}

	return d, nil
}

// parseRef accepts an integer index or a name
func parseRef(field string, value any) (Ref, error) {
	switch v := value.(type) {
	case nil:
		return Ref{}, newValidationError(field, value, "is required")
	case string:
		if v == "" {
			return Ref{}, newValidationError(field, value, "must not be empty")
		}
		return NameRef(v), nil
	case int:
		return indexRef(field, int64(v))
	case int64:
		return indexRef(field, v)
	case float64:
		if v != math.Trunc(v) {
			return Ref{}, newValidationError(field, value, "must be an integer index or a name")
		}
		return indexRef(field, int64(v))
	default:
		return Ref{}, newValidationError(field, value, "must be an integer index or a name")
	}
}

func indexRef(field string, i int64) (Ref, error) {
	if i < 0 {
		return Ref{}, newValidationError(field, i, "must not be negative")
	}
	return IndexRef(int(i)), nil
}
