// Package info renders the --info report: lighting devices with their
// zones, and temperature sensors with current readings.
package info

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"codeberg.org/mutker/ledtop/internal/errors"
	"codeberg.org/mutker/ledtop/internal/openrgb"
	"codeberg.org/mutker/ledtop/internal/telemetry"
)

const projectURL = "https://codeberg.org/mutker/ledtop"

type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
)

type Report struct {
	Devices    []Device    `yaml:"devices"`
	Components []Component `yaml:"sensors"`
}

type Device struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Zones []Zone `yaml:"zones"`
}

type Zone struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
	LEDs int    `yaml:"leds"`
}

type Component struct {
	Name    string   `yaml:"name"`
	Sensors []Sensor `yaml:"sensors"`
}

type Sensor struct {
	Label    string  `yaml:"label"`
	Current  float64 `yaml:"current"`
	High     float64 `yaml:"high,omitempty"`
	Critical float64 `yaml:"critical,omitempty"`
}

// Build collects devices and sensors into a report
func Build(devices []openrgb.Device, sensors []telemetry.Sensor) Report {
	r := Report{
		Devices:    make([]Device, 0, len(devices)),
		Components: []Component{},
	}

	for _, d := range devices {
		dev := Device{ID: d.Index, Name: d.Name, Zones: make([]Zone, 0, len(d.Zones))}
		for _, z := range d.Zones {
			dev.Zones = append(dev.Zones, Zone{ID: z.Index, Name: z.Name, LEDs: int(z.LEDCount)})
		}
		r.Devices = append(r.Devices, dev)
	}

	for _, c := range telemetry.Components(sensors) {
		comp := Component{Name: c.Name}
		for _, s := range c.Sensors {
			label := s.Label
			if label == "" {
				label = s.Key
			}
			comp.Sensors = append(comp.Sensors, Sensor{
				Label:    label,
				Current:  s.Current,
				High:     s.High,
				Critical: s.Critical,
			})
		}
		r.Components = append(r.Components, comp)
	}

	return r
}

// Write renders the report in the given format
func (r Report) Write(w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		return r.WriteYAML(w)
	case FormatText, "":
		return r.WriteText(w)
	default:
		return errors.New().WithData(errors.ErrInvalidArgument, "format "+string(format))
	}
}

func (r Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return errors.New().Wrap(errors.ErrOperationFailed, err)
	}
	return enc.Close()
}

func (r Report) WriteText(w io.Writer) error {
	renderer := lipgloss.NewRenderer(w)
	header := renderer.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Border(lipgloss.NormalBorder(), false, false, true, false)
	faint := renderer.NewStyle().Faint(true)

	var b strings.Builder

	b.WriteString(header.Render("LED Displays"))
	b.WriteString("\n")
	for _, d := range r.Devices {
		fmt.Fprintf(&b, "Device: '%s' (id:%d)\n", d.Name, d.ID)
		for _, z := range d.Zones {
			fmt.Fprintf(&b, " - zone: '%s' (id:%d, leds:%d)\n", z.Name, z.ID, z.LEDs)
		}
	}

	b.WriteString("\n")
	b.WriteString(header.Render("Temperature Sensors"))
	b.WriteString("\n")
	for _, c := range r.Components {
		fmt.Fprintf(&b, "Device: '%s'\n", c.Name)
		for _, s := range c.Sensors {
			fmt.Fprintf(&b, " - sensor: '%s' (%d°C)\n", s.Label, int(math.Round(s.Current)))
		}
	}

	b.WriteString("\n")
	b.WriteString(faint.Render("[" + projectURL + "]"))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
