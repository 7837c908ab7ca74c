package telemetry

import (
	"strings"

	"github.com/shirou/gopsutil/v3/host"

	"codeberg.org/mutker/ledtop/internal/gpu"
)

// NormalizeLabel lowercases a sensor label and joins its words with
// underscores, matching the keys reported by the host.
func NormalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), "_")
}

// splitKey splits "coretemp_package_id_0" into "coretemp" and
// "package_id_0".
func splitKey(key string) (component, label string) {
	component, label, _ = strings.Cut(key, "_")
	return component, label
}

func fromHost(stat host.TemperatureStat) Sensor {
	component, label := splitKey(stat.SensorKey)
	return Sensor{
		Key:       stat.SensorKey,
		Component: component,
		Label:     label,
		Current:   stat.Temperature,
		High:      stat.High,
		Critical:  stat.Critical,
	}
}

func fromGPU(r gpu.Reading) Sensor {
	key := r.Key()
	component, label := splitKey(key)
	return Sensor{
		Key:       key,
		Component: component,
		Label:     label,
		Current:   r.Current,
		High:      r.Slowdown,
		Critical:  r.Shutdown,
	}
}

// labelWithin returns the part of the sensor key after the component prefix.
// The second result is false when the key does not belong to component.
func (s Sensor) labelWithin(component string) (string, bool) {
	key := strings.ToLower(s.Key)
	component = strings.ToLower(component)
	if key == component {
		return "", true
	}
	label, ok := strings.CutPrefix(key, component+"_")
	return label, ok
}

// FindSensor selects a sensor by component and label. An empty component
// searches every sensor for the label; an empty label picks the first
// sensor of the component. Both empty picks the first sensor.
func FindSensor(sensors []Sensor, component, label string) (Sensor, bool) {
	label = NormalizeLabel(label)

	for _, s := range sensors {
		if component == "" {
			if label == "" || NormalizeLabel(s.Label) == label {
				return s, true
			}
			continue
		}

		got, ok := s.labelWithin(component)
		if !ok {
			continue
		}
		if label == "" || got == label {
			return s, true
		}
	}

	return Sensor{}, false
}

// Component groups the sensors sharing a key prefix.
type Component struct {
	Name    string
	Sensors []Sensor
}

// Components groups sensors by component, in first-seen order.
func Components(sensors []Sensor) []Component {
	var out []Component
	index := make(map[string]int)

	for _, s := range sensors {
		i, ok := index[s.Component]
		if !ok {
			i = len(out)
			index[s.Component] = i
			out = append(out, Component{Name: s.Component})
		}
		out[i].Sensors = append(out[i].Sensors, s)
	}

	return out
}
