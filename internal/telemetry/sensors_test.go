package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testSensors = []Sensor{
	{Key: "acpitz", Component: "acpitz", Current: 27.8},
	{Key: "coretemp_package_id_0", Component: "coretemp", Label: "package_id_0", Current: 45},
	{Key: "coretemp_core_0", Component: "coretemp", Label: "core_0", Current: 44},
	{Key: "nvme_composite", Component: "nvme", Label: "composite", Current: 38},
	{Key: "nvidia_gpu0", Component: "nvidia", Label: "gpu0", Current: 60},
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "package_id_0", NormalizeLabel("Package id 0"))
	assert.Equal(t, "tctl", NormalizeLabel(" Tctl "))
	assert.Equal(t, "core_0", NormalizeLabel("core_0"))
}

func TestFindSensor(t *testing.T) {
	tests := []struct {
		name      string
		component string
		label     string
		wantKey   string
		wantFound bool
	}{
		{name: "first available", wantKey: "acpitz", wantFound: true},
		{name: "component only", component: "coretemp", wantKey: "coretemp_package_id_0", wantFound: true},
		{name: "component without label", component: "acpitz", wantKey: "acpitz", wantFound: true},
		{name: "component and label", component: "coretemp", label: "Core 0", wantKey: "coretemp_core_0", wantFound: true},
		{name: "label anywhere", label: "Composite", wantKey: "nvme_composite", wantFound: true},
		{name: "gpu sensor", component: "nvidia", label: "gpu0", wantKey: "nvidia_gpu0", wantFound: true},
		{name: "case-insensitive component", component: "CoreTemp", label: "core_0", wantKey: "coretemp_core_0", wantFound: true},
		{name: "unknown component", component: "k10temp"},
		{name: "unknown label", component: "coretemp", label: "core_9"},
		{name: "prefix is not a component", component: "core"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindSensor(testSensors, tt.component, tt.label)
			assert.Equal(t, tt.wantFound, ok)
			if tt.wantFound {
				assert.Equal(t, tt.wantKey, got.Key)
			}
		})
	}
}

func TestFindSensorEmpty(t *testing.T) {
	_, ok := FindSensor(nil, "", "")
	assert.False(t, ok)
}

func TestComponents(t *testing.T) {
	components := Components(testSensors)

	names := make([]string, 0, len(components))
	for _, c := range components {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"acpitz", "coretemp", "nvme", "nvidia"}, names)
	assert.Len(t, components[1].Sensors, 2)
}
