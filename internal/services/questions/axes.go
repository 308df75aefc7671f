package questions

import (
	_ "embed"
	"fmt"
	"math/rand"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed axes.yaml
var defaultAxesYAML []byte

// AxisEntry is one sampled characteristic within an axis.
type AxisEntry struct {
	Key         string `yaml:"key"`
	Description string `yaml:"description"`
}

// Axis is one dimension of question variation (domain, intent, time focus,
// perspective). Each generation call samples three axes and one entry per
// sampled axis.
type Axis struct {
	Name    string      `yaml:"name"`
	Entries []AxisEntry `yaml:"entries"`
}

type axesDocument struct {
	Axes []Axis `yaml:"axes"`
}

// LoadAxes returns the built-in axis definitions, or the ones parsed from
// the override file when path is set.
func LoadAxes(path string) ([]Axis, error) {
	data := defaultAxesYAML
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read axes file %s: %w", path, err)
		}
		data = fileData
	}

	var doc axesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse axes: %w", err)
	}

	if len(doc.Axes) < 3 {
		return nil, fmt.Errorf("need at least 3 axes, got %d", len(doc.Axes))
	}
	for _, axis := range doc.Axes {
		if axis.Name == "" {
			return nil, fmt.Errorf("axis without a name")
		}
		if len(axis.Entries) == 0 {
			return nil, fmt.Errorf("axis %s has no entries", axis.Name)
		}
	}

	return doc.Axes, nil
}

// sampleGuidelines picks three axes at random and one entry from each,
// keeping the axes in their defined order.
func sampleGuidelines(axes []Axis) []string {
	idx := rand.Perm(len(axes))[:3]
	sort.Ints(idx)

	lines := make([]string, 0, 3)
	for _, i := range idx {
		axis := axes[i]
		entry := axis.Entries[rand.Intn(len(axis.Entries))]
		lines = append(lines, fmt.Sprintf("%s: %s", axis.Name, entry.Description))
	}
	return lines
}
