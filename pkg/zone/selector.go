package zone

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Selector is the component-map selection document: it names the zone and
// the component slots that must each resolve to exactly one component.
type Selector struct {
	ZoneName string         `yaml:"zone_name"`
	Slots    []SelectorSlot `yaml:"slots"`
}

// SelectorSlot names one slot of the zone component tree.
type SelectorSlot struct {
	Name string `yaml:"name"`
}

// LoadSelector reads a component-map selection document from a YAML file.
func LoadSelector(path string) (*Selector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading component map: %w", err)
	}
	var sel Selector
	if err := yaml.Unmarshal(data, &sel); err != nil {
		return nil, fmt.Errorf("parsing component map YAML: %w", err)
	}
	if len(sel.Slots) == 0 {
		return nil, fmt.Errorf("component map %s declares no slots", path)
	}
	return &sel, nil
}
