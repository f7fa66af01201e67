package bootstrap

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/nexuscrm/backoffice/pkg/logging"
	"github.com/nexuscrm/backoffice/pkg/models"
)

//go:embed default_fields.yaml
var defaultFieldsYAML []byte

// ModuleDefaults is the built-in definition of one module
type ModuleDefaults struct {
	// SearchFields are the base fields global search always looks at
	SearchFields []string             `yaml:"searchFields"`
	GridConfig   yaml.Node            `yaml:"gridConfig"`
	Fields       []models.FieldSchema `yaml:"fields"`
}

// Defaults holds the built-in definitions of every module
type Defaults struct {
	Modules map[string]ModuleDefaults `yaml:"modules"`
}

// LoadDefaults parses the built-in defaults, or the YAML file at path when
// one is given
func LoadDefaults(path string) (*Defaults, error) {
	data := defaultFieldsYAML
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read defaults file: %w", err)
		}
		data = raw
		logging.For("bootstrap").Infof("📁 Loaded module defaults from %s", path)
	}
	return ParseDefaults(data)
}

// ParseDefaults parses and checks a defaults document
func ParseDefaults(data []byte) (*Defaults, error) {
	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse module defaults: %w", err)
	}
	if len(d.Modules) == 0 {
		return nil, fmt.Errorf("module defaults declare no modules")
	}

	for name, m := range d.Modules {
		seen := make(map[string]bool, len(m.Fields))
		for _, f := range m.Fields {
			if err := f.Validate(); err != nil {
				return nil, fmt.Errorf("module %s: %w", name, err)
			}
			if seen[f.ID] {
				return nil, fmt.Errorf("module %s: duplicate field id '%s'", name, f.ID)
			}
			seen[f.ID] = true
		}
		if _, err := m.gridConfig(); err != nil {
			return nil, fmt.Errorf("module %s: %w", name, err)
		}
	}
	return &d, nil
}

// MustLoadEmbedded parses the embedded defaults and panics if they are invalid
func MustLoadEmbedded() *Defaults {
	d, err := ParseDefaults(defaultFieldsYAML)
	if err != nil {
		panic(err)
	}
	return d
}

func (m ModuleDefaults) gridConfig() (models.GridConfiguration, error) {
	grid := models.DefaultGridConfiguration()
	if m.GridConfig.Kind == 0 {
		return grid, nil
	}
	if err := m.GridConfig.Decode(&grid); err != nil {
		return grid, fmt.Errorf("invalid gridConfig: %w", err)
	}
	return grid, nil
}

// ModuleNames returns the known modules in sorted order
func (d *Defaults) ModuleNames() []string {
	names := make([]string, 0, len(d.Modules))
	for name := range d.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasModule reports whether a module has built-in defaults
func (d *Defaults) HasModule(module string) bool {
	_, ok := d.Modules[module]
	return ok
}

// ModuleConfig builds a fresh configuration for module from its defaults.
// Unknown modules get an empty field list.
func (d *Defaults) ModuleConfig(module string) *models.ModuleConfig {
	cfg := &models.ModuleConfig{
		Module:     module,
		Fields:     []models.FieldSchema{},
		GridConfig: models.DefaultGridConfiguration(),
	}
	m, ok := d.Modules[module]
	if !ok {
		return cfg
	}
	cfg.Fields = models.CloneFields(m.Fields)
	if grid, err := m.gridConfig(); err == nil {
		cfg.GridConfig = grid
	}
	return cfg
}

// SearchFields returns the base search fields of module
func (d *Defaults) SearchFields(module string) []string {
	return append([]string(nil), d.Modules[module].SearchFields...)
}
