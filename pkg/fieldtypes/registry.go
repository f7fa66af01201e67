package fieldtypes

import (
	"embed"
	"encoding/json"
	"sync"

	"github.com/nexuscrm/backoffice/pkg/constants"
)

//go:embed fieldTypes.json
var fieldTypesFS embed.FS

// Category is the comparison/format family a field type belongs to
type Category string

const (
	CategoryString  Category = "string"
	CategoryNumber  Category = "number"
	CategoryDate    Category = "date"
	CategoryBoolean Category = "boolean"
)

// FieldTypeDefinition represents a field type configuration
type FieldTypeDefinition struct {
	Label        string   `json:"label"`
	Icon         string   `json:"icon"`
	Category     Category `json:"category"`
	IsSearchable bool     `json:"isSearchable"`
	HasOptions   bool     `json:"hasOptions"`
	Validator    string   `json:"validator,omitempty"`
}

// Registry holds field type definitions
type Registry struct {
	types map[string]FieldTypeDefinition
	mu    sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// GetRegistry returns the singleton field types registry
func GetRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = &Registry{
			types: make(map[string]FieldTypeDefinition),
		}
		if err := defaultRegistry.loadFromEmbedded(); err != nil {
			panic("fieldtypes: embedded definitions are invalid: " + err.Error())
		}
	})
	return defaultRegistry
}

// loadFromEmbedded loads field types from the embedded JSON file
func (r *Registry) loadFromEmbedded() error {
	data, err := fieldTypesFS.ReadFile("fieldTypes.json")
	if err != nil {
		return err
	}

	var types map[string]FieldTypeDefinition
	if err := json.Unmarshal(data, &types); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = types
	return nil
}

// Get returns a field type definition by name
func (r *Registry) Get(t constants.SchemaFieldType) (FieldTypeDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.types[string(t)]
	return def, ok
}

// CategoryOf returns the comparison category of a type. Unknown types
// compare as strings.
func (r *Registry) CategoryOf(t constants.SchemaFieldType) Category {
	def, ok := r.Get(t)
	if !ok || def.Category == "" {
		return CategoryString
	}
	return def.Category
}

// IsSearchable returns whether a field type takes part in global search
func (r *Registry) IsSearchable(t constants.SchemaFieldType) bool {
	def, ok := r.Get(t)
	return ok && def.IsSearchable
}

// ImpliedValidator returns the validator a field type turns on by itself
func (r *Registry) ImpliedValidator(t constants.SchemaFieldType) string {
	def, _ := r.Get(t)
	return def.Validator
}

// TypeDefault returns the zero value a control of the given type starts with
func TypeDefault(t constants.SchemaFieldType) interface{} {
	switch t {
	case constants.FieldTypeCheckbox:
		return false
	case constants.FieldTypeNumber, constants.FieldTypeCurrency:
		return nil
	case constants.FieldTypeMultiSelect:
		return []interface{}{}
	default:
		return ""
	}
}

// Package-level convenience functions

// CategoryOf returns the comparison category using the default registry
func CategoryOf(t constants.SchemaFieldType) Category {
	return GetRegistry().CategoryOf(t)
}

// IsSearchable reports searchability using the default registry
func IsSearchable(t constants.SchemaFieldType) bool {
	return GetRegistry().IsSearchable(t)
}
