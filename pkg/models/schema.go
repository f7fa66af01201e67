package models

import (
	"fmt"

	"github.com/nexuscrm/backoffice/pkg/constants"
)

// FieldType is defined in pkg/constants
type FieldType = constants.SchemaFieldType

// FormWidth is defined in pkg/constants
type FormWidth = constants.FormWidth

// FieldOption is one entry of a select, multiselect or dictionary field
type FieldOption struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

// FieldValidation holds the declarative validation rules of a field
type FieldValidation struct {
	Required  bool     `json:"required,omitempty" yaml:"required,omitempty"`
	MinLength *int     `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Email     bool     `json:"email,omitempty" yaml:"email,omitempty"`
	URL       bool     `json:"url,omitempty" yaml:"url,omitempty"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// FieldGridConfig controls how a field behaves as a grid column
type FieldGridConfig struct {
	ShowInGrid bool   `json:"showInGrid" yaml:"showInGrid"`
	GridOrder  int    `json:"gridOrder" yaml:"gridOrder"`
	GridWidth  string `json:"gridWidth,omitempty" yaml:"gridWidth,omitempty"`
	Sortable   bool   `json:"sortable" yaml:"sortable"`
	Filterable bool   `json:"filterable" yaml:"filterable"`
}

// FieldSchema describes one entity attribute
type FieldSchema struct {
	ID           string          `json:"id" yaml:"id"`
	Name         string          `json:"name" yaml:"name"`
	Label        string          `json:"label" yaml:"label"`
	Type         FieldType       `json:"type" yaml:"type"`
	Validation   FieldValidation `json:"validation" yaml:"validation"`
	Options      []FieldOption   `json:"options,omitempty" yaml:"options,omitempty"`
	DefaultValue interface{}     `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	GridConfig   FieldGridConfig `json:"gridConfig" yaml:"gridConfig"`
	FormOrder    int             `json:"formOrder" yaml:"formOrder"`
	FormWidth    FormWidth       `json:"formWidth" yaml:"formWidth"`
	IsDefault    bool            `json:"isDefault" yaml:"isDefault"`
	IsActive     bool            `json:"isActive" yaml:"isActive"`
	IsSystem     bool            `json:"isSystem" yaml:"isSystem"`
}

// HasOptions reports whether the field carries an options table
func (f FieldSchema) HasOptions() bool {
	return constants.HasOptions(f.Type)
}

// OptionLabel resolves an option value to its label.
// Unknown values resolve to themselves.
func (f FieldSchema) OptionLabel(value string) string {
	for _, opt := range f.Options {
		if opt.Value == value {
			if opt.Label == "" {
				return opt.Value
			}
			return opt.Label
		}
	}
	return value
}

// Validate checks the structural integrity of the schema entry
func (f FieldSchema) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("field id is required")
	}
	if f.Name == "" {
		return fmt.Errorf("field '%s': name is required", f.ID)
	}
	if !constants.IsValidFieldType(f.Type) {
		return fmt.Errorf("field '%s': unknown type '%s'", f.ID, f.Type)
	}
	if f.HasOptions() && len(f.Options) == 0 {
		return fmt.Errorf("field '%s': %s fields require at least one option", f.ID, f.Type)
	}
	return nil
}

// Clone returns a deep copy of the field
func (f FieldSchema) Clone() FieldSchema {
	out := f
	if f.Options != nil {
		out.Options = make([]FieldOption, len(f.Options))
		copy(out.Options, f.Options)
	}
	if f.Validation.MinLength != nil {
		v := *f.Validation.MinLength
		out.Validation.MinLength = &v
	}
	if f.Validation.MaxLength != nil {
		v := *f.Validation.MaxLength
		out.Validation.MaxLength = &v
	}
	if f.Validation.Min != nil {
		v := *f.Validation.Min
		out.Validation.Min = &v
	}
	if f.Validation.Max != nil {
		v := *f.Validation.Max
		out.Validation.Max = &v
	}
	return out
}

// CloneFields deep-copies a field list
func CloneFields(fields []FieldSchema) []FieldSchema {
	if fields == nil {
		return nil
	}
	out := make([]FieldSchema, len(fields))
	for i, f := range fields {
		out[i] = f.Clone()
	}
	return out
}

// FieldPatch is a JSON merge patch applied to a FieldSchema
type FieldPatch map[string]interface{}

// GridConfigPatch is a JSON merge patch applied to a GridConfiguration
type GridConfigPatch map[string]interface{}
