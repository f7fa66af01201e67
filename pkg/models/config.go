package models

import (
	"time"

	"github.com/nexuscrm/backoffice/pkg/constants"
)

// GridConfiguration holds the list settings of a module
type GridConfiguration struct {
	ItemsPerPage         int                     `json:"itemsPerPage" yaml:"itemsPerPage"`
	SortBy               string                  `json:"sortBy" yaml:"sortBy"`
	SortOrder            constants.SortDirection `json:"sortOrder" yaml:"sortOrder"`
	EnableSearch         bool                    `json:"enableSearch" yaml:"enableSearch"`
	EnableFilters        bool                    `json:"enableFilters" yaml:"enableFilters"`
	EnableExport         bool                    `json:"enableExport" yaml:"enableExport"`
	EnableBulkActions    bool                    `json:"enableBulkActions" yaml:"enableBulkActions"`
	EnableColumnSelector bool                    `json:"enableColumnSelector" yaml:"enableColumnSelector"`
	CompactMode          bool                    `json:"compactMode" yaml:"compactMode"`
	DefaultView          constants.GridView      `json:"defaultView" yaml:"defaultView"`
}

// DefaultGridConfiguration is used when a module declares no grid settings
func DefaultGridConfiguration() GridConfiguration {
	return GridConfiguration{
		ItemsPerPage:         constants.DefaultPageSize,
		SortOrder:            constants.SortAsc,
		EnableSearch:         true,
		EnableFilters:        true,
		EnableExport:         true,
		EnableBulkActions:    true,
		EnableColumnSelector: true,
		DefaultView:          constants.GridViewTable,
	}
}

// LayoutPosition places one field inside a form grid
type LayoutPosition struct {
	Row     int `json:"row"`
	Col     int `json:"col"`
	ColSpan int `json:"colSpan"`
}

// FormButtons configures the action bar of a form
type FormButtons struct {
	Position    string `json:"position,omitempty"`
	Alignment   string `json:"alignment,omitempty"`
	SubmitLabel string `json:"submitLabel,omitempty"`
	CancelLabel string `json:"cancelLabel,omitempty"`
}

// FormLayoutConfig is the explicit placement map of a module's form
type FormLayoutConfig struct {
	Columns int                       `json:"columns"`
	Spacing string                    `json:"spacing,omitempty"`
	Fields  map[string]LayoutPosition `json:"fields"`
	Buttons FormButtons               `json:"buttons"`
}

// IsEmpty reports whether the layout places no field
func (l *FormLayoutConfig) IsEmpty() bool {
	return l == nil || len(l.Fields) == 0
}

// Clone returns a deep copy of the layout
func (l *FormLayoutConfig) Clone() *FormLayoutConfig {
	if l == nil {
		return nil
	}
	out := *l
	if l.Fields != nil {
		out.Fields = make(map[string]LayoutPosition, len(l.Fields))
		for k, v := range l.Fields {
			out.Fields[k] = v
		}
	}
	return &out
}

// ModuleConfig is the aggregate schema, grid and layout of one entity type
type ModuleConfig struct {
	Module     string            `json:"module"`
	Fields     []FieldSchema     `json:"fields"`
	GridConfig GridConfiguration `json:"gridConfig"`
	FormLayout *FormLayoutConfig `json:"formLayout,omitempty"`
	Version    int               `json:"version"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	UpdatedBy  string            `json:"updatedBy,omitempty"`
}

// Clone returns a deep copy of the configuration
func (c *ModuleConfig) Clone() *ModuleConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.Fields = CloneFields(c.Fields)
	out.FormLayout = c.FormLayout.Clone()
	return &out
}

// FieldIndex returns the position of a field id, or -1
func (c *ModuleConfig) FieldIndex(id string) int {
	for i, f := range c.Fields {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// Field returns a copy of the field with the given id
func (c *ModuleConfig) Field(id string) (FieldSchema, bool) {
	if idx := c.FieldIndex(id); idx >= 0 {
		return c.Fields[idx].Clone(), true
	}
	return FieldSchema{}, false
}
