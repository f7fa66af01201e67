package services

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/errors"
	"github.com/nexuscrm/backoffice/pkg/fieldtypes"
	"github.com/nexuscrm/backoffice/pkg/logging"
	"github.com/nexuscrm/backoffice/pkg/models"
	"github.com/nexuscrm/backoffice/pkg/utils"
	"github.com/nexuscrm/backoffice/pkg/validator"
)

// FormControl is one input of a generated form
type FormControl struct {
	Name     string                    `json:"name"`
	FieldID  string                    `json:"fieldId"`
	Label    string                    `json:"label"`
	Type     constants.SchemaFieldType `json:"type"`
	Value    interface{}               `json:"value"`
	Options  []models.FieldOption      `json:"options,omitempty"`
	Width    constants.FormWidth       `json:"width"`
	Required bool                      `json:"required"`
	Disabled bool                      `json:"disabled"`
	// Parent and Option identify a dictionary sub-control
	Parent string `json:"parent,omitempty"`
	Option string `json:"option,omitempty"`
}

// LayoutCell places one field inside a form row
type LayoutCell struct {
	FieldID string `json:"fieldId"`
	Col     int    `json:"col"`
	ColSpan int    `json:"colSpan"`
}

// LayoutRow is one row of a laid out form
type LayoutRow struct {
	Row   int          `json:"row"`
	Cells []LayoutCell `json:"cells"`
}

// FormGeometry is the resolved placement of a form's fields
type FormGeometry struct {
	Columns int         `json:"columns"`
	Rows    []LayoutRow `json:"rows"`
	// Fallback lists the fields without a position, in display order
	Fallback []string `json:"fallback"`
}

// FormDefinition is everything a presentation layer needs to render a form
type FormDefinition struct {
	Module   string               `json:"module"`
	Mode     constants.FormMode   `json:"mode"`
	RecordID string               `json:"recordId,omitempty"`
	Fields   []models.FieldSchema `json:"fields"`
	Controls []FormControl        `json:"controls"`
	Geometry FormGeometry         `json:"geometry"`
	Buttons  models.FormButtons   `json:"buttons"`
}

// FormPayload is a submitted form split by storage location
type FormPayload struct {
	DefaultFields map[string]interface{} `json:"defaultFields"`
	CustomFields  map[string]interface{} `json:"customFields"`
}

// FormEngine turns a field schema and an optional layout into forms and
// turns submitted control values back into record changes
type FormEngine struct {
	validators *validator.Registry
	log        *logrus.Entry
}

// NewFormEngine creates a form engine. A nil registry uses the default one.
func NewFormEngine(validators *validator.Registry) *FormEngine {
	if validators == nil {
		validators = validator.GetRegistry()
	}
	return &FormEngine{
		validators: validators,
		log:        logging.For("form_engine"),
	}
}

// RenderableFields returns the active fields that appear on the form. With
// a non-empty layout only the fields it places are rendered.
func (e *FormEngine) RenderableFields(fields []models.FieldSchema, layout *models.FormLayoutConfig) []models.FieldSchema {
	out := make([]models.FieldSchema, 0, len(fields))
	for _, f := range fields {
		if !f.IsActive {
			continue
		}
		if !layout.IsEmpty() {
			if _, placed := layout.Fields[f.ID]; !placed {
				e.log.WithField("field", f.ID).Debug("Field not placed in layout, skipping")
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

// ControlName returns the control name of a dictionary option
func ControlName(field models.FieldSchema, option string) string {
	return field.Name + constants.DictionaryControlSeparator + option
}

// ControlNames expands a field into its control names: one per option for
// dictionaries, the field name otherwise
func ControlNames(field models.FieldSchema) []string {
	if field.Type != constants.FieldTypeDictionary {
		return []string{field.Name}
	}
	names := make([]string, len(field.Options))
	for i, opt := range field.Options {
		names[i] = ControlName(field, opt.Value)
	}
	return names
}

// InitialValue resolves the starting value of a non-dictionary field: the
// record's default value, then its custom value, then the field's
// defaultValue, then the type default
func InitialValue(field models.FieldSchema, record models.Record) interface{} {
	if record != nil {
		if v, ok := record.Lookup(field.Name); ok {
			return v
		}
	}
	if field.DefaultValue != nil {
		if s, isString := field.DefaultValue.(string); !isString || s != "" {
			return field.DefaultValue
		}
	}
	return fieldtypes.TypeDefault(field.Type)
}

// DictionaryValues resolves the sub-control values of a dictionary field.
// Missing entries start empty.
func DictionaryValues(field models.FieldSchema, record models.Record) map[string]interface{} {
	var stored map[string]interface{}
	if record != nil {
		if v, ok := record.Lookup(field.Name); ok {
			stored, _ = utils.ToStringMap(v)
		}
	}
	if stored == nil {
		stored, _ = utils.ToStringMap(field.DefaultValue)
	}

	out := make(map[string]interface{}, len(field.Options))
	for _, opt := range field.Options {
		v, ok := stored[opt.Value]
		if !ok || v == nil {
			v = ""
		}
		out[opt.Value] = v
	}
	return out
}

// BuildControls expands fields into controls with their initial values
func (e *FormEngine) BuildControls(fields []models.FieldSchema, record models.Record, mode constants.FormMode) []FormControl {
	disabled := mode == constants.FormModeView
	var controls []FormControl
	for _, f := range fields {
		base := FormControl{
			FieldID:  f.ID,
			Label:    f.Label,
			Type:     f.Type,
			Width:    f.FormWidth,
			Required: f.Validation.Required,
			Disabled: disabled,
		}

		if f.Type == constants.FieldTypeDictionary {
			values := DictionaryValues(f, record)
			for _, opt := range f.Options {
				c := base
				c.Name = ControlName(f, opt.Value)
				c.Label = f.OptionLabel(opt.Value)
				c.Type = constants.FieldTypeText
				c.Value = values[opt.Value]
				c.Parent = f.Name
				c.Option = opt.Value
				controls = append(controls, c)
			}
			continue
		}

		c := base
		c.Name = f.Name
		c.Value = InitialValue(f, record)
		if f.HasOptions() {
			c.Options = append([]models.FieldOption(nil), f.Options...)
		}
		controls = append(controls, c)
	}
	return controls
}

// BuildForm assembles the form of a module. fields are the active fields
// in display order; layout and record may be nil.
func (e *FormEngine) BuildForm(module string, fields []models.FieldSchema, layout *models.FormLayoutConfig, record models.Record, mode constants.FormMode) *FormDefinition {
	if mode == "" {
		mode = constants.FormModeCreate
	}
	rendered := e.RenderableFields(fields, layout)

	def := &FormDefinition{
		Module:   module,
		Mode:     mode,
		RecordID: record.ID(),
		Fields:   rendered,
		Controls: e.BuildControls(rendered, record, mode),
		Geometry: ResolveGeometry(rendered, layout),
	}
	if layout != nil {
		def.Buttons = layout.Buttons
	}
	return def
}

// Values returns the control values of a built form keyed by control name
func (d *FormDefinition) Values() map[string]interface{} {
	values := make(map[string]interface{}, len(d.Controls))
	for _, c := range d.Controls {
		values[c.Name] = c.Value
	}
	return values
}

// Validate runs the synthesized validators of every rendered field against
// the submitted control values. Dictionary sub-controls only carry the
// parent's required rule. It returns nil when every control is valid.
func (e *FormEngine) Validate(fields []models.FieldSchema, values map[string]interface{}) errors.FieldErrors {
	var failed errors.FieldErrors
	record := func(name string, errs validator.ErrorMap) {
		if errs == nil {
			return
		}
		if failed == nil {
			failed = errors.FieldErrors{}
		}
		failed[name] = map[string]bool(errs)
	}

	for _, f := range fields {
		validators := e.validators.Synthesize(f)
		for _, name := range ControlNames(f) {
			record(name, validator.Run(validators, values[name]))
		}
	}
	return failed
}

// ReconstructPayload rebuilds field values from control values and buckets
// them by isDefault. Fields with no submitted control are left out.
func ReconstructPayload(fields []models.FieldSchema, values map[string]interface{}) FormPayload {
	payload := FormPayload{
		DefaultFields: make(map[string]interface{}),
		CustomFields:  make(map[string]interface{}),
	}

	for _, f := range fields {
		var (
			value     interface{}
			submitted bool
		)
		if f.Type == constants.FieldTypeDictionary {
			dict := make(map[string]interface{}, len(f.Options))
			for _, opt := range f.Options {
				v, ok := values[ControlName(f, opt.Value)]
				if !ok || v == nil {
					v = ""
				}
				submitted = submitted || ok
				dict[opt.Value] = v
			}
			value = dict
		} else {
			value, submitted = values[f.Name]
		}
		if !submitted {
			continue
		}

		if f.IsDefault {
			payload.DefaultFields[f.Name] = value
		} else {
			payload.CustomFields[f.Name] = value
		}
	}
	return payload
}

// ApplyPayload returns a copy of record with the payload merged in. Custom
// values merge into the existing customFields map.
func ApplyPayload(record models.Record, payload FormPayload) models.Record {
	out := record.Clone()
	if out == nil {
		out = models.Record{}
	}
	for k, v := range payload.DefaultFields {
		if constants.IsSystemField(k) {
			continue
		}
		out[k] = v
	}

	custom := out.CustomFields()
	if custom == nil {
		custom = make(map[string]interface{}, len(payload.CustomFields))
	}
	for k, v := range payload.CustomFields {
		custom[k] = v
	}
	out[constants.FieldCustomFields] = custom
	return out
}

// ResolveGeometry groups the placed fields into rows by ascending row then
// col. Without a layout every field goes to the fallback list. Overlapping
// cells are kept in order.
func ResolveGeometry(fields []models.FieldSchema, layout *models.FormLayoutConfig) FormGeometry {
	geo := FormGeometry{Columns: 1, Rows: []LayoutRow{}, Fallback: []string{}}
	if layout != nil && layout.Columns > 0 {
		geo.Columns = layout.Columns
	}

	type placed struct {
		cell LayoutCell
		row  int
	}
	var cells []placed
	for _, f := range fields {
		if layout.IsEmpty() {
			geo.Fallback = append(geo.Fallback, f.ID)
			continue
		}
		pos, ok := layout.Fields[f.ID]
		if !ok {
			geo.Fallback = append(geo.Fallback, f.ID)
			continue
		}
		span := pos.ColSpan
		if span < 1 {
			span = 1
		}
		cells = append(cells, placed{cell: LayoutCell{FieldID: f.ID, Col: pos.Col, ColSpan: span}, row: pos.Row})
	}

	sort.SliceStable(cells, func(i, j int) bool {
		if cells[i].row != cells[j].row {
			return cells[i].row < cells[j].row
		}
		return cells[i].cell.Col < cells[j].cell.Col
	})

	for _, c := range cells {
		n := len(geo.Rows)
		if n == 0 || geo.Rows[n-1].Row != c.row {
			geo.Rows = append(geo.Rows, LayoutRow{Row: c.row})
			n++
		}
		geo.Rows[n-1].Cells = append(geo.Rows[n-1].Cells, c.cell)
	}
	return geo
}
