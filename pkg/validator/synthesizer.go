package validator

import (
	"sort"

	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/fieldtypes"
	"github.com/nexuscrm/backoffice/pkg/models"
)

// Error tags reported by synthesized validators
const (
	TagRequired  = "required"
	TagMinLength = "minlength"
	TagMaxLength = "maxlength"
	TagPattern   = "pattern"
	TagEmail     = "email"
	TagMin       = "min"
	TagMax       = "max"
	TagURL       = "url"
)

// Validator is one independent predicate bound to a field rule
type Validator struct {
	Tag      string
	registry *Registry
	name     string
	config   map[string]interface{}
}

// Validate returns "" when value passes, otherwise the validator's tag
func (v Validator) Validate(value interface{}) string {
	reg := v.registry
	if reg == nil {
		reg = GetRegistry()
	}
	if err := reg.Validate(v.name, value, v.config); err != nil {
		return v.Tag
	}
	return ""
}

// ErrorMap maps failing tags to true. A nil map means valid.
type ErrorMap map[string]bool

// Tags returns the failing tags in sorted order
func (m ErrorMap) Tags() []string {
	tags := make([]string, 0, len(m))
	for tag := range m {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Synthesize builds the ordered validator list of a field using the default
// registry
func Synthesize(field models.FieldSchema) []Validator {
	return GetRegistry().Synthesize(field)
}

// Synthesize builds the ordered validator list of a field.
// Dictionary fields only carry "required"; it applies to each sub-control.
func (r *Registry) Synthesize(field models.FieldSchema) []Validator {
	rules := field.Validation
	var out []Validator
	add := func(tag, name string, config map[string]interface{}) {
		out = append(out, Validator{Tag: tag, registry: r, name: name, config: config})
	}

	if rules.Required {
		add(TagRequired, "required", nil)
	}
	if field.Type == constants.FieldTypeDictionary {
		return out
	}

	if rules.MinLength != nil {
		add(TagMinLength, "length", map[string]interface{}{"min": *rules.MinLength})
	}
	if rules.MaxLength != nil {
		add(TagMaxLength, "length", map[string]interface{}{"max": *rules.MaxLength})
	}
	if rules.Pattern != "" {
		add(TagPattern, "regex", map[string]interface{}{"pattern": rules.Pattern})
	}

	implied := fieldtypes.GetRegistry().ImpliedValidator(field.Type)
	if rules.Email || implied == "email" {
		add(TagEmail, "email", nil)
	}
	if rules.Min != nil {
		add(TagMin, "range", map[string]interface{}{"min": *rules.Min})
	}
	if rules.Max != nil {
		add(TagMax, "range", map[string]interface{}{"max": *rules.Max})
	}
	if rules.URL || implied == "url" {
		add(TagURL, "url", nil)
	}
	return out
}

// Run applies every validator to value and collects the failing tags
func Run(validators []Validator, value interface{}) ErrorMap {
	var errs ErrorMap
	for _, v := range validators {
		if tag := v.Validate(value); tag != "" {
			if errs == nil {
				errs = ErrorMap{}
			}
			errs[tag] = true
		}
	}
	return errs
}

// ValidateField synthesizes and runs the validators of a field in one step
func ValidateField(field models.FieldSchema, value interface{}) ErrorMap {
	return Run(Synthesize(field), value)
}
