package services

import (
	"fmt"
	"strings"

	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/models"
	"github.com/nexuscrm/backoffice/pkg/utils"
)

// Display formats
const (
	dateFormat     = "2006-01-02"
	dateTimeFormat = "2006-01-02 15:04"
	listSeparator  = "; "
)

// FormatValue renders a raw field value for display and export. Option
// values resolve to their labels; unparseable values print as stored.
func FormatValue(field models.FieldSchema, value interface{}) string {
	if value == nil {
		return ""
	}

	switch field.Type {
	case constants.FieldTypeCheckbox:
		if utils.ToBool(value) {
			return "Yes"
		}
		return "No"

	case constants.FieldTypeCurrency:
		if f, ok := utils.ToFloat(value); ok {
			return fmt.Sprintf("%.2f", f)
		}

	case constants.FieldTypeNumber:
		if f, ok := utils.ToFloat(value); ok {
			return utils.ToString(f)
		}

	case constants.FieldTypeDate:
		if t, ok := utils.ToTime(value); ok {
			return t.Format(dateFormat)
		}

	case constants.FieldTypeDateTime:
		if t, ok := utils.ToTime(value); ok {
			return t.Format(dateTimeFormat)
		}

	case constants.FieldTypeSelect:
		return field.OptionLabel(utils.ToString(value))

	case constants.FieldTypeMultiSelect:
		items := utils.ToSlice(value)
		labels := make([]string, 0, len(items))
		for _, item := range items {
			labels = append(labels, field.OptionLabel(utils.ToString(item)))
		}
		return strings.Join(labels, listSeparator)

	case constants.FieldTypeDictionary:
		entries, ok := utils.ToStringMap(value)
		if !ok {
			break
		}
		parts := make([]string, 0, len(field.Options))
		for _, opt := range field.Options {
			v := utils.ToString(entries[opt.Value])
			if v == "" {
				continue
			}
			parts = append(parts, field.OptionLabel(opt.Value)+": "+v)
		}
		return strings.Join(parts, listSeparator)
	}

	return utils.ToString(value)
}
