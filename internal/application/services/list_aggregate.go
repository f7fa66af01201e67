package services

import (
	"sort"

	"golang.org/x/text/collate"

	"github.com/nexuscrm/backoffice/pkg/models"
	"github.com/nexuscrm/backoffice/pkg/utils"
)

// FilterOption is one entry of a filter dropdown
type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// UniqueValues counts the distinct values of field over records. Array
// values contribute one entry per element; empty and map values are
// skipped.
// Labels come from the options table for option-carrying types. The
// result is sorted by label.
func UniqueValues(records []models.Record, field models.FieldSchema) []FilterOption {
	counts := make(map[string]int)
	var order []string

	add := func(v interface{}) {
		if _, isMap := utils.ToStringMap(v); isMap {
			return
		}
		s := utils.ToString(v)
		if s == "" {
			return
		}
		if _, seen := counts[s]; !seen {
			order = append(order, s)
		}
		counts[s]++
	}

	for _, r := range records {
		v, ok := r.Lookup(field.Name)
		if !ok {
			continue
		}
		if values, isSlice := v.([]interface{}); isSlice {
			for _, item := range values {
				add(item)
			}
			continue
		}
		add(v)
	}

	options := make([]FilterOption, 0, len(order))
	for _, value := range order {
		label := value
		if field.HasOptions() {
			label = field.OptionLabel(value)
		}
		options = append(options, FilterOption{Value: value, Label: label, Count: counts[value]})
	}

	collator := collate.New(sortLanguage, collate.IgnoreCase)
	sort.SliceStable(options, func(i, j int) bool {
		return collator.CompareString(options[i].Label, options[j].Label) < 0
	})
	return options
}

// FilterOptions builds the dropdown values of every active filterable
// field, keyed by field name
func FilterOptions(records []models.Record, fields []models.FieldSchema) map[string][]FilterOption {
	out := make(map[string][]FilterOption)
	for _, f := range fields {
		if f.IsActive && f.GridConfig.Filterable {
			out[f.Name] = UniqueValues(records, f)
		}
	}
	return out
}
