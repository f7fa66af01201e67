package services

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/fieldtypes"
	"github.com/nexuscrm/backoffice/pkg/models"
	"github.com/nexuscrm/backoffice/pkg/utils"
)

// sortLanguage is the collation locale of string sorting
var sortLanguage = language.English

// valueComparator compares two raw field values according to the
// comparison category of a field type. Missing values compare as ""
// or 0 so every pair is ordered.
type valueComparator struct {
	category fieldtypes.Category
	collator *collate.Collator
}

// newValueComparator builds a comparator for one sort. Collators are not
// safe for concurrent use, so each sort gets its own.
func newValueComparator(fieldType constants.SchemaFieldType) *valueComparator {
	return &valueComparator{
		category: fieldtypes.CategoryOf(fieldType),
		collator: collate.New(sortLanguage, collate.IgnoreCase),
	}
}

func (c *valueComparator) compare(a, b interface{}) int {
	switch c.category {
	case fieldtypes.CategoryNumber:
		x, _ := utils.ToFloat(a)
		y, _ := utils.ToFloat(b)
		return compareOrdered(x, y)
	case fieldtypes.CategoryDate:
		return compareOrdered(utils.ToEpochMillis(a), utils.ToEpochMillis(b))
	case fieldtypes.CategoryBoolean:
		return compareOrdered(boolRank(a), boolRank(b))
	default:
		return c.collator.CompareString(utils.ToString(a), utils.ToString(b))
	}
}

func boolRank(v interface{}) int {
	if utils.ToBool(v) {
		return 1
	}
	return 0
}

func compareOrdered[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SortRecords returns a stably sorted copy of records. An empty sort field
// keeps the input order. Fields missing from the schema sort as strings.
func SortRecords(records []models.Record, fields []models.FieldSchema, state models.SortState) []models.Record {
	out := make([]models.Record, len(records))
	copy(out, records)
	if state.Field == "" {
		return out
	}

	fieldType := constants.FieldTypeText
	for _, f := range fields {
		if f.Name == state.Field {
			fieldType = f.Type
			break
		}
	}
	switch state.Field {
	case constants.FieldCreatedAt, constants.FieldUpdatedAt:
		fieldType = constants.FieldTypeDateTime
	}

	cmp := newValueComparator(fieldType)
	desc := state.Direction.Normalize() == constants.SortDesc
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].Lookup(state.Field)
		b, _ := out[j].Lookup(state.Field)
		c := cmp.compare(a, b)
		if desc {
			c = -c
		}
		return c < 0
	})
	return out
}
