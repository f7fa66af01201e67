package models

import (
	"fmt"

	"github.com/nexuscrm/backoffice/pkg/constants"
)

// Document is a schemaless document exchanged with the document store
type Document map[string]interface{}

// Record is an entity instance. Default fields live at the top level,
// custom fields under the customFields map.
type Record map[string]interface{}

// ID returns the record id
func (r Record) ID() string {
	if id, ok := r[constants.FieldID].(string); ok {
		return id
	}
	return ""
}

// CustomFields returns the nested custom attribute map, or nil
func (r Record) CustomFields() map[string]interface{} {
	switch cf := r[constants.FieldCustomFields].(type) {
	case map[string]interface{}:
		return cf
	case Document:
		return cf
	}
	return nil
}

// Lookup resolves a value by name: the top-level attribute first, then
// customFields. Nil values count as absent.
func (r Record) Lookup(name string) (interface{}, bool) {
	if v, ok := r[name]; ok && v != nil {
		return v, true
	}
	if cf := r.CustomFields(); cf != nil {
		if v, ok := cf[name]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Clone copies the record and its customFields map
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	if cf := r.CustomFields(); cf != nil {
		copied := make(map[string]interface{}, len(cf))
		for k, v := range cf {
			copied[k] = v
		}
		out[constants.FieldCustomFields] = copied
	}
	return out
}

// ToDocument converts the record for storage
func (r Record) ToDocument() Document {
	return Document(r.Clone())
}

// RecordFromDocument converts a stored document into a record
func RecordFromDocument(doc Document) Record {
	if doc == nil {
		return nil
	}
	return Record(doc).Clone()
}

// QueryConstraint is one equality/comparison constraint on a collection query
type QueryConstraint struct {
	Field string      `json:"field"`
	Op    string      `json:"op"`
	Value interface{} `json:"value"`
}

// Constraint operators
const (
	OpEqual    = "=="
	OpNotEqual = "!="
	OpIn       = "in"
)

// Where builds an equality constraint
func Where(field string, value interface{}) QueryConstraint {
	return QueryConstraint{Field: field, Op: OpEqual, Value: value}
}

// Matches reports whether a document satisfies the constraint. Values are
// compared by their string form and the field resolves like Record.Lookup.
func (q QueryConstraint) Matches(doc Document) bool {
	v, _ := Record(doc).Lookup(q.Field)
	got := fmt.Sprint(v)
	if v == nil {
		got = ""
	}
	switch q.Op {
	case OpNotEqual:
		return got != fmt.Sprint(q.Value)
	case OpIn:
		values, ok := q.Value.([]interface{})
		if !ok {
			return false
		}
		for _, want := range values {
			if got == fmt.Sprint(want) {
				return true
			}
		}
		return false
	default:
		return got == fmt.Sprint(q.Value)
	}
}

// BulkItemError reports the failure of one item in a bulk operation
type BulkItemError struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// BulkResult aggregates the outcome of a multi-record operation.
// Succeeded items are never rolled back.
type BulkResult struct {
	SuccessCount int             `json:"successCount"`
	FailureCount int             `json:"failureCount"`
	Errors       []BulkItemError `json:"errors"`
}

// IsPartial reports whether some but not all items failed
func (b BulkResult) IsPartial() bool {
	return b.FailureCount > 0 && b.SuccessCount > 0
}
