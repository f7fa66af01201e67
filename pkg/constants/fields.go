package constants

// Record attribute keys shared by every module.
const (
	FieldID           = "id"
	FieldCustomFields = "customFields"
	FieldCreatedAt    = "createdAt"
	FieldUpdatedAt    = "updatedAt"
	FieldCreatedBy    = "createdBy"
	FieldUpdatedBy    = "updatedBy"
	FieldIsActive     = "isActive"
)

// IsSystemField reports whether key is a record attribute managed by the
// engine rather than by a field schema.
func IsSystemField(key string) bool {
	switch key {
	case FieldID, FieldCustomFields, FieldCreatedAt, FieldUpdatedAt, FieldCreatedBy, FieldUpdatedBy:
		return true
	}
	return false
}

// FilterAll is the sentinel filter value meaning "no filter".
const FilterAll = "all"

// DictionaryControlSeparator joins a dictionary field name and an option value
// into a control name.
const DictionaryControlSeparator = "_"

// Form layout bounds
const (
	MinLayoutColumns = 2
	MaxLayoutColumns = 4
)

// List defaults
const (
	DefaultPageSize = 10
	MaxPageSize     = 500
)
