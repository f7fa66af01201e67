package constants

// SchemaFieldType represents the type of a field
type SchemaFieldType string

const (
	FieldTypeText        SchemaFieldType = "text"
	FieldTypeNumber      SchemaFieldType = "number"
	FieldTypeEmail       SchemaFieldType = "email"
	FieldTypePhone       SchemaFieldType = "phone"
	FieldTypeSelect      SchemaFieldType = "select"
	FieldTypeMultiSelect SchemaFieldType = "multiselect"
	FieldTypeDictionary  SchemaFieldType = "dictionary"
	FieldTypeDate        SchemaFieldType = "date"
	FieldTypeDateTime    SchemaFieldType = "datetime"
	FieldTypeCheckbox    SchemaFieldType = "checkbox"
	FieldTypeTextArea    SchemaFieldType = "textarea"
	FieldTypeURL         SchemaFieldType = "url"
	FieldTypeCurrency    SchemaFieldType = "currency"
)

// GetAllFieldTypes returns all valid field types as a slice of strings
func GetAllFieldTypes() []string {
	return []string{
		string(FieldTypeText),
		string(FieldTypeNumber),
		string(FieldTypeEmail),
		string(FieldTypePhone),
		string(FieldTypeSelect),
		string(FieldTypeMultiSelect),
		string(FieldTypeDictionary),
		string(FieldTypeDate),
		string(FieldTypeDateTime),
		string(FieldTypeCheckbox),
		string(FieldTypeTextArea),
		string(FieldTypeURL),
		string(FieldTypeCurrency),
	}
}

// IsValidFieldType reports whether t is one of the known field types
func IsValidFieldType(t SchemaFieldType) bool {
	for _, known := range GetAllFieldTypes() {
		if string(t) == known {
			return true
		}
	}
	return false
}

// HasOptions reports whether the field type requires an options table
func HasOptions(t SchemaFieldType) bool {
	return t == FieldTypeSelect || t == FieldTypeMultiSelect || t == FieldTypeDictionary
}

// FormWidth controls how much of a form row a field occupies
type FormWidth string

const (
	FormWidthFull  FormWidth = "full"
	FormWidthHalf  FormWidth = "half"
	FormWidthThird FormWidth = "third"
)

// SortDirection is the direction of a list sort
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Normalize returns SortDesc for any casing of "desc", SortAsc otherwise
func (d SortDirection) Normalize() SortDirection {
	if d == SortDesc || d == "DESC" || d == "Desc" {
		return SortDesc
	}
	return SortAsc
}

// Toggle flips the direction
func (d SortDirection) Toggle() SortDirection {
	if d.Normalize() == SortDesc {
		return SortAsc
	}
	return SortDesc
}

// GridView is the default presentation of a module's list
type GridView string

const (
	GridViewTable GridView = "table"
	GridViewCards GridView = "cards"
)

// FormMode is the mode a form session is opened in
type FormMode string

const (
	FormModeCreate FormMode = "create"
	FormModeEdit   FormMode = "edit"
	FormModeView   FormMode = "view"
)

// ExportFormat identifies an export serialization
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatJSON ExportFormat = "json"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// User roles known to the configuration gate
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
