package constants

// Persisted document paths and key-value keys
const (
	ConfigCollection  = "config/modules"
	RecordsCollection = "records"
	ColumnsKeyPrefix  = "columns"
	DefaultTableName  = "main"
)

// ConfigPath returns the document path of a module configuration
func ConfigPath(module string) string {
	return ConfigCollection + "/" + module
}

// RecordCollection returns the collection path holding a module's records
func RecordCollection(module string) string {
	return RecordsCollection + "/" + module
}

// RecordPath returns the document path of a single record
func RecordPath(module, id string) string {
	return RecordCollection(module) + "/" + id
}

// ColumnsKey returns the side-store key of a column visibility blob
func ColumnsKey(module, table string) string {
	if table == "" {
		table = DefaultTableName
	}
	return ColumnsKeyPrefix + ":" + module + ":" + table
}

// Context Keys
const (
	ContextKeyUser  = "user"
	ContextKeyToken = "token"
)
