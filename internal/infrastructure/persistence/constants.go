package persistence

// Documents table layout
const (
	TableDocuments   = "_documents"
	ColumnPath       = "path"
	ColumnCollection = "collection"
	ColumnData       = "data"
	ColumnUpdatedAt  = "updated_at"
)
