package constants

// HTTP and API constants
const (
	// Content types
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// HTTP Headers
	HeaderContentType        = "Content-Type"
	HeaderAuthorization      = "Authorization"
	HeaderContentDisposition = "Content-Disposition"

	// Auth
	BearerPrefix = "Bearer "

	// Response Keys
	ResponseError   = "error"
	ResponseMessage = "message"
	ResponseConfig  = "config"
	ResponseFields  = "fields"
	ResponseLayout  = "layout"
	ResponseRecord  = "record"
	ResponseRecords = "records"
	ResponseView    = "view"
	ResponseForm    = "form"
	ResponseResult  = "result"
	ResponseColumns = "columns"
	ResponseWarning = "warning"
)

// Query parameter constants
const (
	ParamModule   = "module"
	ParamFieldID  = "fieldId"
	ParamID       = "id"
	ParamScope    = "scope"
	ParamTable    = "table"
	ParamRecordID = "recordId"
	ParamMode     = "mode"
	ParamFormat   = "format"
)

// Field list scopes
const (
	ScopeActive = "active"
	ScopeInUse  = "in_use"
	ScopeGrid   = "grid"
)
