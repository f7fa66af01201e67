// Package services provides the application layer of the back office.
//
// This package contains:
//   - the per-module configuration store and its registry (ConfigStore, ConfigRegistry)
//   - the list pipeline: filter, search, sort, paginate and filter options (ListEngine, ListController)
//   - column visibility persisted in the key-value side store (ColumnVisibilityService)
//   - dynamic form building, payload reconstruction and form sessions (FormEngine, FormSession)
//   - CSV, JSON and XLSX export (ExportService)
//   - record CRUD with schema validation and bulk delete (RecordService)
//
// Engines receive their collaborators through constructors; ServiceManager
// wires them for the server.
package services
