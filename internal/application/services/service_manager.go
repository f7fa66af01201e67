package services

import (
	"github.com/nexuscrm/backoffice/internal/bootstrap"
	"github.com/nexuscrm/backoffice/internal/domain/ports"
	"github.com/nexuscrm/backoffice/pkg/expression"
	"github.com/nexuscrm/backoffice/pkg/validator"
)

// ServiceManager wires every service over the storage collaborators
type ServiceManager struct {
	Configs *ConfigRegistry
	Lists   *ListEngine
	Forms   *FormEngine
	Columns *ColumnVisibilityService
	Exports *ExportService
	Records *RecordService
}

// NewServiceManager creates the services in dependency order
func NewServiceManager(docs ports.DocumentStore, kv ports.KeyValueStore, defaults *bootstrap.Defaults, identity ports.IdentityProvider) *ServiceManager {
	sm := &ServiceManager{}

	sm.Configs = NewConfigRegistry(docs, defaults, identity)
	sm.Lists = NewListEngine(expression.NewEngine())
	sm.Forms = NewFormEngine(validator.GetRegistry())
	sm.Columns = NewColumnVisibilityService(kv)
	sm.Exports = NewExportService()
	sm.Records = NewRecordService(docs, sm.Configs, sm.Forms, identity)

	return sm
}

// Adapter returns the list adapter of a module
func (sm *ServiceManager) Adapter(module string) EntityAdapter {
	return EntityAdapter{Module: module, SearchFields: sm.Configs.SearchFields(module)}
}
