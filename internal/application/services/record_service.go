package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexuscrm/backoffice/internal/domain/ports"
	"github.com/nexuscrm/backoffice/internal/infrastructure/metrics"
	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/errors"
	"github.com/nexuscrm/backoffice/pkg/logging"
	"github.com/nexuscrm/backoffice/pkg/models"
	"github.com/nexuscrm/backoffice/pkg/utils"
)

// RecordService stores module records. Writes go through the module's
// form: submitted control values are validated with the synthesized
// validators and bucketed into default and custom fields before anything
// reaches the store.
type RecordService struct {
	store    ports.DocumentStore
	configs  *ConfigRegistry
	forms    *FormEngine
	identity ports.IdentityProvider
	now      func() time.Time
	log      *logrus.Entry
}

// NewRecordService creates a record service
func NewRecordService(store ports.DocumentStore, configs *ConfigRegistry, forms *FormEngine, identity ports.IdentityProvider) *RecordService {
	return &RecordService{
		store:    store,
		configs:  configs,
		forms:    forms,
		identity: identity,
		now:      time.Now,
		log:      logging.For("records"),
	}
}

// List returns every record of a module, ordered by storage path
func (s *RecordService) List(ctx context.Context, module string, constraints ...models.QueryConstraint) ([]models.Record, error) {
	if _, err := s.configs.Store(module); err != nil {
		return nil, err
	}
	docs, err := s.store.QueryCollection(ctx, constants.RecordCollection(module), constraints...)
	if err != nil {
		return nil, errors.NewInternalError("failed to query records", err)
	}
	records := make([]models.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, models.RecordFromDocument(doc))
	}
	return records, nil
}

// Get returns one record
func (s *RecordService) Get(ctx context.Context, module, id string) (models.Record, error) {
	if _, err := s.configs.Store(module); err != nil {
		return nil, err
	}
	doc, err := s.store.GetDocument(ctx, constants.RecordPath(module, id))
	if err != nil {
		return nil, errors.NewInternalError("failed to load record", err)
	}
	if doc == nil {
		return nil, errors.NewNotFoundError("record", id)
	}
	return models.RecordFromDocument(doc), nil
}

// FormFor builds the form of a module, for an existing record when id is
// set
func (s *RecordService) FormFor(ctx context.Context, module, id string, mode constants.FormMode) (*FormDefinition, error) {
	cfg, err := s.configs.Store(module)
	if err != nil {
		return nil, err
	}

	var record models.Record
	if id != "" {
		if record, err = s.Get(ctx, module, id); err != nil {
			return nil, err
		}
		if mode == "" || mode == constants.FormModeCreate {
			mode = constants.FormModeEdit
		}
	}
	return s.forms.BuildForm(module, cfg.GetActiveFields(ctx), cfg.GetFormLayout(ctx), record, mode), nil
}

// prepare builds the form for record, overlays the submitted control
// values and validates them
func (s *RecordService) prepare(ctx context.Context, module string, record models.Record, values map[string]interface{}) (FormPayload, error) {
	cfg, err := s.configs.Store(module)
	if err != nil {
		return FormPayload{}, err
	}
	mode := constants.FormModeCreate
	if record != nil {
		mode = constants.FormModeEdit
	}
	form := s.forms.BuildForm(module, cfg.GetActiveFields(ctx), cfg.GetFormLayout(ctx), record, mode)

	merged := form.Values()
	for name, v := range values {
		if _, known := merged[name]; known {
			merged[name] = v
		}
	}

	if failed := s.forms.Validate(form.Fields, merged); failed != nil {
		return FormPayload{}, failed
	}
	return ReconstructPayload(form.Fields, merged), nil
}

func (s *RecordService) currentUserID(ctx context.Context) string {
	if s.identity == nil {
		return ""
	}
	if user := s.identity.CurrentUser(ctx); user != nil {
		return user.ID
	}
	return ""
}

// Create validates the submitted control values and stores a new record.
// Controls not submitted take their default values.
func (s *RecordService) Create(ctx context.Context, module string, values map[string]interface{}) (models.Record, error) {
	payload, err := s.prepare(ctx, module, nil, values)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Format(time.RFC3339)
	user := s.currentUserID(ctx)
	record := ApplyPayload(models.Record{}, payload)
	record[constants.FieldID] = utils.GenerateID()
	record[constants.FieldCreatedAt] = now
	record[constants.FieldUpdatedAt] = now
	record[constants.FieldCreatedBy] = user
	record[constants.FieldUpdatedBy] = user
	record[constants.FieldIsActive] = true

	if err := s.store.SetDocument(ctx, constants.RecordPath(module, record.ID()), record.ToDocument(), false); err != nil {
		return nil, errors.NewMutationFailedError("create", "record", err)
	}
	s.log.WithFields(logrus.Fields{"module": module, "record": record.ID()}).Info("✅ Record created")
	return record, nil
}

// Update validates the submitted control values and merges them into an
// existing record. Controls not submitted keep their stored values.
func (s *RecordService) Update(ctx context.Context, module, id string, values map[string]interface{}) (models.Record, error) {
	existing, err := s.Get(ctx, module, id)
	if err != nil {
		return nil, err
	}
	payload, err := s.prepare(ctx, module, existing, values)
	if err != nil {
		return nil, err
	}

	record := ApplyPayload(existing, payload)
	record[constants.FieldID] = id
	record[constants.FieldUpdatedAt] = s.now().UTC().Format(time.RFC3339)
	record[constants.FieldUpdatedBy] = s.currentUserID(ctx)

	if err := s.store.SetDocument(ctx, constants.RecordPath(module, id), record.ToDocument(), false); err != nil {
		return nil, errors.NewMutationFailedError("update", "record", err)
	}
	s.log.WithFields(logrus.Fields{"module": module, "record": id}).Info("✅ Record updated")
	return record, nil
}

// Delete removes a record
func (s *RecordService) Delete(ctx context.Context, module, id string) error {
	if _, err := s.Get(ctx, module, id); err != nil {
		return err
	}
	if err := s.store.DeleteDocument(ctx, constants.RecordPath(module, id)); err != nil {
		return errors.NewMutationFailedError("delete", "record", err)
	}
	s.log.WithFields(logrus.Fields{"module": module, "record": id}).Info("🗑️ Record deleted")
	return nil
}

// BulkDelete deletes records one after another. A failing item is
// reported in the result and does not stop the others; deleted records
// are not restored.
func (s *RecordService) BulkDelete(ctx context.Context, module string, ids []string) (models.BulkResult, error) {
	if _, err := s.configs.Store(module); err != nil {
		return models.BulkResult{}, err
	}

	result := models.BulkResult{Errors: []models.BulkItemError{}}
	for _, id := range ids {
		if err := s.Delete(ctx, module, id); err != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, models.BulkItemError{ID: id, Message: err.Error()})
			continue
		}
		result.SuccessCount++
	}

	metrics.RecordBulkItems(module, result.SuccessCount, result.FailureCount)
	if result.FailureCount > 0 {
		s.log.WithFields(logrus.Fields{
			"module":    module,
			"succeeded": result.SuccessCount,
			"failed":    result.FailureCount,
		}).Warn("⚠️ Bulk delete finished with failures")
	}
	return result, nil
}
