package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexuscrm/backoffice/internal/bootstrap"
	"github.com/nexuscrm/backoffice/internal/domain/ports"
	"github.com/nexuscrm/backoffice/internal/infrastructure/metrics"
	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/errors"
	"github.com/nexuscrm/backoffice/pkg/logging"
	"github.com/nexuscrm/backoffice/pkg/models"
	"github.com/nexuscrm/backoffice/pkg/utils"
)

// LoadStatus reports how a configuration was obtained on first access
type LoadStatus struct {
	// LoadedWithDefaults is set when the store could not be read and the
	// built-in defaults are served instead
	LoadedWithDefaults bool
	// Warning carries the ConfigUnavailableError behind a defaults fallback
	Warning error
}

// ConfigStore owns the configuration of one module. Readers never observe a
// partially applied mutation: every mutation holds the write lock across
// copy, patch, persist and swap, and the in-memory view only changes after
// the write succeeded.
type ConfigStore struct {
	module   string
	store    ports.DocumentStore
	defaults *bootstrap.Defaults
	identity ports.IdentityProvider
	now      func() time.Time
	log      *logrus.Entry

	mu     sync.RWMutex
	loaded bool
	status LoadStatus
	config *models.ModuleConfig
}

// NewConfigStore creates the store of one module. identity may be nil.
func NewConfigStore(module string, store ports.DocumentStore, defaults *bootstrap.Defaults, identity ports.IdentityProvider) *ConfigStore {
	return &ConfigStore{
		module:   module,
		store:    store,
		defaults: defaults,
		identity: identity,
		now:      time.Now,
		log:      logging.For("config_store").WithField("module", module),
	}
}

// Module returns the module name
func (s *ConfigStore) Module() string {
	return s.module
}

// Initialize loads the persisted configuration on first call. A missing
// document is created from the built-in defaults; an unreadable store
// falls back to the defaults and reports it in the returned status.
// Repeated calls return the first outcome without touching the store.
func (s *ConfigStore) Initialize(ctx context.Context) LoadStatus {
	// Fast path
	s.mu.RLock()
	if s.loaded {
		status := s.status
		s.mu.RUnlock()
		return status
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double check
	if s.loaded {
		return s.status
	}

	s.config, s.status = s.load(ctx)
	s.loaded = true
	return s.status
}

// load reads the configuration; the write lock must be held
func (s *ConfigStore) load(ctx context.Context) (*models.ModuleConfig, LoadStatus) {
	cfg, err := s.read(ctx)
	if err != nil {
		return s.fallback(err)
	}

	if cfg == nil {
		cfg = s.defaults.ModuleConfig(s.module)
		cfg.Version = 1
		cfg.UpdatedAt = s.now().UTC()
		if err := s.persist(ctx, cfg); err != nil {
			return s.fallback(err)
		}
		s.log.Infof("✅ Created configuration from defaults (%d fields)", len(cfg.Fields))
		return cfg, LoadStatus{}
	}

	s.log.Debugf("📦 Loaded configuration v%d", cfg.Version)
	return cfg, LoadStatus{}
}

func (s *ConfigStore) fallback(cause error) (*models.ModuleConfig, LoadStatus) {
	warning := errors.NewConfigUnavailableError(s.module, cause)
	s.log.WithError(cause).Warn("⚠️ Configuration store unavailable, using built-in defaults")
	metrics.RecordConfigFallback(s.module)
	return s.defaults.ModuleConfig(s.module), LoadStatus{LoadedWithDefaults: true, Warning: warning}
}

// read fetches the persisted configuration; nil when none was saved yet
func (s *ConfigStore) read(ctx context.Context) (*models.ModuleConfig, error) {
	doc, err := s.store.GetDocument(ctx, constants.ConfigPath(s.module))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	cfg, err := configFromDocument(doc)
	if err != nil {
		return nil, err
	}
	cfg.Module = s.module
	return cfg, nil
}

// Refresh re-reads the persisted configuration, replacing the cached view.
// The cached view is kept when the store cannot be read.
func (s *ConfigStore) Refresh(ctx context.Context) error {
	cfg, err := s.read(ctx)
	if err != nil {
		return errors.NewConfigUnavailableError(s.module, err)
	}
	if cfg == nil {
		return errors.NewNotFoundError("module config", s.module)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.loaded = true
	s.status = LoadStatus{}
	return nil
}

// reconcile replaces a defaults fallback with the persisted configuration
// before it is mutated; the write lock must be held. A store that is still
// unreadable fails the mutation.
func (s *ConfigStore) reconcile(ctx context.Context) error {
	if !s.status.LoadedWithDefaults {
		return nil
	}
	cfg, err := s.read(ctx)
	if err != nil {
		return errors.NewConfigUnavailableError(s.module, err)
	}
	if cfg == nil {
		cfg = s.defaults.ModuleConfig(s.module)
	}
	s.config = cfg
	s.status = LoadStatus{}
	s.log.Infof("🔄 Configuration store reachable again, reloaded v%d", cfg.Version)
	return nil
}

func (s *ConfigStore) persist(ctx context.Context, cfg *models.ModuleConfig) error {
	doc, err := toMap(cfg)
	if err != nil {
		return err
	}
	return s.store.SetDocument(ctx, constants.ConfigPath(s.module), models.Document(doc), false)
}

func configFromDocument(doc models.Document) (*models.ModuleConfig, error) {
	var cfg models.ModuleConfig
	if err := fromMap(doc, &cfg); err != nil {
		return nil, fmt.Errorf("invalid module configuration: %w", err)
	}
	if cfg.Fields == nil {
		cfg.Fields = []models.FieldSchema{}
	}
	return &cfg, nil
}

// snapshot returns the current configuration, initializing on first use
func (s *ConfigStore) snapshot(ctx context.Context) *models.ModuleConfig {
	s.Initialize(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Getters. Returned values are copies.

// GetConfig returns the whole module configuration
func (s *ConfigStore) GetConfig(ctx context.Context) *models.ModuleConfig {
	return s.snapshot(ctx).Clone()
}

// GetActiveFields returns the active fields ordered by (formOrder, id)
func (s *ConfigStore) GetActiveFields(ctx context.Context) []models.FieldSchema {
	fields := activeFields(s.snapshot(ctx).Fields)
	sortByFormOrder(fields)
	return fields
}

// GetFieldsInUse returns every active field regardless of grid visibility,
// in column order (gridOrder, id)
func (s *ConfigStore) GetFieldsInUse(ctx context.Context) []models.FieldSchema {
	fields := activeFields(s.snapshot(ctx).Fields)
	sortByGridOrder(fields)
	return fields
}

// GetGridFields returns the active fields shown in the grid by default,
// ordered by (gridOrder, id)
func (s *ConfigStore) GetGridFields(ctx context.Context) []models.FieldSchema {
	var fields []models.FieldSchema
	for _, f := range s.snapshot(ctx).Fields {
		if f.IsActive && f.GridConfig.ShowInGrid {
			fields = append(fields, f.Clone())
		}
	}
	sortByGridOrder(fields)
	return fields
}

// GetFormLayout returns the saved layout, or nil when the form uses the
// linear field order
func (s *ConfigStore) GetFormLayout(ctx context.Context) *models.FormLayoutConfig {
	return s.snapshot(ctx).FormLayout.Clone()
}

// GetGridConfig returns the grid settings
func (s *ConfigStore) GetGridConfig(ctx context.Context) models.GridConfiguration {
	return s.snapshot(ctx).GridConfig
}

func activeFields(all []models.FieldSchema) []models.FieldSchema {
	out := make([]models.FieldSchema, 0, len(all))
	for _, f := range all {
		if f.IsActive {
			out = append(out, f.Clone())
		}
	}
	return out
}

func sortByFormOrder(fields []models.FieldSchema) {
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].FormOrder != fields[j].FormOrder {
			return fields[i].FormOrder < fields[j].FormOrder
		}
		return fields[i].ID < fields[j].ID
	})
}

func sortByGridOrder(fields []models.FieldSchema) {
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].GridConfig.GridOrder != fields[j].GridConfig.GridOrder {
			return fields[i].GridConfig.GridOrder < fields[j].GridConfig.GridOrder
		}
		return fields[i].ID < fields[j].ID
	})
}

// Mutations

// mutate runs one read-modify-write cycle under the write lock. A store
// serving the defaults fallback re-reads the persisted document first.
// apply works on a private copy; validation errors from apply are returned unchanged,
// persistence failures as MutationFailedError. The cached view is only
// replaced after the write succeeded.
func (s *ConfigStore) mutate(ctx context.Context, op string, apply func(cfg *models.ModuleConfig) error) (*models.ModuleConfig, error) {
	s.Initialize(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reconcile(ctx); err != nil {
		failed := errors.NewMutationFailedError(op, "module config "+s.module, err)
		s.log.WithError(err).WithField("op", op).Error("❌ Configuration store unavailable, nothing written")
		metrics.RecordConfigMutation(s.module, op, failed)
		return nil, failed
	}

	next := s.config.Clone()
	if err := apply(next); err != nil {
		metrics.RecordConfigMutation(s.module, op, err)
		return nil, err
	}

	next.Version++
	next.UpdatedAt = s.now().UTC()
	next.UpdatedBy = ""
	if s.identity != nil {
		if user := s.identity.CurrentUser(ctx); user != nil {
			next.UpdatedBy = user.ID
		}
	}

	if err := s.persist(ctx, next); err != nil {
		failed := errors.NewMutationFailedError(op, "module config "+s.module, err)
		s.log.WithError(err).WithField("op", op).Error("❌ Configuration write failed, keeping previous state")
		metrics.RecordConfigMutation(s.module, op, failed)
		return nil, failed
	}

	s.config = next
	s.log.WithField("op", op).Infof("✅ Configuration saved (v%d)", next.Version)
	metrics.RecordConfigMutation(s.module, op, nil)
	return next.Clone(), nil
}

// AddField appends a field. A missing id is generated; formOrder and
// gridOrder default to the end of the list.
func (s *ConfigStore) AddField(ctx context.Context, field models.FieldSchema) (models.FieldSchema, error) {
	field = field.Clone()
	if field.ID == "" {
		field.ID = s.module + "_" + utils.GenerateID()
	}
	if field.FormWidth == "" {
		field.FormWidth = constants.FormWidthFull
	}
	if err := field.Validate(); err != nil {
		return models.FieldSchema{}, errors.NewValidationError("field", err.Error())
	}

	_, err := s.mutate(ctx, "add_field", func(cfg *models.ModuleConfig) error {
		maxForm, maxGrid := -1, -1
		for _, f := range cfg.Fields {
			if f.ID == field.ID {
				return errors.NewConflictError("field", "id", field.ID)
			}
			if f.Name == field.Name {
				return errors.NewConflictError("field", "name", field.Name)
			}
			if f.FormOrder > maxForm {
				maxForm = f.FormOrder
			}
			if f.GridConfig.GridOrder > maxGrid {
				maxGrid = f.GridConfig.GridOrder
			}
		}
		if field.FormOrder == 0 {
			field.FormOrder = maxForm + 1
		}
		if field.GridConfig.GridOrder == 0 {
			field.GridConfig.GridOrder = maxGrid + 1
		}
		cfg.Fields = append(cfg.Fields, field)
		return nil
	})
	if err != nil {
		return models.FieldSchema{}, err
	}
	return field, nil
}

// UpdateField applies a JSON merge patch to one field. The id and the
// isSystem flag cannot be patched; system fields cannot be deactivated.
func (s *ConfigStore) UpdateField(ctx context.Context, id string, patch models.FieldPatch) (models.FieldSchema, error) {
	for _, key := range []string{"id", "isSystem"} {
		if _, ok := patch[key]; ok {
			return models.FieldSchema{}, errors.NewValidationError(key, "cannot be changed")
		}
	}

	var updated models.FieldSchema
	_, err := s.mutate(ctx, "update_field", func(cfg *models.ModuleConfig) error {
		idx := cfg.FieldIndex(id)
		if idx < 0 {
			return errors.NewNotFoundError("field", id)
		}
		current := cfg.Fields[idx]

		next, err := applyMergePatch(current, map[string]interface{}(patch))
		if err != nil {
			return errors.NewValidationError("patch", err.Error())
		}
		if err := next.Validate(); err != nil {
			return errors.NewValidationError("field", err.Error())
		}
		if current.IsSystem && !next.IsActive {
			return errors.NewValidationError("isActive", "system fields cannot be deactivated")
		}
		if next.Name != current.Name {
			for i, f := range cfg.Fields {
				if i != idx && f.Name == next.Name {
					return errors.NewConflictError("field", "name", next.Name)
				}
			}
		}

		cfg.Fields[idx] = next
		updated = next.Clone()
		return nil
	})
	return updated, err
}

// RemoveField deletes a non-system field and its layout placement
func (s *ConfigStore) RemoveField(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, "remove_field", func(cfg *models.ModuleConfig) error {
		idx := cfg.FieldIndex(id)
		if idx < 0 {
			return errors.NewNotFoundError("field", id)
		}
		if cfg.Fields[idx].IsSystem {
			return errors.NewValidationError("field", "system fields cannot be removed")
		}
		cfg.Fields = append(cfg.Fields[:idx], cfg.Fields[idx+1:]...)
		if cfg.FormLayout != nil {
			delete(cfg.FormLayout.Fields, id)
		}
		return nil
	})
	return err
}

// ReorderFields assigns formOrder by position in orderedIDs. Fields not
// listed keep their relative order after the listed ones; unknown ids are
// ignored.
func (s *ConfigStore) ReorderFields(ctx context.Context, orderedIDs []string) error {
	_, err := s.mutate(ctx, "reorder_fields", func(cfg *models.ModuleConfig) error {
		current := make([]models.FieldSchema, len(cfg.Fields))
		copy(current, cfg.Fields)
		sortByFormOrder(current)
		order := reorder(current, orderedIDs)
		for i := range cfg.Fields {
			cfg.Fields[i].FormOrder = order[cfg.Fields[i].ID]
		}
		return nil
	})
	return err
}

// ReorderGridColumns assigns gridOrder by position in orderedIDs, with the
// same rules as ReorderFields
func (s *ConfigStore) ReorderGridColumns(ctx context.Context, orderedIDs []string) error {
	_, err := s.mutate(ctx, "reorder_grid", func(cfg *models.ModuleConfig) error {
		current := make([]models.FieldSchema, len(cfg.Fields))
		copy(current, cfg.Fields)
		sortByGridOrder(current)
		order := reorder(current, orderedIDs)
		for i := range cfg.Fields {
			cfg.Fields[i].GridConfig.GridOrder = order[cfg.Fields[i].ID]
		}
		return nil
	})
	return err
}

// reorder returns the new position of every field id
func reorder(current []models.FieldSchema, orderedIDs []string) map[string]int {
	known := make(map[string]bool, len(current))
	for _, f := range current {
		known[f.ID] = true
	}

	order := make(map[string]int, len(current))
	next := 0
	for _, id := range orderedIDs {
		if !known[id] {
			continue
		}
		if _, seen := order[id]; seen {
			continue
		}
		order[id] = next
		next++
	}
	for _, f := range current {
		if _, placed := order[f.ID]; !placed {
			order[f.ID] = next
			next++
		}
	}
	return order
}

// ToggleFieldActive activates or deactivates a field. Inactive fields stay
// in the schema but are no longer rendered.
func (s *ConfigStore) ToggleFieldActive(ctx context.Context, id string, active bool) error {
	_, err := s.mutate(ctx, "toggle_field", func(cfg *models.ModuleConfig) error {
		idx := cfg.FieldIndex(id)
		if idx < 0 {
			return errors.NewNotFoundError("field", id)
		}
		if !active && cfg.Fields[idx].IsSystem {
			return errors.NewValidationError("isActive", "system fields cannot be deactivated")
		}
		cfg.Fields[idx].IsActive = active
		return nil
	})
	return err
}

// SaveFormLayout stores an explicit placement map. Columns must be within
// [MinLayoutColumns, MaxLayoutColumns]; colSpan is clamped to the grid.
func (s *ConfigStore) SaveFormLayout(ctx context.Context, layout models.FormLayoutConfig) error {
	if layout.Columns < constants.MinLayoutColumns || layout.Columns > constants.MaxLayoutColumns {
		return errors.NewValidationError("columns",
			fmt.Sprintf("must be between %d and %d", constants.MinLayoutColumns, constants.MaxLayoutColumns))
	}

	saved := layout.Clone()
	for id, pos := range saved.Fields {
		if pos.Row < 0 || pos.Col < 0 {
			return errors.NewValidationError("fields."+id, "row and col must not be negative")
		}
		if pos.ColSpan < 1 {
			pos.ColSpan = 1
		}
		if pos.ColSpan > saved.Columns {
			pos.ColSpan = saved.Columns
		}
		saved.Fields[id] = pos
	}

	_, err := s.mutate(ctx, "save_layout", func(cfg *models.ModuleConfig) error {
		for id := range saved.Fields {
			if cfg.FieldIndex(id) < 0 {
				s.log.WithField("field", id).Debug("Layout places an unknown field")
			}
		}
		cfg.FormLayout = saved
		return nil
	})
	return err
}

// UpdateGridConfig applies a JSON merge patch to the grid settings
func (s *ConfigStore) UpdateGridConfig(ctx context.Context, patch models.GridConfigPatch) (models.GridConfiguration, error) {
	var updated models.GridConfiguration
	_, err := s.mutate(ctx, "update_grid", func(cfg *models.ModuleConfig) error {
		next, err := applyMergePatch(cfg.GridConfig, map[string]interface{}(patch))
		if err != nil {
			return errors.NewValidationError("gridConfig", err.Error())
		}
		if next.ItemsPerPage < 1 || next.ItemsPerPage > constants.MaxPageSize {
			return errors.NewValidationError("itemsPerPage",
				fmt.Sprintf("must be between 1 and %d", constants.MaxPageSize))
		}
		next.SortOrder = next.SortOrder.Normalize()
		if next.DefaultView == "" {
			next.DefaultView = constants.GridViewTable
		}
		cfg.GridConfig = next
		updated = next
		return nil
	})
	return updated, err
}

// ResetToDefaults replaces fields, grid settings and layout with the
// built-in defaults. The version keeps increasing.
func (s *ConfigStore) ResetToDefaults(ctx context.Context) (*models.ModuleConfig, error) {
	return s.mutate(ctx, "reset", func(cfg *models.ModuleConfig) error {
		version := cfg.Version
		*cfg = *s.defaults.ModuleConfig(s.module)
		cfg.Version = version
		return nil
	})
}
