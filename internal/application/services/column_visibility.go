package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nexuscrm/backoffice/internal/domain/ports"
	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/logging"
)

// ColumnVisibilityService persists the visible column ids of each
// (module, table) pair in the key-value side store. An empty set is never
// stored: it means the grid falls back to the schema's showInGrid flags.
type ColumnVisibilityService struct {
	kv  ports.KeyValueStore
	log *logrus.Entry
}

// NewColumnVisibilityService creates the service over a key-value store
func NewColumnVisibilityService(kv ports.KeyValueStore) *ColumnVisibilityService {
	return &ColumnVisibilityService{
		kv:  kv,
		log: logging.For("column_visibility"),
	}
}

// Load returns the saved column ids, or nil when the defaults apply.
// An unreadable blob is treated as unset.
func (s *ColumnVisibilityService) Load(ctx context.Context, module, table string) ([]string, error) {
	key := constants.ColumnsKey(module, table)
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read column visibility: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("⚠️ Ignoring unreadable column visibility")
		return nil, nil
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}

// Save stores the visible column ids. Duplicates are dropped and an empty
// list clears the entry.
func (s *ColumnVisibilityService) Save(ctx context.Context, module, table string, ids []string) error {
	key := constants.ColumnsKey(module, table)

	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	if len(unique) == 0 {
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to reset column visibility: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(unique)
	if err != nil {
		return fmt.Errorf("failed to encode column visibility: %w", err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to save column visibility: %w", err)
	}
	return nil
}
