package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nexuscrm/backoffice/internal/bootstrap"
	"github.com/nexuscrm/backoffice/internal/domain/ports"
	"github.com/nexuscrm/backoffice/internal/infrastructure/persistence"
	"github.com/nexuscrm/backoffice/pkg/models"
)

const testDefaultsYAML = `
modules:
  clients:
    searchFields: [name, email]
    gridConfig:
      itemsPerPage: 10
      sortBy: name
    fields:
      - id: clients_name
        name: name
        label: Name
        type: text
        validation: {required: true}
        gridConfig: {showInGrid: true, gridOrder: 0, sortable: true}
        formOrder: 0
        formWidth: half
        isDefault: true
        isActive: true
        isSystem: true
      - id: clients_email
        name: email
        label: Email
        type: email
        gridConfig: {showInGrid: true, gridOrder: 1, sortable: true}
        formOrder: 1
        formWidth: half
        isDefault: true
        isActive: true
      - id: clients_status
        name: status
        label: Status
        type: select
        options:
          - {value: active, label: Active}
          - {value: inactive, label: Inactive}
        defaultValue: active
        gridConfig: {showInGrid: true, gridOrder: 2, sortable: true, filterable: true}
        formOrder: 2
        isDefault: true
        isActive: true
      - id: clients_balance
        name: balance
        label: Balance
        type: currency
        gridConfig: {showInGrid: false, gridOrder: 3, sortable: true}
        formOrder: 3
        isDefault: true
        isActive: true
      - id: clients_notes
        name: notes
        label: Notes
        type: textarea
        gridConfig: {showInGrid: false, gridOrder: 4}
        formOrder: 4
        isDefault: false
        isActive: false
      - id: clients_city
        name: city
        label: City
        type: text
        gridConfig: {showInGrid: false, gridOrder: 5, sortable: true, filterable: true}
        formOrder: 5
        isDefault: false
        isActive: true
      - id: clients_availability
        name: availability
        label: Availability
        type: dictionary
        options:
          - {value: mon, label: Monday}
          - {value: tue, label: Tuesday}
        gridConfig: {showInGrid: false, gridOrder: 6}
        formOrder: 6
        isDefault: false
        isActive: true
`

func testDefaults(t *testing.T) *bootstrap.Defaults {
	t.Helper()
	d, err := bootstrap.ParseDefaults([]byte(testDefaultsYAML))
	require.NoError(t, err)
	return d
}

func adminIdentity() ports.IdentityProvider {
	return ports.IdentityFunc(func(context.Context) *models.UserSession {
		return &models.UserSession{ID: "u-admin", Role: "admin"}
	})
}

// faultyStore wraps the in-memory document store, counting reads and
// failing selected operations
type faultyStore struct {
	*persistence.MemoryDocumentStore

	mu          sync.Mutex
	gets        int
	failGets    bool
	failSets    bool
	failDeletes map[string]bool
}

func newFaultyStore() *faultyStore {
	return &faultyStore{
		MemoryDocumentStore: persistence.NewMemoryDocumentStore(),
		failDeletes:         make(map[string]bool),
	}
}

func (s *faultyStore) GetDocument(ctx context.Context, path string) (models.Document, error) {
	s.mu.Lock()
	s.gets++
	fail := s.failGets
	s.mu.Unlock()
	if fail {
		return nil, fmt.Errorf("store offline")
	}
	return s.MemoryDocumentStore.GetDocument(ctx, path)
}

func (s *faultyStore) SetDocument(ctx context.Context, path string, data models.Document, merge bool) error {
	s.mu.Lock()
	fail := s.failSets
	s.mu.Unlock()
	if fail {
		return fmt.Errorf("write rejected")
	}
	return s.MemoryDocumentStore.SetDocument(ctx, path, data, merge)
}

func (s *faultyStore) DeleteDocument(ctx context.Context, path string) error {
	s.mu.Lock()
	fail := s.failDeletes[path]
	s.mu.Unlock()
	if fail {
		return fmt.Errorf("delete rejected")
	}
	return s.MemoryDocumentStore.DeleteDocument(ctx, path)
}

func (s *faultyStore) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func newTestConfigStore(t *testing.T) (*ConfigStore, *faultyStore) {
	t.Helper()
	store := newFaultyStore()
	return NewConfigStore("clients", store, testDefaults(t), adminIdentity()), store
}

func fieldNames(fields []models.FieldSchema) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
