package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/errors"
)

func newTestRecordService(t *testing.T) (*RecordService, *faultyStore) {
	t.Helper()
	store := newFaultyStore()
	configs := NewConfigRegistry(store, testDefaults(t), adminIdentity())
	return NewRecordService(store, configs, NewFormEngine(nil), adminIdentity()), store
}

func TestRecordService_CreateAppliesDefaultsAndBuckets(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRecordService(t)

	record, err := s.Create(ctx, "clients", map[string]interface{}{
		"name":             "Acme",
		"city":             "Paris",
		"availability_mon": "9-17",
		"unknown":          "ignored",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID())
	assert.Equal(t, "Acme", record["name"])
	assert.Equal(t, "active", record["status"], "defaultValue applied")
	assert.Equal(t, "u-admin", record[constants.FieldCreatedBy])
	assert.Equal(t, true, record[constants.FieldIsActive])
	assert.NotContains(t, record, "unknown")

	custom := record.CustomFields()
	assert.Equal(t, "Paris", custom["city"])
	assert.Equal(t, map[string]interface{}{"mon": "9-17", "tue": ""}, custom["availability"])
	assert.NotContains(t, custom, "notes", "inactive fields are not written")

	stored, err := s.Get(ctx, "clients", record.ID())
	require.NoError(t, err)
	assert.Equal(t, "Acme", stored["name"])
}

func TestRecordService_ValidationNeverReachesStorage(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRecordService(t)

	_, err := s.Create(ctx, "clients", map[string]interface{}{"email": "not-an-email"})
	require.Error(t, err)

	var failed errors.FieldErrors
	require.ErrorAs(t, err, &failed)
	assert.True(t, failed["name"]["required"])
	assert.True(t, failed["email"]["email"])

	records, err := s.List(ctx, "clients")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecordService_Update(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRecordService(t)
	created, err := s.Create(ctx, "clients", map[string]interface{}{"name": "Acme", "city": "Paris"})
	require.NoError(t, err)

	updated, err := s.Update(ctx, "clients", created.ID(), map[string]interface{}{"city": "Lyon"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", updated["name"], "unsubmitted controls keep stored values")
	assert.Equal(t, "Lyon", updated.CustomFields()["city"])
	assert.Equal(t, created[constants.FieldCreatedAt], updated[constants.FieldCreatedAt])

	_, err = s.Update(ctx, "clients", created.ID(), map[string]interface{}{"name": ""})
	assert.True(t, errors.IsValidation(err))

	_, err = s.Update(ctx, "clients", "missing", map[string]interface{}{"name": "x"})
	assert.True(t, errors.IsNotFound(err))
}

func TestRecordService_WriteFailure(t *testing.T) {
	ctx := context.Background()
	s, store := newTestRecordService(t)
	cfg, err := s.configs.Store("clients")
	require.NoError(t, err)
	cfg.Initialize(ctx)

	store.failSets = true
	_, err = s.Create(ctx, "clients", map[string]interface{}{"name": "Acme"})
	assert.True(t, errors.IsMutationFailed(err))
}

func TestRecordService_UnknownModule(t *testing.T) {
	s, _ := newTestRecordService(t)
	_, err := s.List(context.Background(), "spaceships")
	assert.True(t, errors.IsNotFound(err))
}

func TestRecordService_BulkDeletePartialFailure(t *testing.T) {
	ctx := context.Background()
	s, store := newTestRecordService(t)

	var ids []string
	for i := 0; i < 5; i++ {
		r, err := s.Create(ctx, "clients", map[string]interface{}{"name": fmt.Sprintf("c%d", i)})
		require.NoError(t, err)
		ids = append(ids, r.ID())
	}
	store.failDeletes[constants.RecordPath("clients", ids[2])] = true

	result, err := s.BulkDelete(ctx, "clients", ids)
	require.NoError(t, err)
	assert.Equal(t, 4, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, ids[2], result.Errors[0].ID)
	assert.True(t, result.IsPartial())

	remaining, err := s.List(ctx, "clients")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, ids[2], remaining[0].ID())
}

func TestRecordService_FormFor(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRecordService(t)
	created, err := s.Create(ctx, "clients", map[string]interface{}{"name": "Acme"})
	require.NoError(t, err)

	form, err := s.FormFor(ctx, "clients", created.ID(), "")
	require.NoError(t, err)
	assert.Equal(t, constants.FormModeEdit, form.Mode)
	assert.Equal(t, "Acme", form.Values()["name"])

	form, err = s.FormFor(ctx, "clients", "", constants.FormModeCreate)
	require.NoError(t, err)
	assert.Equal(t, "active", form.Values()["status"])

	_, err = s.FormFor(ctx, "clients", "missing", constants.FormModeView)
	assert.True(t, errors.IsNotFound(err))
}
