package persistence

import (
	"context"
	"testing"

	"github.com/nexuscrm/backoffice/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDocumentStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDocumentStore()

	doc, err := s.GetDocument(ctx, "records/clients/a")
	require.NoError(t, err)
	assert.Nil(t, doc)

	input := models.Document{"id": "a", "count": 2, "customFields": map[string]interface{}{"tier": "gold"}}
	require.NoError(t, s.SetDocument(ctx, "records/clients/a", input, false))
	input["id"] = "mutated"

	doc, err = s.GetDocument(ctx, "records/clients/a")
	require.NoError(t, err)
	assert.Equal(t, "a", doc["id"], "stored documents are isolated from caller mutation")
	assert.Equal(t, 2.0, doc["count"], "values come back JSON-typed")

	require.NoError(t, s.SetDocument(ctx, "records/clients/a", models.Document{"count": 3}, true))
	require.NoError(t, s.SetDocument(ctx, "records/clients/b", models.Document{"id": "b"}, false))
	require.NoError(t, s.SetDocument(ctx, "records/clients/nested/c", models.Document{"id": "c"}, false))

	docs, err := s.QueryCollection(ctx, "records/clients")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, 3.0, docs[0]["count"])
	assert.Equal(t, "gold", docs[0]["customFields"].(map[string]interface{})["tier"])

	docs, err = s.QueryCollection(ctx, "records/clients", models.Where("tier", "gold"))
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	require.NoError(t, s.DeleteDocument(ctx, "records/clients/a"))
	require.NoError(t, s.DeleteDocument(ctx, "records/clients/a"))
	docs, err = s.QueryCollection(ctx, "records/clients")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestMemoryKVStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryKVStore()

	_, ok, err := s.Get(ctx, "columns:clients:main")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "columns:clients:main", []byte(`["name"]`)))
	v, ok, err := s.Get(ctx, "columns:clients:main")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["name"]`, string(v))

	require.NoError(t, s.Delete(ctx, "columns:clients:main"))
	_, ok, _ = s.Get(ctx, "columns:clients:main")
	assert.False(t, ok)
}

func TestBadgerKVStore(t *testing.T) {
	ctx := context.Background()
	s, err := OpenBadgerKVStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get(ctx, "columns:clients:main")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "columns:clients:main", []byte(`["f1","f2"]`)))
	require.NoError(t, s.Set(ctx, "columns:clients:archive", []byte(`[]`)))
	require.NoError(t, s.Set(ctx, "columns:workers:main", []byte(`["f3"]`)))

	v, ok, err := s.Get(ctx, "columns:clients:main")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["f1","f2"]`, string(v))

	v, ok, err = s.Get(ctx, "columns:workers:main")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["f3"]`, string(v))

	require.NoError(t, s.Delete(ctx, "columns:clients:main"))
	_, ok, err = s.Get(ctx, "columns:clients:main")
	require.NoError(t, err)
	assert.False(t, ok)
}
