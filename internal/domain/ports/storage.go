package ports

import (
	"context"

	"github.com/nexuscrm/backoffice/pkg/models"
)

// DocumentStore is the persistence collaborator. Every call is an atomic
// single-document operation; there are no transactions across documents.
type DocumentStore interface {
	// GetDocument returns the document at path, or nil when it does not exist.
	GetDocument(ctx context.Context, path string) (models.Document, error)

	// SetDocument writes data at path. With merge, top-level keys of data
	// overwrite the stored document's keys and the rest are kept.
	SetDocument(ctx context.Context, path string, data models.Document, merge bool) error

	// QueryCollection returns the documents directly under collection that
	// satisfy every constraint.
	QueryCollection(ctx context.Context, collection string, constraints ...models.QueryConstraint) ([]models.Document, error)

	// DeleteDocument removes the document at path. Deleting a missing
	// document is not an error.
	DeleteDocument(ctx context.Context, path string) error
}

// KeyValueStore is the client-local side store used for view preferences
// such as column visibility.
type KeyValueStore interface {
	// Get returns the value stored under key; ok is false when absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
