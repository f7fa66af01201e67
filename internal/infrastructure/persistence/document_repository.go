package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nexuscrm/backoffice/internal/infrastructure/database"
	"github.com/nexuscrm/backoffice/pkg/models"
)

// Executor is satisfied by both *sql.DB connections and *sql.Tx
type Executor interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// DocumentRepository stores JSON documents keyed by path in a single SQL
// table. It implements ports.DocumentStore for MySQL/TiDB and SQLite.
type DocumentRepository struct {
	conn *database.Connection
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(conn *database.Connection) *DocumentRepository {
	return &DocumentRepository{conn: conn}
}

// EnsureSchema creates the documents table when missing
func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	var stmts []string
	switch r.conn.Dialect() {
	case database.DialectMySQL:
		stmts = []string{fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` ("+
			"`%s` VARCHAR(512) NOT NULL PRIMARY KEY, "+
			"`%s` VARCHAR(512) NOT NULL, "+
			"`%s` LONGTEXT NOT NULL, "+
			"`%s` BIGINT NOT NULL, "+
			"INDEX `idx_documents_collection` (`%s`))",
			TableDocuments, ColumnPath, ColumnCollection, ColumnData, ColumnUpdatedAt, ColumnCollection)}
	default:
		stmts = []string{
			fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` ("+
				"`%s` TEXT NOT NULL PRIMARY KEY, "+
				"`%s` TEXT NOT NULL, "+
				"`%s` TEXT NOT NULL, "+
				"`%s` INTEGER NOT NULL)",
				TableDocuments, ColumnPath, ColumnCollection, ColumnData, ColumnUpdatedAt),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS `idx_documents_collection` ON `%s` (`%s`)",
				TableDocuments, ColumnCollection),
		}
	}

	for _, stmt := range stmts {
		if _, err := r.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create documents table: %w", err)
		}
	}
	return nil
}

// GetDocument returns the document at path, or nil when absent
func (r *DocumentRepository) GetDocument(ctx context.Context, path string) (models.Document, error) {
	return r.get(ctx, r.conn, path)
}

func (r *DocumentRepository) get(ctx context.Context, exec Executor, path string) (models.Document, error) {
	q := fmt.Sprintf("SELECT `%s` FROM `%s` WHERE `%s` = ?", ColumnData, TableDocuments, ColumnPath)

	var raw string
	if err := exec.QueryRowContext(ctx, q, path).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return decodeDocument(path, raw)
}

// SetDocument writes data at path. Merge writes happen in a transaction
// so the read and the write see the same row.
func (r *DocumentRepository) SetDocument(ctx context.Context, path string, data models.Document, merge bool) error {
	if !merge {
		return r.upsert(ctx, r.conn, path, data)
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := r.get(ctx, tx, path)
	if err != nil {
		return err
	}
	if err := r.upsert(ctx, tx, path, mergeDocuments(existing, data)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", path, err)
	}
	return nil
}

func (r *DocumentRepository) upsert(ctx context.Context, exec Executor, path string, data models.Document) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if _, err := exec.ExecContext(ctx, r.upsertSQL(), path, CollectionOf(path), string(payload), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (r *DocumentRepository) upsertSQL() string {
	insert := fmt.Sprintf("INSERT INTO `%s` (`%s`, `%s`, `%s`, `%s`) VALUES (?, ?, ?, ?)",
		TableDocuments, ColumnPath, ColumnCollection, ColumnData, ColumnUpdatedAt)

	if r.conn.Dialect() == database.DialectMySQL {
		return insert + fmt.Sprintf(" ON DUPLICATE KEY UPDATE `%s` = VALUES(`%s`), `%s` = VALUES(`%s`)",
			ColumnData, ColumnData, ColumnUpdatedAt, ColumnUpdatedAt)
	}
	return insert + fmt.Sprintf(" ON CONFLICT(`%s`) DO UPDATE SET `%s` = excluded.`%s`, `%s` = excluded.`%s`",
		ColumnPath, ColumnData, ColumnData, ColumnUpdatedAt, ColumnUpdatedAt)
}

// QueryCollection returns the documents directly under collection that
// satisfy every constraint, ordered by path
func (r *DocumentRepository) QueryCollection(ctx context.Context, collection string, constraints ...models.QueryConstraint) ([]models.Document, error) {
	q := fmt.Sprintf("SELECT `%s`, `%s` FROM `%s` WHERE `%s` = ? ORDER BY `%s`",
		ColumnPath, ColumnData, TableDocuments, ColumnCollection, ColumnPath)

	rows, err := r.conn.QueryContext(ctx, q, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0)
	for rows.Next() {
		var path, raw string
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", collection, err)
		}
		doc, err := decodeDocument(path, raw)
		if err != nil {
			return nil, err
		}
		if matchesAll(doc, constraints) {
			docs = append(docs, doc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", collection, err)
	}
	return docs, nil
}

// DeleteDocument removes the document at path
func (r *DocumentRepository) DeleteDocument(ctx context.Context, path string) error {
	q := fmt.Sprintf("DELETE FROM `%s` WHERE `%s` = ?", TableDocuments, ColumnPath)
	if _, err := r.conn.ExecContext(ctx, q, path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// CollectionOf returns the parent collection of a document path
func CollectionOf(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[:idx]
	}
	return ""
}

func decodeDocument(path, raw string) (models.Document, error) {
	var doc models.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return doc, nil
}

// mergeDocuments overlays the top-level keys of patch on base
func mergeDocuments(base, patch models.Document) models.Document {
	out := make(models.Document, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

func matchesAll(doc models.Document, constraints []models.QueryConstraint) bool {
	for _, c := range constraints {
		if !c.Matches(doc) {
			return false
		}
	}
	return true
}
