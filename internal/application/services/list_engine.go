package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexuscrm/backoffice/internal/infrastructure/metrics"
	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/errors"
	"github.com/nexuscrm/backoffice/pkg/expression"
	"github.com/nexuscrm/backoffice/pkg/fieldtypes"
	"github.com/nexuscrm/backoffice/pkg/logging"
	"github.com/nexuscrm/backoffice/pkg/models"
	"github.com/nexuscrm/backoffice/pkg/utils"
)

// EntityAdapter carries the few module-specific facts the generic list
// engine needs
type EntityAdapter struct {
	Module string
	// SearchFields are the record attributes global search always covers
	SearchFields []string
}

// ListResult is the output of one pipeline run
type ListResult struct {
	// Filtered holds every record that passed filters and search, sorted
	Filtered   []models.Record
	Rows       []models.Record
	TotalCount int
	TotalPages int
	Page       int
	PageSize   int
}

// ListEngine runs the filter, search, sort and paginate pipeline over a
// record set. It never mutates the records it is given.
type ListEngine struct {
	expressions *expression.Engine
	log         *logrus.Entry
}

// NewListEngine creates a list engine. exprEngine evaluates filterExpr.
func NewListEngine(exprEngine *expression.Engine) *ListEngine {
	if exprEngine == nil {
		exprEngine = expression.NewEngine()
	}
	return &ListEngine{
		expressions: exprEngine,
		log:         logging.For("list_engine"),
	}
}

// recordKeys are the record attributes every filter may reference
var recordKeys = []string{
	constants.FieldID,
	constants.FieldCustomFields,
	constants.FieldCreatedAt,
	constants.FieldUpdatedAt,
	constants.FieldCreatedBy,
	constants.FieldUpdatedBy,
}

// ValidateFilterExpr reports a compile error of an advanced filter, or a
// variable that names neither a field nor a record attribute, as a
// ValidationError
func (e *ListEngine) ValidateFilterExpr(expr string, fields []models.FieldSchema) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	if err := e.expressions.Compile(expr); err != nil {
		return errors.NewValidationError("filterExpr", err.Error())
	}

	identifiers, err := expression.Identifiers(expr)
	if err != nil {
		return errors.NewValidationError("filterExpr", err.Error())
	}
	known := make(map[string]bool, len(fields)+len(recordKeys))
	for _, key := range recordKeys {
		known[key] = true
	}
	for _, f := range fields {
		known[f.Name] = true
	}
	for _, name := range identifiers {
		if !known[name] {
			return errors.NewValidationError("filterExpr", fmt.Sprintf("unknown field '%s'", name))
		}
	}
	return nil
}

// Process runs the full pipeline for one list state
func (e *ListEngine) Process(records []models.Record, fields []models.FieldSchema, adapter EntityAdapter, state models.ListState) (*ListResult, error) {
	start := time.Now()
	defer func() { metrics.ObserveListPipeline(adapter.Module, time.Since(start)) }()

	filtered, err := e.ApplyFilterExpr(records, fields, state.FilterExpr)
	if err != nil {
		return nil, err
	}
	filtered = ApplyCustomFilters(filtered, state.CustomFieldFilters)
	filtered = ApplySearch(filtered, state.SearchTerm, SearchFieldsFor(adapter, fields))
	filtered = SortRecords(filtered, fields, state.Sort)

	page := ClampPage(state.Page, len(filtered), state.PageSize)
	rows, totalPages := Paginate(filtered, page, state.PageSize)
	return &ListResult{
		Filtered:   filtered,
		Rows:       rows,
		TotalCount: len(filtered),
		TotalPages: totalPages,
		Page:       page,
		PageSize:   normalizePageSize(state.PageSize),
	}, nil
}

// ApplyFilterExpr keeps the records the expression evaluates true for. A
// record whose evaluation fails is excluded.
func (e *ListEngine) ApplyFilterExpr(records []models.Record, fields []models.FieldSchema, expr string) ([]models.Record, error) {
	if strings.TrimSpace(expr) == "" {
		return records, nil
	}
	if err := e.ValidateFilterExpr(expr, fields); err != nil {
		return nil, err
	}

	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		matched, err := e.expressions.Match(expr, r)
		if err != nil {
			e.log.WithError(err).WithField("record", r.ID()).Debug("Filter expression failed, excluding record")
			continue
		}
		if matched {
			out = append(out, r)
		}
	}
	return out, nil
}

// isActiveFilter reports whether a filter value restricts the list
func isActiveFilter(value interface{}) bool {
	s := utils.ToString(value)
	return strings.TrimSpace(s) != "" && s != constants.FilterAll
}

// ApplyCustomFilters keeps records whose value equals every active filter
// value by string form. Empty values and "all" do not filter; a record
// lacking the field is excluded by an active filter.
func ApplyCustomFilters(records []models.Record, filters map[string]interface{}) []models.Record {
	active := make(map[string]string, len(filters))
	for name, value := range filters {
		if isActiveFilter(value) {
			active[name] = utils.ToString(value)
		}
	}
	if len(active) == 0 {
		return records
	}

	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if matchesFilters(r, active) {
			out = append(out, r)
		}
	}
	return out
}

func matchesFilters(r models.Record, filters map[string]string) bool {
	for name, want := range filters {
		v, ok := r.Lookup(name)
		if !ok {
			return false
		}
		if values, isSlice := v.([]interface{}); isSlice {
			if !containsString(values, want) {
				return false
			}
			continue
		}
		if utils.ToString(v) != want {
			return false
		}
	}
	return true
}

func containsString(values []interface{}, want string) bool {
	for _, v := range values {
		if utils.ToString(v) == want {
			return true
		}
	}
	return false
}

// SearchFieldsFor returns the adapter's base search fields plus every
// filterable custom field whose type is searchable
func SearchFieldsFor(adapter EntityAdapter, fields []models.FieldSchema) []string {
	out := append([]string(nil), adapter.SearchFields...)
	seen := make(map[string]bool, len(out))
	for _, name := range out {
		seen[name] = true
	}
	for _, f := range fields {
		if f.IsActive && !f.IsDefault && f.GridConfig.Filterable && fieldtypes.IsSearchable(f.Type) && !seen[f.Name] {
			out = append(out, f.Name)
			seen[f.Name] = true
		}
	}
	return out
}

// ApplySearch keeps records where any search field contains term,
// case-insensitively
func ApplySearch(records []models.Record, term string, searchFields []string) []models.Record {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return records
	}

	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		for _, name := range searchFields {
			v, ok := r.Lookup(name)
			if !ok {
				continue
			}
			if strings.Contains(strings.ToLower(utils.ToString(v)), needle) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func normalizePageSize(size int) int {
	if size <= 0 {
		return constants.DefaultPageSize
	}
	if size > constants.MaxPageSize {
		return constants.MaxPageSize
	}
	return size
}

// ClampPage bounds page to the pages count records fill; an empty set has
// the single page 0
func ClampPage(page, count, size int) int {
	last := int(math.Ceil(float64(count)/float64(normalizePageSize(size)))) - 1
	if page > last {
		page = last
	}
	if page < 0 {
		page = 0
	}
	return page
}

// Paginate returns page (zero-based) of records and the total page count.
// A page past the end is empty.
func Paginate(records []models.Record, page, size int) ([]models.Record, int) {
	size = normalizePageSize(size)
	totalPages := int(math.Ceil(float64(len(records)) / float64(size)))
	if page < 0 {
		page = 0
	}

	start := page * size
	if start >= len(records) {
		return []models.Record{}, totalPages
	}
	end := start + size
	if end > len(records) {
		end = len(records)
	}
	return records[start:end], totalPages
}

// VisibleColumns selects the table columns from fields ordered by
// gridOrder. An empty id set means the schema's showInGrid defaults.
// Ids that no longer exist are skipped.
func VisibleColumns(fields []models.FieldSchema, visibleIDs []string) []models.FieldSchema {
	columns := make([]models.FieldSchema, 0, len(fields))
	if len(visibleIDs) == 0 {
		for _, f := range fields {
			if f.IsActive && f.GridConfig.ShowInGrid {
				columns = append(columns, f)
			}
		}
		return columns
	}

	visible := make(map[string]bool, len(visibleIDs))
	for _, id := range visibleIDs {
		visible[id] = true
	}
	for _, f := range fields {
		if f.IsActive && visible[f.ID] {
			columns = append(columns, f)
		}
	}
	return columns
}
