package services

import (
	"context"
	"sync"

	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/models"
)

// ListView is the presentation model of a list screen
type ListView struct {
	Columns       []models.FieldSchema      `json:"columns"`
	Rows          []models.Record           `json:"rows"`
	TotalPages    int                       `json:"totalPages"`
	TotalCount    int                       `json:"totalCount"`
	Page          int                       `json:"page"`
	PageSize      int                       `json:"pageSize"`
	Sort          models.SortState          `json:"sort"`
	FilterOptions map[string][]FilterOption `json:"filterOptions"`
}

// BuildView runs the pipeline and assembles the view model. fields are the
// module's fields in use; filter options are computed over the unfiltered
// records.
func (e *ListEngine) BuildView(records []models.Record, fields []models.FieldSchema, adapter EntityAdapter, state models.ListState) (*ListView, *ListResult, error) {
	result, err := e.Process(records, fields, adapter, state)
	if err != nil {
		return nil, nil, err
	}
	return &ListView{
		Columns:       VisibleColumns(fields, state.VisibleColumnIDs),
		Rows:          result.Rows,
		TotalPages:    result.TotalPages,
		TotalCount:    result.TotalCount,
		Page:          result.Page,
		PageSize:      result.PageSize,
		Sort:          state.Sort,
		FilterOptions: FilterOptions(records, fields),
	}, result, nil
}

// InitialListState derives the first list state of a module from its grid
// settings
func InitialListState(grid models.GridConfiguration) models.ListState {
	return models.ListState{
		Sort: models.SortState{
			Field:     grid.SortBy,
			Direction: grid.SortOrder.Normalize(),
		},
		PageSize: normalizePageSize(grid.ItemsPerPage),
	}
}

// ListController holds the state of one list view. Every intent updates
// the state, recomputes the view and notifies subscribers.
type ListController struct {
	engine  *ListEngine
	adapter EntityAdapter

	columnStore *ColumnVisibilityService
	table       string

	mu          sync.Mutex
	records     []models.Record
	fields      []models.FieldSchema
	state       models.ListState
	view        *ListView
	result      *ListResult
	subscribers map[int]func(ListView)
	nextSubID   int
}

// NewListController creates a controller over the module's fields in use
func NewListController(engine *ListEngine, adapter EntityAdapter, fields []models.FieldSchema, grid models.GridConfiguration) *ListController {
	return &ListController{
		engine:      engine,
		adapter:     adapter,
		fields:      models.CloneFields(fields),
		state:       InitialListState(grid),
		subscribers: make(map[int]func(ListView)),
	}
}

// AttachColumnStore loads the saved column selection and persists every
// later change of it
func (c *ListController) AttachColumnStore(ctx context.Context, store *ColumnVisibilityService, table string) error {
	ids, err := store.Load(ctx, c.adapter.Module, table)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.columnStore = store
	c.table = table
	c.state.VisibleColumnIDs = ids
	c.mu.Unlock()
	return c.recompute()
}

// Subscribe registers fn for view updates and returns its cancel function
func (c *ListController) Subscribe(fn func(ListView)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// State returns a copy of the current list state
func (c *ListController) State() models.ListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// View returns the last computed view, or nil before the first recompute
func (c *ListController) View() *ListView {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == nil {
		return nil
	}
	v := *c.view
	return &v
}

// Filtered returns the filtered and sorted records of the last recompute,
// the input of an export
func (c *ListController) Filtered() []models.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return nil
	}
	return append([]models.Record(nil), c.result.Filtered...)
}

// SetRecords replaces the record set
func (c *ListController) SetRecords(records []models.Record) error {
	return c.update(func(s *models.ListState) error {
		c.records = records
		return nil
	})
}

// SetFields replaces the field schema, e.g. after a configuration change.
// A filter expression that references a field no longer present is dropped.
func (c *ListController) SetFields(fields []models.FieldSchema) error {
	return c.update(func(s *models.ListState) error {
		c.fields = models.CloneFields(fields)
		if s.FilterExpr != "" && c.engine.ValidateFilterExpr(s.FilterExpr, c.fields) != nil {
			s.FilterExpr = ""
			s.Page = 0
		}
		return nil
	})
}

// OnSearch sets the global search term and returns to the first page
func (c *ListController) OnSearch(term string) error {
	return c.update(func(s *models.ListState) error {
		s.SearchTerm = term
		s.Page = 0
		return nil
	})
}

// OnSort sorts by field. The current field flips direction, a new field
// starts ascending. Fields marked not sortable are ignored.
func (c *ListController) OnSort(field string) error {
	return c.update(func(s *models.ListState) error {
		for _, f := range c.fields {
			if f.Name == field && !f.GridConfig.Sortable {
				return errNoChange
			}
		}
		if s.Sort.Field == field {
			s.Sort.Direction = s.Sort.Direction.Toggle()
		} else {
			s.Sort = models.SortState{Field: field, Direction: constants.SortAsc}
		}
		return nil
	})
}

// OnFilterSelect sets one custom filter. An empty value or "all" clears it.
func (c *ListController) OnFilterSelect(field string, value interface{}) error {
	return c.update(func(s *models.ListState) error {
		if s.CustomFieldFilters == nil {
			s.CustomFieldFilters = make(map[string]interface{})
		}
		if isActiveFilter(value) {
			s.CustomFieldFilters[field] = value
		} else {
			delete(s.CustomFieldFilters, field)
		}
		s.Page = 0
		return nil
	})
}

// OnFilterExpr sets the advanced filter expression. An expression that
// does not compile or names an unknown field is rejected and the state is
// left unchanged.
func (c *ListController) OnFilterExpr(expr string) error {
	return c.update(func(s *models.ListState) error {
		if err := c.engine.ValidateFilterExpr(expr, c.fields); err != nil {
			return err
		}
		s.FilterExpr = expr
		s.Page = 0
		return nil
	})
}

// OnPageChange moves to page n, clamped to the available pages
func (c *ListController) OnPageChange(n int) error {
	return c.update(func(s *models.ListState) error {
		last := 0
		if c.result != nil && c.result.TotalPages > 0 {
			last = c.result.TotalPages - 1
		}
		if n > last {
			n = last
		}
		if n < 0 {
			n = 0
		}
		s.Page = n
		return nil
	})
}

// OnPageSizeChange changes the page size and returns to the first page
func (c *ListController) OnPageSizeChange(size int) error {
	return c.update(func(s *models.ListState) error {
		s.PageSize = normalizePageSize(size)
		s.Page = 0
		return nil
	})
}

// OnColumnToggle shows or hides one column. Starting from the defaults,
// the first toggle materializes the default selection.
func (c *ListController) OnColumnToggle(ctx context.Context, fieldID string) error {
	var (
		ids   []string
		store *ColumnVisibilityService
		table string
	)
	err := c.update(func(s *models.ListState) error {
		current := s.VisibleColumnIDs
		if len(current) == 0 {
			for _, col := range VisibleColumns(c.fields, nil) {
				current = append(current, col.ID)
			}
		}

		next := make([]string, 0, len(current)+1)
		removed := false
		for _, id := range current {
			if id == fieldID {
				removed = true
				continue
			}
			next = append(next, id)
		}
		if !removed {
			next = append(next, fieldID)
		}
		s.VisibleColumnIDs = next
		ids, store, table = next, c.columnStore, c.table
		return nil
	})
	if err != nil || store == nil {
		return err
	}
	return store.Save(ctx, c.adapter.Module, table, ids)
}

// errNoChange aborts an update without recomputing
var errNoChange = &noChange{}

type noChange struct{}

func (*noChange) Error() string { return "no change" }

// update applies fn to a copy of the state, recomputes and notifies. When
// fn or the pipeline fails the previous state, records and fields are
// kept. fn runs under the controller lock.
func (c *ListController) update(fn func(s *models.ListState) error) error {
	c.mu.Lock()
	prevRecords, prevFields := c.records, c.fields
	next := c.state.Clone()
	if err := fn(&next); err != nil {
		c.records, c.fields = prevRecords, prevFields
		c.mu.Unlock()
		if err == errNoChange {
			return nil
		}
		return err
	}

	prev := c.state
	c.state = next
	view, subscribers, err := c.rebuildLocked()
	if err != nil {
		c.state, c.records, c.fields = prev, prevRecords, prevFields
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	notify(view, subscribers)
	return nil
}

func (c *ListController) recompute() error {
	c.mu.Lock()
	view, subscribers, err := c.rebuildLocked()
	c.mu.Unlock()
	if err != nil {
		return err
	}
	notify(view, subscribers)
	return nil
}

// rebuildLocked runs the pipeline on the current state; c.mu must be held
func (c *ListController) rebuildLocked() (*ListView, []func(ListView), error) {
	view, result, err := c.engine.BuildView(c.records, c.fields, c.adapter, c.state)
	if err != nil {
		return nil, nil, err
	}
	c.view = view
	c.result = result

	subscribers := make([]func(ListView), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subscribers = append(subscribers, fn)
	}
	return view, subscribers, nil
}

func notify(view *ListView, subscribers []func(ListView)) {
	for _, fn := range subscribers {
		fn(*view)
	}
}
