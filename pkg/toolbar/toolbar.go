package toolbar

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/vango-go/tablequery/pkg/tablequery"
)

var (
	// ErrUnknownFilter is returned when toggling an option of a filter or
	// value the toolbar does not know.
	ErrUnknownFilter = errors.New("toolbar: unknown filter option")

	// ErrInvalidPage is returned for a page below 1.
	ErrInvalidPage = errors.New("toolbar: page must be at least 1")

	// ErrInvalidLimit is returned for a limit below 1.
	ErrInvalidLimit = errors.New("toolbar: limit must be positive")
)

// QueryDef declares a searchable field.
type QueryDef struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Config configures a Toolbar.
type Config struct {
	Queries []QueryDef
	Filters []tablequery.FilterDef

	// ShowFilters makes the facet buttons visible.
	ShowFilters bool

	// UpperQueries sends query ids verbatim instead of converting them with
	// CamelToSnake.
	UpperQueries bool

	// Limit and Page default to tablequery.InitialPagination.
	Limit int
	Page  int

	// OnSubmit receives the table state after every state-affecting action.
	OnSubmit func(tablequery.Params) error

	// OnSelectAll receives select-all changes.
	OnSelectAll func(bool) error
}

// Toolbar is the state of one table toolbar. It is safe for concurrent use;
// callbacks run without the lock held.
type Toolbar struct {
	mu          sync.RWMutex
	queries     []QueryDef
	filters     []tablequery.FilterDef
	values      map[string]string
	showFilters bool
	upper       bool
	limit       int
	page        int
	selectedAll bool

	onSubmit    func(tablequery.Params) error
	onSelectAll func(bool) error
}

// New creates a toolbar. Filter definitions are copied.
func New(cfg Config) *Toolbar {
	t := &Toolbar{
		queries:     slices.Clone(cfg.Queries),
		filters:     tablequery.Reconcile(selectionOf(cfg.Filters), cfg.Filters),
		values:      make(map[string]string),
		showFilters: cfg.ShowFilters,
		upper:       cfg.UpperQueries,
		limit:       cfg.Limit,
		page:        cfg.Page,
		onSubmit:    cfg.OnSubmit,
		onSelectAll: cfg.OnSelectAll,
	}
	if t.limit <= 0 {
		t.limit = tablequery.InitialPagination.Limit
	}
	if t.page <= 0 {
		t.page = tablequery.InitialPagination.Page
	}
	return t
}

// selectionOf returns the current selection of defs as a URL-style mapping.
func selectionOf(defs []tablequery.FilterDef) map[string][]string {
	out := make(map[string][]string, len(defs))
	for _, d := range defs {
		out[d.ID] = d.SelectedValues()
	}
	return out
}

// fieldName returns the wire field name of a query id.
func (t *Toolbar) fieldName(id string) string {
	if t.upper {
		return id
	}
	return CamelToSnake(id)
}

// Queries returns the query definitions.
func (t *Toolbar) Queries() []QueryDef {
	return slices.Clone(t.queries)
}

// Filters returns a copy of the filter definitions with their selection.
func (t *Toolbar) Filters() []tablequery.FilterDef {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return tablequery.Reconcile(selectionOf(t.filters), t.filters)
}

// SetQueryText updates the search input of query id. It does not submit.
func (t *Toolbar) SetQueryText(id, text string) {
	t.mu.Lock()
	t.values[id] = text
	t.mu.Unlock()
}

// QueryBadge returns the text shown next to the label of query id; empty when
// nothing is typed.
func (t *Toolbar) QueryBadge(id string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.values[id]
}

// ShowFilters reports whether facet buttons are visible.
func (t *Toolbar) ShowFilters() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.showFilters
}

// SetShowFilters toggles facet visibility.
func (t *Toolbar) SetShowFilters(show bool) {
	t.mu.Lock()
	t.showFilters = show
	t.mu.Unlock()
}

// HasActiveFilters reports whether the "clear filters" action is available:
// filters are visible and at least one option is selected.
func (t *Toolbar) HasActiveFilters() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.showFilters {
		return false
	}
	return slices.ContainsFunc(t.filters, tablequery.FilterDef.HasSelection)
}

// Pagination returns the current page and limit.
func (t *Toolbar) Pagination() (page, limit int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.page, t.limit
}

// SelectedAll reports the select-all flag.
func (t *Toolbar) SelectedAll() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selectedAll
}

// Params returns the current table state.
func (t *Toolbar) Params() tablequery.Params {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paramsLocked()
}

func (t *Toolbar) paramsLocked() tablequery.Params {
	return tablequery.Params{
		Queries: t.queriesLocked(),
		Filters: tablequery.SelectedFilters(t.filters),
	}.WithPage(t.page, t.limit)
}

// queriesLocked builds text queries from the non-empty search inputs, in
// declaration order.
func (t *Toolbar) queriesLocked() []tablequery.TextQuery {
	var out []tablequery.TextQuery
	for _, q := range t.queries {
		text := t.values[q.ID]
		if text == "" {
			continue
		}
		out = append(out, tablequery.TextQuery{Field: t.fieldName(q.ID), Text: text})
	}
	return out
}

// Submit submits the search inputs. The table goes back to the first page.
func (t *Toolbar) Submit() error {
	t.mu.Lock()
	t.page = 1
	p := t.paramsLocked()
	t.mu.Unlock()
	return t.submit(p)
}

// ToggleOption flips one option of a filter and submits from the first page.
func (t *Toolbar) ToggleOption(filterID, value string) error {
	t.mu.Lock()
	fi := slices.IndexFunc(t.filters, func(f tablequery.FilterDef) bool { return f.ID == filterID })
	if fi < 0 {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownFilter, filterID)
	}
	options := t.filters[fi].Options
	oi := slices.IndexFunc(options, func(o tablequery.FilterOption) bool { return o.Value == value })
	if oi < 0 {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s=%s", ErrUnknownFilter, filterID, value)
	}
	options[oi].Selected = !options[oi].Selected
	t.page = 1
	p := t.paramsLocked()
	t.mu.Unlock()
	return t.submit(p)
}

// ClearFilters deselects every option and submits the current search inputs
// with no filters, the current limit and page 1.
func (t *Toolbar) ClearFilters() error {
	t.mu.Lock()
	t.filters = tablequery.Reconcile(nil, t.filters)
	t.page = 1
	p := tablequery.Params{
		Queries: t.queriesLocked(),
		Filters: []tablequery.Filter{},
	}.WithPage(1, t.limit)
	t.mu.Unlock()
	return t.submit(p)
}

// SetPage moves to page and submits.
func (t *Toolbar) SetPage(page int) error {
	if page < 1 {
		return ErrInvalidPage
	}
	t.mu.Lock()
	t.page = page
	p := t.paramsLocked()
	t.mu.Unlock()
	return t.submit(p)
}

// SetLimit changes the page size, returns to the first page and submits.
func (t *Toolbar) SetLimit(limit int) error {
	if limit < 1 {
		return ErrInvalidLimit
	}
	t.mu.Lock()
	t.limit = limit
	t.page = 1
	p := t.paramsLocked()
	t.mu.Unlock()
	return t.submit(p)
}

// SetSelectAll changes the select-all flag and reports it to OnSelectAll.
func (t *Toolbar) SetSelectAll(selected bool) error {
	t.mu.Lock()
	t.selectedAll = selected
	fn := t.onSelectAll
	t.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(selected)
}

// Hydrate loads state decoded from a URL. Search inputs are matched by wire
// field name, filter selection is reconciled (filters absent from the state
// are cleared) and invalid pagination keeps the current values. Nothing is
// submitted.
func (t *Toolbar) Hydrate(s tablequery.State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.values = make(map[string]string)
	for _, def := range t.queries {
		field := t.fieldName(def.ID)
		for _, q := range s.Queries {
			if q.Field == field {
				t.values[def.ID] = q.Text
			}
		}
	}
	t.filters = tablequery.Reconcile(s.Filters, t.filters)
	if v, ok := s.Limit.Int(); ok && v > 0 {
		t.limit = v
	}
	if v, ok := s.Page.Int(); ok && v > 0 {
		t.page = v
	}
	t.selectedAll = s.IsSelectedAll()
}

func (t *Toolbar) submit(p tablequery.Params) error {
	if t.onSubmit == nil {
		return nil
	}
	return t.onSubmit(p)
}
