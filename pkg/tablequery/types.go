package tablequery

import (
	"encoding/json"
	"slices"
	"sort"
)

// Default pagination applied when the URL carries none.
const (
	DefaultLimit = 10
	DefaultPage  = 1
)

// TextQuery is a free-text search constraint on a named field.
type TextQuery struct {
	Field string `json:"field"`
	Text  string `json:"text"`
}

// Filter is a facet together with its currently selected option values.
type Filter struct {
	ID      string   `json:"id"`
	Options []string `json:"options"`
}

// Params is the state written by Encode.
//
// Limit and Page are pointers to distinguish "not set" from a value: a nil
// field removes the corresponding key from the URL.
type Params struct {
	Queries []TextQuery `json:"queries"`
	Filters []Filter    `json:"filters"`
	Limit   *int        `json:"limit"`
	Page    *int        `json:"page"`
}

// WithPage returns a copy of p with page and limit set.
func (p Params) WithPage(page, limit int) Params {
	p.Page = &page
	p.Limit = &limit
	return p
}

// State is the table state read back by Decode.
type State struct {
	Queries []TextQuery         `json:"queries"`
	Filters map[string][]string `json:"filters"`
	Limit   Number              `json:"limit"`
	Page    Number              `json:"page"`
	PerPage Number              `json:"perPage"`

	// SelectedAll is nil when the URL has no isSelectedAll key.
	SelectedAll *bool `json:"isSelectedAll,omitempty"`
}

// DefaultState returns the state of a URL without a query string.
func DefaultState() State {
	return State{
		Queries: []TextQuery{},
		Filters: map[string][]string{},
		Limit:   DefaultLimit,
		Page:    DefaultPage,
		PerPage: DefaultLimit,
	}
}

// IsSelectedAll reports whether the select-all flag is set.
func (s State) IsSelectedAll() bool {
	return s.SelectedAll != nil && *s.SelectedAll
}

// Params converts decoded state back into encodable params. Filters are
// ordered by id. Pagination values that are not valid integers are left
// unset.
func (s State) Params() Params {
	p := Params{
		Queries: slices.Clone(s.Queries),
	}
	ids := make([]string, 0, len(s.Filters))
	for id := range s.Filters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p.Filters = append(p.Filters, Filter{ID: id, Options: slices.Clone(s.Filters[id])})
	}
	if v, ok := s.Limit.Int(); ok {
		p.Limit = &v
	}
	if v, ok := s.Page.Int(); ok {
		p.Page = &v
	}
	return p
}

// FilterOption is one selectable value of a facet.
type FilterOption struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// FilterDef is a canonical facet with its static option set.
type FilterDef struct {
	ID      string         `json:"id"`
	Label   string         `json:"label"`
	Icon    string         `json:"icon,omitempty"`
	Options []FilterOption `json:"options"`
}

// SelectedValues returns the values of the selected options, in option order.
func (f FilterDef) SelectedValues() []string {
	var out []string
	for _, o := range f.Options {
		if o.Selected {
			out = append(out, o.Value)
		}
	}
	return out
}

// HasSelection reports whether any option is selected.
func (f FilterDef) HasSelection() bool {
	return slices.ContainsFunc(f.Options, func(o FilterOption) bool { return o.Selected })
}

// clone returns a deep copy of f.
func (f FilterDef) clone() FilterDef {
	f.Options = slices.Clone(f.Options)
	return f
}

// MarshalJSON keeps nil slices and maps rendered as empty collections.
func (s State) MarshalJSON() ([]byte, error) {
	type plain State
	out := plain(s)
	if out.Queries == nil {
		out.Queries = []TextQuery{}
	}
	if out.Filters == nil {
		out.Filters = map[string][]string{}
	}
	return json.Marshal(out)
}
