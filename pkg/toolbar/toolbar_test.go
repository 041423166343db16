package toolbar

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vango-go/tablequery/pkg/history"
	"github.com/vango-go/tablequery/pkg/tablequery"
)

func statusFilter() tablequery.FilterDef {
	return tablequery.FilterDef{
		ID:    "status",
		Label: "Status",
		Options: []tablequery.FilterOption{
			{Label: "Active", Value: "active"},
			{Label: "Blocked", Value: "blocked"},
		},
	}
}

func newTestToolbar(submitted *[]tablequery.Params) *Toolbar {
	return New(Config{
		Queries: []QueryDef{
			{ID: "firstName", Label: "First name"},
			{ID: "email", Label: "Email"},
		},
		Filters:     []tablequery.FilterDef{statusFilter()},
		ShowFilters: true,
		Limit:       25,
		OnSubmit: func(p tablequery.Params) error {
			*submitted = append(*submitted, p)
			return nil
		},
	})
}

func TestCamelToSnake(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"firstName", "FIRST_NAME"},
		{"email", "EMAIL"},
		{"createdAtDate", "CREATED_AT_DATE"},
		{"ID", "_I_D"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CamelToSnake(tt.in); got != tt.want {
			t.Errorf("CamelToSnake(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToolbar_ClearFilters(t *testing.T) {
	var submitted []tablequery.Params
	tb := newTestToolbar(&submitted)

	tb.SetQueryText("firstName", "Ana")
	if err := tb.ToggleOption("status", "active"); err != nil {
		t.Fatalf("ToggleOption: %v", err)
	}
	if err := tb.SetPage(3); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	if !tb.HasActiveFilters() {
		t.Fatal("HasActiveFilters: got false, want true")
	}

	if err := tb.ClearFilters(); err != nil {
		t.Fatalf("ClearFilters: %v", err)
	}

	last := submitted[len(submitted)-1]
	wantQueries := []tablequery.TextQuery{{Field: "FIRST_NAME", Text: "Ana"}}
	if !reflect.DeepEqual(last.Queries, wantQueries) {
		t.Errorf("Queries = %+v, want %+v", last.Queries, wantQueries)
	}
	if last.Filters == nil || len(last.Filters) != 0 {
		t.Errorf("Filters = %#v, want empty", last.Filters)
	}
	if *last.Page != 1 || *last.Limit != 25 {
		t.Errorf("page/limit = %d/%d, want 1/25", *last.Page, *last.Limit)
	}
	if tb.HasActiveFilters() {
		t.Error("HasActiveFilters after clear: got true")
	}
}

func TestToolbar_UpperQueries(t *testing.T) {
	var got tablequery.Params
	tb := New(Config{
		Queries:      []QueryDef{{ID: "USER_EMAIL"}},
		UpperQueries: true,
		OnSubmit: func(p tablequery.Params) error {
			got = p
			return nil
		},
	})
	tb.SetQueryText("USER_EMAIL", "x@y.z")
	if err := tb.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(got.Queries) != 1 || got.Queries[0].Field != "USER_EMAIL" {
		t.Errorf("Queries = %+v", got.Queries)
	}
	if *got.Limit != 10 || *got.Page != 1 {
		t.Errorf("default pagination = %d/%d", *got.Limit, *got.Page)
	}
}

func TestToolbar_ToggleOption(t *testing.T) {
	var submitted []tablequery.Params
	tb := newTestToolbar(&submitted)

	_ = tb.ToggleOption("status", "blocked")
	_ = tb.ToggleOption("status", "active")
	_ = tb.ToggleOption("status", "blocked")

	last := submitted[len(submitted)-1]
	want := []tablequery.Filter{{ID: "status", Options: []string{"active"}}}
	if !reflect.DeepEqual(last.Filters, want) {
		t.Errorf("Filters = %+v, want %+v", last.Filters, want)
	}

	err := tb.ToggleOption("status", "missing")
	if !errors.Is(err, ErrUnknownFilter) {
		t.Errorf("unknown value: err = %v", err)
	}
	err = tb.ToggleOption("color", "red")
	if !errors.Is(err, ErrUnknownFilter) {
		t.Errorf("unknown filter: err = %v", err)
	}
}

func TestToolbar_HiddenFiltersHaveNoClearAction(t *testing.T) {
	var submitted []tablequery.Params
	tb := newTestToolbar(&submitted)
	_ = tb.ToggleOption("status", "active")

	tb.SetShowFilters(false)
	if tb.HasActiveFilters() {
		t.Error("HasActiveFilters with hidden filters: got true")
	}
}

func TestToolbar_Pagination(t *testing.T) {
	var submitted []tablequery.Params
	tb := newTestToolbar(&submitted)

	if err := tb.SetPage(0); !errors.Is(err, ErrInvalidPage) {
		t.Errorf("SetPage(0) err = %v", err)
	}
	if err := tb.SetLimit(0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("SetLimit(0) err = %v", err)
	}

	_ = tb.SetPage(4)
	page, limit := tb.Pagination()
	if page != 4 || limit != 25 {
		t.Errorf("Pagination = %d/%d, want 4/25", page, limit)
	}

	_ = tb.SetLimit(50)
	page, limit = tb.Pagination()
	if page != 1 || limit != 50 {
		t.Errorf("Pagination after SetLimit = %d/%d, want 1/50", page, limit)
	}
	if len(submitted) != 2 {
		t.Errorf("submissions = %d, want 2", len(submitted))
	}
}

func TestToolbar_SubmitError(t *testing.T) {
	boom := errors.New("boom")
	tb := New(Config{OnSubmit: func(tablequery.Params) error { return boom }})
	if err := tb.Submit(); !errors.Is(err, boom) {
		t.Errorf("Submit err = %v, want boom", err)
	}
}

func TestToolbar_HydrateFromURL(t *testing.T) {
	var submitted []tablequery.Params
	tb := newTestToolbar(&submitted)
	_ = tb.ToggleOption("status", "blocked")

	state := tablequery.Decode("/users?queries[0][field]=EMAIL&queries[0][text]=ana%2540x.com&filters[status][0]=active&page=2&perPage=50&isSelectedAll=true")
	tb.Hydrate(state)

	if got := tb.QueryBadge("email"); got != "ana@x.com" {
		t.Errorf("QueryBadge(email) = %q", got)
	}
	if got := tb.QueryBadge("firstName"); got != "" {
		t.Errorf("QueryBadge(firstName) = %q, want empty", got)
	}
	filters := tb.Filters()
	if !filters[0].Options[0].Selected || filters[0].Options[1].Selected {
		t.Errorf("status selection = %+v", filters[0].Options)
	}
	page, limit := tb.Pagination()
	if page != 2 || limit != 50 {
		t.Errorf("Pagination = %d/%d, want 2/50", page, limit)
	}
	if !tb.SelectedAll() {
		t.Error("SelectedAll: got false")
	}
	if len(submitted) != 1 {
		t.Errorf("Hydrate must not submit, submissions = %d", len(submitted))
	}
}

func TestToolbar_HydrateInvalidPaginationKeepsCurrent(t *testing.T) {
	var submitted []tablequery.Params
	tb := newTestToolbar(&submitted)
	tb.Hydrate(tablequery.Decode("/users?perPage=lots&page=-1"))

	page, limit := tb.Pagination()
	if page != 1 || limit != 25 {
		t.Errorf("Pagination = %d/%d, want 1/25", page, limit)
	}
}

func TestToolbar_SyncsThroughHistory(t *testing.T) {
	hist := history.NewMemory("https://app.example.com/users?tab=all")
	syncer := tablequery.NewSyncer(nil, hist)

	tb := New(Config{
		Queries:     []QueryDef{{ID: "email", Label: "Email"}},
		Filters:     []tablequery.FilterDef{statusFilter()},
		ShowFilters: true,
		OnSubmit: func(p tablequery.Params) error {
			_, err := syncer.Push(p)
			return err
		},
		OnSelectAll: func(selected bool) error {
			_, err := syncer.SetSelectAll(selected)
			return err
		},
	})

	tb.SetQueryText("email", "ana")
	if err := tb.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := tb.ToggleOption("status", "active"); err != nil {
		t.Fatalf("ToggleOption: %v", err)
	}
	if err := tb.SetSelectAll(true); err != nil {
		t.Fatalf("SetSelectAll: %v", err)
	}

	state := syncer.Load()
	if !reflect.DeepEqual(state.Queries, []tablequery.TextQuery{{Field: "EMAIL", Text: "ana"}}) {
		t.Errorf("Queries = %+v", state.Queries)
	}
	if !reflect.DeepEqual(state.Filters, map[string][]string{"status": {"active"}}) {
		t.Errorf("Filters = %+v", state.Filters)
	}
	if !state.IsSelectedAll() {
		t.Error("IsSelectedAll: got false")
	}
	if hist.Len() != 1 {
		t.Errorf("history entries = %d, want 1", hist.Len())
	}

	// A fresh toolbar restores the same state from the URL.
	restored := New(Config{
		Queries: []QueryDef{{ID: "email", Label: "Email"}},
		Filters: []tablequery.FilterDef{statusFilter()},
	})
	restored.Hydrate(syncer.Load())
	if !reflect.DeepEqual(restored.Params(), tb.Params()) {
		t.Errorf("restored params = %+v, want %+v", restored.Params(), tb.Params())
	}
}
