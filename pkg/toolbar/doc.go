// Package toolbar holds the state behind a data-table toolbar: one search
// input per queryable field, faceted filters with selectable options, and the
// table's pagination.
//
// The toolbar does not render anything. Every state-affecting action (search
// submit, option toggle, clear filters, page or limit change) builds a
// tablequery.Params and hands it to the OnSubmit callback, which usually
// writes it to the URL through a tablequery.Syncer and reloads the rows:
//
//	sync := tablequery.NewSyncer(nil, hist)
//	tb := toolbar.New(toolbar.Config{
//	    Queries:     []toolbar.QueryDef{{ID: "email", Label: "Email"}},
//	    Filters:     filters,
//	    ShowFilters: true,
//	    OnSubmit: func(p tablequery.Params) error {
//	        _, err := sync.Push(p)
//	        return err
//	    },
//	})
//	tb.Hydrate(sync.Load())
//
// Query ids are form field names in camelCase. Unless UpperQueries is set
// they are sent as SCREAMING_SNAKE_CASE field names (firstName -> FIRST_NAME).
package toolbar
