// Package tablequery maps data-table state to and from a URL query string.
//
// Table state (free-text queries, faceted filter selections, pagination and
// the select-all flag) is written to the URL so it survives navigation and can
// be shared as a link. The wire format is:
//
//	queries[<i>][field]=<percent-encoded string>
//	queries[<i>][text]=<percent-encoded string>
//	filters[<filterId>][<j>]=<percent-encoded string>
//	perPage=<integer>
//	page=<integer>
//	isSelectedAll=true
//
// Values are passed through encodeURIComponent before form encoding, so a
// value appears double-escaped in the raw query string. Indices are
// zero-based; the order in which parameters appear does not matter.
//
// # Encoding
//
// Encode is a full replace of the keys it owns. Every existing key that
// starts with "queries" or "filters", and the perPage and page keys, are
// removed before the new state is written. Unrelated parameters survive.
//
//	next, err := tablequery.Encode("https://app.example.com/users?tab=all", tablequery.Params{
//	    Queries: []tablequery.TextQuery{{Field: "EMAIL", Text: "ana@"}},
//	    Filters: []tablequery.Filter{{ID: "status", Options: []string{"active"}}},
//	}.WithPage(1, 25))
//
// # Decoding
//
// Decode never fails. Unknown or malformed keys are ignored, query entries
// missing a field or a text are dropped, filter option gaps are compacted and
// missing pagination falls back to page 1 with 10 rows.
//
// # Writing to a history
//
// The codec itself is pure. A Syncer binds it to a history.History and
// performs the read-modify-replace cycle under a lock.
package tablequery
