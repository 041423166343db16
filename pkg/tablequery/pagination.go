package tablequery

// PageInfo is the pagination metadata returned by a paginated list query.
type PageInfo struct {
	Count       int  `json:"count"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
	Limit       int  `json:"limit"`
	Page        int  `json:"page"`
}

// PaginationLabels names the rows in pagination controls.
type PaginationLabels struct {
	Plural string `json:"plural"`
	Single string `json:"single"`
}

// Pagination is the state of a table's pagination controls.
type Pagination struct {
	HasNextPage bool             `json:"hasNextPage"`
	HasPrevPage bool             `json:"hasPrevPage"`
	Limit       int              `json:"limit"`
	Page        int              `json:"page"`
	Labels      PaginationLabels `json:"labels"`
}

// InitialPagination is the pagination of a freshly opened table.
var InitialPagination = struct {
	Limit int
	Page  int
}{Limit: DefaultLimit, Page: DefaultPage}

// FormatPagination builds control state from list metadata. A nil info, or a
// zero limit or page, falls back to the defaults.
func FormatPagination(info *PageInfo) Pagination {
	p := Pagination{
		Limit:  DefaultLimit,
		Page:   DefaultPage,
		Labels: PaginationLabels{Plural: "Items", Single: "Item"},
	}
	if info == nil {
		return p
	}
	p.HasNextPage = info.HasNextPage
	p.HasPrevPage = info.HasPrevPage
	if info.Limit > 0 {
		p.Limit = info.Limit
	}
	if info.Page > 0 {
		p.Page = info.Page
	}
	return p
}
