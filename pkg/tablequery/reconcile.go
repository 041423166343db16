package tablequery

import "slices"

// Reconcile marks the options of each available filter as selected according
// to the URL selection, as returned in State.Filters.
//
// A filter with a non-empty URL entry has exactly the options whose value
// appears in that entry selected. A filter with no entry, or an empty one,
// has every option cleared; prior selection state does not survive. The
// input is not modified.
func Reconcile(selected map[string][]string, available []FilterDef) []FilterDef {
	out := make([]FilterDef, len(available))
	for i, def := range available {
		f := def.clone()
		values := selected[f.ID]
		for j := range f.Options {
			f.Options[j].Selected = len(values) > 0 && slices.Contains(values, f.Options[j].Value)
		}
		out[i] = f
	}
	return out
}

// SelectedFilters converts filter definitions into encodable filters,
// keeping only those with at least one selected option.
func SelectedFilters(defs []FilterDef) []Filter {
	var out []Filter
	for _, d := range defs {
		if values := d.SelectedValues(); len(values) > 0 {
			out = append(out, Filter{ID: d.ID, Options: values})
		}
	}
	return out
}
