package derive

import "snapshot-keeper/internal/domain"

// Preserve carries the sentiment side entry of the previously persisted list
// over to a freshly ranked one. previous == nil means there was nothing to
// read. The result holds at most one side entry, and the previously persisted
// one wins over any stray copy in fresh. Inputs are never modified.
func Preserve(fresh, previous domain.DerivedList) domain.DerivedList {
	out := make(domain.DerivedList, 0, len(fresh)+1)

	idx := previous.FindSymbol(domain.SideEntrySymbol)
	if idx < 0 {
		return append(out, fresh...)
	}

	for _, e := range fresh {
		if e.Symbol != domain.SideEntrySymbol {
			out = append(out, e)
		}
	}
	return append(out, previous[idx])
}

// UpsertSideEntry replaces the side entry in list, keeping its position, or
// appends it when absent. Duplicate side entries collapse into one.
func UpsertSideEntry(list domain.DerivedList, entry domain.DerivedEntry) domain.DerivedList {
	entry.Symbol = domain.SideEntrySymbol

	out := make(domain.DerivedList, 0, len(list)+1)
	replaced := false
	for _, e := range list {
		if e.Symbol != domain.SideEntrySymbol {
			out = append(out, e)
			continue
		}
		if !replaced {
			out = append(out, entry)
			replaced = true
		}
	}
	if !replaced {
		out = append(out, entry)
	}
	return out
}
