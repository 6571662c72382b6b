package analysis

import (
	"opcount/internal/disasm"
)

// IsCounted reports whether l is a real instruction under the given filters.
// Markers, relocations and continuation bytes are never counted.
func IsCounted(l disasm.Line, filter Filter) bool {
	if l.Kind != disasm.KindInstruction || !l.IsIndented() {
		return false
	}
	return filter == nil || !filter.Exclude(l)
}

// Count returns the number of real instructions in lines. Without filters
// the DefaultFilters exclusion set applies.
func Count(lines []disasm.Line, filters ...Filter) int {
	if len(filters) == 0 {
		filters = DefaultFilters()
	}
	chain := NewFilterChain(filters...)

	n := 0
	for _, l := range lines {
		if IsCounted(l, chain) {
			n++
		}
	}
	return n
}
