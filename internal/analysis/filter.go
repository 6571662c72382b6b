package analysis

import (
	"strings"

	"opcount/internal/disasm"
)

// Filter excludes instruction lines that are not a cost the function pays.
type Filter interface {
	// Exclude reports whether l should not be counted.
	Exclude(l disasm.Line) bool
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(l disasm.Line) bool

func (f FilterFunc) Exclude(l disasm.Line) bool { return f(l) }

// FilterChain excludes a line when any of its filters does.
type FilterChain struct {
	filters []Filter
}

// NewFilterChain creates a new filter chain
func NewFilterChain(filters ...Filter) *FilterChain {
	return &FilterChain{
		filters: filters,
	}
}

// Exclude runs all filters in sequence
func (fc *FilterChain) Exclude(l disasm.Line) bool {
	for _, f := range fc.filters {
		if f.Exclude(l) {
			return true
		}
	}
	return false
}

// PaddingFilter excludes alignment padding: prefix-only fillers, the nop
// family (whatever its prefixes) and the two-byte "xchg %ax,%ax". Prefixed
// real instructions such as "data16 lea" are kept.
var PaddingFilter = FilterFunc(func(l disasm.Line) bool {
	switch l.BaseMnemonic() {
	case "", "nop", "nopw", "nopl":
		return true
	case "xchg":
		return strings.ReplaceAll(l.Operands, " ", "") == "%ax,%ax"
	}
	return l.DecodesToNOP()
})

// ReturnFilter excludes return instructions. An inlined callee's return is an
// artifact of the textual substitution.
var ReturnFilter = FilterFunc(func(l disasm.Line) bool {
	for _, tok := range strings.Fields(l.Mnemonic) {
		switch tok {
		case "ret", "retq", "retl", "retw":
			return true
		}
	}
	return false
})

// DefaultFilters is the exclusion set used when none is given.
func DefaultFilters() []Filter {
	return []Filter{PaddingFilter, ReturnFilter}
}
