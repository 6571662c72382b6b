// Package analysis inlines calls within an objdump listing and counts the
// machine instructions of the fully inlined function.
package analysis

const (
	// NotFound is the count reported when no label matches the requested function.
	NotFound = -1

	// MarkerFormat introduces the spliced body of an inlined callee.
	MarkerFormat = ";Expansion of '%s'"

	// negativeOffset marks offset-qualified duplicates of a symbol, which
	// are never valid resolution targets.
	negativeOffset = "-0x"
)
