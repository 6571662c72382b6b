package analysis

import (
	"opcount/internal/disasm"
)

// Edge is a call that was inlined during expansion.
type Edge struct {
	Caller string
	Callee string
	Line   int // line number of the call instruction in the dump
	Depth  int // nesting level of the callee, 1 for calls made by the root
}

// KeptCall is a call instruction left in place. Callee is empty when the
// operand carries no symbol.
type KeptCall struct {
	Caller string
	Callee string
	Reason string // "no symbol", "not in dump" or "recursive"
	Line   disasm.Line
}

// Expansion is the fully inlined body of a function.
type Expansion struct {
	Root     string
	Lines    []disasm.Line
	Edges    []Edge
	Kept     []KeptCall
	MaxDepth int
}

// Listing returns the text of every expanded line.
func (e *Expansion) Listing() []string {
	out := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		out[i] = l.Text
	}
	return out
}

// Result is the outcome of analyzing one function of one dump.
type Result struct {
	Target     string // search string supplied by the caller
	Label      string // resolved label, empty when not found
	Count      int    // NotFound when the target could not be resolved
	Functions  int    // number of labels in the dump
	Candidates []string
	Duplicates []disasm.Duplicate
	Expansion  *Expansion
}

// Found reports whether the target resolved to a label.
func (r *Result) Found() bool {
	return r != nil && r.Count != NotFound
}

// Listing returns the expanded lines, or nil when the target was not found.
func (r *Result) Listing() []string {
	if r == nil || r.Expansion == nil {
		return nil
	}
	return r.Expansion.Listing()
}
