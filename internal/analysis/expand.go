package analysis

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"opcount/internal/disasm"
)

// ErrUnknownLabel is returned when expansion starts from a label that is not
// in the index.
var ErrUnknownLabel = errors.New("unknown label")

var discard = log.New(io.Discard)

// expander holds the state of one top-level expansion. onPath contains the
// labels currently being expanded on the recursion path; a label is removed
// again once its body has been spliced, so a function called from two sites
// is inlined at both.
type expander struct {
	idx    *disasm.Index
	onPath map[string]bool
	exp    *Expansion
	logger *log.Logger
}

// Expand inlines, depth first, every call in label's body whose target is
// another function of idx that is not already being expanded.
func Expand(label string, idx *disasm.Index) (*Expansion, error) {
	return expand(label, idx, discard)
}

func expand(label string, idx *disasm.Index, logger *log.Logger) (*Expansion, error) {
	root, ok := idx.Get(label)
	if !ok {
		return nil, fmt.Errorf("expand %q: %w", label, ErrUnknownLabel)
	}
	e := &expander{
		idx:    idx,
		onPath: map[string]bool{label: true},
		exp:    &Expansion{Root: label},
		logger: logger,
	}
	e.block(root, 0)
	return e.exp, nil
}

func (e *expander) block(b *disasm.Block, depth int) {
	body := b.Body
	for i := 0; i < len(body); i++ {
		l := body[i]
		if !l.IsCall() {
			e.exp.Lines = append(e.exp.Lines, l)
			continue
		}

		var reloc *disasm.Line
		if i+1 < len(body) && body[i+1].Kind == disasm.KindRelocation {
			reloc = &body[i+1]
		}
		target, ok := callTarget(l, reloc)
		if !ok {
			e.keep(l, b.Label, "", "no symbol")
			continue
		}
		callee, ok := e.idx.Get(target)
		if !ok {
			e.keep(l, b.Label, target, "not in dump")
			continue
		}
		if e.onPath[target] {
			e.keep(l, b.Label, target, "recursive")
			continue
		}

		if reloc != nil {
			i++
		}
		e.logger.Debug("Inlining call", "caller", b.Label, "callee", target, "line", l.Number, "depth", depth+1)
		e.exp.Edges = append(e.exp.Edges, Edge{Caller: b.Label, Callee: target, Line: l.Number, Depth: depth + 1})
		if depth+1 > e.exp.MaxDepth {
			e.exp.MaxDepth = depth + 1
		}
		e.exp.Lines = append(e.exp.Lines, disasm.Marker(fmt.Sprintf(MarkerFormat, target)))

		e.onPath[target] = true
		e.block(callee, depth+1)
		delete(e.onPath, target)
	}
}

func (e *expander) keep(l disasm.Line, caller, target, reason string) {
	e.logger.Debug("Keeping call", "caller", caller, "target", target, "line", l.Number, "reason", reason)
	e.exp.Lines = append(e.exp.Lines, l)
	e.exp.Kept = append(e.exp.Kept, KeptCall{Caller: caller, Callee: target, Reason: reason, Line: l})
}

// callTarget returns the callee of a call line. In relocatable objects the
// call operand points back into the caller ("callq 9 <foo+0x9>") and the real
// target is carried by the relocation record patched into the call's bytes.
func callTarget(call disasm.Line, reloc *disasm.Line) (string, bool) {
	if reloc != nil && reloc.Symbol != "" && patches(call, *reloc) {
		return reloc.Symbol, true
	}
	return call.Target()
}

func patches(call, reloc disasm.Line) bool {
	if len(call.Raw) == 0 {
		return true
	}
	return reloc.Addr > call.Addr && reloc.Addr < call.Addr+uint64(len(call.Raw))
}
