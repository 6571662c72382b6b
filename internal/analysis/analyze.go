package analysis

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"opcount/internal/disasm"
)

// ErrDuplicateLabel is returned in strict mode when a dump defines a label
// more than once.
var ErrDuplicateLabel = errors.New("duplicate label")

// Analyzer resolves, expands and counts functions of a dump.
// The zero value uses the prefix matcher and the default exclusion set.
type Analyzer struct {
	Matchers []Matcher
	Filters  []Filter
	Strict   bool // fail on redefined labels instead of keeping the last one
	Logger   *log.Logger
}

func (a *Analyzer) logger() *log.Logger {
	if a == nil || a.Logger == nil {
		return discard
	}
	return a.Logger
}

// Run parses the dump read from r and analyzes target in it. Errors are
// limited to reading r and strict-mode duplicates; an unresolved target is
// reported through Result.Count.
func (a *Analyzer) Run(r io.Reader, target string) (*Result, error) {
	idx, err := disasm.Parse(r)
	if err != nil {
		return nil, err
	}
	return a.RunIndex(idx, target)
}

// RunIndex analyzes target in an already parsed dump.
func (a *Analyzer) RunIndex(idx *disasm.Index, target string) (*Result, error) {
	lg := a.logger()

	res := &Result{
		Target:     target,
		Count:      NotFound,
		Functions:  idx.Len(),
		Duplicates: idx.Duplicates(),
	}
	for _, d := range res.Duplicates {
		lg.Warn("Label defined twice, keeping last", "label", d.Label, "first", d.First, "last", d.Last)
	}
	if a != nil && a.Strict && len(res.Duplicates) > 0 {
		labels := make([]string, len(res.Duplicates))
		for i, d := range res.Duplicates {
			labels[i] = d.Label
		}
		return res, fmt.Errorf("%w: %s", ErrDuplicateLabel, strings.Join(labels, ", "))
	}

	var matchers []Matcher
	var filters []Filter
	if a != nil {
		matchers, filters = a.Matchers, a.Filters
	}

	res.Candidates = Candidates(target, idx, matchers...)
	if len(res.Candidates) > 1 {
		lg.Debug("Several functions match", "target", target, "matches", res.Candidates)
	}
	label, ok := Resolve(target, idx, matchers...)
	if !ok {
		lg.Debug("No function matches", "target", target, "functions", idx.Len())
		return res, nil
	}
	res.Label = label

	exp, err := expand(label, idx, lg)
	if err != nil {
		return nil, err
	}
	res.Expansion = exp
	res.Count = Count(exp.Lines, filters...)
	lg.Debug("Expanded function", "label", label, "lines", len(exp.Lines), "inlined", len(exp.Edges), "count", res.Count)
	return res, nil
}

// Analyze counts the fully inlined instructions of target in a dump held in
// memory. It returns NotFound and no listing when target matches no label.
func Analyze(text, target string) (int, []string) {
	res, err := (&Analyzer{}).RunIndex(disasm.ParseString(text), target)
	if err != nil || !res.Found() {
		return NotFound, nil
	}
	return res.Count, res.Listing()
}
