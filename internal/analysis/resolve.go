package analysis

import (
	"fmt"
	"strings"

	"opcount/internal/disasm"
)

// Matcher decides whether a label in the dump answers a search string.
type Matcher interface {
	Match(target, label string) bool
}

// PrefixMatcher accepts labels that start with the target and are not an
// offset-qualified duplicate of a symbol ("+-0x..." annotations).
type PrefixMatcher struct{}

func (PrefixMatcher) Match(target, label string) bool {
	return strings.HasPrefix(label, target) && !strings.Contains(label, negativeOffset)
}

// ExactMatcher accepts only the label itself.
type ExactMatcher struct{}

func (ExactMatcher) Match(target, label string) bool {
	return label == target
}

// DemangledMatcher matches the target as a prefix of the demangled label, so
// that "test1(" finds "_Z5test1v".
type DemangledMatcher struct{}

func (DemangledMatcher) Match(target, label string) bool {
	if strings.Contains(label, negativeOffset) {
		return false
	}
	return strings.HasPrefix(CachedDemangle(label), target)
}

// MatcherByName returns the matcher configured as name.
func MatcherByName(name string) (Matcher, error) {
	switch strings.ToLower(name) {
	case "", "prefix":
		return PrefixMatcher{}, nil
	case "exact":
		return ExactMatcher{}, nil
	case "demangled":
		return DemangledMatcher{}, nil
	default:
		return nil, fmt.Errorf("unknown matcher %q (want prefix, exact or demangled)", name)
	}
}

// Resolve finds the label for target. Matchers are tried in order and the
// first one with any hit decides; within a matcher the last matching label in
// index order wins. With no matchers the prefix rule applies.
func Resolve(target string, idx *disasm.Index, matchers ...Matcher) (string, bool) {
	if len(matchers) == 0 {
		matchers = []Matcher{PrefixMatcher{}}
	}
	for _, m := range matchers {
		if label, ok := resolveWith(target, idx, m); ok {
			return label, true
		}
	}
	return "", false
}

func resolveWith(target string, idx *disasm.Index, m Matcher) (string, bool) {
	var (
		found string
		ok    bool
	)
	for _, label := range idx.Labels() {
		if m.Match(target, label) {
			found, ok = label, true
		}
	}
	return found, ok
}

// Candidates lists every label any of the matchers accepts, in index order.
func Candidates(target string, idx *disasm.Index, matchers ...Matcher) []string {
	if len(matchers) == 0 {
		matchers = []Matcher{PrefixMatcher{}}
	}
	var out []string
	for _, label := range idx.Labels() {
		for _, m := range matchers {
			if m.Match(target, label) {
				out = append(out, label)
				break
			}
		}
	}
	return out
}
