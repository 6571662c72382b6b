package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"opcount/internal/analysis"
	"opcount/internal/callgraph"
	"opcount/internal/ui/colorize"
)

// JSONOutput represents the JSON output structure for regression testing
type JSONOutput struct {
	Dump       string          `json:"dump"`
	Target     string          `json:"target"`
	Function   string          `json:"function,omitempty"`
	Demangled  string          `json:"demangled,omitempty"`
	Count      int             `json:"count"`
	Functions  int             `json:"functions"`
	Candidates []string        `json:"candidates,omitempty"`
	Inlined    []InlinedCall   `json:"inlined,omitempty"`
	Kept       []KeptCallInfo  `json:"kept,omitempty"`
	Duplicates []DuplicateInfo `json:"duplicates,omitempty"`
	Listing    []string        `json:"listing"`
}

// InlinedCall is one call that was replaced by its callee's body.
type InlinedCall struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
	Line   int    `json:"line"`
	Depth  int    `json:"depth"`
}

// KeptCallInfo is a call that stayed in the listing.
type KeptCallInfo struct {
	Caller string `json:"caller"`
	Callee string `json:"callee,omitempty"`
	Reason string `json:"reason"`
	Line   int    `json:"line"`
}

// DuplicateInfo is a label defined more than once.
type DuplicateInfo struct {
	Label string `json:"label"`
	First int    `json:"first"`
	Last  int    `json:"last"`
}

func newJSONOutput(dump string, res *analysis.Result) JSONOutput {
	out := JSONOutput{
		Dump:       dump,
		Target:     res.Target,
		Function:   res.Label,
		Count:      res.Count,
		Functions:  res.Functions,
		Candidates: res.Candidates,
		Listing:    res.Listing(),
	}
	if out.Listing == nil {
		out.Listing = []string{}
	}
	if res.Label != "" {
		if d := analysis.CachedDemangle(res.Label); d != res.Label {
			out.Demangled = d
		}
	}
	for _, d := range res.Duplicates {
		out.Duplicates = append(out.Duplicates, DuplicateInfo{Label: d.Label, First: d.First, Last: d.Last})
	}
	if res.Expansion != nil {
		for _, e := range res.Expansion.Edges {
			out.Inlined = append(out.Inlined, InlinedCall{Caller: e.Caller, Callee: e.Callee, Line: e.Line, Depth: e.Depth})
		}
		for _, k := range res.Expansion.Kept {
			out.Kept = append(out.Kept, KeptCallInfo{Caller: k.Caller, Callee: k.Callee, Reason: k.Reason, Line: k.Line.Number})
		}
	}
	return out
}

func writeJSON(w io.Writer, dump string, res *analysis.Result) error {
	jsonData, err := json.MarshalIndent(newJSONOutput(dump, res), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

// summaryLines describes a result as "; "-prefixed lines.
func summaryLines(dump string, res *analysis.Result) []string {
	lines := []string{fmt.Sprintf("; %s", dump)}
	if !res.Found() {
		lines = append(lines,
			fmt.Sprintf("; No call to '%s' found.", res.Target),
			fmt.Sprintf("; %d functions in dump", res.Functions),
		)
		return lines
	}

	name := res.Label
	if d := analysis.CachedDemangle(res.Label); d != res.Label {
		name = fmt.Sprintf("%s (%s)", res.Label, d)
	}
	lines = append(lines, fmt.Sprintf("; %s", name))
	if len(res.Candidates) > 1 {
		lines = append(lines, fmt.Sprintf("; %d labels match '%s', using the last", len(res.Candidates), res.Target))
	}
	exp := res.Expansion
	lines = append(lines,
		fmt.Sprintf("; %d functions in dump", res.Functions),
		fmt.Sprintf("; %d calls inlined, %d kept, depth %d", len(exp.Edges), len(exp.Kept), exp.MaxDepth),
	)
	for _, d := range res.Duplicates {
		lines = append(lines, fmt.Sprintf("; label %s redefined at line %d (first at %d)", d.Label, d.Last, d.First))
	}
	lines = append(lines, "", fmt.Sprintf("%d instructions", res.Count))
	return lines
}

// summaryMarkdown renders a result for glamour.
func summaryMarkdown(dump string, res *analysis.Result) string {
	return fmt.Sprintf("# opcount\n\n```\n%s\n```", strings.Join(summaryLines(dump, res), "\n"))
}

// writeSummary prints the plain text summary and, with full, the listing.
func writeSummary(w io.Writer, dump string, res *analysis.Result, full bool) {
	fmt.Fprintln(w, "# opcount")
	fmt.Fprintln(w)
	for _, l := range summaryLines(dump, res) {
		fmt.Fprintln(w, l)
	}
	if !full || res.Expansion == nil {
		return
	}
	fmt.Fprintln(w)
	for _, l := range colorize.ColorizeListing(res.Expansion.Lines) {
		fmt.Fprintln(w, l)
	}
}

// writeArtifacts writes the listing and inline graph files when requested.
func writeArtifacts(res *analysis.Result, listingPath, graphPath string) error {
	if listingPath != "" && res.Found() {
		data := strings.Join(res.Listing(), "\n") + "\n"
		if err := os.WriteFile(listingPath, []byte(data), 0o644); err != nil {
			return fmt.Errorf("write listing: %w", err)
		}
	}
	if graphPath != "" && res.Found() {
		dot := callgraph.DOT(res.Expansion, res.Label)
		if err := os.WriteFile(graphPath, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write graph: %w", err)
		}
	}
	return nil
}
