// Package disasm parses objdump-style disassembly listings into an ordered
// index of function blocks.
package disasm

import (
	"strconv"
	"strings"
)

// Kind classifies a body line of a function block.
type Kind int

const (
	KindInstruction  Kind = iota // "<addr>:\t<bytes>\t<mnemonic> <operands>"
	KindContinuation             // trailing bytes of a long encoding, no mnemonic
	KindRelocation               // "<addr>: R_X86_64_PLT32\tsym-0x4" (objdump -r)
	KindMarker                   // synthetic line produced by the analysis
	KindOther                    // indented line we could not decode
)

func (k Kind) String() string {
	switch k {
	case KindInstruction:
		return "instruction"
	case KindContinuation:
		return "continuation"
	case KindRelocation:
		return "relocation"
	case KindMarker:
		return "marker"
	default:
		return "other"
	}
}

// Line is a single line of a disassembly dump.
type Line struct {
	Number   int    // 1-based line number in the dump, 0 for synthetic lines
	Text     string // line text with trailing whitespace removed
	Kind     Kind
	Addr     uint64 // instruction or relocation offset
	Raw      []byte // encoded bytes as printed by the disassembler
	Mnemonic string // lowercase, including prefixes ("data16 cs nopw", "repz retq")
	Operands string
	Symbol   string // relocation target symbol, addend stripped
}

// Marker returns a synthetic line carrying text.
func Marker(text string) Line {
	return Line{Text: text, Kind: KindMarker}
}

// IsIndented reports whether the line belongs to a function body, as opposed
// to a label or a synthetic marker.
func (l Line) IsIndented() bool {
	return l.Text != "" && (l.Text[0] == ' ' || l.Text[0] == '\t')
}

// IsCall reports whether the line is a call instruction.
func (l Line) IsCall() bool {
	if l.Kind != KindInstruction {
		return false
	}
	for _, f := range strings.Fields(l.Mnemonic) {
		switch f {
		case "call", "callq", "calll", "callw":
			return true
		}
	}
	return false
}

// Target extracts the symbol annotation of a call operand:
// "13 <_Z3barv>" -> "_Z3barv", "20 <_Z3foov+0x20>" -> "_Z3foov". The name
// ends at the last '>' so demangled templates keep their brackets.
func (l Line) Target() (string, bool) {
	b := strings.IndexByte(l.Operands, '<')
	e := strings.LastIndexByte(l.Operands, '>')
	if b < 0 || e <= b {
		return "", false
	}
	name := stripOffset(l.Operands[b+1 : e])
	if name == "" {
		return "", false
	}
	return name, true
}

// stripOffset removes a trailing "+0x20" from a symbol annotation.
func stripOffset(name string) string {
	i := strings.LastIndex(name, "+0x")
	if i < 0 {
		return name
	}
	if _, err := strconv.ParseUint(name[i+3:], 16, 64); err != nil {
		return name
	}
	return name[:i]
}

// BaseMnemonic returns the mnemonic without its prefixes ("data16 lea" ->
// "lea"), or "" when the line holds prefixes only.
func (l Line) BaseMnemonic() string {
	fields := strings.Fields(l.Mnemonic)
	if len(fields) == 0 {
		return ""
	}
	last := fields[len(fields)-1]
	if isPrefix(last) {
		return ""
	}
	return last
}

func (l Line) String() string {
	return l.Text
}

// Block is a labelled function with its body in dump order.
type Block struct {
	Label string
	Addr  uint64
	Line  int // line number of the header
	Body  []Line
}

// Instructions returns the number of decoded instruction lines in the body.
func (b *Block) Instructions() int {
	n := 0
	for _, l := range b.Body {
		if l.Kind == KindInstruction {
			n++
		}
	}
	return n
}
