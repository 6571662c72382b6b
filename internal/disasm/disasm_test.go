package disasm

import (
	"reflect"
	"strings"
	"testing"
)

var sample = []string{
	"",
	"test.o:     file format elf64-x86-64",
	"",
	"",
	"Disassembly of section .text:",
	"",
	"0000000000000000 <_Z3barv>:",
	"   0:\tb8 2a 00 00 00       \tmov    $0x2a,%eax",
	"   5:\tc3                   \tretq   ",
	"   6:\t66 2e 0f 1f 84 00 00 \tnopw   %cs:0x0(%rax,%rax,1)",
	"   d:\t00 00 00 ",
	"",
	"0000000000000010 <_Z3foov>:",
	"  10:\t53                   \tpush   %rbx",
	"  11:\te8 00 00 00 00       \tcallq  16 <_Z3foov+0x6>",
	"\t\t\t12: R_X86_64_PLT32\t_Z3barv-0x4",
	"  16:\t5b                   \tpop    %rbx",
	"  17:\tc3                   \tretq   ",
}

func TestParseBlocks(t *testing.T) {
	idx := ParseLines(sample)

	if idx.Len() != 2 {
		t.Fatalf("got %d blocks, want 2", idx.Len())
	}
	if got, want := idx.Labels(), []string{"_Z3barv", "_Z3foov"}; !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}

	bar, ok := idx.Get("_Z3barv")
	if !ok {
		t.Fatal("_Z3barv not indexed")
	}
	if bar.Line != 7 {
		t.Errorf("bar header line = %d, want 7", bar.Line)
	}
	wantKinds := []Kind{KindInstruction, KindInstruction, KindInstruction, KindContinuation}
	if len(bar.Body) != len(wantKinds) {
		t.Fatalf("bar body has %d lines, want %d", len(bar.Body), len(wantKinds))
	}
	for i, k := range wantKinds {
		if bar.Body[i].Kind != k {
			t.Errorf("bar body[%d] kind = %s, want %s", i, bar.Body[i].Kind, k)
		}
	}
	if bar.Body[0].Mnemonic != "mov" || bar.Body[0].Operands != "$0x2a,%eax" {
		t.Errorf("bar body[0] = %q %q", bar.Body[0].Mnemonic, bar.Body[0].Operands)
	}
	if bar.Body[1].Number != 9 {
		t.Errorf("bar body[1] line number = %d, want 9", bar.Body[1].Number)
	}
	if bar.Instructions() != 3 {
		t.Errorf("bar instructions = %d, want 3", bar.Instructions())
	}

	foo, _ := idx.Get("_Z3foov")
	if foo.Addr != 0x10 {
		t.Errorf("foo addr = 0x%x, want 0x10", foo.Addr)
	}
	if len(foo.Body) != 5 {
		t.Fatalf("foo body has %d lines, want 5", len(foo.Body))
	}
	if !foo.Body[1].IsCall() {
		t.Errorf("foo body[1] should be a call: %q", foo.Body[1].Text)
	}
	reloc := foo.Body[2]
	if reloc.Kind != KindRelocation || reloc.Symbol != "_Z3barv" || reloc.Addr != 0x12 {
		t.Errorf("relocation = %+v", reloc)
	}
}

func TestParseTerminators(t *testing.T) {
	lines := []string{
		"0000000000000000 <a>:",
		"   0:\tc3                   \tretq   ",
		"Disassembly of section .text.startup:",
		"   1:\t90                   \tnop",
		"0000000000000000 <b>:",
		"   0:\t90                   \tnop",
		"   1:\tc3                   \tretq   ",
	}
	idx := ParseLines(lines)
	if idx.Len() != 2 {
		t.Fatalf("got %d blocks, want 2", idx.Len())
	}
	a, _ := idx.Get("a")
	if len(a.Body) != 1 {
		t.Errorf("a body has %d lines, want 1", len(a.Body))
	}
	b, _ := idx.Get("b")
	if len(b.Body) != 2 {
		t.Errorf("b body has %d lines, want 2", len(b.Body))
	}
}

func TestParseDuplicateLabels(t *testing.T) {
	lines := []string{
		"0000000000000000 <dup>:",
		"   0:\tc3                   \tretq   ",
		"0000000000000010 <other>:",
		"  10:\tc3                   \tretq   ",
		"0000000000000020 <dup>:",
		"  20:\t90                   \tnop",
		"  21:\tc3                   \tretq   ",
	}
	idx := ParseLines(lines)
	if idx.Len() != 2 {
		t.Fatalf("got %d blocks, want 2", idx.Len())
	}
	if got := idx.Labels(); got[0] != "dup" || got[1] != "other" {
		t.Errorf("labels = %v, want first-insertion order", got)
	}
	dup, _ := idx.Get("dup")
	if dup.Addr != 0x20 || len(dup.Body) != 2 {
		t.Errorf("dup = %+v, want last definition", dup)
	}
	dups := idx.Duplicates()
	if len(dups) != 1 || dups[0] != (Duplicate{Label: "dup", First: 1, Last: 5}) {
		t.Errorf("duplicates = %+v", dups)
	}
}

func TestParseHeaderCount(t *testing.T) {
	var lines []string
	names := []string{"f0", "f1", "f2", "f3", "f4"}
	for _, n := range names {
		lines = append(lines, "0000000000000000 <"+n+">:", "   0:\tc3                   \tretq   ", "")
	}
	if got := ParseLines(lines).Len(); got != len(names) {
		t.Errorf("got %d blocks, want %d", got, len(names))
	}
}

func TestParseIdempotent(t *testing.T) {
	a := ParseLines(sample)
	b := ParseLines(sample)
	if !reflect.DeepEqual(a.Blocks(), b.Blocks()) {
		t.Error("parsing the same text twice produced different blocks")
	}
}

func TestParseReader(t *testing.T) {
	text := strings.Join(sample, "\n")
	fromReader, err := Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(fromReader.Blocks(), ParseString(text).Blocks()) {
		t.Error("Parse and ParseString disagree")
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"only blanks", "\n\n   \n"},
		{"garbage", "hello\n\tworld\n<nope>:\n"},
		{"body before header", "   0:\tc3\tretq\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseString(tt.input).Len(); got != 0 {
				t.Errorf("got %d blocks, want 0", got)
			}
		})
	}
}

func TestSplitMnemonic(t *testing.T) {
	tests := []struct {
		asm      string
		mnemonic string
		operands string
	}{
		{"callq  13 <_Z3barv>", "callq", "13 <_Z3barv>"},
		{"data16 cs nopw 0x0(%rax,%rax,1)", "data16 cs nopw", "0x0(%rax,%rax,1)"},
		{"repz retq", "repz retq", ""},
		{"xchg   %ax,%ax", "xchg", "%ax,%ax"},
		{"NOP", "nop", ""},
	}
	for _, tt := range tests {
		t.Run(tt.asm, func(t *testing.T) {
			mn, ops := splitMnemonic(tt.asm)
			if mn != tt.mnemonic || ops != tt.operands {
				t.Errorf("splitMnemonic(%q) = (%q, %q), want (%q, %q)", tt.asm, mn, ops, tt.mnemonic, tt.operands)
			}
		})
	}
}

func TestTarget(t *testing.T) {
	tests := []struct {
		operands string
		want     string
		ok       bool
	}{
		{"13 <_Z3barv>", "_Z3barv", true},
		{"20 <_Z5test1v+0x20>", "_Z5test1v", true},
		{"*%rax", "", false},
		{"0 <>", "", false},
		{"20 <std::vector<int, std::allocator<int> >::size() const>", "std::vector<int, std::allocator<int> >::size() const", true},
		{"4a <std::map<int, int>::find(int const&)+0x1a>", "std::map<int, int>::find(int const&)", true},
		{"30 <operator+(Foo, Foo)>", "operator+(Foo, Foo)", true},
	}
	for _, tt := range tests {
		t.Run(tt.operands, func(t *testing.T) {
			l := Line{Kind: KindInstruction, Mnemonic: "callq", Operands: tt.operands}
			got, ok := l.Target()
			if got != tt.want || ok != tt.ok {
				t.Errorf("Target() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBaseMnemonic(t *testing.T) {
	tests := []struct {
		mnemonic string
		want     string
	}{
		{"mov", "mov"},
		{"data16 lea", "lea"},
		{"data16 data16 rex.w call", "call"},
		{"data16 cs nopw", "nopw"},
		{"repz retq", "retq"},
		{"data16", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.mnemonic, func(t *testing.T) {
			l := Line{Kind: KindInstruction, Mnemonic: tt.mnemonic}
			if got := l.BaseMnemonic(); got != tt.want {
				t.Errorf("BaseMnemonic(%q) = %q, want %q", tt.mnemonic, got, tt.want)
			}
		})
	}
}

func TestDecodesToNOP(t *testing.T) {
	nop := Line{Kind: KindInstruction, Raw: []byte{0x90}, Mnemonic: "nop"}
	if !nop.DecodesToNOP() {
		t.Error("0x90 should decode to NOP")
	}
	mov := Line{Kind: KindInstruction, Raw: []byte{0x48, 0x89, 0xe5}, Mnemonic: "mov"}
	if mov.DecodesToNOP() {
		t.Error("mov %rsp,%rbp decoded as NOP")
	}
	truncated := Line{Kind: KindInstruction, Raw: []byte{0x66, 0x2e, 0x0f, 0x1f}, Mnemonic: "nopw"}
	if _, ok := truncated.Decode(); ok {
		t.Error("truncated encoding should not decode")
	}
}
