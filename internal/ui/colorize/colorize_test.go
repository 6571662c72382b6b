package colorize

import (
	"strings"
	"testing"

	"opcount/internal/disasm"
)

func TestColorizeDisabled(t *testing.T) {
	t.Setenv(NoColorEnv, "1")

	l := disasm.Line{Text: "   0:\t55                   \tpush   %rbp", Kind: disasm.KindInstruction}
	if got := ColorizeLine(l); got != l.Text {
		t.Errorf("ColorizeLine with colors disabled = %q", got)
	}
	code := "mov %rsp,%rbp"
	if got, err := ColorizeAssembly(code); err != nil || got != code {
		t.Errorf("ColorizeAssembly = (%q, %v)", got, err)
	}
}

func TestColorizeKeepsText(t *testing.T) {
	t.Setenv(NoColorEnv, "")

	lines := []disasm.Line{
		{Text: "   0:\t55                   \tpush   %rbp", Kind: disasm.KindInstruction, Mnemonic: "push"},
		disasm.Marker(";Expansion of 'bar'"),
		{Text: "\t\t\t5: R_X86_64_PLT32\tbar-0x4", Kind: disasm.KindRelocation},
	}
	out := ColorizeListing(lines)
	if len(out) != len(lines) {
		t.Fatalf("got %d lines, want %d", len(out), len(lines))
	}
	for i, l := range lines {
		if !strings.Contains(out[i], "\x1b[") {
			t.Errorf("line %d not colorized: %q", i, out[i])
		}
		if got := StripANSI(out[i]); !strings.Contains(got, strings.TrimSpace(strings.Fields(l.Text)[len(strings.Fields(l.Text))-1])) {
			t.Errorf("line %d lost its text: %q", i, got)
		}
	}
}

func TestStripANSI(t *testing.T) {
	if got := StripANSI("\x1b[38;2;1;2;3mret\x1b[0m"); got != "ret" {
		t.Errorf("StripANSI = %q", got)
	}
}
