package disasm

import (
	"golang.org/x/arch/x86/x86asm"
)

// Decode decodes the raw bytes of an instruction line in 64-bit mode.
// It fails for lines without a complete encoding, such as the first line of
// an instruction whose bytes were wrapped onto continuation lines.
func (l Line) Decode() (x86asm.Inst, bool) {
	if l.Kind != KindInstruction || len(l.Raw) == 0 {
		return x86asm.Inst{}, false
	}
	inst, err := x86asm.Decode(l.Raw, 64)
	if err != nil || inst.Len != len(l.Raw) {
		return x86asm.Inst{}, false
	}
	return inst, true
}

// DecodesToNOP reports whether the raw encoding is a no-op, whatever mnemonic
// the disassembler chose to print for it.
func (l Line) DecodesToNOP() bool {
	inst, ok := l.Decode()
	if !ok {
		return false
	}
	return inst.Op == x86asm.NOP
}
