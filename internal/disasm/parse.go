package disasm

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// objdump format example:
//
//	0000000000000000 <_Z5test1v>:
//	   0:	55                   	push   %rbp
//	   1:	48 89 e5             	mov    %rsp,%rbp
//	   4:	e8 00 00 00 00       	callq  9 <_Z5test1v+0x9>
//				5: R_X86_64_PLT32	_Z3barv-0x4
//	   9:	5d                   	pop    %rbp
//	   a:	c3                   	retq
var headerRe = regexp.MustCompile(`^([0-9a-fA-F]+) <(.+)>:$`)

// instruction prefixes objdump prints in front of the mnemonic
var prefixes = map[string]bool{
	"data16": true, "data32": true, "addr16": true, "addr32": true,
	"cs": true, "ds": true, "es": true, "fs": true, "gs": true, "ss": true,
	"rep": true, "repz": true, "repe": true, "repnz": true, "repne": true,
	"lock": true, "bnd": true, "notrack": true, "xacquire": true, "xrelease": true,
}

type state int

const (
	noActiveBlock state = iota
	inBlock
)

// scanner is the parse state machine. step consumes one line and returns the
// next state; the committed blocks accumulate in idx.
type scanner struct {
	state state
	cur   *Block
	idx   *Index
}

func (s scanner) step(no int, text string) scanner {
	text = strings.TrimRight(text, " \t\r\n")
	if text == "" {
		return s
	}

	header, hok := parseHeader(no, text)

	switch s.state {
	case noActiveBlock:
		if hok {
			return scanner{state: inBlock, cur: header, idx: s.idx}
		}
		return s
	default:
		if !hok && isBody(text) {
			s.cur.Body = append(s.cur.Body, parseBody(no, text))
			return s
		}
		s.idx.add(s.cur)
		if hok {
			return scanner{state: inBlock, cur: header, idx: s.idx}
		}
		return scanner{state: noActiveBlock, idx: s.idx}
	}
}

func (s scanner) finish() *Index {
	if s.state == inBlock {
		s.idx.add(s.cur)
	}
	return s.idx
}

// Parse reads an objdump listing. Lines that are neither headers nor body
// lines end the current block; malformed input yields a partial index. The
// only error is a failure of r itself.
func Parse(r io.Reader) (*Index, error) {
	s := scanner{idx: NewIndex()}
	br := bufio.NewReader(r)
	for no := 1; ; no++ {
		line, err := br.ReadString('\n')
		if line != "" {
			s = s.step(no, line)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return s.finish(), fmt.Errorf("read disassembly at line %d: %w", no, err)
		}
	}
	return s.finish(), nil
}

// ParseLines parses an already split listing.
func ParseLines(lines []string) *Index {
	s := scanner{idx: NewIndex()}
	for i, line := range lines {
		s = s.step(i+1, line)
	}
	return s.finish()
}

// ParseString parses a listing held in memory.
func ParseString(text string) *Index {
	return ParseLines(strings.Split(text, "\n"))
}

func parseHeader(no int, text string) (*Block, bool) {
	m := headerRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	addr, _ := strconv.ParseUint(m[1], 16, 64)
	return &Block{Label: m[2], Addr: addr, Line: no}, true
}

// isBody reports whether text is an indented line that is not itself a label.
func isBody(text string) bool {
	return (text[0] == ' ' || text[0] == '\t') && !strings.HasSuffix(text, ":")
}

func parseBody(no int, text string) Line {
	l := Line{Number: no, Text: text, Kind: KindOther}

	trimmed := strings.TrimLeft(text, " \t")
	colon := strings.IndexByte(trimmed, ':')
	if colon <= 0 {
		return l
	}
	addr, err := strconv.ParseUint(trimmed[:colon], 16, 64)
	if err != nil {
		return l
	}
	l.Addr = addr
	rest := trimmed[colon+1:]

	if r := strings.TrimLeft(rest, " \t"); strings.HasPrefix(r, "R_") {
		l.Kind = KindRelocation
		fields := strings.Fields(r)
		if len(fields) > 1 {
			l.Symbol = stripAddend(fields[1])
		}
		return l
	}

	cols := strings.Split(strings.TrimPrefix(rest, "\t"), "\t")
	var asm string
	switch {
	case len(cols) >= 2:
		l.Raw = decodeBytes(cols[0])
		asm = strings.Join(cols[1:], " ")
	case len(cols) == 1:
		if raw := decodeBytes(cols[0]); raw != nil {
			l.Raw = raw
			l.Kind = KindContinuation
			return l
		}
		asm = cols[0]
	}

	asm = strings.TrimSpace(asm)
	if asm == "" {
		if l.Raw != nil {
			l.Kind = KindContinuation
		}
		return l
	}
	l.Kind = KindInstruction
	l.Mnemonic, l.Operands = splitMnemonic(asm)
	return l
}

// decodeBytes parses "48 89 e5 " into bytes, or returns nil when the column
// is not a byte dump.
func decodeBytes(col string) []byte {
	fields := strings.Fields(col)
	if len(fields) == 0 {
		return nil
	}
	out := make([]byte, 0, len(fields))
	for _, f := range fields {
		if len(f) != 2 {
			return nil
		}
		b, err := hex.DecodeString(f)
		if err != nil {
			return nil
		}
		out = append(out, b[0])
	}
	return out
}

// splitMnemonic separates "data16 cs nopw 0x0(%rax,%rax,1)" into
// ("data16 cs nopw", "0x0(%rax,%rax,1)").
func splitMnemonic(asm string) (string, string) {
	var mn []string
	rest := asm
	for rest != "" {
		tok := rest
		if i := strings.IndexAny(rest, " \t"); i >= 0 {
			tok = rest[:i]
		}
		rest = strings.TrimLeft(rest[len(tok):], " \t")
		tok = strings.ToLower(tok)
		mn = append(mn, tok)
		if !isPrefix(tok) {
			break
		}
	}
	return strings.Join(mn, " "), rest
}

func isPrefix(tok string) bool {
	return prefixes[tok] || strings.HasPrefix(tok, "rex")
}

// stripAddend turns "_Z3barv-0x4" into "_Z3barv".
func stripAddend(sym string) string {
	for _, sep := range []string{"-0x", "+0x"} {
		if i := strings.LastIndex(sym, sep); i > 0 {
			return sym[:i]
		}
	}
	return sym
}
