// Package colorize highlights expanded listings for the terminal.
package colorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"opcount/internal/disasm"
)

// NoColorEnv disables highlighting when set to any value.
const NoColorEnv = "OPCOUNT_NO_COLOR"

const (
	ansiReset  = "\033[0m"
	ansiGray   = "\033[38;2;79;79;79m"
	ansiMarker = "\033[38;2;235;194;237m"
)

// Enabled reports whether highlighting is on.
func Enabled() bool {
	return os.Getenv(NoColorEnv) == ""
}

// getAssemblyLexer returns the AT&T syntax lexer with fallbacks
func getAssemblyLexer() chroma.Lexer {
	candidates := []string{"gas", "GAS", "nasm"}
	for _, name := range candidates {
		if lexer := lexers.Get(name); lexer != nil {
			return chroma.Coalesce(lexer)
		}
	}
	return nil
}

// getDisasmStyle returns the disassembly style with fallbacks
func getDisasmStyle() *chroma.Style {
	candidates := []string{DisasmDark.Name, "dracula", "monokai"}
	for _, name := range candidates {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	candidates := []string{"terminal16m", "terminal256"}
	for _, name := range candidates {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// ColorizeAssembly highlights a block of assembly text.
func ColorizeAssembly(code string) (string, error) {
	if !Enabled() {
		return code, nil
	}

	lexer := getAssemblyLexer()
	if lexer == nil {
		return code, nil
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getDisasmStyle(), iterator); err != nil {
		return code, err
	}
	return buf.String(), nil
}

// ColorizeLine highlights one expanded line: markers stand out, addresses and
// raw bytes are dimmed and the instruction text goes through chroma.
func ColorizeLine(l disasm.Line) string {
	if !Enabled() {
		return l.Text
	}

	switch l.Kind {
	case disasm.KindMarker:
		return ansiMarker + l.Text + ansiReset
	case disasm.KindInstruction:
	default:
		return ansiGray + l.Text + ansiReset
	}

	// "   4:\te8 00 00 00 00       \tcallq  9 <foo+0x9>"
	cut := strings.LastIndexByte(l.Text, '\t')
	if cut < 0 {
		return colorizeFullLine(l.Text)
	}
	return fmt.Sprintf("%s%s%s%s", ansiGray, l.Text[:cut+1], ansiReset, colorizeFullLine(l.Text[cut+1:]))
}

// ColorizeListing highlights every line of an expansion.
func ColorizeListing(lines []disasm.Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = ColorizeLine(l)
	}
	return out
}

func colorizeFullLine(line string) string {
	colorized, err := ColorizeAssembly(line)
	if err != nil {
		return line
	}
	return strings.TrimSuffix(colorized, "\n")
}

// StripANSI removes ANSI escape sequences.
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false

	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
		} else if inEscape {
			if r == 'm' {
				inEscape = false
			}
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}
