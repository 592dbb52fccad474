// Package colorize highlights PowerPC disassembly listings for terminals.
package colorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// getAssemblyLexer returns the GNU assembler lexer, which understands the
// "op rD,d(rA)" operand syntax and ';' comments.
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
	candidates := []string{"disasm-dark", "dracula", "monokai"}
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

// Enabled reports whether output should be colorized.
func Enabled() bool {
	return os.Getenv("DOLKIT_NO_COLOR") == ""
}

// Assembly highlights a block of assembly text.
func Assembly(code string) (string, error) {
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

// Line colorizes one listing line while preserving its column layout.
// Lines have the form "address  bytes  text ; annotations".
func Line(line string) string {
	if !Enabled() {
		return line
	}

	addr, rest, ok := strings.Cut(line, "  ")
	if !ok || !isHex(addr) {
		return highlight(line)
	}
	raw, text, ok := strings.Cut(rest, "  ")
	if !ok {
		return fmt.Sprintf("%s  %s", gray(addr), highlight(rest))
	}

	// annotations are written after the assembly and kept out of the lexer
	text, note, hasNote := strings.Cut(text, " ; ")
	out := fmt.Sprintf("%s  %s  %s", gray(addr), gray(raw), highlight(text))
	if hasNote {
		out += fmt.Sprintf(" \033[38;2;235;194;237m; %s\033[0m", note)
	}
	return out
}

func highlight(s string) string {
	out, err := Assembly(s)
	if err != nil {
		return s
	}
	// the lexer may append a newline inside the last escape sequence
	if !strings.HasSuffix(s, "\n") {
		if i := strings.LastIndex(out, "\n"); i >= 0 {
			out = out[:i] + out[i+1:]
		}
	}
	return out
}

func gray(s string) string {
	return fmt.Sprintf("\033[38;2;79;79;79m%s\033[0m", s)
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if !((ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')) {
			return false
		}
	}
	return true
}
