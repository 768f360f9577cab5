package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/colorprofile"
)

// jsonHL syntax-highlights the JSON history dump for terminal display.
// Chroma objects are built once and safe for reuse.
type jsonHL struct {
	lexer     chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
}

// newJSONHL creates a highlighter for out, picking the chroma formatter from
// the color profile out supports.
func newJSONHL(hasDarkBg bool, out io.Writer) *jsonHL {
	styleName := "github"
	if hasDarkBg {
		styleName = "dracula"
	}
	profile := colorprofile.Detect(out, os.Environ())
	return &jsonHL{
		lexer:     chroma.Coalesce(lexers.Get("json")),
		formatter: formatters.Get(chromaFormatter(profile)),
		style:     styles.Get(styleName),
	}
}

// highlight pretty-prints raw and returns it syntax-highlighted. Returns
// ("", false) for invalid JSON so the caller can fall back to plain output.
func (h *jsonHL) highlight(raw []byte) (string, bool) {
	if !json.Valid(raw) {
		return "", false
	}

	// Normalize formatting (idempotent on already-indented input).
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", false
	}

	iterator, err := h.lexer.Tokenise(nil, buf.String())
	if err != nil {
		return "", false
	}

	var out bytes.Buffer
	if err := h.formatter.Format(&out, h.style, iterator); err != nil {
		return "", false
	}
	return out.String(), true
}

// chromaFormatter maps colorprofile profiles to chroma terminal formatter names.
func chromaFormatter(profile colorprofile.Profile) string {
	switch profile {
	case colorprofile.TrueColor:
		return "terminal16m"
	case colorprofile.ANSI256:
		return "terminal256"
	case colorprofile.ANSI:
		return "terminal16"
	case colorprofile.NoTTY, colorprofile.Ascii:
		return "noop"
	default:
		return "terminal"
	}
}
