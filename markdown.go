package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/kylesnowschwartz/roya-history/history"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"golang.org/x/term"
)

// mdRenderer caches a glamour terminal renderer at a specific width.
// Recreates the renderer when the width changes.
type mdRenderer struct {
	renderer  *glamour.TermRenderer
	width     int
	hasDarkBg bool
}

func newMDRenderer(hasDarkBg bool) *mdRenderer {
	return &mdRenderer{hasDarkBg: hasDarkBg}
}

// style returns the glamour style config with Document.Margin zeroed out so
// the frame handles its own padding.
func (r *mdRenderer) style() ansi.StyleConfig {
	var style ansi.StyleConfig
	switch {
	case !term.IsTerminal(int(os.Stdout.Fd())):
		style = styles.NoTTYStyleConfig
	case r.hasDarkBg:
		style = styles.DarkStyleConfig
	default:
		style = styles.LightStyleConfig
	}
	style.Document.Margin = uintPtr(0)
	return style
}

func uintPtr(v uint) *uint { return &v }

// renderMarkdown renders markdown content for terminal display.
// Returns the original content on error.
func (r *mdRenderer) renderMarkdown(content string, width int) string {
	if width <= 0 {
		return content
	}
	if r.renderer == nil || r.width != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStyles(r.style()),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content
		}
		r.renderer = renderer
		r.width = width
	}
	out, err := r.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// entryMarkdown describes one day: its title, image count, and a numbered
// list of image links.
func entryMarkdown(e history.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.Title)
	if e.Undated {
		b.WriteString("_Photos whose capture date could not be read._\n\n")
	}
	fmt.Fprintf(&b, "%s\n\n", formatImageCount(len(e.Images)))
	for i, img := range e.Images {
		fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, escapeMarkdown(imageName(img)), img)
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "`", "\\`",
)

func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }
