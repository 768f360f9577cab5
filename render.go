package main

import (
	"fmt"
	"strings"

	"github.com/kylesnowschwartz/roya-history/history"

	"github.com/charmbracelet/lipgloss"
)

// -- Layout constants ---------------------------------------------------------

// maxContentWidth is the maximum width for content rendering.
const maxContentWidth = 120

// maxPreviewImages is the number of image rows a list card shows before
// collapsing the rest into a "more" hint.
const maxPreviewImages = 4

// statusBarHeight is the number of rendered lines the status bar occupies.
// Rounded border: top + content + bottom = 3 lines.
const statusBarHeight = 3

// -- Helpers ------------------------------------------------------------------

// rendered is a block of output together with its line count, so scroll math
// doesn't have to re-split strings.
type rendered struct {
	content string
	lines   int
}

func newRendered(s string) rendered {
	return rendered{content: s, lines: strings.Count(s, "\n") + 1}
}

// selectionIndicator returns a left-margin marker for the selected entry.
func selectionIndicator(selected bool) string {
	if selected {
		return lipgloss.NewStyle().Foreground(ColorAccent).Render(IconSelected) + " "
	}
	return "  "
}

// spaceBetween lays out left and right strings with gap-fill spacing to span width.
func spaceBetween(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + right
}

// contentWidth returns the inner width for card content, given a card width.
// Subtracts border (2) + padding (2) = 4 and floors at 20.
func contentWidth(cardWidth int) int {
	w := cardWidth - 4
	if w < 20 {
		w = 20
	}
	return w
}

// -- Entry rendering ----------------------------------------------------------

// renderEntry renders one history entry as a header line plus a bordered
// card listing its images.
func renderEntry(e history.Entry, containerWidth int, isSelected bool) rendered {
	sel := selectionIndicator(isSelected)

	icon := lipgloss.NewStyle().Foreground(ColorLeaf).Render(IconDay)
	if e.Undated {
		icon = StyleMuted.Render(IconUndated)
	}
	left := sel + icon + " " + StylePrimaryBold.Render(e.Title)
	right := StyleDim.Render(formatImageCount(len(e.Images)))
	header := spaceBetween(left, right, containerWidth)

	cardWidth := containerWidth - 2 // aligned under the selection indicator
	inner := contentWidth(cardWidth)

	shown := e.Images
	hidden := 0
	if len(shown) > maxPreviewImages {
		hidden = len(shown) - maxPreviewImages
		shown = shown[:maxPreviewImages]
	}
	rows := make([]string, 0, len(shown)+1)
	for _, img := range shown {
		rows = append(rows, StyleDim.Render(IconImage)+" "+
			StyleSecondary.Render(truncate(imageName(img), inner-2)))
	}
	if hidden > 0 {
		rows = append(rows, StyleMuted.Render(fmt.Sprintf("%s (%d more)", GlyphEllipsis, hidden)))
	}

	border := ColorBorder
	if isSelected {
		border = ColorAccent
	}
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(cardWidth - 2). // border chars take 2 columns
		Render(strings.Join(rows, "\n"))

	return newRendered(header + "\n" + indentBlock(card, "  "))
}

// indentBlock adds a prefix to every line of a block of text.
func indentBlock(text string, indent string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}

// renderListBody renders every visible entry separated by blank lines, or an
// empty-state message. Shared by the TUI and the dump command.
func (m model) renderListBody(width int) string {
	visible := m.visibleEntries()
	if len(visible) == 0 {
		return m.renderEmptyState(width)
	}
	parts := make([]string, len(visible))
	for i, e := range visible {
		parts[i] = renderEntry(e, width, i == m.cursor && m.view != viewPicker).content
	}
	return strings.Join(parts, "\n\n")
}

func (m model) renderEmptyState(width int) string {
	var text string
	switch {
	case m.phase == history.PhaseFetching && len(m.entries) == 0:
		text = StyleDim.Render("Loading photo history" + GlyphEllipsis)
	case m.filter != nil:
		text = StyleDim.Render("No photos on this day. Press a to show all days.")
	case m.lastErr != nil && len(m.entries) == 0:
		text = StyleErrorBold.Render("Could not load history: ") + StyleSecondary.Render(m.lastErr.Error())
	default:
		text = StyleDim.Render("No photos yet. Upload one with `roya upload` or drop a JPEG into the watch folder.")
	}
	return lipgloss.NewStyle().Width(width).Padding(1, 2).Render(text)
}

// -- Views --------------------------------------------------------------------

func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	switch m.view {
	case viewDetail:
		return m.viewDetail()
	case viewPicker:
		return m.viewPicker()
	default:
		return m.viewList()
	}
}

// viewList renders the history list (main view).
func (m model) viewList() string {
	width := m.clampWidth()
	body := m.renderListBody(width)

	lines := strings.Split(body, "\n")
	viewHeight := m.listViewHeight()
	lines = window(lines, m.scroll, viewHeight)

	hints := []string{"j/k", "move", "enter", "open", "f", "filter day", "r", "refresh", "q", "quit"}
	if m.filter != nil {
		hints = []string{"j/k", "move", "enter", "open", "a", "all days", "f", "filter day", "r", "refresh", "q", "quit"}
	}
	return m.frame(lines, viewHeight, hints...)
}

// viewDetail renders a single day full-screen with scrolling.
func (m model) viewDetail() string {
	e, ok := m.currentEntry()
	if !ok {
		return m.viewList()
	}
	width := m.clampWidth()
	r := m.renderDetailContent(e, width)

	lines := strings.Split(strings.TrimRight(r.content, "\n"), "\n")
	viewHeight := m.detailViewHeight()
	lines = window(lines, m.detailScroll, viewHeight)

	return m.frame(lines, viewHeight, "j/k", "scroll", "g/G", "top/bottom", "q", "back")
}

// renderDetailContent renders the markdown body of the detail view.
func (m model) renderDetailContent(e history.Entry, width int) rendered {
	return newRendered(m.md.renderMarkdown(entryMarkdown(e), width))
}

// frame pads content to viewHeight and appends the banner and status bar.
func (m model) frame(lines []string, viewHeight int, hints ...string) string {
	for len(lines) < viewHeight {
		lines = append(lines, "")
	}
	out := strings.Join(lines, "\n")
	if banner := m.renderBanner(); banner != "" {
		out += "\n" + banner
	}
	return out + "\n" + m.renderStatusBar(hints...)
}

// window returns at most height lines starting at offset.
func window(lines []string, offset, height int) []string {
	if offset > len(lines) {
		offset = len(lines)
	}
	if offset < 0 {
		offset = 0
	}
	end := offset + height
	if end > len(lines) {
		end = len(lines)
	}
	return lines[offset:end]
}

// -- Banner & status bar ------------------------------------------------------

// bannerHeight is 1 when a fetch or watcher error is on screen.
func (m model) bannerHeight() int {
	if m.lastErr != nil || m.watchErr != nil {
		return 1
	}
	return 0
}

// renderBanner shows the last refresh error above the status bar. The list
// above it still holds the last good history.
func (m model) renderBanner() string {
	var label string
	var err error
	switch {
	case m.lastErr != nil:
		label, err = "refresh failed: ", m.lastErr
	case m.watchErr != nil:
		label, err = "watch folder: ", m.watchErr
	default:
		return ""
	}
	room := m.width - lipgloss.Width(label) - 3
	return " " + StyleErrorBold.Render(IconErr+" "+label) + StyleSecondary.Render(truncate(err.Error(), room))
}

// renderStatusBar renders sync state followed by key hints in a
// rounded-border box. Hints are dropped from the right until the bar fits
// on one line.
func (m model) renderStatusBar(pairs ...string) string {
	keyStyle := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(ColorTextDim)

	sep := " " + StyleMuted.Render(IconDot) + " "

	var status []string
	phaseStyle := lipgloss.NewStyle().Foreground(ColorLeaf)
	switch {
	case m.phase == history.PhaseFetching:
		phaseStyle = lipgloss.NewStyle().Foreground(ColorRust)
	case m.lastErr != nil:
		phaseStyle = lipgloss.NewStyle().Foreground(ColorError)
	}
	status = append(status, phaseStyle.Render(phaseLabel(m.phase, m.lastErr != nil)))
	if !m.updatedAt.IsZero() {
		status = append(status, StyleMuted.Render("updated "+relativeTime(m.updatedAt, m.now())))
	}
	if m.filter != nil {
		status = append(status, StyleAccentBold.Render(IconFilter+" "+m.filterTitle()))
	}
	if m.watching {
		w := "watch"
		if m.uploaded > 0 || m.uploadFailed > 0 {
			w = fmt.Sprintf("watch %d↑", m.uploaded)
			if m.uploadFailed > 0 {
				w += fmt.Sprintf(" %d%s", m.uploadFailed, IconErr)
			}
		}
		status = append(status, StyleMuted.Render(w))
	}

	var hints []string
	for i := 0; i+1 < len(pairs); i += 2 {
		hints = append(hints, keyStyle.Render(pairs[i])+" "+descStyle.Render(pairs[i+1]))
	}

	room := m.width - 4 // border + padding
	content := strings.Join(append(status, hints...), sep)
	for len(hints) > 0 && lipgloss.Width(content) > room {
		hints = hints[:len(hints)-1]
		content = strings.Join(append(status, hints...), sep)
	}

	barStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(m.width-2). // border chars take 2 columns
		Padding(0, 1)

	return barStyle.Render(content)
}

// filterTitle is the title of the filtered day, taken from the entry itself
// so it matches the configured locale.
func (m model) filterTitle() string {
	if m.filter == nil {
		return ""
	}
	for _, e := range m.entries {
		if !e.Undated && e.Day == *m.filter {
			return e.Title
		}
	}
	return fmt.Sprintf("%d-%02d-%02d", m.filter.Year, int(m.filter.Month), m.filter.Day)
}
