package main

import "github.com/charmbracelet/lipgloss"

// -- Colors ---------------------------------------------------------------
// All colors use AdaptiveColor for dark/light terminal support.
// Light values: ANSI 0-15 for accents, 256-color for grays.
// ANSI 7/15 (white) are invisible on light backgrounds; never use them for
// Light values.
//
// | Name             | Light | Dark  | Light desc   | Dark desc    |
// |------------------|-------|-------|--------------|--------------|
// | TextPrimary      |   "0" | "252" | black        | light gray   |
// | TextSecondary    |   "8" | "245" | ANSI dk gray | gray         |
// | TextDim          | "242" | "243" | medium gray  | gray         |
// | TextMuted        | "245" | "240" | med-lt gray  | dark gray    |
// | Accent           |   "4" |  "75" | blue         | blue         |
// | Error            |   "1" | "196" | red          | red          |
// | Leaf             |   "2" | "114" | green        | green        |
// | Rust             |   "3" | "208" | gold         | orange       |
// | Border           | "250" |  "60" | subtle gray  | muted blue   |
// | PickerSelectedBg | "254" | "237" | subtle elev. | subtle elev. |

var (
	// Text hierarchy
	ColorTextPrimary   = ac("0", "252")
	ColorTextSecondary = ac("8", "245")
	ColorTextDim       = ac("242", "243")
	ColorTextMuted     = ac("245", "240")

	// Accents
	ColorAccent = ac("4", "75")
	ColorError  = ac("1", "196")
	ColorLeaf   = ac("2", "114") // fetch ok, upload ok
	ColorRust   = ac("3", "208") // fetching, stale data

	// Surfaces
	ColorBorder = ac("250", "60")

	// Picker
	ColorPickerSelectedBg = ac("254", "237")
	ColorPickerMeta       = ColorTextMuted
)

// -- Semantic text styles -----------------------------------------------------
// lipgloss styles are immutable value types, so these are safe to chain.

var (
	StylePrimaryBold   = lipgloss.NewStyle().Bold(true).Foreground(ColorTextPrimary)
	StyleSecondary     = lipgloss.NewStyle().Foreground(ColorTextSecondary)
	StyleSecondaryBold = lipgloss.NewStyle().Bold(true).Foreground(ColorTextSecondary)
	StyleDim           = lipgloss.NewStyle().Foreground(ColorTextDim)
	StyleMuted         = lipgloss.NewStyle().Foreground(ColorTextMuted)
	StyleAccentBold    = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	StyleErrorBold     = lipgloss.NewStyle().Bold(true).Foreground(ColorError)
)

// ac is a shorthand constructor for lipgloss.AdaptiveColor.
func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}
