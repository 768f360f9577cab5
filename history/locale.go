package history

import (
	"fmt"

	"golang.org/x/text/language"
)

// TitleFormatter renders section titles for assembled entries.
type TitleFormatter interface {
	DayTitle(DayKey) string
	UndatedTitle() string
}

type localeStrings struct {
	months  [12]string
	undated string
}

// Supported display locales, in matcher order. English is the fallback.
var (
	localeTags = []language.Tag{language.English, language.Spanish}
	localeText = []localeStrings{
		{
			months:  [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
			undated: "No date",
		},
		{
			months:  [12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"},
			undated: "Sin fecha",
		},
	}
	localeMatcher = language.NewMatcher(localeTags)
)

// LocaleFormatter formats day titles as "Month Day, Year" with the month
// abbreviated in the matched locale.
type LocaleFormatter struct {
	tag  language.Tag
	text localeStrings
}

// NewLocaleFormatter matches locale (a BCP 47 tag such as "es-MX") against
// the supported locales. Unknown or malformed tags fall back to English.
func NewLocaleFormatter(locale string) *LocaleFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	_, idx, _ := localeMatcher.Match(tag)
	return &LocaleFormatter{tag: localeTags[idx], text: localeText[idx]}
}

// Tag returns the matched locale.
func (f *LocaleFormatter) Tag() language.Tag { return f.tag }

func (f *LocaleFormatter) DayTitle(k DayKey) string {
	return fmt.Sprintf("%s %d, %d", f.text.months[k.Month-1], k.Day, k.Year)
}

func (f *LocaleFormatter) UndatedTitle() string { return f.text.undated }
