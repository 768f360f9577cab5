package history

import (
	"sort"
	"time"
)

// Entry is one display section: a day (or the undated bucket) and its images.
// Only Title and Images are serialized; Day lets callers filter without
// re-parsing titles.
type Entry struct {
	Title   string   `json:"title"`
	Images  []string `json:"images"`
	Day     DayKey   `json:"-"`
	Undated bool     `json:"-"`
}

// History is the assembled result of one fetch cycle.
type History struct {
	Entries []Entry
	Records int // records received from the backend
	Skipped int // records dropped for an empty image URL
}

// Assemble orders day buckets most recent first and appends the undated
// bucket, if any, as the final entry. Inputs are not modified.
func Assemble(b Buckets, f TitleFormatter) []Entry {
	days := make([]DayKey, 0, len(b.Days))
	for k := range b.Days {
		days = append(days, k)
	}
	sort.Slice(days, func(i, j int) bool { return days[j].Before(days[i]) })

	entries := make([]Entry, 0, len(days)+1)
	for _, k := range days {
		entries = append(entries, Entry{
			Title:  f.DayTitle(k),
			Images: append([]string(nil), b.Days[k]...),
			Day:    k,
		})
	}
	if len(b.Undated) > 0 {
		entries = append(entries, Entry{
			Title:   f.UndatedTitle(),
			Images:  append([]string(nil), b.Undated...),
			Undated: true,
		})
	}
	return entries
}

// Build groups one fetch response by day in loc and assembles it. Records
// keep fetch order inside a day; run SortRecords first for newest-first.
func Build(records []RawPhotoRecord, loc *time.Location, f TitleFormatter) History {
	b := Group(records, loc)
	return History{
		Entries: Assemble(b, f),
		Records: len(records),
		Skipped: b.Skipped,
	}
}

// FilterDay returns the entries for a single day. Undated entries and the
// zero key never match.
func FilterDay(entries []Entry, day DayKey) []Entry {
	if day.IsZero() {
		return nil
	}
	var out []Entry
	for _, e := range entries {
		if !e.Undated && e.Day == day {
			out = append(out, e)
		}
	}
	return out
}
