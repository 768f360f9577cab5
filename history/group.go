package history

import (
	"sort"
	"time"
)

// DayKey identifies a calendar day in the display time zone.
type DayKey struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar day t falls on in loc.
func DayOf(t time.Time, loc *time.Location) DayKey {
	y, m, d := t.In(loc).Date()
	return DayKey{Year: y, Month: m, Day: d}
}

// Before reports whether k is an earlier calendar day than o.
func (k DayKey) Before(o DayKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	if k.Month != o.Month {
		return k.Month < o.Month
	}
	return k.Day < o.Day
}

// IsZero reports whether k is the zero key (used for undated entries).
func (k DayKey) IsZero() bool { return k == DayKey{} }

// Buckets is the grouper's output for one fetch cycle.
type Buckets struct {
	Days    map[DayKey][]string // distinct image URLs per day, insertion order
	Undated []string            // distinct image URLs with no parseable date
	Skipped int                 // records dropped for an empty image URL
}

// Group buckets records by calendar day in loc. Deduplication is per day:
// a URL seen twice on one day is kept once, a URL seen on two days is kept
// in both. Records keep their input order inside a bucket; pass the output
// of SortRecords for most-recent-first ordering.
func Group(records []RawPhotoRecord, loc *time.Location) Buckets {
	if loc == nil {
		loc = time.Local
	}
	b := Buckets{Days: make(map[DayKey][]string)}
	seen := make(map[DayKey]map[string]bool)
	undatedSeen := make(map[string]bool)

	for _, r := range records {
		if r.ImageURL == "" {
			b.Skipped++
			continue
		}
		t, ok := Normalize(r.CapturedAt)
		if !ok {
			if !undatedSeen[r.ImageURL] {
				undatedSeen[r.ImageURL] = true
				b.Undated = append(b.Undated, r.ImageURL)
			}
			continue
		}
		day := DayOf(t, loc)
		daySeen := seen[day]
		if daySeen == nil {
			daySeen = make(map[string]bool)
			seen[day] = daySeen
		}
		if daySeen[r.ImageURL] {
			continue
		}
		daySeen[r.ImageURL] = true
		b.Days[day] = append(b.Days[day], r.ImageURL)
	}
	return b
}

// SortRecords returns a copy of records ordered by capture instant, most
// recent first, with undated records last. The sort is stable so equal
// instants keep fetch order.
func SortRecords(records []RawPhotoRecord) []RawPhotoRecord {
	type keyed struct {
		rec RawPhotoRecord
		at  time.Time
		ok  bool
	}
	ks := make([]keyed, len(records))
	for i, r := range records {
		at, ok := Normalize(r.CapturedAt)
		ks[i] = keyed{rec: r, at: at, ok: ok}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].ok != ks[j].ok {
			return ks[i].ok
		}
		return ks[i].at.After(ks[j].at)
	})
	out := make([]RawPhotoRecord, len(ks))
	for i, k := range ks {
		out[i] = k.rec
	}
	return out
}
