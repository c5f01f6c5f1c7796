package availability

import (
	"sort"
	"strings"
	"time"
)

// WorkingHoursEntry is one contiguous working window of a weekday. End is exclusive.
type WorkingHoursEntry struct {
	Start Clock
	End   Clock
}

// Slot is a generated candidate appointment window.
type Slot = Interval

// DefaultSlotLength is used when the configured length is not positive.
const DefaultSlotLength = 30 * time.Minute

// GenerateSlots cuts every entry into back-to-back slots of the given length.
// Entries are processed independently and in order; a remainder shorter than length is dropped.
func GenerateSlots(entries []WorkingHoursEntry, length time.Duration) []Slot {
	step := Clock(length / time.Minute)
	if step <= 0 {
		return nil
	}

	var slots []Slot
	for _, e := range entries {
		if e.Start >= e.End || e.Start < 0 || e.End > minutesPerDay {
			continue
		}
		for cursor := e.Start; cursor+step <= e.End; cursor += step {
			slots = append(slots, Slot{Start: cursor, End: cursor + step})
		}
	}
	return slots
}

// FilterAvailable drops every candidate that overlaps a booked interval.
// Touching intervals (one ends where the other starts) do not conflict.
func FilterAvailable(candidates []Slot, booked []Interval) []Slot {
	out := make([]Slot, 0, len(candidates))
	for _, c := range candidates {
		if !overlapsAny(c, booked) {
			out = append(out, c)
		}
	}
	return out
}

func overlapsAny(slot Slot, booked []Interval) bool {
	for _, b := range booked {
		// Half-open intervals: [start,end) overlaps [b.Start,b.End) iff start < b.End && b.Start < end.
		if slot.Overlaps(b) {
			return true
		}
	}
	return false
}

// SortUnique orders slots by start and removes exact duplicates.
// Overlapping but distinct slots are kept.
func SortUnique(slots []Slot) []Slot {
	sorted := append([]Slot(nil), slots...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})
	out := sorted[:0]
	for _, s := range sorted {
		if len(out) > 0 && s == out[len(out)-1] {
			continue
		}
		out = append(out, s)
	}
	return out
}

func Labels(slots []Slot) []string {
	labels := make([]string, 0, len(slots))
	for _, s := range slots {
		labels = append(labels, s.Label())
	}
	return labels
}

// WeekdayName returns the lowercase English name used by doctor records ("monday").
func WeekdayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// IsDayAvailable reports whether date falls on one of the working weekdays.
// Without any weekdays (no doctor selected) no date is available.
func IsDayAvailable(date time.Time, workingWeekdays []string) bool {
	if len(workingWeekdays) == 0 {
		return false
	}
	name := WeekdayName(date.Weekday())
	for _, day := range workingWeekdays {
		if strings.EqualFold(strings.TrimSpace(day), name) {
			return true
		}
	}
	return false
}

// AvailableDays lists the days of month on which IsDayAvailable holds.
func AvailableDays(month time.Time, workingWeekdays []string) []time.Time {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	var days []time.Time
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		if IsDayAvailable(d, workingWeekdays) {
			days = append(days, d)
		}
	}
	return days
}
