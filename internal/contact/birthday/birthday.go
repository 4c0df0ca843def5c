// Package birthday computes upcoming birthday occurrences, normalizing
// Feb 29 birthdays to Feb 28 in non-leap years.
package birthday

import (
	"sort"
	"time"
)

// NextOccurrence returns the next calendar occurrence of birthday on or
// after ref. The year is substituted with ref's year; a Feb 29 birthday
// falls back to Feb 28 when the target year is not a leap year; a date
// already past rolls over to the following year.
func NextOccurrence(birthday, ref time.Time) time.Time {
	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)

	for year := ref.Year(); ; year++ {
		next := occurrenceIn(birthday, year)
		if !next.Before(refDay) {
			return next
		}
	}
}

func occurrenceIn(birthday time.Time, year int) time.Time {
	month, day := birthday.Month(), birthday.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// Projection pairs a value with its computed next birthday occurrence.
type Projection[T any] struct {
	Item T
	Next time.Time
}

// Upcoming keeps the items whose next occurrence falls within windowDays of
// ref (inclusive on both ends) and returns them ordered by next occurrence,
// preserving input order on ties.
func Upcoming[T any](items []T, birthdayOf func(T) time.Time, ref time.Time, windowDays int) []Projection[T] {
	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	end := refDay.AddDate(0, 0, windowDays)

	var out []Projection[T]
	for _, item := range items {
		next := NextOccurrence(birthdayOf(item), ref)
		if next.Before(refDay) || next.After(end) {
			continue
		}
		out = append(out, Projection[T]{Item: item, Next: next})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Next.Before(out[j].Next)
	})
	return out
}
