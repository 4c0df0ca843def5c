package birthday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextOccurrence(t *testing.T) {
	cases := []struct {
		name     string
		birthday time.Time
		ref      time.Time
		want     time.Time
	}{
		{
			name:     "leap day birthday rolls into non-leap year",
			birthday: date(2000, time.February, 29),
			ref:      date(2023, time.March, 1),
			want:     date(2024, time.February, 29),
		},
		{
			name:     "later this year",
			birthday: date(1990, time.June, 15),
			ref:      date(2024, time.June, 1),
			want:     date(2024, time.June, 15),
		},
		{
			name:     "already passed rolls to next year",
			birthday: date(1990, time.June, 15),
			ref:      date(2024, time.June, 20),
			want:     date(2025, time.June, 15),
		},
		{
			name:     "same day counts as upcoming",
			birthday: date(1990, time.June, 15),
			ref:      date(2024, time.June, 15),
			want:     date(2024, time.June, 15),
		},
		{
			name:     "leap day in non-leap year normalizes to feb 28",
			birthday: date(2000, time.February, 29),
			ref:      date(2023, time.January, 10),
			want:     date(2023, time.February, 28),
		},
		{
			name:     "leap day in leap year stays feb 29",
			birthday: date(2000, time.February, 29),
			ref:      date(2024, time.January, 10),
			want:     date(2024, time.February, 29),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextOccurrence(tc.birthday, tc.ref)
			assert.True(t, got.Equal(tc.want), "expected %s, got %s", tc.want.Format(time.DateOnly), got.Format(time.DateOnly))
		})
	}
}

type person struct {
	name     string
	birthday time.Time
}

func TestUpcoming(t *testing.T) {
	ref := date(2024, time.June, 10)
	people := []person{
		{"far", date(1980, time.August, 1)},
		{"second", date(1990, time.June, 14)},
		{"first", date(1985, time.June, 12)},
		{"today", date(1995, time.June, 10)},
		{"past", date(1970, time.June, 9)},
	}

	got := Upcoming(people, func(p person) time.Time { return p.birthday }, ref, 7)

	names := make([]string, 0, len(got))
	for _, proj := range got {
		names = append(names, proj.Item.name)
	}
	assert.Equal(t, []string{"today", "first", "second"}, names)
}

func TestUpcomingStableOnTies(t *testing.T) {
	ref := date(2024, time.June, 10)
	people := []person{
		{"a", date(1990, time.June, 12)},
		{"b", date(1980, time.June, 12)},
		{"c", date(2000, time.June, 12)},
	}

	got := Upcoming(people, func(p person) time.Time { return p.birthday }, ref, 7)
	require.Len(t, got, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, got[i].Item.name, "order must be stable on equal dates")
	}
}

func TestUpcomingWindowBoundary(t *testing.T) {
	ref := date(2024, time.June, 10)
	people := []person{
		{"edge", date(1990, time.June, 17)},
		{"outside", date(1990, time.June, 18)},
	}

	got := Upcoming(people, func(p person) time.Time { return p.birthday }, ref, 7)
	require.Len(t, got, 1)
	assert.Equal(t, "edge", got[0].Item.name)
}
