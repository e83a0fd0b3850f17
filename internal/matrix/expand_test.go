package matrix

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	codes := []Code{"fr_zone_a", "fr_corse"}

	tests := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{name: "end before start", start: "2025-10-05", end: "2025-10-01", want: 0},
		{name: "end equals start", start: "2025-10-01", end: "2025-10-01", want: 0},
		{name: "single day", start: "2025-10-01", end: "2025-10-02", want: 2},
		{name: "two weeks", start: "2025-12-20", end: "2026-01-05", want: 32},
		{name: "across february in a leap year", start: "2028-02-28", end: "2028-03-01", want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{Start: date(tt.start), End: date(tt.end)}
			got := slices.Collect(Expand(rec, codes))
			assert.Len(t, got, tt.want)
		})
	}
}

func TestExpandSingleDayIsDatedStart(t *testing.T) {
	rec := Record{Start: date("2026-05-14"), End: date("2026-05-15"), SchoolYear: "2025-2026"}

	got := slices.Collect(Expand(rec, []Code{"sui"}))

	assert.Equal(t, []DayEntry{{Date: date("2026-05-14"), Code: "sui", SchoolYear: "2025-2026"}}, got)
}

func TestExpandZoneAWithCorsica(t *testing.T) {
	r := testResolver(t)
	codes, err := r.Resolve("Zone A", "Corse")
	assert.NoError(t, err)

	rec := Record{Start: date("2025-10-01"), End: date("2025-10-03")}
	got := slices.Collect(Expand(rec, codes))

	want := []DayEntry{
		{Date: date("2025-10-01"), Code: "fr_zone_a"},
		{Date: date("2025-10-01"), Code: "fr_corse"},
		{Date: date("2025-10-02"), Code: "fr_zone_a"},
		{Date: date("2025-10-02"), Code: "fr_corse"},
	}
	assert.Equal(t, want, got)
}

func TestExpandNoCodes(t *testing.T) {
	rec := Record{Start: date("2025-10-01"), End: date("2025-10-10")}
	assert.Empty(t, slices.Collect(Expand(rec, nil)))
}

func TestExpandStopsEarly(t *testing.T) {
	rec := Record{Start: date("2025-01-01"), End: date("2026-01-01")}

	n := 0
	for range Expand(rec, []Code{"lux"}) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}
