package matrix

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testZoneTable() ZoneTable {
	return ZoneTable{
		Version: "test-1",
		Known: []Code{
			"fr_zone_a", "fr_zone_b", "fr_zone_c", "fr_corse",
			"bel", "all", "sui", "ita", "esp", "lux",
		},
		Primary: []Code{"fr_zone_a", "fr_zone_b", "fr_zone_c", "fr_corse"},
		Zones: map[string]Code{
			"Zone A": "fr_zone_a",
			"Zone B": "fr_zone_b",
			"BE_NL":  "bel",
			"DE_BY":  "all",
			"CH_ZH":  "sui",
			"IT_BZ":  "ita",
			"ES_GA":  "esp",
			"LU":     "lux",
		},
		Corsica:        CorsicaRule{Marker: "Corse", Code: "fr_corse"},
		LetterFallback: true,
	}
}

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(testZoneTable())
	require.NoError(t, err)
	return r
}

func date(s string) time.Time {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func raw(zone, academy, start, end, year string) RawRecord {
	return RawRecord{
		Description:  "Vacances",
		ZoneLabel:    zone,
		AcademyLabel: academy,
		StartDate:    start,
		EndDate:      end,
		SchoolYear:   year,
		Origin:       "test",
	}
}

func discardf(string, ...any) {}
