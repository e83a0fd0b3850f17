package matrix

import (
	"fmt"
	"iter"
	"slices"
)

// Aggregate collapses day entries into one row per date.
//
// A flag is 1 when at least one entry covers the (date, code) pair, so
// overlapping source periods never count twice. The school year of a row is
// the first non-empty one seen for that date. Rows come back sorted by date;
// dates without entries are not synthesized.
func Aggregate(entries iter.Seq[DayEntry], known []Code) ([]Row, error) {
	knownSet := make(map[Code]struct{}, len(known))
	for _, c := range known {
		knownSet[c] = struct{}{}
	}

	byDay := make(map[int64]*Row)
	for e := range entries {
		if _, ok := knownSet[e.Code]; !ok {
			return nil, fmt.Errorf("%w: %s on %s", ErrUnknownCode, e.Code, e.Date.Format(DateLayout))
		}

		key := e.Date.Unix()
		row, ok := byDay[key]
		if !ok {
			row = newRow(e.Date, known)
			byDay[key] = row
		}
		if row.SchoolYear == "" {
			row.SchoolYear = e.SchoolYear
		}
		row.Flags[e.Code] = 1
	}

	rows := make([]Row, 0, len(byDay))
	for _, row := range byDay {
		rows = append(rows, *row)
	}
	slices.SortFunc(rows, func(a, b Row) int {
		return a.Date.Compare(b.Date)
	})
	return rows, nil
}

// FillGaps inserts all-zero rows for every missing date between the first and last row.
// rows must be sorted by date.
func FillGaps(rows []Row, known []Code) []Row {
	if len(rows) < 2 {
		return rows
	}

	last := rows[len(rows)-1].Date
	dense := make([]Row, 0, int(last.Sub(rows[0].Date).Hours()/24)+1)
	i := 0
	for d := rows[0].Date; !d.After(last); d = d.AddDate(0, 0, 1) {
		if i < len(rows) && rows[i].Date.Equal(d) {
			dense = append(dense, rows[i])
			i++
			continue
		}
		dense = append(dense, *newRow(d, known))
	}
	return dense
}
