package matrix

import "iter"

// Expand yields one entry per code for every day d with Start <= d < End.
// A record whose End is not after its Start yields nothing.
func Expand(rec Record, codes []Code) iter.Seq[DayEntry] {
	return func(yield func(DayEntry) bool) {
		if len(codes) == 0 {
			return
		}
		for d := rec.Start; d.Before(rec.End); d = d.AddDate(0, 0, 1) {
			for _, c := range codes {
				if !yield(DayEntry{Date: d, Code: c, SchoolYear: rec.SchoolYear}) {
					return
				}
			}
		}
	}
}
