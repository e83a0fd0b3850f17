package matrix

import (
	"iter"
	"log"
)

// Options tunes a Build run
type Options struct {
	DateMode DateMode

	// Year keeps only records starting or ending in that calendar year (0 keeps all)
	Year int

	// FillGaps adds all-zero rows for dates between the first and last covered day
	FillGaps bool

	// Logf receives malformed-record warnings. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// Stats summarizes one Build run
type Stats struct {
	Records   int
	Unmapped  int
	Malformed int
	OtherYear int
	Entries   int
	Rows      int
}

// Build runs resolve → expand → aggregate → shape over the raw records.
// Record order has no effect on the flag values of the result.
func Build(records []RawRecord, r *Resolver, l Layout, opts Options) (*Table, Stats, error) {
	logf := opts.Logf
	if logf == nil {
		logf = log.Printf
	}

	var stats Stats
	var resolveErr error

	entries := func(yield func(DayEntry) bool) {
		for _, raw := range records {
			stats.Records++

			codes, err := r.Resolve(raw.ZoneLabel, raw.AcademyLabel)
			if err != nil {
				resolveErr = err
				return
			}
			if len(codes) == 0 {
				stats.Unmapped++
				continue
			}

			rec, err := ParseRecord(raw, opts.DateMode)
			if err != nil {
				stats.Malformed++
				logf("⚠️  Skipping record %s: %v", raw.Origin, err)
				continue
			}

			if opts.Year != 0 && rec.Start.Year() != opts.Year && rec.End.Year() != opts.Year {
				stats.OtherYear++
				continue
			}

			for e := range Expand(rec, codes) {
				stats.Entries++
				if !yield(e) {
					return
				}
			}
		}
	}

	rows, err := Aggregate(iter.Seq[DayEntry](entries), l.Codes())
	if err != nil {
		return nil, stats, err
	}
	if resolveErr != nil {
		return nil, stats, resolveErr
	}

	if opts.FillGaps {
		rows = FillGaps(rows, l.Codes())
	}

	table, err := Shape(rows, l)
	if err != nil {
		return nil, stats, err
	}
	stats.Rows = len(table.Rows)
	return table, stats, nil
}
