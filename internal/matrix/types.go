package matrix

import "time"

// Code is a canonical output column identifier (fr_zone_a, bel, ...)
type Code string

// RawRecord represents one source row as read from a calendar feed
type RawRecord struct {
	Description  string
	Population   string
	ZoneLabel    string
	AcademyLabel string
	StartDate    string
	EndDate      string
	SchoolYear   string

	// Origin is "file:line", used in log messages only
	Origin string
}

// Record is a RawRecord whose dates have been parsed to calendar days (UTC midnight)
type Record struct {
	Description  string
	ZoneLabel    string
	AcademyLabel string
	Start        time.Time
	End          time.Time
	SchoolYear   string
}

// DayEntry marks one zone as on vacation for one day
type DayEntry struct {
	Date       time.Time
	Code       Code
	SchoolYear string
}

// Row is one output row: a date and a 0/1 flag for every known code
type Row struct {
	Date       time.Time
	Flags      map[Code]int
	SchoolYear string
}

func newRow(date time.Time, known []Code) *Row {
	flags := make(map[Code]int, len(known))
	for _, c := range known {
		flags[c] = 0
	}
	return &Row{Date: date, Flags: flags}
}
