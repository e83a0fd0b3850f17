package matrix

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used on both sides of the pipeline
const DateLayout = "2006-01-02"

// DateMode selects how timestamps with a time or offset suffix become calendar days
type DateMode int

const (
	// DateTruncate keeps the leading YYYY-MM-DD text and ignores the rest.
	// A trailing offset never shifts the day.
	DateTruncate DateMode = iota

	// DateUTC parses the full timestamp and takes the day after converting to UTC.
	// "2025-10-27T00:00:00+01:00" becomes 2025-10-26.
	DateUTC
)

func (m DateMode) String() string {
	switch m {
	case DateUTC:
		return "utc"
	default:
		return "truncate"
	}
}

// ParseDateMode parses the value of the --date-mode flag
func ParseDateMode(s string) (DateMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "truncate":
		return DateTruncate, nil
	case "utc":
		return DateUTC, nil
	default:
		return DateTruncate, fmt.Errorf("unknown date mode %q (expected truncate or utc)", s)
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02Z07:00",
	DateLayout,
}

// ParseDate converts an ISO-8601-like string to a calendar day at UTC midnight
func ParseDate(s string, mode DateMode) (time.Time, error) {
	s = strings.TrimSpace(s)

	if mode == DateUTC {
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return Day(t.UTC()), nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}

	if len(s) < len(DateLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	if len(s) > len(DateLayout) {
		// time ("T", " ") or bare offset ("Z", "+02:00", "-05:00")
		if !strings.ContainsRune("T Zz+-", rune(s[len(DateLayout)])) {
			return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
		}
	}
	t, err := time.Parse(DateLayout, s[:len(DateLayout)])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return t, nil
}

// Day truncates t to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseRecord parses the dates of a raw record
func ParseRecord(raw RawRecord, mode DateMode) (Record, error) {
	start, err := ParseDate(raw.StartDate, mode)
	if err != nil {
		return Record{}, fmt.Errorf("start date: %w", err)
	}
	end, err := ParseDate(raw.EndDate, mode)
	if err != nil {
		return Record{}, fmt.Errorf("end date: %w", err)
	}

	return Record{
		Description:  strings.TrimSpace(raw.Description),
		ZoneLabel:    raw.ZoneLabel,
		AcademyLabel: raw.AcademyLabel,
		Start:        start,
		End:          end,
		SchoolYear:   strings.TrimSpace(raw.SchoolYear),
	}, nil
}
