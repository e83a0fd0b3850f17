package app

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/matrix"
)

// writeString writes to w and logs any error (helper for ICS generation)
func writeString(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format+"\r\n", args...); err != nil {
		log.Printf("Error writing ICS output: %v", err)
	}
}

// WriteMatrixCSV writes the table with its header row
func WriteMatrixCSV(w io.Writer, t *matrix.Table, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma

	if err := cw.Write(t.Names()); err != nil {
		return err
	}

	record := make([]string, len(t.Columns))
	for i := range t.Rows {
		for j, v := range t.Values(i) {
			switch v := v.(type) {
			case int:
				record[j] = strconv.Itoa(v)
			default:
				record[j] = fmt.Sprint(v)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteMatrixJSON writes the table as {"version", "columns", "rows"} with rows as arrays
func WriteMatrixJSON(w io.Writer, t *matrix.Table) error {
	doc := matrixDocument{
		Version: t.Version,
		Columns: t.Names(),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i := range t.Rows {
		doc.Rows[i] = t.Values(i)
	}

	enc := json.NewEncoder(w)
	return enc.Encode(doc)
}

// Periods collapses the flag column of code into runs of consecutive days
func Periods(t *matrix.Table, code matrix.Code) []Period {
	var periods []Period
	var cur *Period

	for _, row := range t.Rows {
		if row.Flags[code] == 0 {
			cur = nil
			continue
		}
		next := row.Date.AddDate(0, 0, 1)
		if cur != nil && cur.End.Equal(row.Date) {
			cur.End = next
			continue
		}
		periods = append(periods, Period{Code: code, Start: row.Date, End: next})
		cur = &periods[len(periods)-1]
	}
	return periods
}

// Reminder asks for an alarm DaysBefore the first vacation day at Time (HH:MM)
type Reminder struct {
	DaysBefore int
	Time       string
}

// ICSOptions controls calendar generation
type ICSOptions struct {
	Name string

	// Subscription feeds add METHOD:PUBLISH and a refresh hint, and never carry alarms
	Subscription bool
	Reminders    []Reminder

	// Now stamps DTSTAMP; zero means time.Now
	Now time.Time
}

// WriteICS writes one all-day VEVENT per period. DTEND is exclusive, like Period.End.
func WriteICS(w io.Writer, column string, periods []Period, opts ICSOptions) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	name := opts.Name
	if name == "" {
		name = "Vacances scolaires " + column
	}

	writeString(w, "BEGIN:VCALENDAR")
	writeString(w, "VERSION:2.0")
	writeString(w, "PRODID:%s", ICSProductID)
	if opts.Subscription {
		writeString(w, "METHOD:PUBLISH")
	}
	writeString(w, "X-WR-CALNAME:%s", name)
	writeString(w, "X-WR-TIMEZONE:%s", ICSTimezone)
	writeString(w, "CALSCALE:GREGORIAN")
	if opts.Subscription {
		writeString(w, "X-PUBLISHED-TTL:P1D")
	}

	for _, p := range periods {
		// UID must be stable so subscribed calendars update in place
		uid := fmt.Sprintf("%s-%s@vacances-etl", p.Start.Format("20060102"), column)

		writeString(w, "BEGIN:VEVENT")
		writeString(w, "UID:%s", uid)
		writeString(w, "DTSTAMP:%s", now.UTC().Format("20060102T150405Z"))
		writeString(w, "DTSTART;VALUE=DATE:%s", p.Start.Format("20060102"))
		writeString(w, "DTEND;VALUE=DATE:%s", p.End.Format("20060102"))
		writeString(w, "SUMMARY:Vacances %s", column)
		writeString(w, "DESCRIPTION:%d jour(s) de vacances (%s)", p.Days(), column)
		writeString(w, "TRANSP:TRANSPARENT")

		if !opts.Subscription {
			for _, r := range opts.Reminders {
				AddAlarm(w, p.Start, r.DaysBefore, r.Time, "Vacances "+column)
			}
		}

		writeString(w, "END:VEVENT")
	}

	writeString(w, "END:VCALENDAR")
}

// AddAlarm adds a display alarm daysBefore the event at alarmTime (HH:MM).
// Invalid times are ignored.
func AddAlarm(w io.Writer, eventDate time.Time, daysBefore int, alarmTime string, description string) {
	hourStr, minuteStr, ok := strings.Cut(alarmTime, ":")
	if !ok {
		return
	}
	hour, err1 := strconv.Atoi(hourStr)
	minute, err2 := strconv.Atoi(minuteStr)
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return
	}

	// Event starts at 00:00; the trigger is relative to that
	eventStart := matrix.Day(eventDate)
	alarmAt := eventStart.AddDate(0, 0, -daysBefore).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	totalMinutes := int(alarmAt.Sub(eventStart).Minutes())

	sign := ""
	if totalMinutes < 0 {
		sign = "-"
		totalMinutes = -totalMinutes
	}
	days := totalMinutes / (24 * 60)
	hours := totalMinutes % (24 * 60) / 60
	minutes := totalMinutes % 60

	writeString(w, "BEGIN:VALARM")
	writeString(w, "ACTION:DISPLAY")
	writeString(w, "DESCRIPTION:Rappel: %s", description)
	writeString(w, "TRIGGER:%sP%dDT%dH%dM", sign, days, hours, minutes)
	writeString(w, "END:VALARM")
}
