package app

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/matrix"
)

// RebuildFunc produces a fresh matrix, typically Pipeline.Build
type RebuildFunc func() (*matrix.Table, matrix.Stats, error)

// Server serves the current matrix over HTTP and can rebuild it on demand
type Server struct {
	mu    sync.RWMutex
	table *matrix.Table
	stats matrix.Stats
	built time.Time

	rebuild RebuildFunc
	auth    *Credentials

	// Now is used for DTSTAMP and the subscription window; defaults to time.Now
	Now func() time.Time
}

// NewServer builds the first matrix. A nil auth leaves /api/reload open.
func NewServer(rebuild RebuildFunc, auth *Credentials) (*Server, error) {
	s := &Server{rebuild: rebuild, auth: auth, Now: time.Now}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the served matrix. The old one stays in place on error.
func (s *Server) Reload() error {
	table, stats, err := s.rebuild()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.table = table
	s.stats = stats
	s.built = s.Now()
	s.mu.Unlock()
	return nil
}

func (s *Server) current() (*matrix.Table, matrix.Stats, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table, s.stats, s.built
}

// Routes returns the HTTP handler with every endpoint registered
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/zones", s.HandleZones)
	mux.HandleFunc("GET /api/matrix", s.HandleMatrix)
	mux.HandleFunc("GET /api/download", s.HandleDownload)
	mux.HandleFunc("GET /api/subscribe/{zone}", s.HandleSubscribe)
	mux.HandleFunc("/api/reload", s.auth.RequireAuth(s.HandleReload))
	return mux
}

// HandleZones returns the column layout of the served matrix
func (s *Server) HandleZones(w http.ResponseWriter, r *http.Request) {
	table, stats, built := s.current()

	type column struct {
		Name string      `json:"name"`
		Code matrix.Code `json:"code,omitempty"`
		Kind string      `json:"kind"`
	}
	cols := make([]column, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = column{Name: c.Name, Code: c.Code, Kind: kindName(c.Kind)}
	}

	resp := map[string]any{
		"version": table.Version,
		"columns": cols,
		"rows":    len(table.Rows),
		"builtAt": built.UTC().Format(time.RFC3339),
		"stats":   stats,
	}
	if len(table.Rows) > 0 {
		resp["first"] = table.Rows[0].Date.Format(matrix.DateLayout)
		resp["last"] = table.Rows[len(table.Rows)-1].Date.Format(matrix.DateLayout)
	}
	writeJSON(w, resp)
}

func kindName(k matrix.ColumnKind) string {
	switch k {
	case matrix.KindDate:
		return "date"
	case matrix.KindFlag:
		return "flag"
	default:
		return "text"
	}
}

// HandleMatrix returns the rows in [from, to) as JSON
// Query params: from, to (optional, YYYY-MM-DD)
func (s *Server) HandleMatrix(w http.ResponseWriter, r *http.Request) {
	table, _, _ := s.current()

	window, err := windowFromQuery(r, table)
	if err != nil {
		http.Error(w, ErrInvalidDateFormat, http.StatusBadRequest)
		return
	}

	doc := matrixDocument{Version: window.Version, Columns: window.Names(), Rows: make([][]any, len(window.Rows))}
	for i := range window.Rows {
		doc.Rows[i] = window.Values(i)
	}
	writeJSON(w, doc)
}

// windowFromQuery restricts the table to the from/to query parameters (to is exclusive)
func windowFromQuery(r *http.Request, t *matrix.Table) (*matrix.Table, error) {
	from, hasFrom, err := queryDate(r, "from")
	if err != nil {
		return nil, err
	}
	to, hasTo, err := queryDate(r, "to")
	if err != nil {
		return nil, err
	}
	if !hasFrom && !hasTo {
		return t, nil
	}

	out := &matrix.Table{Version: t.Version, Columns: t.Columns}
	for _, row := range t.Rows {
		if hasFrom && row.Date.Before(from) {
			continue
		}
		if hasTo && !row.Date.Before(to) {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// findZone looks a zone up by code or by column name
func findZone(t *matrix.Table, zone string) (matrix.Column, bool) {
	if col, ok := t.Column(matrix.Code(zone)); ok {
		return col, true
	}
	for _, col := range t.Columns {
		if col.Kind == matrix.KindFlag && col.Name == zone {
			return col, true
		}
	}
	return matrix.Column{}, false
}

// parseReminders reads repeated reminder=DAYS@HH:MM parameters
func parseReminders(r *http.Request) ([]Reminder, error) {
	var reminders []Reminder
	for _, v := range r.URL.Query()["reminder"] {
		days, at, ok := strings.Cut(v, "@")
		if !ok {
			return nil, fmt.Errorf("reminder %q: expected DAYS@HH:MM", v)
		}
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("reminder %q: invalid day count", v)
		}
		reminders = append(reminders, Reminder{DaysBefore: n, Time: at})
	}
	return reminders, nil
}

// HandleDownload handles export downloads in CSV, JSON or ICS format
// Query params: format, zone (required for ics), from, to, reminder
func (s *Server) HandleDownload(w http.ResponseWriter, r *http.Request) {
	table, _, _ := s.current()
	format := r.URL.Query().Get("format")

	window, err := windowFromQuery(r, table)
	if err != nil {
		http.Error(w, ErrInvalidDateFormat, http.StatusBadRequest)
		return
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename=vacances.csv")
		if err := WriteMatrixCSV(w, window, ';'); err != nil {
			log.Printf("Error writing CSV: %v", err)
		}
	case "json":
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename=vacances.json")
		if err := WriteMatrixJSON(w, window); err != nil {
			log.Printf("Error writing JSON: %v", err)
		}
	case "ics":
		col, ok := findZone(window, r.URL.Query().Get("zone"))
		if !ok {
			http.Error(w, ErrUnknownZone, http.StatusNotFound)
			return
		}
		reminders, err := parseReminders(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=vacances_%s.ics", col.Name))
		WriteICS(w, col.Name, Periods(window, col.Code), ICSOptions{Reminders: reminders, Now: s.Now()})
	default:
		http.Error(w, ErrInvalidFormat, http.StatusBadRequest)
	}
}

// HandleSubscribe serves an ICS feed for one zone.
// Periods that ended before January 1st of last year are left out.
func (s *Server) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	table, _, _ := s.current()

	col, ok := findZone(table, r.PathValue("zone"))
	if !ok {
		http.Error(w, ErrUnknownZone, http.StatusNotFound)
		return
	}

	now := s.Now()
	cutoff := time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, time.UTC)

	var periods []Period
	for _, p := range Periods(table, col.Code) {
		if p.End.After(cutoff) {
			periods = append(periods, p)
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	WriteICS(w, col.Name, periods, ICSOptions{Subscription: true, Now: now})
}

// HandleReload rebuilds the matrix from the configured inputs
func (s *Server) HandleReload(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := s.Reload(); err != nil {
		log.Printf("Error rebuilding matrix: %v", err)
		http.Error(w, ErrReloadFailed, http.StatusInternalServerError)
		return
	}

	table, stats, _ := s.current()
	log.Printf("✅ Matrix reloaded (%d rows)", len(table.Rows))
	writeJSON(w, map[string]any{"status": "ok", "rows": len(table.Rows), "stats": stats})
}
