package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/matrix"
)

// RequireMethod validates that the request uses the specified HTTP method
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
	}
}

// queryDate parses an optional YYYY-MM-DD query parameter
func queryDate(r *http.Request, key string) (time.Time, bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, false, nil
	}
	d, err := time.Parse(matrix.DateLayout, v)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%s: %w", key, err)
	}
	return d, true, nil
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TerminalProgress returns a Store.Progress callback that redraws one line on f.
// It returns nil when f is not a terminal, so redirected output stays clean.
func TerminalProgress(f *os.File, label string) func(done, total int) {
	if !IsTerminal(f) {
		return nil
	}
	return func(done, total int) {
		progressLine(f, label, done, total)
	}
}

func progressLine(w io.Writer, label string, done, total int) {
	pct := 100
	if total > 0 {
		pct = done * 100 / total
	}
	fmt.Fprintf(w, "\r%s %d/%d (%d%%)", label, done, total, pct)
	if done >= total {
		fmt.Fprintln(w)
	}
}
