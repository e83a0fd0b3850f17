package app

import (
	"time"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/matrix"
)

// Period is a run of consecutive vacation days for one zone, End exclusive
type Period struct {
	Code  matrix.Code `json:"code"`
	Start time.Time   `json:"start"`
	End   time.Time   `json:"end"`
}

// Days returns the number of days in the period
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours() / 24)
}

// Holiday is one hand-authored reference entry, in the shape of the MENJ feed
type Holiday struct {
	Description string
	Start       string
	End         string
	Academy     string
	Zone        string
	SchoolYear  string
}

// matrixDocument is the JSON export layout
type matrixDocument struct {
	Version string   `json:"version"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}
