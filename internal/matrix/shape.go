package matrix

import (
	"fmt"
	"slices"
)

// Default column names
const (
	DefaultDateColumn = "date"
	SchoolYearColumn  = "school_year"
)

// ColumnKind tells the sink how to type a column
type ColumnKind int

const (
	KindDate ColumnKind = iota
	KindFlag
	KindText
)

// Column is one output column. Code is set for flag columns only.
type Column struct {
	Name string
	Kind ColumnKind
	Code Code
}

// Layout fixes the column order of the output table
type Layout struct {
	Version string
	Known   []Code
	Primary []Code

	// DateColumn defaults to "date"
	DateColumn string

	// ColumnPrefix is prepended to every code ("vac_" turns fr_zone_a into vac_fr_zone_a)
	ColumnPrefix string

	// SchoolYear appends the passthrough school_year column
	SchoolYear bool
}

// NewLayout builds the default layout for a zone table
func NewLayout(t ZoneTable) Layout {
	return Layout{
		Version:    t.Version,
		Known:      slices.Clone(t.Known),
		Primary:    slices.Clone(t.Primary),
		DateColumn: DefaultDateColumn,
		SchoolYear: true,
	}
}

// Codes returns the known codes in column order: primary group first, then the rest sorted
func (l Layout) Codes() []Code {
	codes := make([]Code, 0, len(l.Known))
	codes = append(codes, l.Primary...)

	var rest []Code
	for _, c := range l.Known {
		if !slices.Contains(l.Primary, c) {
			rest = append(rest, c)
		}
	}
	slices.Sort(rest)
	return append(codes, rest...)
}

// Columns returns the full ordered column list
func (l Layout) Columns() []Column {
	dateCol := l.DateColumn
	if dateCol == "" {
		dateCol = DefaultDateColumn
	}

	cols := []Column{{Name: dateCol, Kind: KindDate}}
	for _, c := range l.Codes() {
		cols = append(cols, Column{Name: l.ColumnPrefix + string(c), Kind: KindFlag, Code: c})
	}
	if l.SchoolYear {
		cols = append(cols, Column{Name: SchoolYearColumn, Kind: KindText})
	}
	return cols
}

// Table is the shaped output handed to the storage collaborator
type Table struct {
	Version string
	Columns []Column
	Rows    []Row
}

// Shape validates rows against the layout and returns them with a fixed column order.
// Known codes missing from a row are set to 0; codes outside the known set are rejected.
func Shape(rows []Row, l Layout) (*Table, error) {
	known := make(map[Code]struct{}, len(l.Known))
	for _, c := range l.Known {
		known[c] = struct{}{}
	}

	shaped := make([]Row, len(rows))
	for i, row := range rows {
		if i > 0 && !row.Date.After(rows[i-1].Date) {
			return nil, fmt.Errorf("rows not strictly ordered by date at %s", row.Date.Format(DateLayout))
		}

		flags := make(map[Code]int, len(l.Known))
		for c := range known {
			flags[c] = 0
		}
		for c, v := range row.Flags {
			if _, ok := known[c]; !ok {
				return nil, fmt.Errorf("%w: column %s on %s", ErrUnknownCode, c, row.Date.Format(DateLayout))
			}
			if v != 0 {
				flags[c] = 1
			}
		}
		shaped[i] = Row{Date: row.Date, Flags: flags}
		if l.SchoolYear {
			shaped[i].SchoolYear = row.SchoolYear
		}
	}

	return &Table{Version: l.Version, Columns: l.Columns(), Rows: shaped}, nil
}

// Names returns the column names in order
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Values returns row i as a slice aligned with Columns
func (t *Table) Values(i int) []any {
	row := t.Rows[i]
	vals := make([]any, len(t.Columns))
	for j, c := range t.Columns {
		switch c.Kind {
		case KindDate:
			vals[j] = row.Date.Format(DateLayout)
		case KindFlag:
			vals[j] = row.Flags[c.Code]
		case KindText:
			vals[j] = row.SchoolYear
		}
	}
	return vals
}

// Column returns the flag column for a code
func (t *Table) Column(c Code) (Column, bool) {
	for _, col := range t.Columns {
		if col.Kind == KindFlag && col.Code == c {
			return col, true
		}
	}
	return Column{}, false
}
