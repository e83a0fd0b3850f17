package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/matrix"
)

// SQL scripts run after a load, in this order, when present in the script directory
var PostLoadScripts = []string{"t_region_vacances.sql", "t_vacances.sql"}

var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func checkIdentifier(name string) error {
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

// Store writes vacation matrices into a relational database
type Store struct {
	db     *sql.DB
	driver string

	// Progress, when set, is called while rows are written
	Progress func(done, total int)
}

// Run is one row of the etl_runs audit table. BuiltAt is when the matrix
// was finished; the row itself commits with the load.
type Run struct {
	ID          uuid.UUID
	StartedAt   time.Time
	BuiltAt     time.Time
	Table       string
	Mode        WriteMode
	Rows        int
	Files       int
	Digest      string
	ZoneVersion string
}

// LoadRequest is everything written in the single transaction of a run
type LoadRequest struct {
	Table        string
	Mode         WriteMode
	Matrix       *matrix.Table
	StagingTable string
	Staging      []matrix.RawRecord
	Run          Run
}

// OpenStore connects to the database and checks it is reachable
func OpenStore(ctx context.Context, driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return NewStore(db, driver), nil
}

// NewStore wraps an open database handle
func NewStore(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Load writes the staging table, the matrix and the audit row in one transaction.
// Nothing is committed if any step fails.
func (s *Store) Load(ctx context.Context, req LoadRequest) (err error) {
	if err := checkIdentifier(req.Table); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("Error rolling back: %v", rbErr)
			}
		}
	}()

	if req.StagingTable != "" {
		if err = s.writeStaging(ctx, tx, req.StagingTable, req.Staging); err != nil {
			return fmt.Errorf("staging table %s: %w", req.StagingTable, err)
		}
	}

	if err = s.ensureTable(ctx, tx, req.Table, req.Matrix.Columns); err != nil {
		return fmt.Errorf("table %s: %w", req.Table, err)
	}
	if err = s.writeRows(ctx, tx, req.Table, req.Matrix, req.Mode); err != nil {
		return fmt.Errorf("table %s: %w", req.Table, err)
	}
	if err = s.recordRun(ctx, tx, req.Run); err != nil {
		return fmt.Errorf("%s: %w", RunsTable, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Columns returns the column names of an existing table (empty if it does not exist)
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	return s.columns(ctx, s.db, table)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) columns(ctx context.Context, q querier, table string) ([]string, error) {
	var query string
	switch s.driver {
	case DriverSQLite:
		query = `SELECT name FROM pragma_table_info(?)`
	default:
		query = `SELECT column_name FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1
			ORDER BY ordinal_position`
	}

	rows, err := q.QueryContext(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func columnType(c matrix.Column) string {
	switch c.Kind {
	case matrix.KindDate:
		return "DATE PRIMARY KEY"
	case matrix.KindFlag:
		return "INTEGER NOT NULL DEFAULT 0"
	default:
		return "TEXT"
	}
}

// ensureTable creates the table, or adds the columns an older schema lacks
func (s *Store) ensureTable(ctx context.Context, q querier, table string, cols []matrix.Column) error {
	existing, err := s.columns(ctx, q, table)
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		defs := make([]string, len(cols))
		for i, c := range cols {
			defs[i] = pq.QuoteIdentifier(c.Name) + " " + columnType(c)
		}
		_, err := q.ExecContext(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
			pq.QuoteIdentifier(table), strings.Join(defs, ",\n\t")))
		return err
	}

	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}
	if !have[cols[0].Name] {
		return fmt.Errorf("existing table has no %s column", cols[0].Name)
	}

	for _, c := range cols[1:] {
		if have[c.Name] {
			continue
		}
		if _, err := q.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
			pq.QuoteIdentifier(table), pq.QuoteIdentifier(c.Name), columnType(c))); err != nil {
			return fmt.Errorf("add column %s: %w", c.Name, err)
		}
		log.Printf("Added column %s to %s", c.Name, table)
	}
	return nil
}

func (s *Store) placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		if s.driver == DriverSQLite {
			marks[i] = "?"
		} else {
			marks[i] = fmt.Sprintf("$%d", i+1)
		}
	}
	return strings.Join(marks, ", ")
}

func quoteAll(names []string) []string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = pq.QuoteIdentifier(n)
	}
	return quoted
}

// insertSQL builds the row statement; upsert updates every non-key column on date conflict
func (s *Store) insertSQL(table string, names []string, mode WriteMode) string {
	quoted := quoteAll(names)
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(table), strings.Join(quoted, ", "), s.placeholders(len(names)))

	if mode == ModeUpsert {
		sets := make([]string, 0, len(quoted)-1)
		for _, q := range quoted[1:] {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
		}
		stmt += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", quoted[0], strings.Join(sets, ", "))
	}
	return stmt
}

type preparer interface {
	querier
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func (s *Store) writeRows(ctx context.Context, q preparer, table string, m *matrix.Table, mode WriteMode) error {
	if mode == ModeReplace {
		if _, err := q.ExecContext(ctx, "DELETE FROM "+pq.QuoteIdentifier(table)); err != nil {
			return fmt.Errorf("clear rows: %w", err)
		}
	}

	stmt, err := q.PrepareContext(ctx, s.insertSQL(table, m.Names(), mode))
	if err != nil {
		return err
	}
	defer stmt.Close()

	total := len(m.Rows)
	for i := range m.Rows {
		if _, err := stmt.ExecContext(ctx, m.Values(i)...); err != nil {
			return fmt.Errorf("row %s: %w", m.Rows[i].Date.Format(matrix.DateLayout), err)
		}
		if s.Progress != nil && (i%100 == 99 || i == total-1) {
			s.Progress(i+1, total)
		}
	}
	return nil
}

var stagingColumns = []string{
	"description", "population", "date_debut", "date_fin",
	"academies", "zones", "annee_scolaire", "origin",
}

func (s *Store) writeStaging(ctx context.Context, q preparer, table string, records []matrix.RawRecord) error {
	if err := checkIdentifier(table); err != nil {
		return err
	}

	quoted := quoteAll(stagingColumns)
	defs := make([]string, len(quoted))
	for i, c := range quoted {
		defs[i] = c + " TEXT"
	}

	if _, err := q.ExecContext(ctx, "DROP TABLE IF EXISTS "+pq.QuoteIdentifier(table)); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)",
		pq.QuoteIdentifier(table), strings.Join(defs, ", "))); err != nil {
		return err
	}

	stmt, err := q.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(table), strings.Join(quoted, ", "), s.placeholders(len(quoted))))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Description, r.Population, r.StartDate, r.EndDate,
			r.AcademyLabel, r.ZoneLabel, r.SchoolYear, r.Origin); err != nil {
			return fmt.Errorf("record %s: %w", r.Origin, err)
		}
	}
	return nil
}

func (s *Store) recordRun(ctx context.Context, q querier, run Run) error {
	idType, tsType := "UUID", "TIMESTAMPTZ"
	if s.driver == DriverSQLite {
		idType, tsType = "TEXT", "TIMESTAMP"
	}

	_, err := q.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id %s PRIMARY KEY,
			started_at %s NOT NULL,
			built_at %s NOT NULL,
			table_name TEXT NOT NULL,
			mode TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			file_count INTEGER NOT NULL,
			input_digest TEXT NOT NULL,
			zone_version TEXT
		)`, pq.QuoteIdentifier(RunsTable), idType, tsType, tsType))
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s
		(id, started_at, built_at, table_name, mode, row_count, file_count, input_digest, zone_version)
		VALUES (%s)`, pq.QuoteIdentifier(RunsTable), s.placeholders(9)),
		run.ID.String(), run.StartedAt.UTC(), run.BuiltAt.UTC(), run.Table, string(run.Mode),
		run.Rows, run.Files, run.Digest, run.ZoneVersion)
	return err
}

// ExecScripts runs the post-load SQL scripts found in dir and returns how many ran
func (s *Store) ExecScripts(ctx context.Context, dir string) (int, error) {
	ran := 0
	for _, name := range PostLoadScripts {
		path := filepath.Join(dir, name)
		script, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return ran, err
		}

		if err := s.execScript(ctx, string(script)); err != nil {
			return ran, fmt.Errorf("%s: %w", path, err)
		}
		log.Printf("✅ Executed %s", path)
		ran++
	}
	return ran, nil
}

func (s *Store) execScript(ctx context.Context, script string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, script); err != nil {
		return err
	}
	return tx.Commit()
}
