package commands

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/app"
	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/matrix"
)

const feed = "Description;Population;Date de début;Date de fin;Académies;Zones;annee_scolaire\n" +
	"Vacances d'Hiver;-;2026-02-07T00:00:00+01:00;2026-02-23T00:00:00+01:00;Bordeaux;Zone A;2025-2026\n" +
	"Krokus;-;2026-02-16T00:00:00+01:00;2026-02-22T00:00:00+01:00;Vlaanderen;BE_NL;2025-2026\n"

func clearEnv(t *testing.T) {
	for _, k := range []string{"DB_DRIVER", "DATABASE_URL", "DB_HOST", "DB_PORT", "POSTGRES_USER", "DB_USER",
		"POSTGRES_PASSWORD", "DB_PASS", "POSTGRES_DB", "DB_NAME", "DB_SSLMODE", "AUTH_FILE", "ZONES_FILE"} {
		t.Setenv(k, "")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "help", err: flag.ErrHelp, want: ExitOK},
		{name: "database", err: dbError(errors.New("connection refused")), want: ExitDatabase},
		{name: "postgres error", err: fmt.Errorf("load: %w", &pq.Error{Code: "42P01"}), want: ExitDatabase},
		{name: "missing file", err: fmt.Errorf("read: %w", &os.PathError{Op: "open", Path: "x.csv", Err: os.ErrNotExist}), want: ExitFile},
		{name: "no input", err: app.ErrNoInput, want: ExitFile},
		{name: "missing column", err: fmt.Errorf("a.csv: %w", app.ErrMissingColumn), want: ExitFormat},
		{name: "malformed date", err: fmt.Errorf("row 3: %w", matrix.ErrMalformedDate), want: ExitFormat},
		{name: "unknown code", err: matrix.ErrUnknownCode, want: ExitOther},
		{name: "invalid zone table", err: fmt.Errorf("zones.yaml: %w", matrix.ErrInvalidTable), want: ExitOther},
		{name: "other", err: errors.New("unsupported driver"), want: ExitOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestParseRun(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := parseRun([]string{
		"-mode", "upsert",
		"-date-mode", "utc",
		"-column-prefix", "vac_",
		"-date-column", "vc_date",
		"-no-school-year",
		"-year", "2026",
		"-fill-gaps",
		"-staging-table", "t_vacances_raw",
		"-sql-dir", "sql",
		"a.csv", "data/*.csv",
	})
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, app.ModeUpsert, cfg.Mode)
	assert.Equal(t, matrix.DateUTC, cfg.DateMode)
	assert.Equal(t, "vac_", cfg.ColumnPrefix)
	assert.Equal(t, "vc_date", cfg.DateColumn)
	assert.False(t, cfg.SchoolYear)
	assert.Equal(t, 2026, cfg.Year)
	assert.True(t, cfg.FillGaps)
	assert.Equal(t, "t_vacances_raw", cfg.StagingTable)
	assert.Equal(t, "sql", cfg.SQLDir)
	assert.Equal(t, []string{"a.csv", "data/*.csv"}, cfg.Inputs)
}

func TestParseRunErrors(t *testing.T) {
	clearEnv(t)

	_, err := parseRun(nil)
	assert.ErrorIs(t, err, app.ErrNoInput)

	_, err = parseRun([]string{"-mode", "append", "a.csv"})
	assert.ErrorContains(t, err, "unknown write mode")

	_, err = parseRun([]string{"-date-mode", "local", "a.csv"})
	assert.Error(t, err)

	_, err = parseRun([]string{"-driver", "sqlite", "a.csv"})
	assert.ErrorContains(t, err, "needs --dsn")
	assert.Equal(t, ExitOther, ExitCode(err))
}

func TestRunETLSQLite(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "calendrier.csv")
	require.NoError(t, os.WriteFile(input, []byte(feed), 0644))
	dbPath := filepath.Join(dir, "vacances.db")
	out := filepath.Join(dir, "matrix.json")

	cfg, err := parseRun([]string{"-driver", "sqlite", "-dsn", dbPath, "-out", out, "-fill-gaps", input})
	require.NoError(t, err)
	require.NoError(t, runETL(context.Background(), cfg))

	assert.FileExists(t, out)

	db, err := sql.Open(app.DriverSQLite, dbPath)
	require.NoError(t, err)
	defer db.Close()

	var rows, zoneA, bel int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*), SUM(fr_zone_a), SUM(bel) FROM t_vacances`).Scan(&rows, &zoneA, &bel))
	assert.Equal(t, 16, rows)
	assert.Equal(t, 16, zoneA)
	assert.Equal(t, 6, bel)
}

func TestRunETLDryRun(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "calendrier.csv")
	require.NoError(t, os.WriteFile(input, []byte(feed), 0644))

	// postgres at a closed port: a dry run never connects
	cfg, err := parseRun([]string{"-dry-run", "-dsn", "postgres://nobody@127.0.0.1:1/none", input})
	require.NoError(t, err)
	assert.NoError(t, runETL(context.Background(), cfg))
}

func TestRunETLBadInput(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(input, []byte("Zones;Description\nZone A;x\n"), 0644))

	cfg, err := parseRun([]string{"-dry-run", input})
	require.NoError(t, err)
	err = runETL(context.Background(), cfg)
	assert.Equal(t, ExitFormat, ExitCode(err))

	cfg.Inputs = []string{filepath.Join(dir, "missing.csv")}
	err = runETL(context.Background(), cfg)
	assert.Equal(t, ExitFile, ExitCode(err))
}

func TestReadMasked(t *testing.T) {
	var echo strings.Builder
	got, err := readMasked(strings.NewReader("s3cx\x7fret\r"), &echo)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
	assert.Equal(t, "****\b \b***", echo.String())

	_, err = readMasked(strings.NewReader("abc\x03"), &echo)
	assert.ErrorIs(t, err, errInterrupted)

	got, err = readMasked(strings.NewReader("éte"), &strings.Builder{})
	require.NoError(t, err)
	assert.Equal(t, "éte", got)
}
