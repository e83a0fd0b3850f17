package commands

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/app"
	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/matrix"
)

type writeModeFlag struct{ mode *app.WriteMode }

func (f writeModeFlag) String() string {
	if f.mode == nil {
		return ""
	}
	return string(*f.mode)
}

func (f writeModeFlag) Set(s string) error {
	m, err := app.ParseWriteMode(s)
	if err != nil {
		return err
	}
	*f.mode = m
	return nil
}

type dateModeFlag struct{ mode *matrix.DateMode }

func (f dateModeFlag) String() string {
	if f.mode == nil {
		return ""
	}
	return f.mode.String()
}

func (f dateModeFlag) Set(s string) error {
	m, err := matrix.ParseDateMode(s)
	if err != nil {
		return err
	}
	*f.mode = m
	return nil
}

// bindTransformFlags registers the flags that shape the matrix
func bindTransformFlags(fs *flag.FlagSet, cfg *app.Config) {
	fs.StringVar(&cfg.ZonesFile, "zones", cfg.ZonesFile, "Zone table YAML (default: built-in table)")
	fs.Var(dateModeFlag{&cfg.DateMode}, "date-mode", "Date parsing: truncate (take YYYY-MM-DD prefix) or utc (convert timestamp to UTC)")
	fs.StringVar(&cfg.ColumnPrefix, "column-prefix", cfg.ColumnPrefix, "Prefix for zone columns (e.g. vac_)")
	fs.StringVar(&cfg.DateColumn, "date-column", cfg.DateColumn, "Name of the date key column")
	fs.BoolFunc("no-school-year", "Omit the school_year column", boolFunc(func(v bool) { cfg.SchoolYear = !v }))
	fs.IntVar(&cfg.Year, "year", cfg.Year, "Only keep records starting or ending in this year (0 = all)")
	fs.BoolVar(&cfg.FillGaps, "fill-gaps", cfg.FillGaps, "Add all-zero rows for days without vacation")
}

// boolFunc adapts a bool setter to flag.BoolFunc
func boolFunc(set func(bool)) func(string) error {
	return func(s string) error {
		switch strings.ToLower(s) {
		case "", "true", "1":
			set(true)
		case "false", "0":
			set(false)
		default:
			return fmt.Errorf("invalid boolean %q", s)
		}
		return nil
	}
}

// bindDatabaseFlags registers the connection and destination flags
func bindDatabaseFlags(fs *flag.FlagSet, cfg *app.Config) {
	fs.StringVar(&cfg.Driver, "driver", cfg.Driver, "Database driver: postgres or sqlite")
	fs.StringVar(&cfg.DSN, "dsn", cfg.DSN, "Connection string or SQLite file (overrides DB_* variables)")
	fs.StringVar(&cfg.Table, "table", cfg.Table, "Destination table")
	fs.Var(writeModeFlag{&cfg.Mode}, "mode", "replace (clear table first) or upsert (merge on date)")
	fs.StringVar(&cfg.StagingTable, "staging-table", cfg.StagingTable, "Also keep the raw records in this table")
	fs.StringVar(&cfg.SQLDir, "sql-dir", cfg.SQLDir, "Folder with t_region_vacances.sql / t_vacances.sql to run after loading")
}

func printEnvironment() {
	fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
	fmt.Fprintf(os.Stderr, "  DB_DRIVER, DATABASE_URL, DB_HOST, DB_PORT, DB_SSLMODE\n")
	fmt.Fprintf(os.Stderr, "  POSTGRES_USER/DB_USER, POSTGRES_PASSWORD/DB_PASS, POSTGRES_DB/DB_NAME\n")
	fmt.Fprintf(os.Stderr, "  ZONES_FILE, AUTH_FILE\n")
}
