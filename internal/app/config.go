package app

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/matrix"
)

// Constants
const (
	DefaultTable     = "t_vacances"
	RunsTable        = "etl_runs"
	DefaultAuthFile  = "auth.secret"
	BackupSuffix     = ".backup"
	TmpSuffix        = ".tmp"
	FilePermissions  = 0644
	DirPermissions   = 0755
	DefaultReference = "fr-en-calendrier-scolaire-remaining.csv"

	// Drivers
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// Error messages
	ErrInvalidDateFormat = "Invalid date format"
	ErrInvalidFormat     = "Invalid format"
	ErrUnknownZone       = "Unknown zone"
	ErrInternalServer    = "Internal server error"
	ErrReloadFailed      = "Failed to rebuild matrix"

	// ICS constants
	ICSProductID = "-//vacances-etl//Calendrier scolaire//FR"
	ICSTimezone  = "Europe/Paris"
)

// WriteMode selects how the destination table is refreshed
type WriteMode string

const (
	ModeReplace WriteMode = "replace"
	ModeUpsert  WriteMode = "upsert"
)

// ParseWriteMode parses the value of the --mode flag
func ParseWriteMode(s string) (WriteMode, error) {
	switch m := WriteMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeReplace, ModeUpsert:
		return m, nil
	default:
		return "", fmt.Errorf("unknown write mode %q (expected replace or upsert)", s)
	}
}

// Config holds everything a run needs. Defaults come from DefaultConfig,
// then environment variables (LoadConfig), then command-line flags.
type Config struct {
	// Database
	Driver   string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	// Destination
	Table        string
	StagingTable string
	Mode         WriteMode
	SQLDir       string

	// Transform
	ZonesFile    string
	DateMode     matrix.DateMode
	ColumnPrefix string
	DateColumn   string
	SchoolYear   bool
	Year         int
	FillGaps     bool

	// Inputs and outputs
	Inputs []string
	Output string
	DryRun bool

	AuthFile string
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		Driver:     DriverPostgres,
		Host:       "localhost",
		Port:       5432,
		User:       "postgres",
		Name:       "vacances",
		SSLMode:    "disable",
		Table:      DefaultTable,
		Mode:       ModeReplace,
		DateMode:   matrix.DateTruncate,
		DateColumn: matrix.DefaultDateColumn,
		SchoolYear: true,
		AuthFile:   DefaultAuthFile,
	}
}

// LoadConfig returns DefaultConfig overridden by environment variables
func LoadConfig() (Config, error) {
	return loadConfig(os.Getenv)
}

func loadConfig(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()

	setString := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	setString(&cfg.Driver, "DB_DRIVER")
	setString(&cfg.DSN, "DATABASE_URL")
	setString(&cfg.Host, "DB_HOST")
	setString(&cfg.User, "POSTGRES_USER", "DB_USER")
	setString(&cfg.Password, "POSTGRES_PASSWORD", "DB_PASS")
	setString(&cfg.Name, "POSTGRES_DB", "DB_NAME")
	setString(&cfg.SSLMode, "DB_SSLMODE")
	setString(&cfg.AuthFile, "AUTH_FILE")
	setString(&cfg.ZonesFile, "ZONES_FILE")

	if v := strings.TrimSpace(getenv("DB_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid DB_PORT %q: %w", v, err)
		}
		cfg.Port = port
	}

	return cfg, nil
}

// Validate checks flag combinations that cannot work
func (c Config) Validate() error {
	if c.Driver != DriverPostgres && c.Driver != DriverSQLite {
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	if err := checkIdentifier(c.Table); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if c.StagingTable != "" {
		if err := checkIdentifier(c.StagingTable); err != nil {
			return fmt.Errorf("staging table: %w", err)
		}
		if c.StagingTable == c.Table {
			return fmt.Errorf("staging table must differ from %s", c.Table)
		}
	}
	if c.Driver == DriverSQLite && c.DSN == "" && !c.DryRun {
		return fmt.Errorf("sqlite driver needs --dsn (database file path)")
	}
	return nil
}

// DataSource returns the connection string for the configured driver
func (c Config) DataSource() string {
	if c.DSN != "" || c.Driver != DriverPostgres {
		return c.DSN
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	return u.String()
}

// Redacted returns DataSource with the password masked, for log output
func (c Config) Redacted() string {
	ds := c.DataSource()
	u, err := url.Parse(ds)
	if err != nil || u.User == nil {
		return ds
	}
	return u.Redacted()
}
