package commands

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/lib/pq"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/app"
	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/matrix"
)

// Exit codes
const (
	ExitOK       = 0
	ExitDatabase = 1
	ExitFile     = 2
	ExitFormat   = 3
	ExitOther    = 4
)

// errDatabase marks failures coming from the store
var errDatabase = errors.New("database error")

func dbError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errDatabase, err)
}

// ExitCode maps an error to the process exit status
func ExitCode(err error) int {
	var pqErr *pq.Error
	var pathErr *fs.PathError

	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return ExitOK
	case errors.Is(err, errDatabase), errors.As(err, &pqErr):
		return ExitDatabase
	case errors.Is(err, app.ErrNoInput), errors.As(err, &pathErr):
		return ExitFile
	case errors.Is(err, app.ErrFormat),
		errors.Is(err, app.ErrMissingColumn),
		errors.Is(err, matrix.ErrMalformedDate):
		return ExitFormat
	case errors.Is(err, matrix.ErrUnknownCode), errors.Is(err, matrix.ErrInvalidTable):
		// zone table gaps are configuration errors
		return ExitOther
	default:
		return ExitOther
	}
}

// fail reports err on stderr and returns its exit code
func fail(err error) int {
	code := ExitCode(err)
	if code != ExitOK {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return code
}
