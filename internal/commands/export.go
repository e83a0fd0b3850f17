package commands

import (
	"flag"
	"fmt"
	"os"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/app"
)

// ExportNeighbours handles the export-neighbours subcommand
func ExportNeighbours(args []string) int {
	fs := flag.NewFlagSet("export-neighbours", flag.ContinueOnError)
	out := fs.String("out", app.DefaultReference, "Output CSV file")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vacances-etl export-neighbours [-out FILE]\n\n")
		fmt.Fprintf(os.Stderr, "Writes the %s holidays of Belgium, Bavaria, Zurich, South Tyrol, Galicia and Luxembourg\n", app.ReferenceSchoolYear)
		fmt.Fprintf(os.Stderr, "as a semicolon CSV in the French calendar feed format.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return fail(err)
	}

	if err := app.ExportReference(*out); err != nil {
		return fail(err)
	}
	return ExitOK
}
