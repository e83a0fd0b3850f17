package commands

import (
	"flag"
	"fmt"
	"os"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/app"
)

// Zones handles the zones subcommand: validates a zone table and prints it with its column order
func Zones(args []string) int {
	fs := flag.NewFlagSet("zones", flag.ContinueOnError)
	file := fs.String("zones", os.Getenv("ZONES_FILE"), "Zone table YAML (default: built-in table)")
	prefix := fs.String("column-prefix", "", "Prefix for zone columns")
	if err := fs.Parse(args); err != nil {
		return fail(err)
	}

	cfg := app.DefaultConfig()
	cfg.ZonesFile = *file
	cfg.ColumnPrefix = *prefix
	p, err := app.NewPipeline(cfg)
	if err != nil {
		return fail(err)
	}

	data, err := app.MarshalZoneTable(p.Zones())
	if err != nil {
		return fail(err)
	}
	os.Stdout.Write(data)

	fmt.Println("\n# columns:")
	for _, c := range p.Layout().Columns() {
		fmt.Printf("#   %s\n", c.Name)
	}
	return ExitOK
}
