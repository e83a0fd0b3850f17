package main

import (
	"fmt"
	"os"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/commands"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: vacances-etl [COMMAND] [OPTIONS] ...\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  run                Build the vacation matrix and load it (default)\n")
	fmt.Fprintf(os.Stderr, "  serve              Serve the matrix over HTTP (JSON, CSV, iCalendar)\n")
	fmt.Fprintf(os.Stderr, "  export-neighbours  Write the neighbouring-country reference CSV\n")
	fmt.Fprintf(os.Stderr, "  zones              Validate and print the zone table\n")
	fmt.Fprintf(os.Stderr, "  hash-password      Create the auth file for POST /api/reload\n")
	fmt.Fprintf(os.Stderr, "\nRun 'vacances-etl COMMAND -h' for command options.\n")
}

func main() {
	args := os.Args[1:]
	cmd := "run"
	if len(args) > 0 {
		switch args[0] {
		case "run", "serve", "export-neighbours", "zones", "hash-password":
			cmd, args = args[0], args[1:]
		case "help", "-h", "--help":
			usage()
			return
		}
	}

	var code int
	switch cmd {
	case "serve":
		code = commands.Serve(args)
	case "export-neighbours":
		code = commands.ExportNeighbours(args)
	case "zones":
		code = commands.Zones(args)
	case "hash-password":
		code = commands.HashPassword(args)
	default:
		code = commands.Run(args)
	}
	os.Exit(code)
}
