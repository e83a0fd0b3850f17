package commands

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/app"
)

// parseRun builds the configuration of the run subcommand from env and args
func parseRun(args []string) (app.Config, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	bindDatabaseFlags(fs, &cfg)
	bindTransformFlags(fs, &cfg)
	fs.StringVar(&cfg.Output, "out", cfg.Output, "Also write the matrix to a .csv or .json file")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Build the matrix without touching the database")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vacances-etl [run] [OPTIONS] FILE.csv [FILE.csv|GLOB ...]\n\n")
		fmt.Fprintf(os.Stderr, "Builds the day x zone vacation matrix from calendar CSV feeds and loads it.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		printEnvironment()
	}
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.Inputs = fs.Args()
	if len(cfg.Inputs) == 0 {
		fs.Usage()
		return cfg, app.ErrNoInput
	}
	return cfg, cfg.Validate()
}

// Run handles the default ETL subcommand
func Run(args []string) int {
	cfg, err := parseRun(args)
	if err != nil {
		return fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runETL(ctx, cfg); err != nil {
		return fail(err)
	}
	return ExitOK
}

func runETL(ctx context.Context, cfg app.Config) error {
	p, err := app.NewPipeline(cfg)
	if err != nil {
		return err
	}

	res, err := p.Build()
	if err != nil {
		return err
	}

	if cfg.Output != "" {
		if err := app.SaveMatrix(cfg.Output, res.Table); err != nil {
			return err
		}
	}
	if cfg.DryRun {
		log.Printf("Dry run: %d rows not written to %s", len(res.Table.Rows), cfg.Table)
		return nil
	}

	if err := promptDatabasePassword(&cfg); err != nil {
		return err
	}

	log.Printf("Connecting to %s", cfg.Redacted())
	store, err := app.OpenStore(ctx, cfg.Driver, cfg.DataSource())
	if err != nil {
		return dbError(err)
	}
	defer store.Close()
	store.Progress = app.TerminalProgress(os.Stderr, "Writing rows")

	if _, err := p.Load(ctx, store, res); err != nil {
		return dbError(err)
	}
	return nil
}

// promptDatabasePassword asks for the Postgres password when none is configured and stdin is a terminal
func promptDatabasePassword(cfg *app.Config) error {
	if cfg.Driver != app.DriverPostgres || cfg.DSN != "" || cfg.Password != "" || !app.IsTerminal(os.Stdin) {
		return nil
	}
	password, err := readPasswordWithMask(fmt.Sprintf("Password for %s@%s: ", cfg.User, cfg.Host))
	if err != nil {
		return err
	}
	cfg.Password = password
	return nil
}
