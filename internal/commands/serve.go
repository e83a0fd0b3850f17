package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/app"
	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/matrix"
)

// Serve handles the serve subcommand
func Serve(args []string) int {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fail(err)
	}

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	port := fs.Int("port", 8080, "Port to listen on")
	bindTransformFlags(fs, &cfg)
	fs.StringVar(&cfg.AuthFile, "auth-file", cfg.AuthFile, "Credentials protecting POST /api/reload")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vacances-etl serve [OPTIONS] FILE.csv [FILE.csv|GLOB ...]\n\n")
		fmt.Fprintf(os.Stderr, "Serves the vacation matrix as JSON, CSV and iCalendar.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		printEnvironment()
	}
	if err := fs.Parse(args); err != nil {
		return fail(err)
	}
	cfg.Inputs = fs.Args()
	if len(cfg.Inputs) == 0 {
		fs.Usage()
		return fail(app.ErrNoInput)
	}

	p, err := app.NewPipeline(cfg)
	if err != nil {
		return fail(err)
	}

	auth, err := app.LoadCredentials(cfg.AuthFile)
	if err != nil {
		return fail(err)
	}

	srv, err := app.NewServer(func() (*matrix.Table, matrix.Stats, error) {
		res, err := p.Build()
		if err != nil {
			return nil, matrix.Stats{}, err
		}
		return res.Table, res.Stats, nil
	}, auth)
	if err != nil {
		return fail(err)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down: %v", err)
		}
	}()

	log.Printf("Starting vacances-etl on http://localhost:%d (zone table %s)", *port, p.Zones().Version)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fail(err)
	}
	return ExitOK
}
