package commands

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/app"
)

// HashPassword handles the hash-password subcommand
func HashPassword(args []string) int {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fail(err)
	}

	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	fs.StringVar(&cfg.AuthFile, "file", cfg.AuthFile, "Auth file to write")
	overwrite := fs.Bool("overwrite", false, "Overwrite existing auth file without asking")
	insecureUnmask := fs.Bool("insecure-unmask-password", false, "Show password as plain text (INSECURE!)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vacances-etl hash-password [OPTIONS]\n\n")
		fmt.Fprintf(os.Stderr, "Creates an auth file with a hashed password (Argon2id) protecting POST /api/reload.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  AUTH_FILE    Path to auth file (default: ./%s)\n", app.DefaultAuthFile)
	}
	if err := fs.Parse(args); err != nil {
		return fail(err)
	}

	in := bufio.NewReader(os.Stdin)

	username, err := readLine(in, "Enter username: ")
	if err != nil {
		return fail(fmt.Errorf("reading username: %w", err))
	}
	username = strings.TrimSpace(username)
	if username == "" || strings.Contains(username, ":") {
		return fail(errors.New("username must be non-empty and cannot contain ':'"))
	}

	var password, passwordConfirm string
	if *insecureUnmask || !app.IsTerminal(os.Stdin) {
		if *insecureUnmask {
			fmt.Fprintf(os.Stderr, "⚠️  WARNING: Password will be visible on screen!\n")
		}
		if password, err = readLine(in, "Enter password:   "); err != nil {
			return fail(fmt.Errorf("reading password: %w", err))
		}
		if passwordConfirm, err = readLine(in, "Confirm password: "); err != nil {
			return fail(fmt.Errorf("reading password confirmation: %w", err))
		}
	} else {
		if password, err = readPasswordWithMask("Enter password:   "); err != nil {
			return fail(err)
		}
		if passwordConfirm, err = readPasswordWithMask("Confirm password: "); err != nil {
			return fail(err)
		}
	}

	if password == "" {
		return fail(errors.New("password cannot be empty"))
	}
	if password != passwordConfirm {
		return fail(errors.New("passwords do not match"))
	}

	err = app.CreateAuthFile(cfg.AuthFile, username, password, *overwrite)
	if errors.Is(err, app.ErrAuthFileExists) {
		answer, rerr := readLine(in, fmt.Sprintf("%s already exists. Overwrite? [y/N]: ", cfg.AuthFile))
		if rerr != nil || !strings.EqualFold(strings.TrimSpace(answer), "y") {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return ExitOther
		}
		err = app.CreateAuthFile(cfg.AuthFile, username, password, true)
	}
	if err != nil {
		return fail(err)
	}

	fmt.Printf("✅ Auth file created: %s (user: %s)\n", cfg.AuthFile, username)
	return ExitOK
}
