package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"socialgood/internal/adapter/repo"
	"socialgood/internal/domain"
	"socialgood/internal/donation"
	"socialgood/internal/infra"
)

// openFunc returns the record store to query and a release func for it.
type openFunc func(ctx context.Context) (domain.RecordStore, func(), error)

func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, openConfigured); err != nil {
		exitWithError(err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, open openFunc) error {
	fs := flag.NewFlagSet("donationctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		idFlag    string
		emailFlag string
		statsFlag bool
	)
	fs.StringVar(&idFlag, "id", "", "donation ID to print")
	fs.StringVar(&emailFlag, "email", "", "print every donation made with this email")
	fs.BoolVar(&statsFlag, "stats", false, "print donation totals")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)
	if id == "" && email == "" && !statsFlag {
		return errors.New("one of -id, -email or -stats must be provided")
	}

	store, release, err := open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer release()

	var out any
	switch {
	case id != "":
		rec, ok := store.FindByID(ctx, id)
		if !ok {
			return fmt.Errorf("donation %s not found", id)
		}
		out = rec
	case email != "":
		out = store.FindByEmail(ctx, email)
	default:
		out = donation.ComputeStats(store.ReadAll(ctx), time.Now())
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func openConfigured(ctx context.Context) (domain.RecordStore, func(), error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := infra.NewLogger("cli").With().Str("cmd", "donationctl").Str("store", cfg.RecordStore).Logger()
	backend, err := repo.Open(ctx, cfg, &logger)
	if err != nil {
		return nil, nil, err
	}
	return backend.Store, backend.Close, nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
