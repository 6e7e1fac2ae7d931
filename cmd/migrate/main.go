package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"donasi/internal/adapter/repo"
	"donasi/internal/domain"
	"donasi/internal/infra"
	"donasi/internal/ledger"
)

// migrate loads legacy donations.json and fund-usage.json files into the
// configured collection store.
func main() {
	var (
		dirFlag    string
		dryRunFlag bool
	)
	flag.StringVar(&dirFlag, "dir", "./data", "directory holding donations.json and fund-usage.json")
	flag.BoolVar(&dryRunFlag, "dry-run", false, "parse and report without writing")
	flag.Parse()

	_ = godotenv.Load()

	dir := strings.TrimSpace(dirFlag)
	if dir == "" {
		exitWithError(errors.New("-dir is required"))
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}

	fsys := afero.NewBasePathFs(afero.NewOsFs(), dir)
	donations, err := readJSON[domain.Donation](fsys, "donations.json")
	if err != nil {
		exitWithError(err)
	}
	fundUsage, err := readJSON[domain.FundUsage](fsys, "fund-usage.json")
	if err != nil {
		exitWithError(err)
	}
	if dryRunFlag {
		fmt.Printf("would import %d donations and %d fund usage entries into %s\n", len(donations), len(fundUsage), cfg.StoreBackend)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := repo.Open(ctx, cfg, zerolog.Nop())
	if err != nil {
		exitWithError(err)
	}
	defer store.Close()

	svc := ledger.New(ledger.Options{Store: store, Logger: zerolog.Nop()})
	if donations != nil {
		res, err := svc.ImportDonations(ctx, donations)
		if err != nil {
			exitWithError(fmt.Errorf("import donations: %w", err))
		}
		report(domain.KeyDonations, res)
	}
	if fundUsage != nil {
		res, err := svc.ImportFundUsage(ctx, fundUsage)
		if err != nil {
			exitWithError(fmt.Errorf("import fund usage: %w", err))
		}
		report(domain.KeyFundUsage, res)
	}
}

// readJSON returns nil when name does not exist.
func readJSON[T any](fsys afero.Fs, name string) ([]T, error) {
	data, err := afero.ReadFile(fsys, name)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Printf("%s not found, skipping\n", filepath.Base(name))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func report(key string, res ledger.ImportResult) {
	fmt.Printf("%s: imported %d, renumbered %d, next id %d\n", key, res.Imported, res.Reassigned, res.NextID)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
