package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/settings"
	"github.com/xenking/storefront/internal/storage/postgres"
)

const upsertConcurrency = 8

func main() {
	var (
		databaseURL  string
		catalogFile  string
		settingsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to the products JSON file, optionally gzip-compressed (.gz)")
	flag.StringVar(&settingsFile, "settings-file", "", "path to a store settings JSON file; empty writes the defaults when none are stored")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, settingsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, settingsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), catalogFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedSettings(ctx, postgres.NewSettingsRepository(pool), settingsFile); err != nil {
		return errors.Wrap(err, "seed settings")
	}

	return nil
}

// readJSON decodes path into v, transparently decompressing .gz files.
func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	if err := json.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	return nil
}

func seedProducts(ctx context.Context, repo catalog.Repository, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	var products []catalog.Product
	if err := readJSON(catalogFile, &products); err != nil {
		return err
	}
	for i := range products {
		if err := products[i].Validate(); err != nil {
			return errors.Wrapf(err, "product #%d", i)
		}
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	// Products are listed in insertion order, so the first write of each id
	// happens in file order before the rest fan out.
	existing, err := repo.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	known := make(map[string]bool, len(existing))
	for _, p := range existing {
		known[p.ID] = true
	}
	var updates []catalog.Product
	for i := range products {
		p := &products[i]
		if known[p.ID] {
			updates = append(updates, *p)
			continue
		}
		if err := repo.Save(ctx, p); err != nil {
			return errors.Wrapf(err, "insert product %s", p.ID)
		}
		slog.Info("inserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(upsertConcurrency)
	for i := range updates {
		p := &updates[i]
		g.Go(func() error {
			if err := repo.Save(ctx, p); err != nil {
				return errors.Wrapf(err, "update product %s", p.ID)
			}
			slog.Info("updated product", slog.String("id", p.ID), slog.String("name", p.Name))
			return nil
		})
	}
	return g.Wait()
}

func seedSettings(ctx context.Context, repo settings.Repository, settingsFile string) error {
	if settingsFile == "" {
		cfg, err := repo.Get(ctx)
		if err != nil {
			return errors.Wrap(err, "get settings")
		}
		slog.Info("writing settings", slog.String("store", cfg.StoreName), slog.Int("zones", len(cfg.Delivery.Zones)))
		return repo.Save(ctx, cfg)
	}

	slog.Info("reading settings file", slog.String("path", settingsFile))

	cfg := settings.Default()
	if err := readJSON(settingsFile, &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	slog.Info("writing settings", slog.String("store", cfg.StoreName), slog.Int("zones", len(cfg.Delivery.Zones)))
	return repo.Save(ctx, cfg)
}
