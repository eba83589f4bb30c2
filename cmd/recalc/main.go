// Command recalc replays stored score history and rebuilds all ratings.
//
// Recalculation is the canonical definition of correct ratings: it clears
// a tenant's rating state and feeds every stored score through the engine
// in order, as if each had been submitted live.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/okian/glade/internal/adapters/repository"
	"github.com/okian/glade/internal/app"
	"github.com/okian/glade/internal/config"
	"github.com/okian/glade/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	dbPath := flag.String("db", "", "path to the SQLite database (defaults to GLADE_DB_PATH)")
	tenant := flag.String("tenant", "", "recalculate a single tenant (defaults to all)")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	log := logger.Get().Named("recalc")
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		return 1
	}
	path := *dbPath
	if path == "" {
		path = cfg.DBPath
	}
	if path == "" {
		log.Error(ctx, "no database configured; pass -db or set GLADE_DB_PATH")
		return 1
	}

	store, err := repository.Open(path)
	if err != nil {
		log.Error(ctx, "failed to open store", logger.String("path", path), logger.Error(err))
		return 1
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithStore(store),
		app.WithGlickoParameters(cfg.GlickoParameters()),
		app.WithDecayRate(cfg.DecayPerRound),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return 1
	}
	defer svc.Stop()

	tenants := []string{*tenant}
	if *tenant == "" {
		tenants, err = store.Tenants(ctx)
		if err != nil {
			log.Error(ctx, "failed to list tenants", logger.Error(err))
			return 1
		}
	}

	for _, t := range tenants {
		ratings, err := svc.Recalculate(ctx, t)
		if err != nil {
			log.Error(ctx, "recalculation failed", logger.String("tenant", t), logger.Error(err))
			return 1
		}
		log.Info(ctx, "tenant recalculated",
			logger.String("tenant", t),
			logger.Int("players", len(ratings)),
		)
	}
	return 0
}
