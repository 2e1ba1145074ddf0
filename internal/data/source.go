package data

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"auction-analytics/internal/config"
	"auction-analytics/internal/model"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenSource builds the run source selected by cfg.Source. The returned
// closer releases database connections and must be closed by the caller.
func OpenSource(ctx context.Context, cfg *config.Config) (RunSource, io.Closer, error) {
	switch cfg.Source.Type {
	case config.SourceCSV, "":
		var shared map[string]model.LimitPriceSet
		if cfg.LimitPricesFile != "" {
			var err error
			shared, err = LoadLimitPricesFile(cfg.LimitPricesFile)
			if err != nil {
				return nil, nil, fmt.Errorf("load limit prices: %w", err)
			}
			log.Info().
				Str("file", cfg.LimitPricesFile).
				Int("schedules", len(shared)).
				Msg("Loaded shared limit prices")
		}
		return DirSource{Dir: cfg.RunDir, Shared: shared}, nopCloser{}, nil

	case config.SourceJSON:
		runs, err := LoadRunsJSON(cfg.Source.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("load run bundle: %w", err)
		}
		return BundleSource{Runs: runs}, nopCloser{}, nil

	case config.SourcePostgres:
		db, err := OpenPostgres(ctx, cfg.Source.DSN)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresSource(db, cfg.Experiment, cfg.Source.QueryTimeout), db, nil

	default:
		return nil, nil, fmt.Errorf("unsupported source.type: %q", cfg.Source.Type)
	}
}
