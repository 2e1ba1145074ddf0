package data

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"auction-analytics/internal/model"
)

// PostgresSource reads trade logs, limit prices and schedule manifests of one
// experiment from PostgreSQL.
//
// Expected tables:
//
//	trades(experiment, run, id, day, time_step, price, seller_limit, buyer_limit)
//	limit_prices(experiment, run, schedule_id, side, price)
//	schedule_manifest(experiment, run, day, schedule_id)
type PostgresSource struct {
	db         *sqlx.DB
	experiment string
	timeout    time.Duration
}

func NewPostgresSource(db *sqlx.DB, experiment string, timeout time.Duration) *PostgresSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PostgresSource{db: db, experiment: experiment, timeout: timeout}
}

// OpenPostgres connects with the lib/pq driver and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

type tradeRecord struct {
	Run         int             `db:"run"`
	ID          int             `db:"id"`
	Day         int             `db:"day"`
	TimeStep    sql.NullInt64   `db:"time_step"`
	Price       float64         `db:"price"`
	SellerLimit sql.NullFloat64 `db:"seller_limit"`
	BuyerLimit  sql.NullFloat64 `db:"buyer_limit"`
}

type limitPriceRecord struct {
	Run        int     `db:"run"`
	ScheduleID string  `db:"schedule_id"`
	Side       string  `db:"side"`
	Price      float64 `db:"price"`
}

type manifestRecord struct {
	Run        int    `db:"run"`
	Day        int    `db:"day"`
	ScheduleID string `db:"schedule_id"`
}

func (s *PostgresSource) LoadRuns(ctx context.Context, indices []int) ([]model.RunInput, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ids := make([]int64, len(indices))
	for i, v := range indices {
		ids[i] = int64(v)
	}

	var trades []tradeRecord
	err := s.db.SelectContext(ctx, &trades, `
		SELECT run, id, day, time_step, price, seller_limit, buyer_limit
		FROM trades
		WHERE experiment = $1 AND run = ANY($2)
		ORDER BY run, day, id`, s.experiment, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}

	var limits []limitPriceRecord
	err = s.db.SelectContext(ctx, &limits, `
		SELECT run, schedule_id, side, price
		FROM limit_prices
		WHERE experiment = $1 AND run = ANY($2)
		ORDER BY run, schedule_id, side, price`, s.experiment, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query limit prices: %w", err)
	}

	var manifest []manifestRecord
	err = s.db.SelectContext(ctx, &manifest, `
		SELECT run, day, schedule_id
		FROM schedule_manifest
		WHERE experiment = $1 AND run = ANY($2)
		ORDER BY run, day`, s.experiment, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule manifest: %w", err)
	}

	return assembleRuns(indices, trades, limits, manifest)
}

func assembleRuns(indices []int, trades []tradeRecord, limits []limitPriceRecord, manifest []manifestRecord) ([]model.RunInput, error) {
	byRun := make(map[int]*model.RunInput, len(indices))
	runs := make([]*model.RunInput, 0, len(indices))
	for _, i := range indices {
		r := &model.RunInput{Index: i, Manifest: model.ScheduleManifest{}}
		byRun[i] = r
		runs = append(runs, r)
	}

	for _, t := range trades {
		r, ok := byRun[t.Run]
		if !ok {
			continue
		}
		r.Trades = append(r.Trades, model.ExecutedTrade{
			ID:          t.ID,
			Day:         t.Day,
			TimeStep:    int(t.TimeStep.Int64),
			Price:       t.Price,
			SellerLimit: nullFloat(t.SellerLimit),
			BuyerLimit:  nullFloat(t.BuyerLimit),
		})
	}

	recs := map[int][]model.LimitPriceRecord{}
	for _, l := range limits {
		side, err := model.ParseSide(l.Side)
		if err != nil {
			return nil, fmt.Errorf("run %d schedule %s: %w", l.Run, l.ScheduleID, err)
		}
		recs[l.Run] = append(recs[l.Run], model.LimitPriceRecord{ScheduleID: l.ScheduleID, Side: side, Price: l.Price})
	}
	for idx, rs := range recs {
		r, ok := byRun[idx]
		if !ok {
			continue
		}
		sets, err := model.BuildLimitPriceSets(rs)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", idx, err)
		}
		r.Schedules = sets
	}

	for _, m := range manifest {
		if r, ok := byRun[m.Run]; ok {
			r.Manifest[m.Day] = m.ScheduleID
		}
	}

	out := make([]model.RunInput, 0, len(runs))
	for _, r := range runs {
		out = append(out, *r)
	}
	return out, nil
}

func nullFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
