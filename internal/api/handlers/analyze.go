package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"auction-analytics/internal/aggregate"
	"auction-analytics/internal/analysis"
	"auction-analytics/internal/api/models"
	"auction-analytics/internal/config"
	"auction-analytics/internal/data"
	"auction-analytics/internal/metrics"
	"auction-analytics/internal/normalize"
	"auction-analytics/internal/report"
)

// AnalyzeHandler aggregates bundles of runs
type AnalyzeHandler struct {
	cache   *analysis.SolverCache
	metrics *metrics.Registry
	workers int
}

// NewAnalyzeHandler creates a new analyze handler. workers is the default
// scoring concurrency when a request does not set one.
func NewAnalyzeHandler(cache *analysis.SolverCache, reg *metrics.Registry, workers int) *AnalyzeHandler {
	if workers < 1 {
		workers = 1
	}
	return &AnalyzeHandler{cache: cache, metrics: reg, workers: workers}
}

// Analyze handles POST /api/v1/analyze
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	if err := data.NormalizeRuns(req.Runs); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_SCHEDULE", err)
		return
	}

	norm, err := normalize.FromConfig(req.Normalization.Name, req.Normalization.Params)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_NORMALIZATION", err)
		return
	}

	var fitness analysis.Fitness
	if req.Options.Fitness != "" {
		fitness, err = analysis.ParseFitness(req.Options.Fitness)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "INVALID_FITNESS", err)
			return
		}
	}

	summary, err := h.engine(norm, req.Options).Run(c.Request.Context(), req.Runs)
	if err != nil {
		h.aggregationError(c, err)
		return
	}

	resp := models.AnalyzeResponse{
		Report: report.Assemble(summary, report.Meta{Experiment: req.Experiment}),
	}
	if fitness != "" {
		resp.Rankings = buildRankings(summary, fitness)
	}
	if req.Options.IncludeCells {
		resp.Cells = buildCells(summary.Cells)
	}
	c.JSON(http.StatusOK, resp)
}

// Compare handles POST /api/v1/analyze/compare
func (h *AnalyzeHandler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	if err := data.NormalizeRuns(req.Runs); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_SCHEDULE", err)
		return
	}

	comparison := make([]models.ComparisonResult, 0, len(req.Variations))
	for _, variation := range req.Variations {
		merged := config.MergeNormalization(req.BaseNormalization, variation.Normalization)
		norm, err := normalize.FromConfig(merged.Name, merged.Params)
		if err != nil {
			log.Warn().Err(err).Str("variation", variation.Name).Msg("Skipping invalid normalization")
			continue
		}

		summary, err := h.engine(norm, req.Options).Run(c.Request.Context(), req.Runs)
		if err != nil {
			// The runs are shared, so a failure here fails every variation.
			h.aggregationError(c, err)
			return
		}

		g := summary.Global
		comparison = append(comparison, models.ComparisonResult{
			Name:          variation.Name,
			Normalization: merged,
			Eff:           report.Float(g.Efficiency.Mean),
			EffStd:        report.Float(g.Efficiency.Std),
			TR:            report.Float(g.TradeRatio.Mean),
			TRStd:         report.Float(g.TradeRatio.Std),
			Alpha:         report.Float(g.Alpha.Mean),
			AlphaStd:      report.Float(g.Alpha.Std),
		})
	}

	c.JSON(http.StatusOK, models.CompareResponse{Comparison: comparison})
}

func (h *AnalyzeHandler) engine(norm normalize.Normalizer, opts models.AnalyzeOptions) *aggregate.Engine {
	workers := opts.Workers
	if workers < 1 {
		workers = h.workers
	}
	return aggregate.New(aggregate.Options{
		Days:       opts.Days,
		Workers:    workers,
		Normalizer: norm,
		Cache:      h.cache,
		Metrics:    h.metrics,
	})
}

func (h *AnalyzeHandler) aggregationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, aggregate.ErrNoRuns),
		errors.Is(err, aggregate.ErrNoManifest),
		errors.Is(err, aggregate.ErrDuplicateRun):
		abortWithError(c, http.StatusUnprocessableEntity, "INVALID_RUNS", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		abortWithError(c, http.StatusServiceUnavailable, "CANCELLED", err)
	default:
		log.Error().Err(err).Msg("Aggregation failed")
		abortWithError(c, http.StatusInternalServerError, "AGGREGATION_ERROR", err)
	}
}

func buildRankings(s *aggregate.Summary, f analysis.Fitness) []models.Ranking {
	ranked := analysis.RankRuns(s.ByRun(), f)
	out := make([]models.Ranking, 0, len(ranked))
	for i, r := range ranked {
		out = append(out, models.Ranking{
			Rank:  i + 1,
			Run:   r.Run,
			Mean:  report.Float(r.Score.Mean),
			Std:   report.Float(r.Score.Std),
			Days:  r.Score.Count,
			Elite: i == 0,
		})
	}
	return out
}

func buildCells(cells []aggregate.Cell) []models.CellRow {
	out := make([]models.CellRow, 0, len(cells))
	for _, cell := range cells {
		out = append(out, models.CellRow{
			Run:        cell.Run,
			Day:        cell.Day,
			ScheduleID: cell.ScheduleID,
			Metrics:    models.NewDayMetrics(cell.Metrics),
			EqPrice:    report.Float(cell.Equilibrium.Price),
			Skipped:    cell.Skipped,
			Reason:     cell.Reason,
		})
	}
	return out
}
