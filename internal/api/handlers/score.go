package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"auction-analytics/internal/analysis"
	"auction-analytics/internal/api/models"
	"auction-analytics/internal/model"
	"auction-analytics/internal/report"
)

// ScoreHandler scores one day of trades
type ScoreHandler struct {
	cache *analysis.SolverCache
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(cache *analysis.SolverCache) *ScoreHandler {
	return &ScoreHandler{cache: cache}
}

// Score handles POST /api/v1/score
func (h *ScoreHandler) Score(c *gin.Context) {
	var req models.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	set, err := model.NewLimitPriceSet("", req.Asks, req.Bids)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_SCHEDULE", err)
		return
	}
	for _, t := range req.Trades {
		if err := t.Validate(); err != nil {
			abortWithError(c, http.StatusBadRequest, "INVALID_TRADE", err)
			return
		}
	}

	eq := h.cache.Solve(set)
	m := analysis.Score(req.Day, req.Trades, eq, req.ExpectedTrades)
	p := analysis.ComputeProfile(req.Day, req.Trades, eq)

	c.JSON(http.StatusOK, models.ScoreResponse{
		Equilibrium: eq,
		Metrics:     models.NewDayMetrics(m),
		Profile: models.PriceProfile{
			Count:          p.Count,
			MinPrice:       report.Float(p.MinPrice),
			MaxPrice:       report.Float(p.MaxPrice),
			MeanPrice:      report.Float(p.MeanPrice),
			P05Price:       report.Float(p.P05Price),
			P95Price:       report.Float(p.P95Price),
			SpreadP95P05:   report.Float(p.SpreadP95P05),
			EquilibriumGap: report.Float(p.EquilibriumGap),
			SmithAlpha:     report.Float(p.SmithAlpha),
		},
	})
}
