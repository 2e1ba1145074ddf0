package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"auction-analytics/internal/analysis"
	"auction-analytics/internal/api/models"
	"auction-analytics/internal/model"
	"auction-analytics/internal/report"
)

// EquilibriumHandler solves single schedules
type EquilibriumHandler struct {
	cache *analysis.SolverCache
}

// NewEquilibriumHandler creates a new equilibrium handler. A nil cache solves
// every request from scratch.
func NewEquilibriumHandler(cache *analysis.SolverCache) *EquilibriumHandler {
	return &EquilibriumHandler{cache: cache}
}

// Solve handles POST /api/v1/equilibrium
func (h *EquilibriumHandler) Solve(c *gin.Context) {
	var req models.EquilibriumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	set, err := model.NewLimitPriceSet("", req.Asks, req.Bids)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_SCHEDULE", err)
		return
	}

	eq := h.cache.Solve(set)
	log.Debug().
		Int("asks", len(req.Asks)).
		Int("bids", len(req.Bids)).
		Bool("found", eq.Found).
		Msg("Solved schedule")

	c.JSON(http.StatusOK, models.EquilibriumResponse{
		Equilibrium: eq,
		MaxSurplus:  report.Float(eq.MaxSurplus()),
	})
}
