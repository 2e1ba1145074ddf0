package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"auction-analytics/internal/api/models"
	"auction-analytics/internal/normalize"
)

// NormalizerHandler lists trade ratio normalizers
type NormalizerHandler struct{}

// NewNormalizerHandler creates a new normalizer handler
func NewNormalizerHandler() *NormalizerHandler {
	return &NormalizerHandler{}
}

// ListNormalizers handles GET /api/v1/normalizers
func (h *NormalizerHandler) ListNormalizers(c *gin.Context) {
	normalizers := []models.NormalizerInfo{
		{
			Name:        normalize.NameFixed,
			Description: "Divides each day's trade count by a constant expected number of trades.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "per_day",
					Type:        "float",
					Description: "Expected trades per day; must be positive",
				},
			},
		},
		{
			Name:        normalize.NameEquilibriumQuantity,
			Description: "Divides by the quantity traded at the day's equilibrium. Days without an equilibrium score NaN.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "offset",
					Type:        "float",
					Description: "Added to the equilibrium quantity, e.g. 1 to count the marginal pair",
					Default:     0.0,
				},
			},
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"normalizers": normalizers,
	})
}
