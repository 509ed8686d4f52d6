package handler

import (
	"github.com/gin-gonic/gin"

	"stamp-core/internal/handler/response"
	"stamp-core/pkg/wallet/types"
)

// Health godoc
// @Summary Check system health
// @Description Service status, the configured network and whether the warmer loops are scheduled
// @Tags system
// @Produce  json
// @Success 200 {object} map[string]string
// @Router /health [get]
func Health(network types.Network, w Warmer) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":  "UP",
			"service": "stamp-server",
			"network": network,
		}
		if w != nil {
			st := w.Status()
			body["fee_warmer"] = st.IsRunning
			body["price_warmer"] = st.PriceRunning
		}
		response.Success(c, body)
	}
}
