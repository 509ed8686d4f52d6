package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"stamp-core/internal/handler/response"
	"stamp-core/internal/service/warmer"
	"stamp-core/pkg/wallet/types"
)

type Market interface {
	FeeQuote(ctx context.Context) (*types.FeeQuote, error)
	PriceQuote(ctx context.Context) (*types.PriceQuote, error)
}

type Warmer interface {
	Status() warmer.Status
	ForceWarm(ctx context.Context) error
	LastFeeError() error
}

type MarketHandler struct {
	market Market
	warmer Warmer
}

func NewMarketHandler(m Market, w Warmer) *MarketHandler {
	return &MarketHandler{market: m, warmer: w}
}

// Fees 推荐费率
// @Summary Recommended fee rate
// @Description Cached quote when fresh, otherwise primary then secondary feed
// @Tags Market
// @Produce json
// @Success 200 {object} response.Response{data=types.FeeQuote}
// @Router /api/v1/fees [get]
func (h *MarketHandler) Fees(c *gin.Context) {
	q, err := h.market.FeeQuote(c.Request.Context())
	if err != nil {
		// 预热已放弃时给出更具体的原因
		if stopped := h.warmer.LastFeeError(); stopped != nil {
			err = stopped
		}
		fail(c, err)
		return
	}
	response.Success(c, q)
}

// Price BTC/USD
// @Summary BTC price in USD
// @Tags Market
// @Produce json
// @Success 200 {object} response.Response{data=types.PriceQuote}
// @Router /api/v1/price [get]
func (h *MarketHandler) Price(c *gin.Context) {
	q, err := h.market.PriceQuote(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, q)
}

// WarmerStatus
// @Summary Background warmer status
// @Tags Market
// @Produce json
// @Success 200 {object} response.Response{data=warmer.Status}
// @Router /api/v1/warmer/status [get]
func (h *MarketHandler) WarmerStatus(c *gin.Context) {
	response.Success(c, h.warmer.Status())
}

// Warm 立即执行一次预热
// @Summary Force a fee and price refresh
// @Tags Market
// @Produce json
// @Success 200 {object} response.Response{data=warmer.Status}
// @Router /api/v1/warmer/warm [post]
func (h *MarketHandler) Warm(c *gin.Context) {
	if err := h.warmer.ForceWarm(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, h.warmer.Status())
}
