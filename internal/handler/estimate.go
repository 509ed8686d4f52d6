package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"stamp-core/internal/handler/request"
	"stamp-core/internal/handler/response"
	"stamp-core/internal/service/estimator"
	"stamp-core/pkg/errno"
	"stamp-core/pkg/txsize"
	"stamp-core/pkg/validator"
	"stamp-core/pkg/wallet/types"
)

type Estimator interface {
	Estimate(ctx context.Context, sessionID string, phase estimator.Phase, in estimator.Input) (*estimator.Result, error)
	Results(sessionID string) ([]estimator.Result, error)
}

type EstimateHandler struct {
	estimator Estimator
}

func NewEstimateHandler(e Estimator) *EstimateHandler {
	return &EstimateHandler{estimator: e}
}

// Estimate 运行一个估算阶段
// @Summary Run one estimation phase
// @Description A newer call for the same session and phase supersedes an older one still in flight
// @Tags Estimate
// @Accept json
// @Produce json
// @Param request body request.EstimateRequest true "estimate input"
// @Success 200 {object} response.Response{data=estimator.Result}
// @Router /api/v1/estimate [post]
func (h *EstimateHandler) Estimate(c *gin.Context) {
	var req request.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithDetail(validator.GetErrorMsg(err)))
		return
	}
	phase, err := estimator.ParsePhase(req.Phase)
	if err != nil {
		response.Error(c, errno.ErrBind.WithDetail(err.Error()))
		return
	}

	result, err := h.estimator.Estimate(c.Request.Context(), req.SessionID, phase, estimator.Input{
		TxType:        txsize.ParseTxType(req.TxType),
		FileSize:      req.FileSize,
		FileHex:       req.FileHex,
		OutputCount:   req.OutputCount,
		OutputValue:   req.OutputValue,
		FeeRate:       types.SatPerVByte(req.FeeRate),
		WalletAddress: req.WalletAddress,
		Asset:         req.Asset,
		Quantity:      req.Quantity,
		Divisible:     req.Divisible,
		Locked:        req.Locked,
		Description:   req.Description,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, result)
}

// Session 会话内已完成的阶段
// @Summary Completed phases of a session
// @Tags Estimate
// @Produce json
// @Param session_id path string true "session id"
// @Success 200 {object} response.Response
// @Router /api/v1/estimate/{session_id} [get]
func (h *EstimateHandler) Session(c *gin.Context) {
	id := c.Param("session_id")
	results, err := h.estimator.Results(id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"session_id": id,
		"results":    results,
	})
}
