package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"stamp-core/internal/handler/request"
	"stamp-core/internal/handler/response"
	"stamp-core/internal/service/psbt"
	"stamp-core/pkg/errno"
	"stamp-core/pkg/validator"
	"stamp-core/pkg/wallet/types"
)

type Minter interface {
	Mint(ctx context.Context, req psbt.MintRequest) (*psbt.MintResult, error)
}

type PSBTHandler struct {
	minter Minter
}

func NewPSBTHandler(m Minter) *PSBTHandler {
	return &PSBTHandler{minter: m}
}

// Build 构造未签名 PSBT
// @Summary Build the unsigned mint PSBT
// @Description Encodes the file, fetches the issuance base transaction, selects inputs and returns the PSBT for the wallet to sign
// @Tags PSBT
// @Accept json
// @Produce json
// @Param request body request.BuildPSBTRequest true "mint parameters"
// @Success 200 {object} response.Response{data=psbt.MintResult}
// @Router /api/v1/psbt [post]
func (h *PSBTHandler) Build(c *gin.Context) {
	var req request.BuildPSBTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithDetail(validator.GetErrorMsg(err)))
		return
	}

	res, err := h.minter.Mint(c.Request.Context(), psbt.MintRequest{
		SourceAddress: req.SourceAddress,
		FileHex:       req.FileHex,
		Asset:         req.Asset,
		Quantity:      req.Quantity,
		Divisible:     req.Divisible,
		Locked:        req.Locked,
		Description:   req.Description,
		FeeRate:       types.SatPerVByte(req.FeeRate),
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}
