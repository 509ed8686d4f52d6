package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"stamp-core/internal/handler/request"
	"stamp-core/internal/handler/response"
	"stamp-core/pkg/cip33"
	"stamp-core/pkg/errno"
	"stamp-core/pkg/validator"
	"stamp-core/pkg/wallet/types"
)

type Cip33Handler struct {
	network types.Network
}

func NewCip33Handler(network types.Network) *Cip33Handler {
	return &Cip33Handler{network: network}
}

// Encode 文件转 P2WSH 地址
// @Summary Encode a file into CIP33 addresses
// @Tags CIP33
// @Accept json
// @Produce json
// @Param request body request.Cip33EncodeRequest true "file hex"
// @Success 200 {object} response.Response
// @Router /api/v1/cip33/encode [post]
func (h *Cip33Handler) Encode(c *gin.Context) {
	var req request.Cip33EncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithDetail(validator.GetErrorMsg(err)))
		return
	}

	network := h.network
	if req.Network != "" {
		network = types.Network(req.Network)
	}
	fileHex := strings.TrimPrefix(req.FileHex, "0x")
	addresses, err := cip33.Encode(fileHex, network)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"addresses": addresses,
		"file_size": len(fileHex) / 2,
		"network":   network,
	})
}

// Decode 地址还原文件
// @Summary Decode CIP33 addresses back into the file
// @Tags CIP33
// @Accept json
// @Produce json
// @Param request body request.Cip33DecodeRequest true "ordered addresses"
// @Success 200 {object} response.Response
// @Router /api/v1/cip33/decode [post]
func (h *Cip33Handler) Decode(c *gin.Context) {
	var req request.Cip33DecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithDetail(validator.GetErrorMsg(err)))
		return
	}

	fileHex, err := cip33.Decode(req.Addresses)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"file_hex":  fileHex,
		"file_size": len(fileHex) / 2,
	})
}
