package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"stamp-core/internal/handler/response"
	"stamp-core/internal/service"
	"stamp-core/internal/service/estimator"
	"stamp-core/internal/service/market"
	"stamp-core/internal/service/psbt"
	"stamp-core/internal/service/warmer"
	"stamp-core/pkg/bech32"
	"stamp-core/pkg/cip33"
	"stamp-core/pkg/errno"
	"stamp-core/pkg/utxo"
	"stamp-core/pkg/wallet/types"
)

// toErrno maps a domain error onto the API error codes. Specific kinds are
// checked before the build stage, since build errors wrap them.
func toErrno(err error) errno.Errno {
	var (
		insufficient *utxo.InsufficientFundsError
		lookup       *psbt.PreviousTransactionLookupError
		checksum     *bech32.ChecksumOrAlphabetError
		feedDown     *warmer.FeeFeedUnavailableError
		build        *psbt.TransactionBuildError
	)

	switch {
	case errors.Is(err, types.ErrInvalidFeeRate):
		return errno.ErrInvalidFeeRate.WithDetail(err.Error())
	case errors.As(err, &insufficient):
		return errno.ErrInsufficientFunds.WithDetail(insufficient.Error())
	case errors.As(err, &lookup):
		return errno.ErrPrevTxLookup.WithDetail(lookup.Error())
	case errors.Is(err, bech32.ErrInvalidPayloadLength),
		errors.As(err, &checksum),
		errors.Is(err, cip33.ErrFileTooLarge),
		errors.Is(err, cip33.ErrTruncatedPayload),
		errors.Is(err, cip33.ErrNoAddresses):
		return errno.ErrInvalidPayload.WithDetail(err.Error())
	case errors.Is(err, estimator.ErrSuperseded):
		return errno.ErrEstimateSuperseded
	case errors.Is(err, estimator.ErrSessionNotFound):
		return errno.ErrNotFound.WithDetail(err.Error())
	case errors.Is(err, estimator.ErrInvalidWalletAddress):
		return errno.ErrInvalidAddress.WithDetail(err.Error())
	case errors.Is(err, estimator.ErrWalletAddressRequired),
		errors.Is(err, estimator.ErrMintDetailsRequired):
		return errno.ErrBind.WithDetail(err.Error())
	case errors.As(err, &feedDown):
		return errno.ErrFeeFeedUnavailable.WithDetail(feedDown.Error())
	case errors.Is(err, market.ErrFeedsUnavailable), errors.Is(err, service.ErrNoData):
		return errno.ErrUpstreamUnavailable.WithDetail(err.Error())
	case errors.As(err, &build):
		switch build.Stage {
		case psbt.StageValidate:
			return errno.ErrInvalidAddress.WithDetail(build.Error())
		case psbt.StageEncode:
			return errno.ErrInvalidPayload.WithDetail(build.Error())
		}
		return errno.ErrBuildFailed.WithDetail(build.Error())
	}
	return errno.InternalServerError
}

// fail writes the error envelope for err.
func fail(c *gin.Context, err error) {
	var insufficient *utxo.InsufficientFundsError
	if errors.As(err, &insufficient) {
		response.ErrorWithData(c, toErrno(err), gin.H{
			"required":  insufficient.Required,
			"available": insufficient.Available,
			"fee_rate":  insufficient.FeeRate,
			"inputs":    insufficient.Inputs,
		})
		return
	}
	response.Error(c, toErrno(err))
}
