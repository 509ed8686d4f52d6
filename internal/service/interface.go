package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"stamp-core/pkg/wallet/types"
)

// ErrNoData means the upstream answered without usable data (non-2xx or empty
// body). It is never a zero balance: an address with no coins yields an empty
// slice and a nil error.
var ErrNoData = errors.New("upstream returned no data")

// UTXOProvider 提供地址的 UTXO 与前序交易
type UTXOProvider interface {
	// FetchUTXOs 返回地址的全部未花费输出
	FetchUTXOs(ctx context.Context, address string) ([]types.UTXO, error)

	// FetchRawTransaction 返回交易 hex 及每个输出的 scriptPubKey
	FetchRawTransaction(ctx context.Context, txid string) (*types.RawTransaction, error)
}

// FeeFeed 网络手续费来源
type FeeFeed interface {
	Name() string
	FetchFeeRate(ctx context.Context) (types.SatPerVByte, error)
}

// PriceFeed BTC/USD 价格来源
type PriceFeed interface {
	Name() string
	FetchBTCPrice(ctx context.Context) (decimal.Decimal, error)
}

// IssuanceService 构造包含发行数据的基础交易 (未签名 hex)
type IssuanceService interface {
	CreateBaseTransaction(ctx context.Context, req types.IssuanceRequest) (string, error)
}
