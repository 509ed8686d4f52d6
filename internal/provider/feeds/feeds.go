// Package feeds fetches recommended fee rates and the BTC/USD price from
// public market APIs.
package feeds

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"stamp-core/internal/provider/httpclient"
	"stamp-core/internal/service"
	"stamp-core/pkg/wallet/types"
)

// 重试由 warmer 负责，这里每次只请求一次
func newClient(baseURL string, timeout time.Duration) *httpclient.Client {
	return httpclient.New(baseURL, timeout, nil)
}

// MempoolFeeFeed reads mempool.space /api/v1/fees/recommended.
type MempoolFeeFeed struct {
	client *httpclient.Client
}

var _ service.FeeFeed = (*MempoolFeeFeed)(nil)

func NewMempoolFeeFeed(baseURL string, timeout time.Duration) *MempoolFeeFeed {
	return &MempoolFeeFeed{client: newClient(baseURL, timeout)}
}

func (f *MempoolFeeFeed) Name() string { return "mempool" }

type recommendedFees struct {
	FastestFee  float64 `json:"fastestFee"`
	HalfHourFee float64 `json:"halfHourFee"`
	HourFee     float64 `json:"hourFee"`
	EconomyFee  float64 `json:"economyFee"`
	MinimumFee  float64 `json:"minimumFee"`
}

// FetchFeeRate returns the half-hour recommendation.
func (f *MempoolFeeFeed) FetchFeeRate(ctx context.Context) (types.SatPerVByte, error) {
	var resp recommendedFees
	if err := f.client.GetJSON(ctx, "/api/v1/fees/recommended", nil, &resp); err != nil {
		return 0, err
	}
	return validRate(f.Name(), types.SatPerVByte(resp.HalfHourFee))
}

// EsploraFeeFeed reads Esplora /api/fee-estimates, a map of confirmation
// target (blocks) to sat/vB.
type EsploraFeeFeed struct {
	client       *httpclient.Client
	targetBlocks int
}

var _ service.FeeFeed = (*EsploraFeeFeed)(nil)

func NewEsploraFeeFeed(baseURL string, targetBlocks int, timeout time.Duration) *EsploraFeeFeed {
	if targetBlocks <= 0 {
		targetBlocks = 3
	}
	return &EsploraFeeFeed{client: newClient(baseURL, timeout), targetBlocks: targetBlocks}
}

func (f *EsploraFeeFeed) Name() string { return "esplora" }

// FetchFeeRate uses the estimate for the configured target, or the nearest
// slower target when that one is missing.
func (f *EsploraFeeFeed) FetchFeeRate(ctx context.Context) (types.SatPerVByte, error) {
	var resp map[string]float64
	if err := f.client.GetJSON(ctx, "/api/fee-estimates", nil, &resp); err != nil {
		return 0, err
	}

	targets := make([]int, 0, len(resp))
	for k := range resp {
		if n, err := strconv.Atoi(k); err == nil {
			targets = append(targets, n)
		}
	}
	sort.Ints(targets)

	for _, n := range targets {
		if n >= f.targetBlocks {
			return validRate(f.Name(), types.SatPerVByte(resp[strconv.Itoa(n)]))
		}
	}
	return 0, fmt.Errorf("%s: no estimate for %d blocks: %w", f.Name(), f.targetBlocks, service.ErrNoData)
}

// CoinGeckoPriceFeed reads /api/v3/simple/price.
type CoinGeckoPriceFeed struct {
	client *httpclient.Client
}

var _ service.PriceFeed = (*CoinGeckoPriceFeed)(nil)

func NewCoinGeckoPriceFeed(baseURL string, timeout time.Duration) *CoinGeckoPriceFeed {
	return &CoinGeckoPriceFeed{client: newClient(baseURL, timeout)}
}

func (f *CoinGeckoPriceFeed) Name() string { return "coingecko" }

func (f *CoinGeckoPriceFeed) FetchBTCPrice(ctx context.Context) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("ids", "bitcoin")
	q.Set("vs_currencies", "usd")

	var resp struct {
		Bitcoin struct {
			USD decimal.Decimal `json:"usd"`
		} `json:"bitcoin"`
	}
	if err := f.client.GetJSON(ctx, "/api/v3/simple/price", q, &resp); err != nil {
		return decimal.Zero, err
	}
	return validPrice(f.Name(), resp.Bitcoin.USD)
}

// MempoolPriceFeed reads mempool.space /api/v1/prices.
type MempoolPriceFeed struct {
	client *httpclient.Client
}

var _ service.PriceFeed = (*MempoolPriceFeed)(nil)

func NewMempoolPriceFeed(baseURL string, timeout time.Duration) *MempoolPriceFeed {
	return &MempoolPriceFeed{client: newClient(baseURL, timeout)}
}

func (f *MempoolPriceFeed) Name() string { return "mempool" }

func (f *MempoolPriceFeed) FetchBTCPrice(ctx context.Context) (decimal.Decimal, error) {
	var resp struct {
		Time int64           `json:"time"`
		USD  decimal.Decimal `json:"USD"`
	}
	if err := f.client.GetJSON(ctx, "/api/v1/prices", nil, &resp); err != nil {
		return decimal.Zero, err
	}
	return validPrice(f.Name(), resp.USD)
}

func validRate(feed string, rate types.SatPerVByte) (types.SatPerVByte, error) {
	if err := rate.Validate(); err != nil {
		return 0, fmt.Errorf("%s: %w: %w", feed, err, service.ErrNoData)
	}
	return rate, nil
}

func validPrice(feed string, price decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s: price %s: %w", feed, price, service.ErrNoData)
	}
	return price, nil
}
