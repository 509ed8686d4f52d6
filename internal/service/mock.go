package service

import (
	"context"

	"github.com/shopspring/decimal"

	"stamp-core/pkg/wallet/types"
)

// MockUTXOProvider is a test double for UTXOProvider.
// All function fields must be set before the corresponding method is called.
type MockUTXOProvider struct {
	FetchUTXOsFn          func(ctx context.Context, address string) ([]types.UTXO, error)
	FetchRawTransactionFn func(ctx context.Context, txid string) (*types.RawTransaction, error)
}

func (m *MockUTXOProvider) FetchUTXOs(ctx context.Context, address string) ([]types.UTXO, error) {
	return m.FetchUTXOsFn(ctx, address)
}
func (m *MockUTXOProvider) FetchRawTransaction(ctx context.Context, txid string) (*types.RawTransaction, error) {
	return m.FetchRawTransactionFn(ctx, txid)
}

// MockFeeFeed is a test double for FeeFeed.
type MockFeeFeed struct {
	FeedName       string
	FetchFeeRateFn func(ctx context.Context) (types.SatPerVByte, error)
}

func (m *MockFeeFeed) Name() string { return m.FeedName }
func (m *MockFeeFeed) FetchFeeRate(ctx context.Context) (types.SatPerVByte, error) {
	return m.FetchFeeRateFn(ctx)
}

// MockPriceFeed is a test double for PriceFeed.
type MockPriceFeed struct {
	FeedName        string
	FetchBTCPriceFn func(ctx context.Context) (decimal.Decimal, error)
}

func (m *MockPriceFeed) Name() string { return m.FeedName }
func (m *MockPriceFeed) FetchBTCPrice(ctx context.Context) (decimal.Decimal, error) {
	return m.FetchBTCPriceFn(ctx)
}

// MockIssuanceService is a test double for IssuanceService.
type MockIssuanceService struct {
	CreateBaseTransactionFn func(ctx context.Context, req types.IssuanceRequest) (string, error)
}

func (m *MockIssuanceService) CreateBaseTransaction(ctx context.Context, req types.IssuanceRequest) (string, error) {
	return m.CreateBaseTransactionFn(ctx, req)
}
