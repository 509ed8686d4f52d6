// Package market serves fee-rate and BTC/USD quotes out of a shared cache,
// refreshing them from an ordered list of feeds.
package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stamp-core/internal/service"
	"stamp-core/pkg/cache"
	"stamp-core/pkg/logger"
	"stamp-core/pkg/monitor"
	"stamp-core/pkg/wallet/types"
)

const (
	FeeRateKey  = "market:fee_rate"
	BTCPriceKey = "market:btc_price"
)

// ErrFeedsUnavailable means every configured feed failed.
var ErrFeedsUnavailable = errors.New("all market feeds unavailable")

type Config struct {
	FeeTTL         time.Duration
	PriceTTL       time.Duration
	DefaultFeeRate types.SatPerVByte
}

// Service 行情服务: feeds[0] 为主源，其余为备用源
type Service struct {
	cache      cache.Cache
	feeFeeds   []service.FeeFeed
	priceFeeds []service.PriceFeed
	cfg        Config
	now        func() time.Time
}

func NewService(c cache.Cache, feeFeeds []service.FeeFeed, priceFeeds []service.PriceFeed, cfg Config) *Service {
	if cfg.FeeTTL <= 0 {
		cfg.FeeTTL = 30 * time.Second
	}
	if cfg.PriceTTL <= 0 {
		cfg.PriceTTL = 5 * time.Minute
	}
	return &Service{
		cache:      c,
		feeFeeds:   feeFeeds,
		priceFeeds: priceFeeds,
		cfg:        cfg,
		now:        time.Now,
	}
}

func sourceOf(i int) types.QuoteSource {
	if i == 0 {
		return types.SourcePrimary
	}
	return types.SourceSecondary
}

// RefreshFee fetches a new fee rate and overwrites the cache entry.
func (s *Service) RefreshFee(ctx context.Context) (*types.FeeQuote, error) {
	var errs []error
	for i, feed := range s.feeFeeds {
		rate, err := feed.FetchFeeRate(ctx)
		if err != nil {
			logger.Warn("费率源请求失败", zap.String("feed", feed.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", feed.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		// 非首个源成功即标记为备用
		quote := &types.FeeQuote{
			RecommendedFeeRate: rate,
			Source:             sourceOf(i),
			Timestamp:          s.now().UnixMilli(),
			FallbackUsed:       i > 0,
		}
		if err := s.cache.Set(ctx, FeeRateKey, quote, s.cfg.FeeTTL); err != nil {
			logger.Error("费率报价写入缓存失败", zap.Error(err))
		}
		monitor.Business.FeeRate.WithLabelValues(string(quote.Source)).Set(float64(rate))
		return quote, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrFeedsUnavailable, errors.Join(errs...))
}

// RefreshPrice fetches a new BTC/USD price and overwrites the cache entry.
func (s *Service) RefreshPrice(ctx context.Context) (*types.PriceQuote, error) {
	var errs []error
	for i, feed := range s.priceFeeds {
		price, err := feed.FetchBTCPrice(ctx)
		if err != nil {
			logger.Warn("价格源请求失败", zap.String("feed", feed.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", feed.Name(), err))
			// 超时或取消后不再尝试后续源
			if ctx.Err() != nil {
				break
			}
			continue
		}

		quote := &types.PriceQuote{
			USD:          price,
			Source:       sourceOf(i),
			Timestamp:    s.now().UnixMilli(),
			FallbackUsed: i > 0,
		}
		if err := s.cache.Set(ctx, BTCPriceKey, quote, s.cfg.PriceTTL); err != nil {
			logger.Error("价格报价写入缓存失败", zap.Error(err))
		}
		monitor.Business.BTCPriceUSD.Set(price.InexactFloat64())
		return quote, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrFeedsUnavailable, errors.Join(errs...))
}

// FeeQuote returns the cached quote, or refreshes it on a miss.
func (s *Service) FeeQuote(ctx context.Context) (*types.FeeQuote, error) {
	if q, ok := s.cachedFee(ctx); ok {
		return q, nil
	}
	return s.RefreshFee(ctx)
}

// CachedFeeQuote never touches the network: the cached quote or the
// configured default rate marked as fallback.
func (s *Service) CachedFeeQuote(ctx context.Context) *types.FeeQuote {
	if q, ok := s.cachedFee(ctx); ok {
		return q
	}
	return &types.FeeQuote{
		RecommendedFeeRate: s.cfg.DefaultFeeRate,
		Source:             types.SourceFallback,
		Timestamp:          s.now().UnixMilli(),
		FallbackUsed:       true,
	}
}

// PriceQuote returns the cached price, or refreshes it on a miss.
func (s *Service) PriceQuote(ctx context.Context) (*types.PriceQuote, error) {
	var q types.PriceQuote
	if err := s.cache.Get(ctx, BTCPriceKey, &q); err == nil {
		q.Source = types.SourceCached
		return &q, nil
	}
	return s.RefreshPrice(ctx)
}

// CachedPrice returns the cached price without fetching.
func (s *Service) CachedPrice(ctx context.Context) (decimal.Decimal, bool) {
	var q types.PriceQuote
	if err := s.cache.Get(ctx, BTCPriceKey, &q); err != nil {
		return decimal.Zero, false
	}
	return q.USD, true
}

func (s *Service) DefaultFeeRate() types.SatPerVByte {
	return s.cfg.DefaultFeeRate
}

func (s *Service) cachedFee(ctx context.Context) (*types.FeeQuote, bool) {
	var q types.FeeQuote
	if err := s.cache.Get(ctx, FeeRateKey, &q); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			logger.Warn("读取缓存费率失败", zap.Error(err))
		}
		return nil, false
	}
	// 缓存命中只改来源，时间戳保留抓取时刻
	q.Source = types.SourceCached
	return &q, true
}
