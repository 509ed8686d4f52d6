// Package bootstrap builds the service graph from config.Global. Both the
// server and the CLI use it.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stamp-core/internal/provider/bitcoind"
	"stamp-core/internal/provider/esplora"
	"stamp-core/internal/provider/feeds"
	"stamp-core/internal/provider/issuance"
	"stamp-core/internal/service"
	"stamp-core/internal/service/estimator"
	"stamp-core/internal/service/market"
	"stamp-core/internal/service/mq"
	"stamp-core/internal/service/psbt"
	"stamp-core/internal/service/warmer"
	"stamp-core/pkg/cache"
	"stamp-core/pkg/config"
	"stamp-core/pkg/database"
	"stamp-core/pkg/logger"
	"stamp-core/pkg/utils/lock"
	"stamp-core/pkg/wallet/types"
)

const (
	cachePrefix     = "stamp:"
	streamMaxLen    = 10000
	consumerGroupID = "stamp_psbt_consumers"
)

func Network() (types.Network, error) {
	return types.ParseNetwork(config.Global.Bitcoin.Network)
}

// Redis connects when redis.enabled is set, otherwise it returns nil.
func Redis(ctx context.Context) (*redis.Client, error) {
	rc := config.Global.Redis
	if !rc.Enabled {
		return nil, nil
	}
	return database.ConnectRedis(ctx, rc.Addr, rc.Password, rc.DB)
}

// Cache is the process-wide cache: memory only, or memory in front of redis.
func Cache(rdb *redis.Client) cache.Cache {
	local := cache.NewMemoryCache(5*time.Minute, 10*time.Minute)
	if rdb == nil {
		return local
	}
	return cache.NewMultiLevelCache(local, cache.NewRedisCache(rdb, cachePrefix))
}

// UTXOProvider returns the configured provider and a func releasing it.
func UTXOProvider(network types.Network) (service.UTXOProvider, func(), error) {
	pc := config.Global.Provider
	switch pc.Kind {
	case "", "esplora":
		return esplora.New(pc.EsploraURL, network.Params(), pc.Timeout, pc.MaxRetries), func() {}, nil
	case "bitcoind":
		p, err := bitcoind.New(bitcoind.Config{
			Host: pc.Bitcoind.Host,
			User: pc.Bitcoind.User,
			Pass: pc.Bitcoind.Pass,
			TLS:  pc.Bitcoind.TLS,
		}, network.Params())
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider kind %q", pc.Kind)
	}
}

func Market(c cache.Cache) *market.Service {
	fc, pc := config.Global.Fee, config.Global.Price
	feeFeeds := []service.FeeFeed{
		feeds.NewMempoolFeeFeed(fc.PrimaryURL, fc.RequestTimeout),
		feeds.NewEsploraFeeFeed(fc.SecondaryURL, fc.TargetBlocks, fc.RequestTimeout),
	}
	priceFeeds := []service.PriceFeed{
		feeds.NewCoinGeckoPriceFeed(pc.PrimaryURL, fc.RequestTimeout),
		feeds.NewMempoolPriceFeed(pc.SecondaryURL, fc.RequestTimeout),
	}
	return market.NewService(c, feeFeeds, priceFeeds, market.Config{
		FeeTTL:         fc.CacheTTL,
		PriceTTL:       pc.CacheTTL,
		DefaultFeeRate: types.SatPerVByte(fc.DefaultRate),
	})
}

func Warmer(m warmer.Market, rdb *redis.Client) *warmer.Warmer {
	fc, pc := config.Global.Fee, config.Global.Price
	var opts []warmer.Option
	if rdb != nil {
		opts = append(opts, warmer.WithLock(lock.NewRedisLock(rdb)))
	}
	return warmer.New(m, warmer.Config{
		FeeInterval:     fc.WarmInterval,
		PriceInterval:   pc.WarmInterval,
		FeeMaxRetries:   fc.MaxRetries,
		PriceMaxRetries: pc.MaxRetries,
		Timeout:         fc.RequestTimeout,
	}, opts...)
}

// Producer picks the hand-off queue from mq.type.
func Producer(rdb *redis.Client) (mq.Producer, error) {
	mc := config.Global.MQ
	switch mc.Type {
	case "", "none":
		return mq.NopProducer{}, nil
	case "kafka":
		logger.Info("使用 Kafka 作为消息队列...", zap.Strings("brokers", mc.Brokers))
		return mq.NewKafkaProducer(mc.Brokers, mc.Topic), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("mq.type redis needs redis.enabled")
		}
		logger.Info("使用 Redis Streams 作为消息队列...")
		return mq.NewRedisProducer(rdb, streamMaxLen), nil
	default:
		return nil, fmt.Errorf("unknown mq type %q", mc.Type)
	}
}

// Consumer reads the hand-off queue as member name of the consumer group.
func Consumer(rdb *redis.Client, name string) (mq.Consumer, error) {
	mc := config.Global.MQ
	switch mc.Type {
	case "kafka":
		return mq.NewKafkaConsumer(mc.Brokers, consumerGroupID), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("mq.type redis needs redis.enabled")
		}
		return mq.NewRedisConsumer(rdb, consumerGroupID, name), nil
	default:
		return nil, fmt.Errorf("mq.type %q has no consumer", mc.Type)
	}
}

func MintService(provider service.UTXOProvider, network types.Network, opts ...psbt.ServiceOption) *psbt.Service {
	ic := config.Global.Issuance
	builder := psbt.NewBuilder(provider, network.Params(), config.Global.Provider.LookupWorkers)
	iss := issuance.NewCounterparty(ic.URL, ic.Timeout, config.Global.Provider.MaxRetries)
	fee := psbt.ServiceFee{
		Amount:  config.Global.ServiceFee.Amount,
		Address: config.Global.ServiceFee.Address,
	}
	return psbt.NewService(builder, iss, network, fee, opts...)
}

func Estimator(network types.Network, quoter estimator.FeeQuoter, provider service.UTXOProvider, c cache.Cache, dryRun estimator.DryRunner) *estimator.Estimator {
	ec := config.Global.Estimator
	return estimator.New(estimator.Config{
		Network:       network,
		AssumedInputs: ec.AssumedInputs,
		SessionTTL:    ec.SessionTTL,
		UTXOCacheTTL:  ec.UTXOCacheTTL,
		ServiceFee:    config.Global.ServiceFee.Amount,
	}, quoter, provider, c, dryRun)
}
