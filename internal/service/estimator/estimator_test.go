package estimator

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stamp-core/internal/service"
	"stamp-core/internal/service/psbt"
	"stamp-core/pkg/cache"
	"stamp-core/pkg/fee"
	"stamp-core/pkg/txsize"
	"stamp-core/pkg/wallet/types"
)

const wallet = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"

type fakeQuoter struct {
	rate  types.SatPerVByte
	calls int32
}

func (q *fakeQuoter) CachedFeeQuote(ctx context.Context) *types.FeeQuote {
	atomic.AddInt32(&q.calls, 1)
	return &types.FeeQuote{RecommendedFeeRate: q.rate, Source: types.SourceCached}
}

type dryRunFunc func(ctx context.Context, req psbt.MintRequest) (*types.PSBTData, error)

func (f dryRunFunc) DryRun(ctx context.Context, req psbt.MintRequest) (*types.PSBTData, error) {
	return f(ctx, req)
}

func walletUTXOs(values ...uint64) []types.UTXO {
	utxos := make([]types.UTXO, len(values))
	for i, v := range values {
		utxos[i] = types.UTXO{
			TxID:          strings.Repeat(string(rune('a'+i)), 64),
			Vout:          0,
			Value:         v,
			Script:        "0014751e76e8199196d454941c45d1b3a323f1433bd6",
			ScriptType:    types.ScriptP2WPKH,
			Confirmations: 1,
		}
	}
	return utxos
}

func staticProvider(utxos []types.UTXO, calls *int32) *service.MockUTXOProvider {
	return &service.MockUTXOProvider{
		FetchUTXOsFn: func(ctx context.Context, addr string) ([]types.UTXO, error) {
			if calls != nil {
				atomic.AddInt32(calls, 1)
			}
			return utxos, nil
		},
	}
}

func newEstimator(q FeeQuoter, p service.UTXOProvider, dr DryRunner) *Estimator {
	return New(Config{Network: types.Mainnet, AssumedInputs: 1}, q, p,
		cache.NewMemoryCache(time.Minute, time.Minute), dr)
}

func TestInstant(t *testing.T) {
	e := newEstimator(&fakeQuoter{rate: 3}, staticProvider(nil, nil), nil)

	r, err := e.Estimate(context.Background(), "", PhaseInstant, Input{TxType: txsize.TxTypeStamp, FileSize: 70, FeeRate: 10})
	require.NoError(t, err)

	vsize := txsize.Estimate(txsize.Params{InputCount: 1, OutputCount: 1, TxType: txsize.TxTypeStamp, FileSize: 70, HasWitness: true})
	assert.Equal(t, vsize, r.VSize)
	assert.Equal(t, fee.MiningFee(vsize, 10), r.FeeSatoshis)
	assert.Equal(t, uint64(1002), r.DustSatoshis)
	assert.Equal(t, r.FeeSatoshis+r.DustSatoshis, r.TotalSatoshis)
	assert.Equal(t, ConfidenceLow, r.Confidence)
	assert.Equal(t, FeeRateFromRequest, r.FeeRateSource)
	assert.NotEmpty(t, r.SessionID)
	assert.Equal(t, uint64(1), r.Generation)
}

func TestInstant_CachedRateAndDedupe(t *testing.T) {
	q := &fakeQuoter{rate: 7}
	e := newEstimator(q, staticProvider(nil, nil), nil)
	in := Input{TxType: txsize.TxTypeStamp, FileSize: 10}

	first, err := e.Estimate(context.Background(), "s", PhaseInstant, in)
	require.NoError(t, err)
	assert.Equal(t, types.SatPerVByte(7), first.FeeRate)
	assert.Equal(t, string(types.SourceCached), first.FeeRateSource)

	second, err := e.Estimate(context.Background(), "s", PhaseInstant, in)
	require.NoError(t, err)
	assert.Equal(t, *first, *second)

	in.FileSize = 100
	third, err := e.Estimate(context.Background(), "s", PhaseInstant, in)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), third.Generation)
	assert.Greater(t, third.VSize, first.VSize)
}

func TestInstant_RefreshedQuoteRecomputes(t *testing.T) {
	q := &fakeQuoter{rate: 5}
	e := newEstimator(q, staticProvider(nil, nil), nil)
	in := Input{TxType: txsize.TxTypeStamp, FileSize: 70}

	before, err := e.Estimate(context.Background(), "s", PhaseInstant, in)
	require.NoError(t, err)
	assert.Equal(t, types.SatPerVByte(5), before.FeeRate)

	// 报价被预热刷新，输入不变
	q.rate = 50
	after, err := e.Estimate(context.Background(), "s", PhaseInstant, in)
	require.NoError(t, err)
	assert.Equal(t, types.SatPerVByte(50), after.FeeRate)
	assert.Equal(t, fee.MiningFee(after.VSize, 50), after.FeeSatoshis)
	assert.Greater(t, after.FeeSatoshis, before.FeeSatoshis)
	assert.Equal(t, uint64(2), after.Generation)
}

func TestSmart(t *testing.T) {
	var calls int32
	e := newEstimator(&fakeQuoter{rate: 5}, staticProvider(walletUTXOs(100000, 50000), &calls), nil)

	_, err := e.Estimate(context.Background(), "s", PhaseSmart, Input{TxType: txsize.TxTypeStamp, FileSize: 70})
	assert.ErrorIs(t, err, ErrWalletAddressRequired)

	r, err := e.Estimate(context.Background(), "s", PhaseSmart, Input{TxType: txsize.TxTypeStamp, FileSize: 70, WalletAddress: wallet})
	require.NoError(t, err)
	assert.Equal(t, 1, r.InputCount)
	assert.Equal(t, ConfidenceMedium, r.Confidence)
	assert.Equal(t, uint64(1002), r.DustSatoshis)
	assert.Equal(t, fee.MiningFee(r.VSize, 5), r.FeeSatoshis)

	// UTXOs come from the cache the second time
	_, err = e.Estimate(context.Background(), "s", PhaseSmart, Input{TxType: txsize.TxTypeStamp, FileSize: 200, WalletAddress: wallet})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSmart_ReusedOnlyWhileUTXOsCached(t *testing.T) {
	var calls int32
	utxos := walletUTXOs(100000)
	provider := &service.MockUTXOProvider{
		FetchUTXOsFn: func(ctx context.Context, addr string) ([]types.UTXO, error) {
			atomic.AddInt32(&calls, 1)
			return utxos, nil
		},
	}
	e := newEstimator(&fakeQuoter{rate: 5}, provider, nil)
	clock := time.Now()
	e.now = func() time.Time { return clock }
	in := Input{TxType: txsize.TxTypeStamp, FileSize: 70, WalletAddress: wallet}

	first, err := e.Estimate(context.Background(), "s", PhaseSmart, in)
	require.NoError(t, err)
	assert.Equal(t, 1, first.InputCount)

	same, err := e.Estimate(context.Background(), "s", PhaseSmart, in)
	require.NoError(t, err)
	assert.Equal(t, first.Generation, same.Generation)

	// UTXO 缓存过期后钱包已变化
	clock = clock.Add(e.cfg.UTXOCacheTTL)
	require.NoError(t, e.cache.Delete(context.Background(), "utxos:"+wallet))
	utxos = walletUTXOs(1000, 1000, 1000)

	_, err = e.Estimate(context.Background(), "s", PhaseSmart, in)
	assert.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSmart_InsufficientFunds(t *testing.T) {
	e := newEstimator(&fakeQuoter{rate: 5}, staticProvider(walletUTXOs(500), nil), nil)

	_, err := e.Estimate(context.Background(), "s", PhaseSmart, Input{TxType: txsize.TxTypeStamp, FileSize: 70, WalletAddress: wallet})
	assert.Error(t, err)
}

func TestSmart_LaterGenerationWins(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	var calls int32
	provider := &service.MockUTXOProvider{
		FetchUTXOsFn: func(ctx context.Context, addr string) ([]types.UTXO, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				entered <- struct{}{}
				<-release
			}
			return walletUTXOs(100000), nil
		},
	}
	e := newEstimator(&fakeQuoter{rate: 5}, provider, nil)

	type outcome struct {
		r   *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := e.Estimate(context.Background(), "s", PhaseSmart,
			Input{TxType: txsize.TxTypeStamp, FileSize: 10, WalletAddress: wallet})
		done <- outcome{r, err}
	}()
	<-entered

	second, err := e.Estimate(context.Background(), "s", PhaseSmart,
		Input{TxType: txsize.TxTypeStamp, FileSize: 500, WalletAddress: wallet})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.Generation)

	close(release)
	first := <-done
	assert.ErrorIs(t, first.err, ErrSuperseded)
	assert.Nil(t, first.r)

	results, err := e.Results("s")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, *second, results[0])
}

func TestExact(t *testing.T) {
	var got psbt.MintRequest
	dr := dryRunFunc(func(ctx context.Context, req psbt.MintRequest) (*types.PSBTData, error) {
		got = req
		return &types.PSBTData{
			UnsignedTransaction: types.UnsignedTransaction{
				Inputs: make([]types.TxInput, 2),
				Outputs: []types.TxOutput{
					{Value: 0, Role: psbt.RoleBase},
					{Value: 333, Role: psbt.RolePayload},
					{Value: 1500, Role: psbt.RoleServiceFee},
				},
			},
			EstimatedSizeVb:   420,
			EstimatedMinerFee: 4200,
			TotalDustValue:    333,
		}, nil
	})
	e := newEstimator(&fakeQuoter{rate: 10}, staticProvider(nil, nil), dr)

	_, err := e.Estimate(context.Background(), "s", PhaseExact, Input{WalletAddress: wallet})
	assert.ErrorIs(t, err, ErrMintDetailsRequired)

	r, err := e.Estimate(context.Background(), "s", PhaseExact, Input{
		TxType:        txsize.TxTypeStamp,
		FileHex:       "0xdeadbeef",
		Asset:         "A1000",
		WalletAddress: wallet,
	})
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", got.FileHex)
	assert.Equal(t, types.SatPerVByte(10), got.FeeRate)
	assert.Equal(t, uint64(4200), r.FeeSatoshis)
	assert.Equal(t, uint64(1500), r.ServiceFeeSatoshis)
	assert.Equal(t, uint64(4200+333+1500), r.TotalSatoshis)
	assert.Equal(t, 2, r.InputCount)
	assert.Equal(t, ConfidenceHigh, r.Confidence)
}

func TestExact_EmptyFile(t *testing.T) {
	var got psbt.MintRequest
	dr := dryRunFunc(func(ctx context.Context, req psbt.MintRequest) (*types.PSBTData, error) {
		got = req
		return &types.PSBTData{EstimatedMinerFee: 2000, EstimatedSizeVb: 200, TotalDustValue: 333}, nil
	})
	e := newEstimator(&fakeQuoter{rate: 10}, staticProvider(nil, nil), dr)

	// 只给大小不给内容无法试构建
	_, err := e.Estimate(context.Background(), "s", PhaseExact,
		Input{TxType: txsize.TxTypeStamp, FileSize: 40, Asset: "A1000", WalletAddress: wallet})
	assert.ErrorIs(t, err, ErrMintDetailsRequired)

	r, err := e.Estimate(context.Background(), "s", PhaseExact,
		Input{TxType: txsize.TxTypeStamp, Asset: "A1000", WalletAddress: wallet})
	require.NoError(t, err)
	assert.Equal(t, "", got.FileHex)
	assert.Equal(t, uint64(333), r.DustSatoshis)

	instant, err := e.Estimate(context.Background(), "s", PhaseInstant, Input{TxType: txsize.TxTypeStamp})
	require.NoError(t, err)
	assert.Equal(t, r.DustSatoshis, instant.DustSatoshis)
}

func TestExact_CancelsInFlightSmart(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	provider := &service.MockUTXOProvider{
		FetchUTXOsFn: func(ctx context.Context, addr string) ([]types.UTXO, error) {
			entered <- struct{}{}
			<-release
			return walletUTXOs(100000), nil
		},
	}
	dr := dryRunFunc(func(ctx context.Context, req psbt.MintRequest) (*types.PSBTData, error) {
		return &types.PSBTData{EstimatedMinerFee: 1000, EstimatedSizeVb: 100}, nil
	})
	e := newEstimator(&fakeQuoter{rate: 10}, provider, dr)

	smartErr := make(chan error, 1)
	go func() {
		_, err := e.Estimate(context.Background(), "s", PhaseSmart,
			Input{TxType: txsize.TxTypeStamp, FileSize: 4, WalletAddress: wallet})
		smartErr <- err
	}()
	<-entered

	_, err := e.Estimate(context.Background(), "s", PhaseExact,
		Input{TxType: txsize.TxTypeStamp, FileHex: "deadbeef", Asset: "A1000", WalletAddress: wallet})
	require.NoError(t, err)

	close(release)
	assert.ErrorIs(t, <-smartErr, ErrSuperseded)

	results, err := e.Results("s")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, PhaseExact, results[0].Phase)
}

func TestExact_Unavailable(t *testing.T) {
	e := newEstimator(&fakeQuoter{rate: 10}, staticProvider(nil, nil), nil)
	_, err := e.Estimate(context.Background(), "s", PhaseExact, Input{WalletAddress: wallet})
	assert.True(t, errors.Is(err, ErrExactUnavailable))
}

func TestResults_PhaseOrder(t *testing.T) {
	e := newEstimator(&fakeQuoter{rate: 4}, staticProvider(walletUTXOs(100000), nil), nil)
	in := Input{TxType: txsize.TxTypeStamp, FileSize: 40, WalletAddress: wallet}

	_, err := e.Estimate(context.Background(), "s", PhaseSmart, in)
	require.NoError(t, err)
	_, err = e.Estimate(context.Background(), "s", PhaseInstant, in)
	require.NoError(t, err)

	results, err := e.Results("s")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, PhaseInstant, results[0].Phase)
	assert.Equal(t, PhaseSmart, results[1].Phase)

	_, err = e.Results("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestParsePhase(t *testing.T) {
	p, err := ParsePhase("smart")
	require.NoError(t, err)
	assert.Equal(t, PhaseSmart, p)

	_, err = ParsePhase("fast")
	assert.Error(t, err)
}
