package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stamp-core/internal/service"
	"stamp-core/internal/service/estimator"
	"stamp-core/internal/service/market"
	"stamp-core/internal/service/psbt"
	"stamp-core/internal/service/warmer"
	"stamp-core/pkg/cache"
	"stamp-core/pkg/errno"
	"stamp-core/pkg/utxo"
	"stamp-core/pkg/validator"
	"stamp-core/pkg/wallet/types"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type quoterFunc func(ctx context.Context) *types.FeeQuote

func (f quoterFunc) CachedFeeQuote(ctx context.Context) *types.FeeQuote { return f(ctx) }

type fakeMarket struct {
	fee   *types.FeeQuote
	price *types.PriceQuote
	err   error
}

func (m *fakeMarket) FeeQuote(ctx context.Context) (*types.FeeQuote, error) { return m.fee, m.err }
func (m *fakeMarket) PriceQuote(ctx context.Context) (*types.PriceQuote, error) {
	return m.price, m.err
}

type fakeWarmer struct {
	status  warmer.Status
	warmErr error
	lastFee error
	warmed  int
}

func (w *fakeWarmer) Status() warmer.Status { return w.status }
func (w *fakeWarmer) ForceWarm(ctx context.Context) error {
	w.warmed++
	return w.warmErr
}
func (w *fakeWarmer) LastFeeError() error { return w.lastFee }

type minterFunc func(ctx context.Context, req psbt.MintRequest) (*psbt.MintResult, error)

func (f minterFunc) Mint(ctx context.Context, req psbt.MintRequest) (*psbt.MintResult, error) {
	return f(ctx, req)
}

type deps struct {
	market *fakeMarket
	warmer *fakeWarmer
	minter minterFunc
}

func newTestRouter(d deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator.Init()

	est := estimator.New(estimator.Config{Network: types.Mainnet}, quoterFunc(func(ctx context.Context) *types.FeeQuote {
		return &types.FeeQuote{RecommendedFeeRate: 10, Source: types.SourceCached}
	}), &service.MockUTXOProvider{}, cache.NewMemoryCache(0, 0), nil)

	if d.market == nil {
		d.market = &fakeMarket{}
	}
	if d.warmer == nil {
		d.warmer = &fakeWarmer{}
	}
	mh := NewMarketHandler(d.market, d.warmer)
	ch := NewCip33Handler(types.Mainnet)
	eh := NewEstimateHandler(est)
	ph := NewPSBTHandler(d.minter)

	r := gin.New()
	r.GET("/health", Health(types.Mainnet, d.warmer))
	api := r.Group("/api/v1")
	api.GET("/fees", mh.Fees)
	api.GET("/price", mh.Price)
	api.GET("/warmer/status", mh.WarmerStatus)
	api.POST("/warmer/warm", mh.Warm)
	api.POST("/cip33/encode", ch.Encode)
	api.POST("/cip33/decode", ch.Decode)
	api.POST("/estimate", eh.Estimate)
	api.GET("/estimate/:session_id", eh.Session)
	api.POST("/psbt", ph.Build)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) envelope {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestCip33_EncodeDecode(t *testing.T) {
	r := newTestRouter(deps{})
	fileHex := strings.Repeat("ab", 70)

	env := do(t, r, http.MethodPost, "/api/v1/cip33/encode", gin.H{"file_hex": "0x" + fileHex})
	require.Equal(t, errno.OK.Code, env.Code, env.Msg)
	var enc struct {
		Addresses []string `json:"addresses"`
		FileSize  int      `json:"file_size"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &enc))
	assert.Len(t, enc.Addresses, 3)
	assert.Equal(t, 70, enc.FileSize)
	for _, a := range enc.Addresses {
		assert.True(t, strings.HasPrefix(a, "bc1q"))
	}

	env = do(t, r, http.MethodPost, "/api/v1/cip33/decode", gin.H{"addresses": enc.Addresses})
	require.Equal(t, errno.OK.Code, env.Code, env.Msg)
	var dec struct {
		FileHex string `json:"file_hex"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dec))
	assert.Equal(t, fileHex, dec.FileHex)
}

func TestCip33_Errors(t *testing.T) {
	r := newTestRouter(deps{})

	env := do(t, r, http.MethodPost, "/api/v1/cip33/encode", gin.H{"file_hex": "xyz"})
	assert.Equal(t, errno.ErrBind.Code, env.Code)

	env = do(t, r, http.MethodPost, "/api/v1/cip33/decode", gin.H{"addresses": []string{}})
	assert.Equal(t, errno.ErrBind.Code, env.Code)

	env = do(t, r, http.MethodPost, "/api/v1/cip33/decode", gin.H{"addresses": []string{"bc1qinvalid!"}})
	assert.Equal(t, errno.ErrInvalidPayload.Code, env.Code)
}

func TestEstimate_InstantThenSession(t *testing.T) {
	r := newTestRouter(deps{})

	env := do(t, r, http.MethodPost, "/api/v1/estimate", gin.H{
		"session_id": "abc",
		"phase":      "instant",
		"tx_type":    "stamp",
		"file_size":  70,
	})
	require.Equal(t, errno.OK.Code, env.Code, env.Msg)
	var res estimator.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "abc", res.SessionID)
	assert.Equal(t, estimator.ConfidenceLow, res.Confidence)
	assert.Equal(t, types.SatPerVByte(10), res.FeeRate)
	assert.Equal(t, uint64(1002), res.DustSatoshis)

	env = do(t, r, http.MethodGet, "/api/v1/estimate/abc", nil)
	require.Equal(t, errno.OK.Code, env.Code, env.Msg)
	var sess struct {
		Results []estimator.Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sess))
	require.Len(t, sess.Results, 1)
	assert.Equal(t, res, sess.Results[0])

	env = do(t, r, http.MethodGet, "/api/v1/estimate/missing", nil)
	assert.Equal(t, errno.ErrNotFound.Code, env.Code)
}

func TestEstimate_Validation(t *testing.T) {
	r := newTestRouter(deps{})

	env := do(t, r, http.MethodPost, "/api/v1/estimate", gin.H{"phase": "fast"})
	assert.Equal(t, errno.ErrBind.Code, env.Code)

	env = do(t, r, http.MethodPost, "/api/v1/estimate", gin.H{"phase": "smart", "file_size": 10})
	assert.Equal(t, errno.ErrBind.Code, env.Code)

	env = do(t, r, http.MethodPost, "/api/v1/estimate", gin.H{"phase": "smart", "file_size": 10, "wallet_address": "nope"})
	assert.Equal(t, errno.ErrInvalidAddress.Code, env.Code)
}

func TestPSBT_Build(t *testing.T) {
	var got psbt.MintRequest
	r := newTestRouter(deps{minter: func(ctx context.Context, req psbt.MintRequest) (*psbt.MintResult, error) {
		got = req
		return &psbt.MintResult{
			PSBTData:         &types.PSBTData{UnsignedTransaction: types.UnsignedTransaction{PSBT: "cHNidP8="}},
			PayloadAddresses: []string{"bc1qexample"},
		}, nil
	}})

	env := do(t, r, http.MethodPost, "/api/v1/psbt", gin.H{
		"source_address": "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
		"file_hex":       "deadbeef",
		"asset":          "A1000",
		"fee_rate":       12.5,
	})
	require.Equal(t, errno.OK.Code, env.Code, env.Msg)
	assert.Equal(t, types.SatPerVByte(12.5), got.FeeRate)
	assert.Equal(t, "A1000", got.Asset)
	assert.Contains(t, string(env.Data), "cHNidP8=")

	env = do(t, r, http.MethodPost, "/api/v1/psbt", gin.H{"source_address": "x", "file_hex": "00", "asset": "A"})
	assert.Equal(t, errno.ErrBind.Code, env.Code)
}

func TestPSBT_BuildErrors(t *testing.T) {
	r := newTestRouter(deps{minter: func(ctx context.Context, req psbt.MintRequest) (*psbt.MintResult, error) {
		return nil, &psbt.TransactionBuildError{
			Stage:         psbt.StageSelect,
			SourceAddress: req.SourceAddress,
			FeeRate:       req.FeeRate,
			Err:           &utxo.InsufficientFundsError{Required: 5000, Available: 1000, FeeRate: req.FeeRate},
		}
	}})

	env := do(t, r, http.MethodPost, "/api/v1/psbt", gin.H{
		"source_address": "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
		"file_hex":       "deadbeef",
		"asset":          "A1000",
		"fee_rate":       10,
	})
	assert.Equal(t, errno.ErrInsufficientFunds.Code, env.Code)
	var shortfall struct {
		Required  uint64 `json:"required"`
		Available uint64 `json:"available"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &shortfall))
	assert.Equal(t, uint64(5000), shortfall.Required)
	assert.Equal(t, uint64(1000), shortfall.Available)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(deps{warmer: &fakeWarmer{status: warmer.Status{IsRunning: false, PriceRunning: true}}})

	env := do(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, errno.OK.Code, env.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, "mainnet", body["network"])
	assert.Equal(t, false, body["fee_warmer"])
	assert.Equal(t, true, body["price_warmer"])
}

func TestMarket(t *testing.T) {
	m := &fakeMarket{fee: &types.FeeQuote{RecommendedFeeRate: 8, Source: types.SourcePrimary}}
	w := &fakeWarmer{status: warmer.Status{IsRunning: true, PriceRunning: true}}
	r := newTestRouter(deps{market: m, warmer: w})

	env := do(t, r, http.MethodGet, "/api/v1/fees", nil)
	require.Equal(t, errno.OK.Code, env.Code)
	var q types.FeeQuote
	require.NoError(t, json.Unmarshal(env.Data, &q))
	assert.Equal(t, types.SatPerVByte(8), q.RecommendedFeeRate)

	env = do(t, r, http.MethodPost, "/api/v1/warmer/warm", nil)
	require.Equal(t, errno.OK.Code, env.Code)
	assert.Equal(t, 1, w.warmed)

	env = do(t, r, http.MethodGet, "/api/v1/warmer/status", nil)
	var st warmer.Status
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.True(t, st.IsRunning)
}

func TestMarket_FeeFeedStopped(t *testing.T) {
	m := &fakeMarket{err: market.ErrFeedsUnavailable}
	w := &fakeWarmer{}
	r := newTestRouter(deps{market: m, warmer: w})

	env := do(t, r, http.MethodGet, "/api/v1/fees", nil)
	assert.Equal(t, errno.ErrUpstreamUnavailable.Code, env.Code)

	w.lastFee = &warmer.FeeFeedUnavailableError{Retries: 3, Last: market.ErrFeedsUnavailable}
	env = do(t, r, http.MethodGet, "/api/v1/fees", nil)
	assert.Equal(t, errno.ErrFeeFeedUnavailable.Code, env.Code)
}

func TestToErrno(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errno.Errno
	}{
		{"fee rate", fmt.Errorf("rate: %w", types.ErrInvalidFeeRate), errno.ErrInvalidFeeRate},
		{"lookup", &psbt.PreviousTransactionLookupError{TxID: "aa", Vout: 1, Err: service.ErrNoData}, errno.ErrPrevTxLookup},
		{"superseded", estimator.ErrSuperseded, errno.ErrEstimateSuperseded},
		{"no data", fmt.Errorf("fetch: %w", service.ErrNoData), errno.ErrUpstreamUnavailable},
		{"issuance stage", &psbt.TransactionBuildError{Stage: psbt.StageIssuance, Err: service.ErrNoData}, errno.ErrUpstreamUnavailable},
		{"validate stage", &psbt.TransactionBuildError{Stage: psbt.StageValidate, Err: fmt.Errorf("bad address")}, errno.ErrInvalidAddress},
		{"assemble stage", &psbt.TransactionBuildError{Stage: psbt.StageAssemble, Err: fmt.Errorf("boom")}, errno.ErrBuildFailed},
		{"unknown", fmt.Errorf("boom"), errno.InternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want.Code, toErrno(tt.err).Code)
		})
	}
}
