// Package estimator runs the three-phase fee estimate of a mint session.
//
// Phases refine each other: instant is arithmetic on an assumed input count,
// smart runs coin selection on the wallet's real UTXOs, exact dry-runs the
// PSBT build. Each phase of a session carries a generation counter; a result
// is stored only if its generation is still the latest when it resolves.
package estimator

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/btcsuite/btcd/txscript"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"stamp-core/internal/service"
	"stamp-core/internal/service/psbt"
	"stamp-core/pkg/address"
	"stamp-core/pkg/cache"
	"stamp-core/pkg/crypto_util"
	"stamp-core/pkg/fee"
	"stamp-core/pkg/logger"
	"stamp-core/pkg/monitor"
	"stamp-core/pkg/txsize"
	"stamp-core/pkg/utxo"
	"stamp-core/pkg/wallet/types"
)

// FeeQuoter supplies the rate when the input has none. It must not block on
// the network.
type FeeQuoter interface {
	CachedFeeQuote(ctx context.Context) *types.FeeQuote
}

// DryRunner builds the real PSBT without publishing it.
type DryRunner interface {
	DryRun(ctx context.Context, req psbt.MintRequest) (*types.PSBTData, error)
}

type Config struct {
	Network       types.Network
	AssumedInputs int
	SessionTTL    time.Duration
	UTXOCacheTTL  time.Duration
	ServiceFee    uint64
}

type phaseState struct {
	generation  uint64
	cancel      context.CancelFunc // non-nil while a computation is in flight
	result      *Result
	fingerprint string
	computedAt  time.Time
}

type session struct {
	mu     sync.Mutex
	phases map[Phase]*phaseState
}

type Estimator struct {
	cfg      Config
	quoter   FeeQuoter
	provider service.UTXOProvider
	cache    cache.Cache
	dryRun   DryRunner
	resolver *address.Resolver
	now      func() time.Time

	sessionsMu sync.Mutex
	sessions   *gocache.Cache
}

// New creates an estimator. dryRun may be nil, the exact phase then fails
// with ErrExactUnavailable.
func New(cfg Config, quoter FeeQuoter, provider service.UTXOProvider, c cache.Cache, dryRun DryRunner) *Estimator {
	if cfg.AssumedInputs <= 0 {
		cfg.AssumedInputs = 1
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.UTXOCacheTTL <= 0 {
		cfg.UTXOCacheTTL = 30 * time.Second
	}
	return &Estimator{
		cfg:      cfg,
		quoter:   quoter,
		provider: provider,
		cache:    c,
		dryRun:   dryRun,
		resolver: address.NewResolver(cfg.Network.Params()),
		now:      time.Now,
		sessions: gocache.New(cfg.SessionTTL, cfg.SessionTTL),
	}
}

// Estimate runs phase for the session, creating the session when sessionID
// is empty or unknown. A call superseded by a newer call of the same or a
// higher phase returns ErrSuperseded.
func (e *Estimator) Estimate(ctx context.Context, sessionID string, phase Phase, in Input) (*Result, error) {
	if phase.rank() < 0 {
		return nil, fmt.Errorf("unknown phase %q", phase)
	}
	in.TxType = txsize.ParseTxType(string(in.TxType))
	if in.FileHex != "" {
		in.FileHex = strings.TrimPrefix(in.FileHex, "0x")
		in.FileSize = hex.DecodedLen(len(in.FileHex))
	}

	// 费率在指纹之前确定，报价刷新即视为输入变化
	rate, source := e.feeRate(ctx, in)
	if err := rate.Validate(); err != nil {
		return nil, err
	}
	fp, err := crypto_util.Fingerprint(struct {
		Input
		Rate types.SatPerVByte `json:"effective_rate"`
	}{in, rate})
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	sess := e.session(sessionID)

	// 1. 开始新一代: 取消同级及更低级别的在途计算
	sess.mu.Lock()
	st := sess.state(phase)
	if st.cancel == nil && st.result != nil && st.fingerprint == fp && e.reusable(phase, st) {
		cached := *st.result
		sess.mu.Unlock()
		return &cached, nil
	}
	for p, other := range sess.phases {
		if p.rank() < phase.rank() && other.cancel != nil {
			other.cancel()
			other.cancel = nil
			other.generation++
		}
	}
	if st.cancel != nil {
		st.cancel()
	}
	st.generation++
	gen := st.generation
	phaseCtx, cancel := context.WithCancel(ctx)
	st.cancel = cancel
	sess.mu.Unlock()
	defer cancel()

	// 2. 计算 (不持锁)
	start := time.Now()
	result, err := e.compute(phaseCtx, phase, in, rate, source)
	monitor.Business.EstimationDuration.WithLabelValues(string(phase)).Observe(time.Since(start).Seconds())

	// 3. 仅当代数仍是最新时写回
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if st.generation != gen {
		monitor.Business.EstimationsSuperseded.WithLabelValues(string(phase)).Inc()
		logger.Debug("估算已被新一代覆盖，丢弃结果",
			zap.String("session", sessionID), zap.String("phase", string(phase)), zap.Uint64("generation", gen))
		return nil, ErrSuperseded
	}
	st.cancel = nil
	if err != nil {
		return nil, err
	}

	result.SessionID = sessionID
	result.Phase = phase
	result.Confidence = phase.confidence()
	result.Generation = gen
	result.Timestamp = time.Now().UnixMilli()
	result.TotalSatoshis = result.FeeSatoshis + result.DustSatoshis + result.ServiceFeeSatoshis
	st.result = result
	st.fingerprint = fp
	st.computedAt = e.now()

	out := *result
	return &out, nil
}

// Results returns every completed phase of the session in phase order.
func (e *Estimator) Results(sessionID string) ([]Result, error) {
	v, ok := e.sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess := v.(*session)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	results := make([]Result, 0, len(phases))
	for _, p := range phases {
		if st, ok := sess.phases[p]; ok && st.result != nil {
			results = append(results, *st.result)
		}
	}
	return results, nil
}

func (e *Estimator) session(id string) *session {
	e.sessionsMu.Lock()
	defer e.sessionsMu.Unlock()

	sess, ok := e.sessions.Get(id)
	if !ok {
		sess = &session{phases: make(map[Phase]*phaseState, len(phases))}
	}
	// 每次访问都续期
	e.sessions.SetDefault(id, sess)
	return sess.(*session)
}

func (s *session) state(p Phase) *phaseState {
	st, ok := s.phases[p]
	if !ok {
		st = &phaseState{}
		s.phases[p] = st
	}
	return st
}

// reusable reports whether a stored result with an unchanged fingerprint can
// be served again. Smart and exact also depend on the wallet's UTXO set,
// which is only trusted for as long as the UTXO cache keeps it.
func (e *Estimator) reusable(phase Phase, st *phaseState) bool {
	if phase == PhaseInstant {
		return true
	}
	return e.now().Sub(st.computedAt) < e.cfg.UTXOCacheTTL
}

func (e *Estimator) compute(ctx context.Context, phase Phase, in Input, rate types.SatPerVByte, source string) (*Result, error) {
	if err := rate.Validate(); err != nil {
		return nil, err
	}

	switch phase {
	case PhaseInstant:
		return e.instant(in, rate, source), nil
	case PhaseSmart:
		return e.smart(ctx, in, rate, source)
	default:
		return e.exact(ctx, in, rate, source)
	}
}

func (e *Estimator) feeRate(ctx context.Context, in Input) (types.SatPerVByte, string) {
	if in.FeeRate > 0 {
		return in.FeeRate, FeeRateFromRequest
	}
	q := e.quoter.CachedFeeQuote(ctx)
	return q.RecommendedFeeRate, string(q.Source)
}

func (e *Estimator) instant(in Input, rate types.SatPerVByte, source string) *Result {
	outputs := in.OutputCount + 1 // change
	if e.cfg.ServiceFee > 0 {
		outputs++
	}
	vsize := txsize.Estimate(txsize.Params{
		InputCount:  e.cfg.AssumedInputs,
		OutputCount: outputs,
		TxType:      in.TxType,
		FileSize:    in.FileSize,
		HasWitness:  true,
	})
	return &Result{
		FeeSatoshis:        fee.MiningFee(vsize, rate),
		DustSatoshis:       payloadDust(in),
		ServiceFeeSatoshis: e.cfg.ServiceFee,
		VSize:              vsize,
		InputCount:         e.cfg.AssumedInputs,
		FeeRate:            rate,
		FeeRateSource:      source,
	}
}

func (e *Estimator) smart(ctx context.Context, in Input, rate types.SatPerVByte, source string) (*Result, error) {
	if in.WalletAddress == "" {
		return nil, ErrWalletAddressRequired
	}
	changeType, err := e.resolver.ScriptType(in.WalletAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWalletAddress, err)
	}

	utxos, err := e.walletUTXOs(ctx, in.WalletAddress)
	if err != nil {
		return nil, err
	}
	sel, err := utxo.NewSelector(e.resolver.Network(), changeType).Select(utxos, e.syntheticOutputs(in), rate)
	if err != nil {
		return nil, err
	}

	return &Result{
		FeeSatoshis:        sel.Fee,
		DustSatoshis:       payloadDust(in),
		ServiceFeeSatoshis: e.cfg.ServiceFee,
		VSize:              sel.VSize,
		InputCount:         len(sel.Inputs),
		FeeRate:            rate,
		FeeRateSource:      source,
	}, nil
}

func (e *Estimator) exact(ctx context.Context, in Input, rate types.SatPerVByte, source string) (*Result, error) {
	if e.dryRun == nil {
		return nil, ErrExactUnavailable
	}
	if in.WalletAddress == "" {
		return nil, ErrWalletAddressRequired
	}
	// 空文件合法; 仅给出大小而缺少内容时无法试构建
	if in.Asset == "" || (in.FileHex == "" && in.FileSize > 0) {
		return nil, ErrMintDetailsRequired
	}

	data, err := e.dryRun.DryRun(ctx, psbt.MintRequest{
		SourceAddress: in.WalletAddress,
		FileHex:       in.FileHex,
		Asset:         in.Asset,
		Quantity:      in.Quantity,
		Divisible:     in.Divisible,
		Locked:        in.Locked,
		Description:   in.Description,
		FeeRate:       rate,
	})
	if err != nil {
		return nil, err
	}

	var serviceFee uint64
	for _, o := range data.UnsignedTransaction.Outputs {
		if o.Role == psbt.RoleServiceFee {
			serviceFee += o.Value
		}
	}
	return &Result{
		FeeSatoshis:        data.EstimatedMinerFee,
		DustSatoshis:       data.TotalDustValue,
		ServiceFeeSatoshis: serviceFee,
		VSize:              data.EstimatedSizeVb,
		InputCount:         len(data.UnsignedTransaction.Inputs),
		FeeRate:            rate,
		FeeRateSource:      source,
	}, nil
}

// walletUTXOs reads through the shared cache.
func (e *Estimator) walletUTXOs(ctx context.Context, addr string) ([]types.UTXO, error) {
	return cache.GetOrLoad(ctx, e.cache, "utxos:"+addr, e.cfg.UTXOCacheTTL, func(ctx context.Context) ([]types.UTXO, error) {
		utxos, err := e.provider.FetchUTXOs(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("fetch utxos of %s: %w", addr, err)
		}
		return utxos, nil
	})
}

var (
	p2wpkhPlaceholder = "0014" + strings.Repeat("00", 20)
	p2wshPlaceholder  = "0020" + strings.Repeat("00", 32)
)

// syntheticOutputs mirrors the output layout of the real transaction with
// placeholder scripts of the right length.
func (e *Estimator) syntheticOutputs(in Input) []types.OutputIntent {
	var outs []types.OutputIntent

	recipientValue := in.OutputValue
	if recipientValue == 0 {
		recipientValue = fee.DustThreshold(types.ScriptP2WPKH)
	}
	for i := 0; i < in.OutputCount; i++ {
		outs = append(outs, types.OutputIntent{Value: recipientValue, AddressOrScript: p2wpkhPlaceholder, IsWitness: true})
	}

	if in.TxType == txsize.TxTypeStamp {
		script, _ := txscript.NullDataScript(make([]byte, txsize.StampOpReturnDataSize))
		outs = append(outs, types.OutputIntent{AddressOrScript: hex.EncodeToString(script)})
	}
	if in.TxType != txsize.TxTypeSend {
		for i := 0; i < txsize.PayloadOutputCount(in.FileSize); i++ {
			outs = append(outs, types.OutputIntent{Value: fee.PayloadDust(i), AddressOrScript: p2wshPlaceholder, IsWitness: true})
		}
	}

	if e.cfg.ServiceFee > 0 {
		outs = append(outs, types.OutputIntent{Value: e.cfg.ServiceFee, AddressOrScript: p2wpkhPlaceholder, IsWitness: true})
	}
	return outs
}

func payloadDust(in Input) uint64 {
	if in.TxType == txsize.TxTypeSend {
		return 0
	}
	return fee.Dust(in.FileSize)
}
