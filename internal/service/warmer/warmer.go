// Package warmer keeps the market cache hot with two cron loops, one for the
// fee rate and one for the BTC price.
//
// The loops fail differently. After FeeMaxRetries consecutive failures the fee
// loop unschedules itself; a later successful ForceWarm schedules it again.
// The price loop only resets its counter and keeps ticking.
package warmer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"stamp-core/pkg/logger"
	"stamp-core/pkg/monitor"
	"stamp-core/pkg/utils/lock"
	"stamp-core/pkg/wallet/types"
)

const (
	loopFee   = "fee"
	loopPrice = "price"
)

// FeeFeedUnavailableError is recorded when the fee loop gives up.
type FeeFeedUnavailableError struct {
	Retries int
	Last    error
}

func (e *FeeFeedUnavailableError) Error() string {
	return fmt.Sprintf("fee feed unavailable after %d attempts: %v", e.Retries, e.Last)
}

func (e *FeeFeedUnavailableError) Unwrap() error { return e.Last }

// Market is the part of market.Service the warmer drives.
type Market interface {
	RefreshFee(ctx context.Context) (*types.FeeQuote, error)
	RefreshPrice(ctx context.Context) (*types.PriceQuote, error)
}

type Config struct {
	FeeInterval     time.Duration
	PriceInterval   time.Duration
	FeeMaxRetries   int
	PriceMaxRetries int
	Timeout         time.Duration // per fetch
}

type Option func(*Warmer)

// WithLock lets only one replica warm per tick.
func WithLock(l lock.DistributedLock) Option {
	return func(w *Warmer) { w.locker = l }
}

type loopState struct {
	scheduled bool
	entry     cron.EntryID
	retries   int
	lastErr   error
}

// Status is a point-in-time snapshot.
type Status struct {
	IsRunning      bool              `json:"is_running"` // fee loop scheduled
	PriceRunning   bool              `json:"price_running"`
	FeeRetries     int               `json:"fee_retries"`
	PriceRetries   int               `json:"price_retries"`
	LastFee        *types.FeeQuote   `json:"last_fee,omitempty"`
	LastPrice      *types.PriceQuote `json:"last_price,omitempty"`
	LastFeeError   string            `json:"last_fee_error,omitempty"`
	LastPriceError string            `json:"last_price_error,omitempty"`
}

type Warmer struct {
	cron   *cron.Cron
	market Market
	cfg    Config
	locker lock.DistributedLock

	// 每个循环一把锁，ForceWarm 与定时任务不会重叠
	feeTick   sync.Mutex
	priceTick sync.Mutex

	mu        sync.RWMutex
	started   bool
	fee       loopState
	price     loopState
	lastFee   *types.FeeQuote
	lastPrice *types.PriceQuote
}

func New(market Market, cfg Config, opts ...Option) *Warmer {
	if cfg.FeeMaxRetries <= 0 {
		cfg.FeeMaxRetries = 3
	}
	if cfg.PriceMaxRetries <= 0 {
		cfg.PriceMaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	cronLog := logger.NewCronLogger("warmer")
	w := &Warmer{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		market: market,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start schedules both loops. It does not warm immediately; call ForceWarm for that.
func (w *Warmer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	if err := w.scheduleLocked(loopFee); err != nil {
		return err
	}
	if err := w.scheduleLocked(loopPrice); err != nil {
		w.cron.Remove(w.fee.entry)
		w.fee.scheduled = false
		return err
	}
	w.started = true
	w.cron.Start()

	logger.Info("Warmer started",
		zap.Duration("fee_interval", w.cfg.FeeInterval),
		zap.Duration("price_interval", w.cfg.PriceInterval))
	return nil
}

// Stop unschedules both loops and waits for running ticks.
func (w *Warmer) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	for _, st := range []*loopState{&w.fee, &w.price} {
		if st.scheduled {
			w.cron.Remove(st.entry)
			st.scheduled = false
		}
	}
	monitor.Business.WarmerRunning.WithLabelValues(loopFee).Set(0)
	monitor.Business.WarmerRunning.WithLabelValues(loopPrice).Set(0)
	w.mu.Unlock()

	<-w.cron.Stop().Done()
	logger.Info("Warmer stopped")
}

// Status is safe to call at any time.
func (w *Warmer) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()

	s := Status{
		IsRunning:    w.fee.scheduled,
		PriceRunning: w.price.scheduled,
		FeeRetries:   w.fee.retries,
		PriceRetries: w.price.retries,
		LastFee:      w.lastFee,
		LastPrice:    w.lastPrice,
	}
	if w.fee.lastErr != nil {
		s.LastFeeError = w.fee.lastErr.Error()
	}
	if w.price.lastErr != nil {
		s.LastPriceError = w.price.lastErr.Error()
	}
	return s
}

// LastFeeError returns the fee loop's last error, typed.
func (w *Warmer) LastFeeError() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fee.lastErr
}

// ForceWarm runs one tick of each loop now, concurrently, and returns the
// joined errors.
func (w *Warmer) ForceWarm(ctx context.Context) error {
	var (
		wg               sync.WaitGroup
		feeErr, priceErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		feeErr = w.warmFee(ctx)
	}()
	go func() {
		defer wg.Done()
		priceErr = w.warmPrice(ctx)
	}()
	wg.Wait()
	return errors.Join(feeErr, priceErr)
}

func (w *Warmer) scheduleLocked(loop string) error {
	var (
		interval time.Duration
		job      func()
		st       *loopState
	)
	switch loop {
	case loopFee:
		interval, st = w.cfg.FeeInterval, &w.fee
		job = func() { _ = w.warmFee(context.Background()) }
	default:
		interval, st = w.cfg.PriceInterval, &w.price
		job = func() { _ = w.warmPrice(context.Background()) }
	}
	if interval <= 0 {
		return fmt.Errorf("warmer %s interval must be positive, got %s", loop, interval)
	}

	id, err := w.cron.AddFunc("@every "+interval.String(), job)
	if err != nil {
		return fmt.Errorf("schedule %s warmer: %w", loop, err)
	}
	st.entry, st.scheduled = id, true
	monitor.Business.WarmerRunning.WithLabelValues(loop).Set(1)
	return nil
}

func (w *Warmer) warmFee(ctx context.Context) error {
	w.feeTick.Lock()
	defer w.feeTick.Unlock()

	// 1. 分布式锁: 同一时刻只有一个实例预热
	release, ok := w.acquire(ctx, loopFee)
	if !ok {
		return nil
	}
	defer release()

	// 2. 拉取费率并写入缓存
	fetchCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	quote, err := w.market.RefreshFee(fetchCtx)
	cancel()

	w.mu.Lock()
	defer w.mu.Unlock()

	if err == nil {
		w.fee.retries = 0
		w.fee.lastErr = nil
		w.lastFee = quote
		// 循环已因失败停止时，成功一次即重新注册
		if w.started && !w.fee.scheduled {
			if serr := w.scheduleLocked(loopFee); serr != nil {
				logger.Error("费率预热任务重新注册失败", zap.Error(serr))
			} else {
				logger.Info("费率获取成功，费率预热已恢复")
			}
		}
		w.recordTick(loopFee, "ok", 0)
		return nil
	}

	w.fee.retries++
	w.recordTick(loopFee, "error", w.fee.retries)
	if w.fee.retries < w.cfg.FeeMaxRetries {
		w.fee.lastErr = err
		logger.Warn("费率预热失败", zap.Int("retries", w.fee.retries), zap.Error(err))
		return err
	}

	// 达到阈值: 停止手续费循环，避免持续请求失败的上游
	unavailable := &FeeFeedUnavailableError{Retries: w.fee.retries, Last: err}
	w.fee.lastErr = unavailable
	if w.fee.scheduled {
		w.cron.Remove(w.fee.entry)
		w.fee.scheduled = false
		monitor.Business.WarmerRunning.WithLabelValues(loopFee).Set(0)
	}
	logger.Error("费率预热连续失败，已停止", zap.Int("retries", w.fee.retries), zap.Error(err))
	return unavailable
}

func (w *Warmer) warmPrice(ctx context.Context) error {
	w.priceTick.Lock()
	defer w.priceTick.Unlock()

	release, ok := w.acquire(ctx, loopPrice)
	if !ok {
		return nil
	}
	defer release()

	fetchCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	quote, err := w.market.RefreshPrice(fetchCtx)
	cancel()

	w.mu.Lock()
	defer w.mu.Unlock()

	if err == nil {
		w.price.retries = 0
		w.price.lastErr = nil
		w.lastPrice = quote
		w.recordTick(loopPrice, "ok", 0)
		return nil
	}

	w.price.retries++
	w.price.lastErr = err
	w.recordTick(loopPrice, "error", w.price.retries)
	if w.price.retries >= w.cfg.PriceMaxRetries {
		logger.Warn("价格预热持续失败，重置重试计数",
			zap.Int("retries", w.price.retries), zap.Error(err))
		w.price.retries = 0
		monitor.Business.WarmerRetries.WithLabelValues(loopPrice).Set(0)
	}
	return err
}

// acquire takes the distributed lock for one tick. Without a lock, or when
// Redis errors, the tick runs locally.
func (w *Warmer) acquire(ctx context.Context, loop string) (func(), bool) {
	if w.locker == nil {
		return func() {}, true
	}

	key := "warmer:" + loop
	locked, err := w.locker.Acquire(ctx, key, w.cfg.Timeout+5*time.Second)
	if err != nil {
		logger.Warn("获取预热锁出错，改为本地执行", zap.String("loop", loop), zap.Error(err))
		return func() {}, true
	}
	if !locked {
		logger.Debug("预热锁已被其他实例持有，跳过本次", zap.String("loop", loop))
		monitor.Business.WarmerTicksTotal.WithLabelValues(loop, "skipped").Inc()
		return nil, false
	}
	return func() {
		if err := w.locker.Release(context.Background(), key); err != nil {
			logger.Warn("释放预热锁失败", zap.String("loop", loop), zap.Error(err))
		}
	}, true
}

func (w *Warmer) recordTick(loop, result string, retries int) {
	monitor.Business.WarmerTicksTotal.WithLabelValues(loop, result).Inc()
	monitor.Business.WarmerRetries.WithLabelValues(loop).Set(float64(retries))
}
