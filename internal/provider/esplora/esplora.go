// Package esplora reads UTXOs and transactions from an Esplora REST API
// (mempool.space, blockstream.info or a self-hosted electrs).
package esplora

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"go.uber.org/zap"

	"stamp-core/internal/provider"
	"stamp-core/internal/provider/httpclient"
	"stamp-core/internal/service"
	"stamp-core/pkg/address"
	"stamp-core/pkg/logger"
	"stamp-core/pkg/wallet/types"
)

type utxoStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight uint32 `json:"block_height"`
}

type utxoResponse struct {
	TxID   string     `json:"txid"`
	Vout   uint32     `json:"vout"`
	Value  uint64     `json:"value"`
	Status utxoStatus `json:"status"`
}

// Provider implements service.UTXOProvider.
type Provider struct {
	client   *httpclient.Client
	resolver *address.Resolver
}

var _ service.UTXOProvider = (*Provider)(nil)

func New(baseURL string, network *chaincfg.Params, timeout time.Duration, maxRetries int) *Provider {
	retry := httpclient.DefaultRetryConfig()
	retry.MaxRetries = maxRetries
	retry.OnRetry = func(attempt int, err error) {
		logger.Warn("esplora 请求重试", zap.Int("attempt", attempt), zap.Error(err))
	}
	return &Provider{
		client:   httpclient.New(baseURL, timeout, retry),
		resolver: address.NewResolver(network),
	}
}

// FetchUTXOs lists the address' unspent outputs. The output script is derived
// from the address since Esplora does not return it.
func (p *Provider) FetchUTXOs(ctx context.Context, addr string) ([]types.UTXO, error) {
	script, err := p.resolver.AddressScript(addr)
	if err != nil {
		return nil, err
	}
	scriptType := address.ClassifyScript(script)
	scriptHex := hex.EncodeToString(script)

	var resp []utxoResponse
	if err := p.client.GetJSON(ctx, "/address/"+addr+"/utxo", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch utxos of %s: %w", addr, err)
	}
	if len(resp) == 0 {
		return []types.UTXO{}, nil
	}

	tip, err := p.tipHeight(ctx)
	if err != nil {
		// 没有高度时确认数按 1 计，只影响排序
		logger.Warn("esplora 获取区块高度失败", zap.Error(err))
	}

	utxos := make([]types.UTXO, 0, len(resp))
	for _, u := range resp {
		utxos = append(utxos, types.UTXO{
			TxID:          u.TxID,
			Vout:          u.Vout,
			Value:         u.Value,
			Script:        scriptHex,
			ScriptType:    scriptType,
			Confirmations: confirmations(u.Status, tip),
		})
	}
	return utxos, nil
}

// FetchRawTransaction returns the hex and decoded outputs of txid.
func (p *Provider) FetchRawTransaction(ctx context.Context, txid string) (*types.RawTransaction, error) {
	txHex, err := p.client.GetText(ctx, "/tx/"+txid+"/hex")
	if err != nil {
		return nil, fmt.Errorf("fetch tx %s: %w", txid, err)
	}
	tx, _, err := provider.DecodeRawTransaction(txHex)
	if err != nil {
		return nil, fmt.Errorf("tx %s: %w", txid, err)
	}
	return tx, nil
}

func (p *Provider) tipHeight(ctx context.Context) (uint32, error) {
	text, err := p.client.GetText(ctx, "/blocks/tip/height")
	if err != nil {
		return 0, err
	}
	h, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse tip height %q: %w", text, err)
	}
	return uint32(h), nil
}

func confirmations(s utxoStatus, tip uint32) uint32 {
	if !s.Confirmed {
		return 0
	}
	if tip == 0 || s.BlockHeight == 0 || s.BlockHeight > tip {
		return 1
	}
	return tip - s.BlockHeight + 1
}
