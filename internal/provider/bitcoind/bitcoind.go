// Package bitcoind reads UTXOs and transactions from a Bitcoin Core node over
// JSON-RPC. listunspent only sees addresses the node's wallet watches.
package bitcoind

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"

	"stamp-core/internal/provider"
	"stamp-core/internal/service"
	"stamp-core/pkg/address"
	"stamp-core/pkg/wallet/types"
)

type Config struct {
	Host string
	User string
	Pass string
	TLS  bool
}

// Provider implements service.UTXOProvider.
type Provider struct {
	rpc     *rpcclient.Client
	network *chaincfg.Params
}

var _ service.UTXOProvider = (*Provider)(nil)

func New(cfg Config, network *chaincfg.Params) (*Provider, error) {
	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         cfg.Host,
		User:         cfg.User,
		Pass:         cfg.Pass,
		HTTPPostMode: true,
		DisableTLS:   !cfg.TLS,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("bitcoind client: %w", err)
	}
	return &Provider{rpc: client, network: network}, nil
}

func (p *Provider) Close() {
	p.rpc.Shutdown()
}

func (p *Provider) FetchUTXOs(ctx context.Context, addr string) ([]types.UTXO, error) {
	decoded, err := btcutil.DecodeAddress(addr, p.network)
	if err != nil {
		return nil, fmt.Errorf("decode address %s: %w", addr, err)
	}

	results, err := receive(ctx, func() ([]btcjson.ListUnspentResult, error) {
		return p.rpc.ListUnspentMinMaxAddressesAsync(0, math.MaxInt32, []btcutil.Address{decoded}).Receive()
	})
	if err != nil {
		return nil, fmt.Errorf("listunspent %s: %w", addr, mapRPCError(err))
	}

	utxos := make([]types.UTXO, 0, len(results))
	for _, r := range results {
		amount, err := btcutil.NewAmount(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("utxo %s:%d amount: %w", r.TxID, r.Vout, err)
		}
		script, err := hex.DecodeString(r.ScriptPubKey)
		if err != nil {
			return nil, fmt.Errorf("utxo %s:%d script: %w", r.TxID, r.Vout, err)
		}
		confs := uint32(0)
		if r.Confirmations > 0 {
			confs = uint32(r.Confirmations)
		}
		utxos = append(utxos, types.UTXO{
			TxID:          r.TxID,
			Vout:          r.Vout,
			Value:         uint64(amount),
			Script:        r.ScriptPubKey,
			ScriptType:    address.ClassifyScript(script),
			Confirmations: confs,
		})
	}
	return utxos, nil
}

func (p *Provider) FetchRawTransaction(ctx context.Context, txid string) (*types.RawTransaction, error) {
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, fmt.Errorf("txid %s: %w", txid, err)
	}

	result, err := receive(ctx, func() (*btcjson.TxRawResult, error) {
		return p.rpc.GetRawTransactionVerboseAsync(hash).Receive()
	})
	if err != nil {
		return nil, fmt.Errorf("getrawtransaction %s: %w", txid, mapRPCError(err))
	}

	// 以节点返回的 hex 为准，脚本类型统一用 txscript 的命名
	tx, _, err := provider.DecodeRawTransaction(result.Hex)
	if err != nil {
		return nil, fmt.Errorf("tx %s: %w", txid, err)
	}
	return tx, nil
}

// receive waits for an rpcclient future while honouring ctx.
func receive[T any](ctx context.Context, call func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := call()
		ch <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}

func mapRPCError(err error) error {
	var rpcErr *btcjson.RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == btcjson.ErrRPCNoTxInfo {
		return fmt.Errorf("%v: %w", err, service.ErrNoData)
	}
	return err
}
