package bitcoind

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stamp-core/internal/service"
	"stamp-core/pkg/wallet/types"
)

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     interface{}       `json:"id"`
}

// newNode answers JSON-RPC calls with the canned result (or error) for each method.
func newNode(t *testing.T, results map[string]string) *Provider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		body, ok := results[req.Method]
		if !ok {
			body = `{"result":null,"error":{"code":-32601,"message":"Method not found"}}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	p, err := New(Config{Host: strings.TrimPrefix(srv.URL, "http://"), User: "u", Pass: "p"}, &chaincfg.MainNetParams)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestFetchUTXOs(t *testing.T) {
	p := newNode(t, map[string]string{
		"listunspent": `{"result":[{"txid":"aa","vout":2,"address":"bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
			"scriptPubKey":"0014751e76e8199196d454941c45d1b3a323f1433bd6","amount":0.0005,"confirmations":6,"spendable":true}],"error":null}`,
	})

	utxos, err := p.FetchUTXOs(context.Background(), "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4")
	require.NoError(t, err)
	require.Len(t, utxos, 1)
	assert.Equal(t, types.UTXO{
		TxID:          "aa",
		Vout:          2,
		Value:         50000,
		Script:        "0014751e76e8199196d454941c45d1b3a323f1433bd6",
		ScriptType:    types.ScriptP2WPKH,
		Confirmations: 6,
	}, utxos[0])
}

func TestFetchRawTransaction(t *testing.T) {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{7}, 1), nil, nil))
	tx.AddTxOut(wire.NewTxOut(777, []byte{0x6a, 0x01, 0x00}))
	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))
	txHex := hex.EncodeToString(buf.Bytes())
	txid := tx.TxHash().String()

	p := newNode(t, map[string]string{
		"getrawtransaction": `{"result":{"hex":"` + txHex + `","txid":"` + txid + `"},"error":null}`,
	})

	raw, err := p.FetchRawTransaction(context.Background(), txid)
	require.NoError(t, err)
	assert.Equal(t, txid, raw.TxID)
	require.Len(t, raw.Vout, 1)
	assert.Equal(t, uint64(777), raw.Vout[0].Value)
	assert.Equal(t, "nulldata", raw.Vout[0].ScriptPubKey.Type)
}

func TestFetchRawTransaction_UnknownTxIsNoData(t *testing.T) {
	p := newNode(t, map[string]string{
		"getrawtransaction": `{"result":null,"error":{"code":-5,"message":"No such mempool or blockchain transaction"}}`,
	})

	_, err := p.FetchRawTransaction(context.Background(), strings.Repeat("ab", 32))
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrNoData))
}

func TestFetchRawTransaction_BadTxID(t *testing.T) {
	p := newNode(t, nil)
	_, err := p.FetchRawTransaction(context.Background(), "not-a-txid")
	assert.Error(t, err)
}
