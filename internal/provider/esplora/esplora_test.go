package esplora

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stamp-core/internal/service"
	"stamp-core/pkg/wallet/types"
)

const testAddr = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchUTXOs(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/address/" + testAddr + "/utxo": `[
			{"txid":"aa","vout":0,"value":50000,"status":{"confirmed":true,"block_height":100}},
			{"txid":"bb","vout":1,"value":1000,"status":{"confirmed":false}}
		]`,
		"/blocks/tip/height": "109",
	})
	p := New(srv.URL, &chaincfg.MainNetParams, time.Second, 0)

	utxos, err := p.FetchUTXOs(context.Background(), testAddr)
	require.NoError(t, err)
	require.Len(t, utxos, 2)

	assert.Equal(t, "aa", utxos[0].TxID)
	assert.Equal(t, uint64(50000), utxos[0].Value)
	assert.Equal(t, uint32(10), utxos[0].Confirmations)
	assert.Equal(t, types.ScriptP2WPKH, utxos[0].ScriptType)
	assert.Equal(t, "0014751e76e8199196d454941c45d1b3a323f1433bd6", utxos[0].Script)
	assert.Equal(t, uint32(0), utxos[1].Confirmations)
}

func TestFetchUTXOs_EmptyIsNotAnError(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/address/" + testAddr + "/utxo": `[]`,
	})
	p := New(srv.URL, &chaincfg.MainNetParams, time.Second, 0)

	utxos, err := p.FetchUTXOs(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Empty(t, utxos)
}

func TestFetchUTXOs_NoData(t *testing.T) {
	srv := newTestServer(t, nil)
	p := New(srv.URL, &chaincfg.MainNetParams, time.Second, 0)

	_, err := p.FetchUTXOs(context.Background(), testAddr)
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrNoData))
}

func TestFetchUTXOs_WrongNetworkAddress(t *testing.T) {
	p := New("http://127.0.0.1:0", &chaincfg.TestNet3Params, time.Second, 0)

	_, err := p.FetchUTXOs(context.Background(), testAddr)
	assert.Error(t, err)
}

func TestFetchRawTransaction(t *testing.T) {
	script, _ := hex.DecodeString("0014751e76e8199196d454941c45d1b3a323f1433bd6")
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{1}, 0), nil, nil))
	tx.AddTxOut(wire.NewTxOut(12345, script))
	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))
	txHex := hex.EncodeToString(buf.Bytes())
	txid := tx.TxHash().String()

	srv := newTestServer(t, map[string]string{
		"/tx/" + txid + "/hex": txHex + "\n",
	})
	p := New(srv.URL, &chaincfg.MainNetParams, time.Second, 0)

	raw, err := p.FetchRawTransaction(context.Background(), txid)
	require.NoError(t, err)
	assert.Equal(t, txid, raw.TxID)
	assert.Equal(t, txHex, raw.Hex)
	require.Len(t, raw.Vout, 1)
	assert.Equal(t, uint64(12345), raw.Vout[0].Value)
	assert.Equal(t, "witness_v0_keyhash", raw.Vout[0].ScriptPubKey.Type)
}

func TestFetchRawTransaction_RetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := New(srv.URL, &chaincfg.MainNetParams, time.Second, 2)
	_, err := p.FetchRawTransaction(context.Background(), "ff")
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrNoData))
	assert.Equal(t, 3, calls)
}
