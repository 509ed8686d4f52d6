// Package provider holds helpers shared by the upstream data providers.
package provider

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"stamp-core/pkg/wallet/types"
)

// DecodeRawTransaction parses a serialized transaction into the provider
// model, one RawTxOutput per output in order.
func DecodeRawTransaction(txHex string) (*types.RawTransaction, *wire.MsgTx, error) {
	raw, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, nil, fmt.Errorf("decode tx hex: %w", err)
	}

	msgTx := wire.NewMsgTx(wire.TxVersion)
	if err := msgTx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, nil, fmt.Errorf("deserialize tx: %w", err)
	}

	tx := &types.RawTransaction{
		TxID: msgTx.TxHash().String(),
		Hex:  txHex,
		Vout: make([]types.RawTxOutput, 0, len(msgTx.TxOut)),
	}
	for _, out := range msgTx.TxOut {
		tx.Vout = append(tx.Vout, types.RawTxOutput{
			Value: uint64(out.Value),
			ScriptPubKey: types.ScriptPubKey{
				Hex:  hex.EncodeToString(out.PkScript),
				Type: txscript.GetScriptClass(out.PkScript).String(),
			},
		})
	}
	return tx, msgTx, nil
}
