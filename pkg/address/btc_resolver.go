package address

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"stamp-core/pkg/wallet/types"
)

// Resolver 把地址或脚本 hex 解析为 scriptPubKey
type Resolver struct {
	network *chaincfg.Params
}

func NewResolver(network *chaincfg.Params) *Resolver {
	return &Resolver{network: network}
}

func (r *Resolver) Network() *chaincfg.Params {
	return r.network
}

// OutputScript resolves an OutputIntent target. Even-length hex is taken as a
// raw scriptPubKey, anything else must be an address on the resolver's network.
func (r *Resolver) OutputScript(addressOrScript string) ([]byte, error) {
	if script, err := hex.DecodeString(addressOrScript); err == nil && len(script) > 0 {
		return script, nil
	}
	return r.AddressScript(addressOrScript)
}

// AddressScript returns the scriptPubKey paying to addr.
func (r *Resolver) AddressScript(addr string) ([]byte, error) {
	decoded, err := btcutil.DecodeAddress(addr, r.network)
	if err != nil {
		return nil, fmt.Errorf("decode address %s: %w", addr, err)
	}
	if !decoded.IsForNet(r.network) {
		return nil, fmt.Errorf("address %s is not for %s", addr, r.network.Name)
	}
	return txscript.PayToAddrScript(decoded)
}

// ScriptType classifies the address' output script.
func (r *Resolver) ScriptType(addr string) (types.ScriptType, error) {
	script, err := r.AddressScript(addr)
	if err != nil {
		return types.ScriptOther, err
	}
	return ClassifyScript(script), nil
}

// ExtractAddress returns the address a script pays to, or "" for
// non-standard and data scripts.
func (r *Resolver) ExtractAddress(script []byte) string {
	_, addrs, _, err := txscript.ExtractPkScriptAddrs(script, r.network)
	if err != nil || len(addrs) != 1 {
		return ""
	}
	return addrs[0].EncodeAddress()
}

// PubKeyToWitnessAddress 将压缩公钥转换为 P2WPKH 地址
func (r *Resolver) PubKeyToWitnessAddress(pubKeyBytes []byte) (string, error) {
	addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pubKeyBytes), r.network)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

// ClassifyScript maps a scriptPubKey to the engine's script types.
func ClassifyScript(script []byte) types.ScriptType {
	switch txscript.GetScriptClass(script) {
	case txscript.PubKeyHashTy:
		return types.ScriptP2PKH
	case txscript.WitnessV0PubKeyHashTy:
		return types.ScriptP2WPKH
	case txscript.WitnessV0ScriptHashTy:
		return types.ScriptP2WSH
	case txscript.ScriptHashTy:
		return types.ScriptP2SH
	case txscript.WitnessV1TaprootTy:
		return types.ScriptP2TR
	default:
		return types.ScriptOther
	}
}
