package types

// ScriptType 输出脚本类型
type ScriptType string

const (
	ScriptP2PKH  ScriptType = "P2PKH"
	ScriptP2WPKH ScriptType = "P2WPKH"
	ScriptP2WSH  ScriptType = "P2WSH"
	ScriptP2SH   ScriptType = "P2SH"
	ScriptP2TR   ScriptType = "P2TR"
	ScriptOther  ScriptType = "other"
)

// IsWitness reports whether spending the script puts data in the witness.
// P2SH is assumed to wrap P2WPKH, the only nested form the wallets we serve produce.
func (s ScriptType) IsWitness() bool {
	switch s {
	case ScriptP2WPKH, ScriptP2WSH, ScriptP2TR, ScriptP2SH:
		return true
	default:
		return false
	}
}

// UTXO is an unspent output owned by the caller's wallet.
type UTXO struct {
	TxID          string     `json:"txid"`
	Vout          uint32     `json:"vout"`
	Value         uint64     `json:"value"`
	Script        string     `json:"script"` // scriptPubKey hex
	ScriptType    ScriptType `json:"script_type"`
	Confirmations uint32     `json:"confirmations"`
}

// OutputIntent is an output the transaction must carry.
// AddressOrScript is either an address or a hex encoded scriptPubKey.
type OutputIntent struct {
	Value           uint64 `json:"value"`
	AddressOrScript string `json:"address_or_script"`
	IsWitness       bool   `json:"is_witness"`
}

// RawTransaction is a previous transaction as reported by a UTXO provider.
type RawTransaction struct {
	TxID string        `json:"txid"`
	Hex  string        `json:"hex"`
	Vout []RawTxOutput `json:"vout"`
}

type RawTxOutput struct {
	Value        uint64       `json:"value"`
	ScriptPubKey ScriptPubKey `json:"scriptPubKey"`
}

type ScriptPubKey struct {
	Hex  string `json:"hex"`
	Type string `json:"type"`
}
