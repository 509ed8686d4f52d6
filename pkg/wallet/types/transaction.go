package types

import "github.com/shopspring/decimal"

// UnsignedTransaction is the transaction handed to the signer.
// It contains the PSBT plus a readable summary for the user to verify before signing.
type UnsignedTransaction struct {
	PSBT    string     `json:"psbt"`   // base64 BIP-174
	TxHex   string     `json:"tx_hex"` // unsigned tx, no witness
	TxID    string     `json:"txid"`
	Inputs  []TxInput  `json:"inputs"`
	Outputs []TxOutput `json:"outputs"`
}

type TxInput struct {
	TxID       string     `json:"txid"`
	Vout       uint32     `json:"vout"`
	Value      uint64     `json:"value"`
	ScriptType ScriptType `json:"script_type"`
	Witness    bool       `json:"witness"` // true: witnessUtxo attached, false: nonWitnessUtxo
}

type TxOutput struct {
	Value   uint64 `json:"value"`
	Script  string `json:"script"`
	Address string `json:"address,omitempty"`
	Role    string `json:"role"` // base, payload, service_fee, change
}

// PSBTData is the result of one build. It is never mutated after creation.
type PSBTData struct {
	UnsignedTransaction UnsignedTransaction `json:"unsigned_transaction"`
	FeeRateSatVb        SatPerVByte         `json:"fee_rate_sat_vb"`
	EstimatedSizeVb     uint32              `json:"estimated_size_vb"`
	TotalInputValue     uint64              `json:"total_input_value"`
	TotalOutputValue    uint64              `json:"total_output_value"`
	ChangeValue         uint64              `json:"change_value"`
	TotalDustValue      uint64              `json:"total_dust_value"`
	EstimatedMinerFee   uint64              `json:"estimated_miner_fee"`
	ChangeAddress       string              `json:"change_address"`
}

// IssuanceRequest asks the issuance service for a base transaction.
type IssuanceRequest struct {
	Source      string `json:"source"`
	Asset       string `json:"asset"`
	Quantity    uint64 `json:"quantity"`
	Divisible   bool   `json:"divisible"`
	Locked      bool   `json:"locked"`
	Description string `json:"description"`
}

// QuoteSource says where a fee or price quote came from.
type QuoteSource string

const (
	SourcePrimary   QuoteSource = "network-api-primary"
	SourceSecondary QuoteSource = "network-api-secondary"
	SourceCached    QuoteSource = "cached"
	SourceFallback  QuoteSource = "fallback"
)

// FeeQuote is a recommended network fee rate.
type FeeQuote struct {
	RecommendedFeeRate SatPerVByte `json:"recommended_fee_rate_sat_vb"`
	Source             QuoteSource `json:"source"`
	Timestamp          int64       `json:"timestamp"` // epoch ms
	FallbackUsed       bool        `json:"fallback_used"`
}

// PriceQuote is the BTC/USD price.
type PriceQuote struct {
	USD          decimal.Decimal `json:"usd"`
	Source       QuoteSource     `json:"source"`
	Timestamp    int64           `json:"timestamp"`
	FallbackUsed bool            `json:"fallback_used"`
}
