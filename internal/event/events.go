package event

// PSBTBuiltEvent is published after a mint PSBT is assembled, for the signing
// front end to pick up.
// Topic: stamp_events_psbt
type PSBTBuiltEvent struct {
	TxID              string   `json:"txid"`
	SourceAddress     string   `json:"source_address"`
	Asset             string   `json:"asset"`
	PSBT              string   `json:"psbt"` // base64
	FeeRateSatVb      float64  `json:"fee_rate_sat_vb"`
	EstimatedSizeVb   uint32   `json:"estimated_size_vb"`
	EstimatedMinerFee uint64   `json:"estimated_miner_fee"`
	TotalDustValue    uint64   `json:"total_dust_value"`
	PayloadAddresses  []string `json:"payload_addresses"`
	CreatedAt         int64    `json:"created_at"` // epoch ms
}
