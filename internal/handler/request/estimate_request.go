package request

type EstimateRequest struct {
	SessionID     string  `json:"session_id"`
	Phase         string  `json:"phase" binding:"required,oneof=instant smart exact"`
	TxType        string  `json:"tx_type" binding:"omitempty,oneof=send stamp src20"`
	FileSize      int     `json:"file_size" binding:"gte=0,lte=65535"`
	FileHex       string  `json:"file_hex" binding:"omitempty,hexstr"`
	OutputCount   int     `json:"output_count" binding:"gte=0"`
	OutputValue   uint64  `json:"output_value"`
	FeeRate       float64 `json:"fee_rate" binding:"gte=0"` // 0 使用缓存费率
	WalletAddress string  `json:"wallet_address"`
	Asset         string  `json:"asset"`
	Quantity      uint64  `json:"quantity"`
	Divisible     bool    `json:"divisible"`
	Locked        bool    `json:"locked"`
	Description   string  `json:"description"`
}
