package request

type BuildPSBTRequest struct {
	SourceAddress string  `json:"source_address" binding:"required"`
	FileHex       string  `json:"file_hex" binding:"hexstr"`
	Asset         string  `json:"asset" binding:"required"`
	Quantity      uint64  `json:"quantity"`
	Divisible     bool    `json:"divisible"`
	Locked        bool    `json:"locked"`
	Description   string  `json:"description"`
	FeeRate       float64 `json:"fee_rate" binding:"required,gt=0"`
}
