package request

type Cip33EncodeRequest struct {
	FileHex string `json:"file_hex" binding:"hexstr"`
	Network string `json:"network" binding:"omitempty,oneof=mainnet testnet"`
}

type Cip33DecodeRequest struct {
	Addresses []string `json:"addresses" binding:"required,min=1"`
}
