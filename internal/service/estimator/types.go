package estimator

import (
	"errors"

	"stamp-core/pkg/txsize"
	"stamp-core/pkg/wallet/types"
)

type Phase string

const (
	PhaseInstant Phase = "instant"
	PhaseSmart   Phase = "smart"
	PhaseExact   Phase = "exact"
)

var phases = []Phase{PhaseInstant, PhaseSmart, PhaseExact}

func ParsePhase(s string) (Phase, error) {
	for _, p := range phases {
		if string(p) == s {
			return p, nil
		}
	}
	return "", errors.New("unknown estimation phase: " + s)
}

func (p Phase) rank() int {
	for i, q := range phases {
		if q == p {
			return i
		}
	}
	return -1
}

func (p Phase) confidence() Confidence {
	switch p {
	case PhaseExact:
		return ConfidenceHigh
	case PhaseSmart:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// FeeRateFromRequest is the FeeRateSource of a rate given in the Input.
const FeeRateFromRequest = "request"

var (
	ErrSuperseded            = errors.New("estimate superseded by a newer generation")
	ErrWalletAddressRequired = errors.New("wallet address required")
	ErrInvalidWalletAddress  = errors.New("invalid wallet address")
	ErrMintDetailsRequired   = errors.New("asset and file content required for an exact estimate")
	ErrSessionNotFound       = errors.New("estimation session not found")
	ErrExactUnavailable      = errors.New("exact estimation not configured")
)

// Input describes the transaction being estimated. A change in any field
// re-runs the phase.
type Input struct {
	TxType        txsize.TxType     `json:"tx_type"`
	FileSize      int               `json:"file_size"`
	FileHex       string            `json:"file_hex,omitempty"` // exact phase only
	OutputCount   int               `json:"output_count"`       // recipient outputs, change excluded
	OutputValue   uint64            `json:"output_value"`       // per recipient, 0 means dust
	FeeRate       types.SatPerVByte `json:"fee_rate"`           // 0 uses the cached quote
	WalletAddress string            `json:"wallet_address,omitempty"`
	Asset         string            `json:"asset,omitempty"`
	Quantity      uint64            `json:"quantity,omitempty"`
	Divisible     bool              `json:"divisible,omitempty"`
	Locked        bool              `json:"locked,omitempty"`
	Description   string            `json:"description,omitempty"`
}

// Result is one completed phase.
type Result struct {
	SessionID          string            `json:"session_id"`
	Phase              Phase             `json:"phase"`
	FeeSatoshis        uint64            `json:"fee_satoshis"`
	DustSatoshis       uint64            `json:"dust_satoshis"`
	ServiceFeeSatoshis uint64            `json:"service_fee_satoshis"`
	TotalSatoshis      uint64            `json:"total_satoshis"`
	VSize              uint32            `json:"vsize"`
	InputCount         int               `json:"input_count"`
	FeeRate            types.SatPerVByte `json:"fee_rate"`
	FeeRateSource      string            `json:"fee_rate_source"`
	Confidence         Confidence        `json:"confidence"`
	Timestamp          int64             `json:"timestamp"` // epoch ms
	Generation         uint64            `json:"generation"`
}
