package types

import (
	"errors"
	"fmt"
	"math"
)

// MaxFeeRate is the highest sat/vB rate accepted. Anything above it is almost
// certainly a sat/kvB figure passed where sat/vB was expected.
const MaxFeeRate SatPerVByte = 5000

var ErrInvalidFeeRate = errors.New("invalid fee rate")

// SatPerVByte is a fee rate in satoshis per virtual byte. Every engine API takes
// this type, never a bare number.
type SatPerVByte float64

// SatPerKVByte is a fee rate in satoshis per 1000 virtual bytes, the unit
// bitcoind reports.
type SatPerKVByte float64

func (r SatPerKVByte) ToSatPerVByte() SatPerVByte {
	return SatPerVByte(float64(r) / 1000)
}

func (r SatPerVByte) ToSatPerKVByte() SatPerKVByte {
	return SatPerKVByte(float64(r) * 1000)
}

// Validate rejects rates that cannot be used to price a transaction.
func (r SatPerVByte) Validate() error {
	f := float64(r)
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return fmt.Errorf("%w: %v sat/vB", ErrInvalidFeeRate, f)
	}
	if r > MaxFeeRate {
		return fmt.Errorf("%w: %v sat/vB exceeds %v (sat/kvB passed as sat/vB?)", ErrInvalidFeeRate, f, float64(MaxFeeRate))
	}
	return nil
}

func (r SatPerVByte) String() string {
	return fmt.Sprintf("%g sat/vB", float64(r))
}
