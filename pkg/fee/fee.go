// Package fee turns vsize estimates into miner fees and dust amounts.
//
// Rates are always types.SatPerVByte. A rate expressed per 1000 vB has to be
// converted with SatPerKVByte.ToSatPerVByte before it reaches this package.
package fee

import (
	"math"

	"github.com/shopspring/decimal"

	"stamp-core/pkg/txsize"
	"stamp-core/pkg/wallet/types"
)

// MiningFee returns ceil(vbytes * rate). Non-positive or invalid rates yield 0.
func MiningFee(vbytes uint32, rate types.SatPerVByte) uint64 {
	f := float64(rate)
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	// decimal 避免 100 * 1.1 = 110.00000000000001 这类浮点误差被 Ceil 放大
	fee := decimal.NewFromInt(int64(vbytes)).
		Mul(decimal.NewFromFloat(f)).
		Ceil()
	return uint64(fee.IntPart())
}

// MiningFeeForPayload prices the canonical payload transaction: one witness
// input, one change output and the payload outputs of txType.
func MiningFeeForPayload(fileSize int, txType txsize.TxType, rate types.SatPerVByte) uint64 {
	vsize := txsize.Estimate(txsize.Params{
		InputCount:  1,
		OutputCount: 1,
		TxType:      txType,
		FileSize:    fileSize,
		HasWitness:  true,
	})
	return MiningFee(vsize, rate)
}
