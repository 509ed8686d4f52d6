package fee

import (
	"stamp-core/pkg/txsize"
	"stamp-core/pkg/wallet/types"
)

const (
	// PayloadDustFloor is the value of the first payload output.
	PayloadDustFloor uint64 = 333
	// PayloadDustStep is added per following payload output so no two share a value.
	PayloadDustStep uint64 = 1
)

// PayloadDust is the value of the payload output at index.
func PayloadDust(index int) uint64 {
	if index < 0 {
		index = 0
	}
	return PayloadDustFloor + uint64(index)*PayloadDustStep
}

// Dust returns the total value locked in the payload outputs of a file.
func Dust(fileSize int) uint64 {
	var total uint64
	for i := 0; i < txsize.PayloadOutputCount(fileSize); i++ {
		total += PayloadDust(i)
	}
	return total
}

// DustThreshold is the smallest non-dust value of an output of type t at the
// default 3 sat/vB relay dust fee.
func DustThreshold(t types.ScriptType) uint64 {
	switch t {
	case types.ScriptP2WPKH:
		return 294
	case types.ScriptP2WSH, types.ScriptP2TR:
		return 330
	case types.ScriptP2SH:
		return 540
	default:
		return 546
	}
}
