// Package txsize estimates transaction virtual size.
//
// vsize = base + ceil(witness / 4), where base is the stripped serialization
// and witness is the segwit marker/flag plus every input's witness stack.
package txsize

import (
	"github.com/btcsuite/btcd/wire"

	"stamp-core/pkg/wallet/types"
)

// TxType selects the output layout used by Estimate.
type TxType string

const (
	TxTypeSend  TxType = "send"
	TxTypeStamp TxType = "stamp"
	TxTypeSRC20 TxType = "src20"
)

// ParseTxType falls back to TxTypeSend for unknown names.
func ParseTxType(s string) TxType {
	switch TxType(s) {
	case TxTypeStamp, TxTypeSRC20:
		return TxType(s)
	default:
		return TxTypeSend
	}
}

const (
	versionSize     = 4
	lockTimeSize    = 4
	outpointSize    = 36
	sequenceSize    = 4
	outputValueSize = 8

	// marker + flag, counted in weight units
	segwitMarkerWeight = 2

	// signature (73 incl. sighash) + compressed pubkey
	p2pkhScriptSigSize = 1 + 73 + 1 + 33
	// push of the 22 byte P2WPKH redeem script
	p2shP2WPKHScriptSigSize = 1 + 22

	// item count + sig + pubkey
	p2wpkhWitnessWeight = 1 + 1 + 73 + 1 + 33
	// item count + sig + <pubkey OP_CHECKSIG> script
	p2wshWitnessWeight = 1 + 1 + 73 + 1 + 35
	// item count + schnorr sig
	p2trWitnessWeight = 1 + 1 + 64
	// empty stack of a non-witness input inside a segwit tx
	emptyWitnessWeight = 1

	// StampOpReturnDataSize is the data carried by the issuance OP_RETURN.
	StampOpReturnDataSize = 80

	payloadHeaderSize = 2
	payloadChunkSize  = 32
)

// Params are the inputs to Estimate.
type Params struct {
	InputCount  int
	OutputCount int
	TxType      TxType
	FileSize    int // payload bytes, stamp and src20 only
	HasWitness  bool
}

// Estimate returns the vsize of a transaction described by p. It never fails;
// negative counts are treated as zero.
func Estimate(p Params) uint32 {
	inputType := types.ScriptP2PKH
	if p.HasWitness {
		inputType = types.ScriptP2WPKH
	}

	inputs := make([]types.ScriptType, clamp(p.InputCount))
	for i := range inputs {
		inputs[i] = inputType
	}

	return VSize(inputs, OutputScriptLens(p.TxType, p.OutputCount, p.FileSize))
}

// OutputScriptLens lists the scriptPubKey sizes of a transaction of type txType
// with outputCount plain outputs.
func OutputScriptLens(txType TxType, outputCount, fileSize int) []int {
	lens := make([]int, 0, clamp(outputCount)+PayloadOutputCount(fileSize)+1)
	for i := 0; i < clamp(outputCount); i++ {
		lens = append(lens, OutputScriptLen(types.ScriptP2WPKH))
	}

	switch txType {
	case TxTypeStamp:
		lens = append(lens, OpReturnScriptLen(StampOpReturnDataSize))
		for i := 0; i < PayloadOutputCount(fileSize); i++ {
			lens = append(lens, OutputScriptLen(types.ScriptP2WSH))
		}
	case TxTypeSRC20:
		for i := 0; i < PayloadOutputCount(fileSize); i++ {
			lens = append(lens, OutputScriptLen(types.ScriptP2WSH))
		}
	}
	return lens
}

// VSize computes the virtual size of a transaction spending inputs of the
// given types into outputs with the given scriptPubKey lengths.
func VSize(inputs []types.ScriptType, outputScriptLens []int) uint32 {
	base := versionSize + lockTimeSize +
		wire.VarIntSerializeSize(uint64(len(inputs))) +
		wire.VarIntSerializeSize(uint64(len(outputScriptLens)))

	witness := 0
	segwit := false
	for _, in := range inputs {
		sigLen := scriptSigSize(in)
		base += outpointSize + wire.VarIntSerializeSize(uint64(sigLen)) + sigLen + sequenceSize

		if w := witnessWeight(in); w > 0 {
			witness += w
			segwit = true
		} else {
			witness += emptyWitnessWeight
		}
	}

	for _, l := range outputScriptLens {
		l = clamp(l)
		base += outputValueSize + wire.VarIntSerializeSize(uint64(l)) + l
	}

	if !segwit {
		return uint32(base)
	}
	witness += segwitMarkerWeight
	return uint32(base + (witness+3)/4)
}

// PayloadOutputCount is the number of P2WSH outputs a CIP33 payload of
// fileSize bytes occupies. The length header alone takes one output, so an
// empty file still needs one.
func PayloadOutputCount(fileSize int) int {
	if fileSize < 0 {
		fileSize = 0
	}
	return (fileSize + payloadHeaderSize + payloadChunkSize - 1) / payloadChunkSize
}

// OutputScriptLen is the scriptPubKey size of a standard output.
func OutputScriptLen(t types.ScriptType) int {
	switch t {
	case types.ScriptP2PKH:
		return 25
	case types.ScriptP2SH:
		return 23
	case types.ScriptP2WSH, types.ScriptP2TR:
		return 34
	default:
		return 22
	}
}

// OpReturnScriptLen is the size of an OP_RETURN script pushing dataLen bytes.
func OpReturnScriptLen(dataLen int) int {
	dataLen = clamp(dataLen)
	switch {
	case dataLen <= 75:
		return 1 + 1 + dataLen
	case dataLen <= 0xff:
		return 1 + 2 + dataLen
	default:
		return 1 + 3 + dataLen
	}
}

func scriptSigSize(t types.ScriptType) int {
	switch t {
	case types.ScriptP2PKH:
		return p2pkhScriptSigSize
	case types.ScriptP2SH:
		return p2shP2WPKHScriptSigSize
	default:
		return 0
	}
}

func witnessWeight(t types.ScriptType) int {
	switch t {
	case types.ScriptP2PKH:
		return 0
	case types.ScriptP2WSH:
		return p2wshWitnessWeight
	case types.ScriptP2TR:
		return p2trWitnessWeight
	default:
		// P2WPKH, P2SH-P2WPKH and unknown types
		return p2wpkhWitnessWeight
	}
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
