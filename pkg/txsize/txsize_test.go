package txsize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stamp-core/pkg/wallet/types"
)

func TestEstimateKnownSizes(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want uint32
	}{
		{"p2wpkh 1-in 2-out", Params{InputCount: 1, OutputCount: 2, TxType: TxTypeSend, HasWitness: true}, 141},
		{"p2pkh 1-in 2-out", Params{InputCount: 1, OutputCount: 2, TxType: TxTypeSend}, 221},
		{"stamp 70 bytes", Params{InputCount: 1, OutputCount: 1, TxType: TxTypeStamp, FileSize: 70, HasWitness: true}, 331},
		{"no inputs no outputs", Params{}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Estimate(tt.p))
		})
	}
}

func TestEstimateMonotonic(t *testing.T) {
	for _, txType := range []TxType{TxTypeSend, TxTypeStamp, TxTypeSRC20} {
		for _, witness := range []bool{true, false} {
			for n := 0; n < 300; n += 7 {
				p := Params{InputCount: n, OutputCount: 2, TxType: txType, FileSize: 100, HasWitness: witness}
				more := p
				more.InputCount++
				assert.Greater(t, Estimate(more), Estimate(p), "%s inputs %d", txType, n)

				more = p
				more.OutputCount++
				assert.Greater(t, Estimate(more), Estimate(p), "%s outputs %d", txType, n)
			}
		}
	}
}

func TestUnknownTypeFallsBackToSend(t *testing.T) {
	p := Params{InputCount: 2, OutputCount: 3, TxType: "mystery", FileSize: 500, HasWitness: true}
	send := p
	send.TxType = TxTypeSend
	assert.Equal(t, Estimate(send), Estimate(p))
	assert.Equal(t, TxTypeSend, ParseTxType("mystery"))
	assert.Equal(t, TxTypeStamp, ParseTxType("stamp"))
}

func TestPayloadGrowsStampAndSRC20(t *testing.T) {
	small := Params{InputCount: 1, OutputCount: 1, TxType: TxTypeSRC20, FileSize: 10, HasWitness: true}
	large := small
	large.FileSize = 1000
	assert.Greater(t, Estimate(large), Estimate(small))

	// stamp 在 src20 的基础上多一个 OP_RETURN 输出
	stamp := small
	stamp.TxType = TxTypeStamp
	assert.Equal(t, Estimate(small)+uint32(8+1+OpReturnScriptLen(StampOpReturnDataSize)), Estimate(stamp))
}

func TestEmptyFileKeepsHeaderOutput(t *testing.T) {
	empty := Params{InputCount: 1, OutputCount: 1, TxType: TxTypeStamp, HasWitness: true}
	oneByte := empty
	oneByte.FileSize = 1
	assert.Equal(t, Estimate(oneByte), Estimate(empty))

	// 空文件仍有一个 P2WSH 输出 (8 + 1 + 34 = 43 vB)
	noPayload := empty
	noPayload.TxType = TxTypeSend
	assert.Equal(t, Estimate(noPayload)+uint32(8+1+OpReturnScriptLen(StampOpReturnDataSize))+43, Estimate(empty))
}

func TestVSizeMixedInputs(t *testing.T) {
	legacyOnly := VSize([]types.ScriptType{types.ScriptP2PKH}, []int{22})
	// a witness input turns on marker/flag and gives the legacy input an empty stack
	mixed := VSize([]types.ScriptType{types.ScriptP2PKH, types.ScriptP2WPKH}, []int{22})

	assert.Equal(t, uint32(10+149+31), legacyOnly)
	assert.Equal(t, uint32(10+149+41+31+(2+1+109+3)/4), mixed)

	taproot := VSize([]types.ScriptType{types.ScriptP2TR}, []int{34})
	assert.Less(t, taproot, VSize([]types.ScriptType{types.ScriptP2WPKH}, []int{34}))
}

func TestNegativeCountsAreTotal(t *testing.T) {
	assert.Equal(t, Estimate(Params{}), Estimate(Params{InputCount: -3, OutputCount: -1, FileSize: -10}))
	assert.Equal(t, 1, PayloadOutputCount(0))
	assert.Equal(t, 1, PayloadOutputCount(-4))
	assert.Equal(t, 1, PayloadOutputCount(30))
	assert.Equal(t, 2, PayloadOutputCount(31))
	assert.Equal(t, 3, PayloadOutputCount(70))
}

func TestOpReturnScriptLen(t *testing.T) {
	assert.Equal(t, 2+20, OpReturnScriptLen(20))
	assert.Equal(t, 3+80, OpReturnScriptLen(80))
	assert.Equal(t, 4+300, OpReturnScriptLen(300))
}
