// Package psbt assembles the unsigned mint transaction: the issuance outputs
// of a base transaction, the CIP33 payload outputs, an optional service fee
// and change, funded by the source address' UTXOs.
package psbt

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stamp-core/internal/provider"
	"stamp-core/internal/service"
	"stamp-core/pkg/address"
	"stamp-core/pkg/cip33"
	"stamp-core/pkg/fee"
	"stamp-core/pkg/logger"
	"stamp-core/pkg/monitor"
	"stamp-core/pkg/txsize"
	"stamp-core/pkg/utxo"
	"stamp-core/pkg/wallet/types"
)

// RBFSequence signals replaceability (BIP125) on every input.
const RBFSequence uint32 = wire.MaxTxInSequenceNum - 2

const (
	RoleBase       = "base"
	RolePayload    = "payload"
	RoleServiceFee = "service_fee"
	RoleChange     = "change"
)

type BuildParams struct {
	PreviousTxHex     string
	SourceAddress     string
	FeeRate           types.SatPerVByte
	ServiceFee        uint64
	ServiceFeeAddress string
	PayloadAddresses  []string
	FileSize          int
}

type Builder struct {
	provider      service.UTXOProvider
	resolver      *address.Resolver
	lookupWorkers int
}

func NewBuilder(p service.UTXOProvider, network *chaincfg.Params, lookupWorkers int) *Builder {
	if lookupWorkers <= 0 {
		lookupWorkers = 4
	}
	return &Builder{
		provider:      p,
		resolver:      address.NewResolver(network),
		lookupWorkers: lookupWorkers,
	}
}

type inputData struct {
	witnessUtxo    *wire.TxOut
	nonWitnessUtxo *wire.MsgTx
}

// Build never returns a partial PSBT: any failure is a *TransactionBuildError.
func (b *Builder) Build(ctx context.Context, p BuildParams) (*types.PSBTData, error) {
	data, err := b.build(ctx, p)
	if err != nil {
		monitor.Business.PSBTBuildsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	monitor.Business.PSBTBuildsTotal.WithLabelValues("ok").Inc()
	return data, nil
}

func (b *Builder) build(ctx context.Context, p BuildParams) (*types.PSBTData, error) {
	fail := func(stage string, err error) error {
		return &TransactionBuildError{Stage: stage, SourceAddress: p.SourceAddress, FeeRate: p.FeeRate, Err: err}
	}

	if err := p.FeeRate.Validate(); err != nil {
		return nil, fail(StageValidate, err)
	}
	sourceScript, err := b.resolver.AddressScript(p.SourceAddress)
	if err != nil {
		return nil, fail(StageValidate, err)
	}
	changeType := address.ClassifyScript(sourceScript)
	if len(p.PayloadAddresses) > 0 && len(p.PayloadAddresses) != cip33.ChunkCount(p.FileSize) {
		return nil, fail(StageValidate, fmt.Errorf("%d payload addresses for a %d byte file, want %d",
			len(p.PayloadAddresses), p.FileSize, cip33.ChunkCount(p.FileSize)))
	}

	// 1. 基础交易: 保留输出，丢弃输入
	base, err := decodeTx(p.PreviousTxHex)
	if err != nil {
		return nil, fail(StageBaseTx, err)
	}

	tx := wire.NewMsgTx(base.Version)
	tx.LockTime = base.LockTime
	roles := make([]string, 0, len(base.TxOut)+len(p.PayloadAddresses)+2)
	for _, out := range base.TxOut {
		// 基础交易自带的找零依赖被丢弃的输入，由本次选币重新计算
		if out.Value > 0 && bytes.Equal(out.PkScript, sourceScript) {
			continue
		}
		tx.AddTxOut(wire.NewTxOut(out.Value, out.PkScript))
		roles = append(roles, RoleBase)
	}

	// 2. 载荷输出，面额逐个递增
	var totalDust uint64
	for i, addr := range p.PayloadAddresses {
		script, err := b.resolver.OutputScript(addr)
		if err != nil {
			return nil, fail(StageOutputs, fmt.Errorf("payload output %d: %w", i, err))
		}
		value := fee.PayloadDust(i)
		totalDust += value
		tx.AddTxOut(wire.NewTxOut(int64(value), script))
		roles = append(roles, RolePayload)
	}

	// 3. 服务费
	if p.ServiceFee > 0 && p.ServiceFeeAddress != "" {
		script, err := b.resolver.AddressScript(p.ServiceFeeAddress)
		if err != nil {
			return nil, fail(StageOutputs, fmt.Errorf("service fee output: %w", err))
		}
		tx.AddTxOut(wire.NewTxOut(int64(p.ServiceFee), script))
		roles = append(roles, RoleServiceFee)
	}

	intents := make([]types.OutputIntent, 0, len(tx.TxOut))
	for _, out := range tx.TxOut {
		intents = append(intents, types.OutputIntent{
			Value:           uint64(out.Value),
			AddressOrScript: hex.EncodeToString(out.PkScript),
			IsWitness:       txscript.IsWitnessProgram(out.PkScript),
		})
	}

	// 4. 选币
	utxos, err := b.provider.FetchUTXOs(ctx, p.SourceAddress)
	if err != nil {
		return nil, fail(StageFetchUTXOs, err)
	}
	selection, err := utxo.NewSelector(b.resolver.Network(), changeType).Select(utxos, intents, p.FeeRate)
	if err != nil {
		return nil, fail(StageSelect, err)
	}
	monitor.Business.SelectedInputs.Observe(float64(len(selection.Inputs)))

	// 5. 找零
	if change, ok := selection.Change.Get(); ok {
		tx.AddTxOut(wire.NewTxOut(int64(change), sourceScript))
		roles = append(roles, RoleChange)
	}

	for _, u := range selection.Inputs {
		hash, err := chainhash.NewHashFromStr(u.TxID)
		if err != nil {
			return nil, fail(StageAssemble, fmt.Errorf("input %s:%d: %w", u.TxID, u.Vout, err))
		}
		in := wire.NewTxIn(wire.NewOutPoint(hash, u.Vout), nil, nil)
		in.Sequence = RBFSequence
		tx.AddTxIn(in)
	}

	// 6. 并发查询前序交易，结果按输入顺序写回
	inputs, err := b.lookupInputs(ctx, selection.Inputs)
	if err != nil {
		return nil, fail(StageLookup, err)
	}

	packet, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, fail(StageAssemble, err)
	}
	for i, in := range inputs {
		packet.Inputs[i].WitnessUtxo = in.witnessUtxo
		packet.Inputs[i].NonWitnessUtxo = in.nonWitnessUtxo
	}
	encoded, err := packet.B64Encode()
	if err != nil {
		return nil, fail(StageAssemble, err)
	}

	var rawTx bytes.Buffer
	if err := tx.SerializeNoWitness(&rawTx); err != nil {
		return nil, fail(StageAssemble, err)
	}

	// 7. 对账
	totalIn := selection.Total()
	var totalOut uint64
	for _, out := range tx.TxOut {
		totalOut += uint64(out.Value)
	}
	if totalIn < totalOut {
		return nil, fail(StageReconcile, fmt.Errorf("inputs %d sat below outputs %d sat", totalIn, totalOut))
	}
	if totalIn != totalOut+selection.Fee {
		monitor.Business.ReconcileMismatch.Inc()
		logger.Error("PSBT 收支不平衡",
			zap.String("source", p.SourceAddress),
			zap.Uint64("inputs", totalIn),
			zap.Uint64("outputs", totalOut),
			zap.Uint64("estimated_fee", selection.Fee),
			zap.Uint64("implied_fee", totalIn-totalOut))
	}

	vsize := b.vsize(selection.Inputs, tx.TxOut)
	if vsize != selection.VSize {
		logger.Warn("PSBT 实际 vsize 与选币估算不一致",
			zap.Uint32("selection", selection.VSize), zap.Uint32("final", vsize))
	}

	return &types.PSBTData{
		UnsignedTransaction: types.UnsignedTransaction{
			PSBT:    encoded,
			TxHex:   hex.EncodeToString(rawTx.Bytes()),
			TxID:    tx.TxHash().String(),
			Inputs:  summarizeInputs(selection.Inputs, inputs),
			Outputs: b.summarizeOutputs(tx.TxOut, roles),
		},
		FeeRateSatVb:      p.FeeRate,
		EstimatedSizeVb:   vsize,
		TotalInputValue:   totalIn,
		TotalOutputValue:  totalOut,
		ChangeValue:       selection.Change.OrZero(),
		TotalDustValue:    totalDust,
		EstimatedMinerFee: selection.Fee,
		ChangeAddress:     p.SourceAddress,
	}, nil
}

func (b *Builder) lookupInputs(ctx context.Context, selected []types.UTXO) ([]inputData, error) {
	results := make([]inputData, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.lookupWorkers)
	for i, u := range selected {
		g.Go(func() error {
			in, err := b.lookup(gctx, u)
			if err != nil {
				return &PreviousTransactionLookupError{TxID: u.TxID, Vout: u.Vout, Err: err}
			}
			results[i] = in
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (b *Builder) lookup(ctx context.Context, u types.UTXO) (inputData, error) {
	raw, err := b.provider.FetchRawTransaction(ctx, u.TxID)
	if err != nil {
		return inputData{}, err
	}
	_, msgTx, err := provider.DecodeRawTransaction(raw.Hex)
	if err != nil {
		return inputData{}, err
	}
	if got := msgTx.TxHash().String(); got != u.TxID {
		return inputData{}, fmt.Errorf("raw transaction hashes to %s", got)
	}
	if int(u.Vout) >= len(msgTx.TxOut) {
		return inputData{}, fmt.Errorf("vout out of range, tx has %d outputs", len(msgTx.TxOut))
	}

	prevOut := msgTx.TxOut[u.Vout]
	if uint64(prevOut.Value) != u.Value {
		return inputData{}, fmt.Errorf("value %d sat does not match utxo value %d sat", prevOut.Value, u.Value)
	}
	if txscript.IsWitnessProgram(prevOut.PkScript) {
		return inputData{witnessUtxo: wire.NewTxOut(prevOut.Value, prevOut.PkScript)}, nil
	}
	return inputData{nonWitnessUtxo: msgTx}, nil
}

func (b *Builder) vsize(inputs []types.UTXO, outs []*wire.TxOut) uint32 {
	inputTypes := make([]types.ScriptType, len(inputs))
	for i, u := range inputs {
		inputTypes[i] = u.ScriptType
	}
	lens := make([]int, len(outs))
	for i, out := range outs {
		lens[i] = len(out.PkScript)
	}
	return txsize.VSize(inputTypes, lens)
}

func summarizeInputs(selected []types.UTXO, data []inputData) []types.TxInput {
	out := make([]types.TxInput, len(selected))
	for i, u := range selected {
		out[i] = types.TxInput{
			TxID:       u.TxID,
			Vout:       u.Vout,
			Value:      u.Value,
			ScriptType: u.ScriptType,
			Witness:    data[i].witnessUtxo != nil,
		}
	}
	return out
}

func (b *Builder) summarizeOutputs(outs []*wire.TxOut, roles []string) []types.TxOutput {
	summary := make([]types.TxOutput, len(outs))
	for i, out := range outs {
		summary[i] = types.TxOutput{
			Value:   uint64(out.Value),
			Script:  hex.EncodeToString(out.PkScript),
			Address: b.resolver.ExtractAddress(out.PkScript),
			Role:    roles[i],
		}
	}
	return summary
}

// decodeTx accepts both serializations; an input-less base transaction is
// ambiguous with the segwit marker and only parses without witness.
func decodeTx(txHex string) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, fmt.Errorf("decode base tx hex: %w", err)
	}
	tx := &wire.MsgTx{}
	err = tx.Deserialize(bytes.NewReader(raw))
	if err == nil {
		return tx, nil
	}
	tx = &wire.MsgTx{}
	if errNoWitness := tx.DeserializeNoWitness(bytes.NewReader(raw)); errNoWitness != nil {
		return nil, errors.Join(err, errNoWitness)
	}
	return tx, nil
}
