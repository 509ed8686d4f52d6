// Package utxo picks inputs for a transaction.
package utxo

import (
	"errors"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg"

	"stamp-core/pkg/address"
	"stamp-core/pkg/fee"
	"stamp-core/pkg/txsize"
	"stamp-core/pkg/wallet/types"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// InsufficientFundsError carries enough context to retry with a lower rate or
// more UTXOs.
type InsufficientFundsError struct {
	Required  uint64 // outputs + fee when every candidate is spent
	Available uint64
	FeeRate   types.SatPerVByte
	Inputs    int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %d sat, have %d sat in %d utxos at %s",
		e.Required, e.Available, e.Inputs, e.FeeRate)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// SelectionResult holds the chosen inputs in spending order.
type SelectionResult struct {
	Inputs []types.UTXO
	Change fee.Amount // None when the leftover was absorbed into the fee
	Fee    uint64
	VSize  uint32
}

// Total is the sum of the selected input values.
func (r *SelectionResult) Total() uint64 {
	var total uint64
	for _, u := range r.Inputs {
		total += u.Value
	}
	return total
}

// Selector funds outputs with a fee-aware largest-first accumulation.
//
// Candidates are ordered by value (largest first), then confirmations (more
// first), then txid and vout ascending, so equal inputs always give the same result.
type Selector struct {
	resolver   *address.Resolver
	changeType types.ScriptType
}

func NewSelector(network *chaincfg.Params, changeType types.ScriptType) *Selector {
	return &Selector{
		resolver:   address.NewResolver(network),
		changeType: changeType,
	}
}

// Select makes exactly one selection attempt.
func (s *Selector) Select(utxos []types.UTXO, outputs []types.OutputIntent, rate types.SatPerVByte) (*SelectionResult, error) {
	if err := rate.Validate(); err != nil {
		return nil, err
	}

	var target uint64
	outputLens := make([]int, 0, len(outputs)+1)
	for _, o := range outputs {
		target += o.Value
		outputLens = append(outputLens, s.scriptLen(o))
	}
	withChangeLens := append(append([]int{}, outputLens...), txsize.OutputScriptLen(s.changeType))

	// 按面额从大到小排序
	candidates := sortCandidates(utxos)

	var (
		selected   []types.UTXO
		inputTypes []types.ScriptType
		total      uint64
	)
	for _, u := range candidates {
		selected = append(selected, u)
		inputTypes = append(inputTypes, u.ScriptType)
		total += u.Value

		// 每加一个输入都重新计算手续费
		vsize := txsize.VSize(inputTypes, outputLens)
		feeNoChange := fee.MiningFee(vsize, rate)
		if total < target+feeNoChange {
			continue
		}

		// 带找零时多一个输出，手续费需重新计算
		changeVSize := txsize.VSize(inputTypes, withChangeLens)
		feeWithChange := fee.MiningFee(changeVSize, rate)
		if total >= target+feeWithChange {
			if change := total - target - feeWithChange; change >= fee.DustThreshold(s.changeType) {
				return &SelectionResult{
					Inputs: selected,
					Change: fee.Some(change),
					Fee:    feeWithChange,
					VSize:  changeVSize,
				}, nil
			}
		}

		// 剩余不足粉尘阈值: 不建找零，差额归矿工
		return &SelectionResult{
			Inputs: selected,
			Change: fee.None(),
			Fee:    total - target,
			VSize:  vsize,
		}, nil
	}

	return nil, &InsufficientFundsError{
		Required:  target + fee.MiningFee(txsize.VSize(inputTypes, outputLens), rate),
		Available: total,
		FeeRate:   rate,
		Inputs:    len(candidates),
	}
}

func (s *Selector) scriptLen(o types.OutputIntent) int {
	if script, err := s.resolver.OutputScript(o.AddressOrScript); err == nil {
		return len(script)
	}
	if o.IsWitness {
		return txsize.OutputScriptLen(types.ScriptP2WPKH)
	}
	return txsize.OutputScriptLen(types.ScriptP2PKH)
}

func sortCandidates(utxos []types.UTXO) []types.UTXO {
	candidates := make([]types.UTXO, 0, len(utxos))
	for _, u := range utxos {
		if u.Value > 0 {
			candidates = append(candidates, u)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		if a.Confirmations != b.Confirmations {
			return a.Confirmations > b.Confirmations
		}
		if a.TxID != b.TxID {
			return a.TxID < b.TxID
		}
		return a.Vout < b.Vout
	})
	return candidates
}
