package psbt

import (
	"fmt"

	"stamp-core/pkg/wallet/types"
)

// Build stages reported in TransactionBuildError.
const (
	StageValidate   = "validate"
	StageBaseTx     = "base_tx"
	StageOutputs    = "outputs"
	StageFetchUTXOs = "fetch_utxos"
	StageSelect     = "select"
	StageLookup     = "lookup"
	StageAssemble   = "assemble"
	StageReconcile  = "reconcile"
	StageEncode     = "encode_payload"
	StageIssuance   = "issuance"
)

// TransactionBuildError is the only error Build returns. It names the stage
// and carries the source address and fee rate the caller asked for.
type TransactionBuildError struct {
	Stage         string
	SourceAddress string
	FeeRate       types.SatPerVByte
	Err           error
}

func (e *TransactionBuildError) Error() string {
	return fmt.Sprintf("build psbt for %s at %s (%s): %v", e.SourceAddress, e.FeeRate, e.Stage, e.Err)
}

func (e *TransactionBuildError) Unwrap() error { return e.Err }

// PreviousTransactionLookupError means an input's previous output could not be
// resolved.
type PreviousTransactionLookupError struct {
	TxID string
	Vout uint32
	Err  error
}

func (e *PreviousTransactionLookupError) Error() string {
	return fmt.Sprintf("lookup previous output %s:%d: %v", e.TxID, e.Vout, e.Err)
}

func (e *PreviousTransactionLookupError) Unwrap() error { return e.Err }
