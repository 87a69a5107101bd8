package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// StepKind tags a progress step of a write operation.
type StepKind string

const (
	StepSent    StepKind = "SENT"
	StepSuccess StepKind = "SUCCESS"
)

// Step is emitted while a write operation progresses. Sent steps carry
// TxHash; success steps carry TransactionID.
type Step struct {
	Kind          StepKind    `json:"key"`
	TxHash        common.Hash `json:"tx_hash,omitempty"`
	TransactionID *big.Int    `json:"transaction_id,omitempty"`
}

// Operation names a write operation kind.
type Operation string

const (
	OperationSubmit  Operation = "submit"
	OperationConfirm Operation = "confirm"
	OperationRevoke  Operation = "revoke"
)
